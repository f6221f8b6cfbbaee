package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"posterforge/config"
	"posterforge/handlers"
	"posterforge/services/badges"
	"posterforge/services/jobs"
	"posterforge/store"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("posterforge starting...")

	configPath := os.Getenv("POSTERFORGE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Pick the persistence collaborator: remote badge server or local files
	var resourceStore store.ResourceStore
	if strings.TrimSpace(settings.Remote.BaseURL) != "" {
		resourceStore = store.NewHTTPStore(settings.Remote.BaseURL, nil)
		log.Printf("[main] persisting settings to %s", settings.Remote.BaseURL)
	} else {
		fileStore, err := store.NewFileStore(afero.NewOsFs(), settings.Storage.Directory)
		if err != nil {
			log.Fatalf("failed to create resource store: %v", err)
		}
		resourceStore = fileStore
		log.Printf("[main] persisting settings under %s", settings.Storage.Directory)
	}

	badgesService, err := badges.NewService(resourceStore, time.Duration(settings.Sessions.IdleTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("failed to create badges service: %v", err)
	}

	if dir := filepath.Dir(settings.Storage.JobHistoryPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create job history dir: %v", err)
		}
	}
	jobsService, err := jobs.NewService(settings.Storage.JobHistoryPath)
	if err != nil {
		log.Fatalf("failed to create jobs service: %v", err)
	}
	defer jobsService.Close()

	// Construct router and register API routes
	r := mux.NewRouter()

	settingsHandler := handlers.NewSettingsHandler(badgesService)
	r.HandleFunc("/api/sessions", settingsHandler.OpenSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", settingsHandler.GetSession).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", settingsHandler.CloseSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/save", settingsHandler.SaveSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/fields", settingsHandler.UpdateField).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/sources/order", settingsHandler.ReorderSources).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/sources/{sourceId}", settingsHandler.ToggleSource).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/mappings", settingsHandler.AddMappingEntry).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/mappings/{key}", settingsHandler.RenameMappingEntry).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/mappings/{key}", settingsHandler.RemoveMappingEntry).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/tuning", settingsHandler.SetTuningField).Methods(http.MethodPut)

	jobsHandler := handlers.NewJobsHandler(jobsService, badgesService)
	r.HandleFunc("/api/jobs/events", jobsHandler.ReportEvent).Methods(http.MethodPost)
	r.HandleFunc("/api/jobs/history", jobsHandler.History).Methods(http.MethodGet)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	})

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	wg.Wait()

	log.Println("Shutdown complete")
}

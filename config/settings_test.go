package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if s.Server.Port != 7979 {
		t.Fatalf("expected default port, got %d", s.Server.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	partial := map[string]any{
		"server": map[string]any{"port": 9000},
	}
	data, _ := json.Marshal(partial)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	s, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if s.Server.Port != 9000 {
		t.Fatalf("expected persisted port to win, got %d", s.Server.Port)
	}
	if s.Server.Host == "" || s.Storage.Directory == "" || s.Log.File == "" {
		t.Fatalf("expected backfilled defaults, got %+v", s)
	}
	if s.Sessions.IdleTTLMinutes != 30 {
		t.Fatalf("expected backfilled session TTL, got %d", s.Sessions.IdleTTLMinutes)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	m := NewManager(path)

	s := DefaultSettings()
	s.Remote.BaseURL = "http://badge-server:9292"
	if err := m.Save(s); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if loaded.Remote.BaseURL != "http://badge-server:9292" {
		t.Fatalf("unexpected loaded settings: %+v", loaded)
	}
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"posterforge/handlers"
	"posterforge/models"
	"posterforge/services/jobs"
)

func newJobsRouter(t *testing.T) *mux.Router {
	t.Helper()
	svc, err := jobs.NewService(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("failed to create jobs service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	h := handlers.NewJobsHandler(svc, nil)
	r := mux.NewRouter()
	r.HandleFunc("/api/jobs/events", h.ReportEvent).Methods(http.MethodPost)
	r.HandleFunc("/api/jobs/history", h.History).Methods(http.MethodGet)
	return r
}

func TestReportEventAndHistory(t *testing.T) {
	r := newJobsRouter(t)

	body, _ := json.Marshal(map[string]string{
		"jobName": "review-badges",
		"status":  "succeeded",
		"detail":  "142 posters badged",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("report status = %d, body %s", rec.Code, rec.Body.String())
	}
	var ev models.JobEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("unreadable event response: %v", err)
	}
	if ev.ID == "" || ev.Status != models.JobStatusSucceeded {
		t.Fatalf("unexpected event: %+v", ev)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/history?limit=10", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var resp struct {
		Events []models.JobEvent `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unreadable history response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].JobName != "review-badges" {
		t.Fatalf("unexpected history: %+v", resp.Events)
	}
}

func TestReportEventRejectsBadStatus(t *testing.T) {
	r := newJobsRouter(t)

	body, _ := json.Marshal(map[string]string{"jobName": "x", "status": "exploded"})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

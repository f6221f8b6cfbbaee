package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"posterforge/models"
	"posterforge/services/badges"
	"posterforge/services/jobs"
)

// JobsHandler records badge job status events and serves the history view.
type JobsHandler struct {
	Jobs   *jobs.Service
	Badges *badges.Service
}

func NewJobsHandler(j *jobs.Service, b *badges.Service) *JobsHandler {
	return &JobsHandler{Jobs: j, Badges: b}
}

// ReportEvent ingests one status event from the badge job runner and
// forwards it to open editing sessions.
func (h *JobsHandler) ReportEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobName string `json:"jobName"`
		Status  string `json:"status"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ev, err := h.Jobs.Record(r.Context(), models.JobEvent{
		JobName: req.JobName,
		Status:  models.JobStatus(req.Status),
		Detail:  req.Detail,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, jobs.ErrJobNameRequired) || errors.Is(err, jobs.ErrInvalidStatus) {
			status = http.StatusBadRequest
		}
		writeJSONError(w, err.Error(), status)
		return
	}

	log.Printf("[jobs] %s reported %s", ev.JobName, ev.Status)
	if h.Badges != nil {
		h.Badges.HandleJobEvent(r.Context(), ev)
	}

	writeJSON(w, http.StatusCreated, ev)
}

// History returns recent job events, newest first.
func (h *JobsHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.Jobs.List(r.Context(), limit)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

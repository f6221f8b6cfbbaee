package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"posterforge/badge"
	"posterforge/models"
	"posterforge/services/badges"
)

// SettingsHandler exposes the per-session settings façade over HTTP.
type SettingsHandler struct {
	Badges *badges.Service
}

func NewSettingsHandler(b *badges.Service) *SettingsHandler {
	return &SettingsHandler{Badges: b}
}

// sessionState is the snapshot returned after every session operation so the
// dashboard can re-render without extra round trips.
type sessionState struct {
	SessionID string             `json:"sessionId"`
	Domain    badge.Domain       `json:"domain"`
	Dirty     bool               `json:"dirty"`
	Sources   []models.Source    `json:"sources"`
	Settings  badge.Document     `json:"settings"`
	Tuning    badge.SourceTuning `json:"tuning"`
	Notices   []models.Notice    `json:"notices"`
}

func snapshot(id string, s *badge.Session) sessionState {
	notices := s.Notices()
	if notices == nil {
		notices = []models.Notice{}
	}
	return sessionState{
		SessionID: id,
		Domain:    s.Domain(),
		Dirty:     s.Dirty(),
		Sources:   s.Sources(),
		Settings:  s.Document(),
		Tuning:    s.Tuning(),
		Notices:   notices,
	}
}

// OpenSession starts an editing session for a badge domain and returns the
// loaded state.
func (h *SettingsHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	domain, err := badge.ParseDomain(req.Domain)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Badges.Open(r.Context(), domain)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.respondWithState(w, id, http.StatusCreated)
}

// GetSession returns the current state of a session.
func (h *SettingsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respondWithState(w, mux.Vars(r)["id"], http.StatusOK)
}

// SaveSession performs the batched save of the main settings document.
func (h *SettingsHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.Badges.With(id, func(s *badge.Session) error {
		return s.Save(r.Context())
	})
	h.respondAfterMutation(w, id, err)
}

// CloseSession discards a session without saving.
func (h *SettingsHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.Badges.Close(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// UpdateField stages one field edit in the main document.
func (h *SettingsHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Section string `json:"section"`
		Key     string `json:"key"`
		Value   any    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Section == "" || req.Key == "" {
		writeJSONError(w, "section and key are required", http.StatusBadRequest)
		return
	}

	err := h.Badges.With(id, func(s *badge.Session) error {
		s.UpdateField(req.Section, req.Key, req.Value)
		return nil
	})
	h.respondAfterMutation(w, id, err)
}

// ToggleSource flips one source's enabled flag.
func (h *SettingsHandler) ToggleSource(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	sourceID, err := strconv.Atoi(vars["sourceId"])
	if err != nil {
		writeJSONError(w, "invalid source id", http.StatusBadRequest)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err = h.Badges.With(id, func(s *badge.Session) error {
		return s.ToggleSource(sourceID, req.Enabled)
	})
	h.respondAfterMutation(w, id, err)
}

// ReorderSources replaces the source order with the posted id sequence.
func (h *SettingsHandler) ReorderSources(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Order []int `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.Badges.With(id, func(s *badge.Session) error {
		return s.ReorderSources(req.Order)
	})
	h.respondAfterMutation(w, id, err)
}

// AddMappingEntry stages a new image mapping entry.
func (h *SettingsHandler) AddMappingEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		writeJSONError(w, "key is required", http.StatusBadRequest)
		return
	}

	err := h.Badges.With(id, func(s *badge.Session) error {
		return s.AddMappingEntry(req.Key, req.Value)
	})
	h.respondAfterMutation(w, id, err)
}

// RenameMappingEntry renames an image mapping key, keeping its value.
func (h *SettingsHandler) RenameMappingEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	var req struct {
		NewKey string `json:"newKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.NewKey == "" {
		writeJSONError(w, "newKey is required", http.StatusBadRequest)
		return
	}

	err := h.Badges.With(id, func(s *badge.Session) error {
		return s.RenameMappingEntry(vars["key"], req.NewKey)
	})
	h.respondAfterMutation(w, id, err)
}

// RemoveMappingEntry deletes an image mapping entry.
func (h *SettingsHandler) RemoveMappingEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	err := h.Badges.With(id, func(s *badge.Session) error {
		return s.RemoveMappingEntry(vars["key"])
	})
	h.respondAfterMutation(w, id, err)
}

// SetTuningField updates one source-tuning field with write-through
// persistence.
func (h *SettingsHandler) SetTuningField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Field == "" {
		writeJSONError(w, "field is required", http.StatusBadRequest)
		return
	}

	err := h.Badges.With(id, func(s *badge.Session) error {
		return s.SetTuningField(r.Context(), req.Field, req.Value)
	})
	h.respondAfterMutation(w, id, err)
}

// respondAfterMutation maps session errors to status codes and otherwise
// returns the refreshed session state. Persistence failures still return the
// state: the in-memory edits survive and the notices explain what happened.
func (h *SettingsHandler) respondAfterMutation(w http.ResponseWriter, id string, err error) {
	switch {
	case err == nil:
		h.respondWithState(w, id, http.StatusOK)
	case errors.Is(err, badges.ErrUnknownSession):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, badge.ErrUnknownSource),
		errors.Is(err, badge.ErrBadOrder),
		errors.Is(err, badge.ErrUnknownMappingKey),
		errors.Is(err, badge.ErrMappingKeyExists),
		errors.Is(err, badge.ErrUnknownTuningField):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *SettingsHandler) respondWithState(w http.ResponseWriter, id string, status int) {
	var state sessionState
	err := h.Badges.With(id, func(s *badge.Session) error {
		state = snapshot(id, s)
		return nil
	})
	if errors.Is(err, badges.ErrUnknownSession) {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, status, state)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

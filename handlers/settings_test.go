package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"posterforge/badge"
	"posterforge/handlers"
	"posterforge/models"
	"posterforge/services/badges"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]json.RawMessage)}
}

func (m *memStore) Get(ctx context.Context, resource string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[resource], nil
}

func (m *memStore) Put(ctx context.Context, resource string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[resource] = data
	return nil
}

type testEnv struct {
	router *mux.Router
	store  *memStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newMemStore()
	svc, err := badges.NewService(st, time.Minute)
	if err != nil {
		t.Fatalf("failed to create badges service: %v", err)
	}

	h := handlers.NewSettingsHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/api/sessions", h.OpenSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", h.GetSession).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", h.CloseSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/save", h.SaveSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/fields", h.UpdateField).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/sources/order", h.ReorderSources).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/sources/{sourceId}", h.ToggleSource).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/mappings", h.AddMappingEntry).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/mappings/{key}", h.RenameMappingEntry).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/mappings/{key}", h.RemoveMappingEntry).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/tuning", h.SetTuningField).Methods(http.MethodPut)

	return &testEnv{router: r, store: st}
}

type stateResponse struct {
	SessionID string                    `json:"sessionId"`
	Domain    string                    `json:"domain"`
	Dirty     bool                      `json:"dirty"`
	Sources   []models.Source           `json:"sources"`
	Settings  map[string]map[string]any `json:"settings"`
	Tuning    badge.SourceTuning        `json:"tuning"`
	Notices   []models.Notice           `json:"notices"`
}

func (env *testEnv) do(t *testing.T, method, path string, body any, wantStatus int) stateResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		t.Fatalf("%s %s: status %d, want %d (body %s)", method, path, rec.Code, wantStatus, rec.Body.String())
	}
	if rec.Code == http.StatusNoContent {
		return stateResponse{}
	}

	var state stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("%s %s: unreadable response %s: %v", method, path, rec.Body.String(), err)
	}
	return state
}

func TestSessionEditFlow(t *testing.T) {
	env := newTestEnv(t)

	state := env.do(t, http.MethodPost, "/api/sessions", map[string]string{"domain": "review"}, http.StatusCreated)
	if state.SessionID == "" || state.Domain != "review" || state.Dirty {
		t.Fatalf("unexpected open response: %+v", state)
	}
	base := "/api/sessions/" + state.SessionID

	var malID, imdbID int
	for _, src := range state.Sources {
		switch src.Name {
		case "MyAnimeList":
			malID = src.ID
		case "IMDb":
			imdbID = src.ID
		}
	}

	// Toggle, reorder and edit one field; everything stays in memory.
	state = env.do(t, http.MethodPut, fmt.Sprintf("%s/sources/%d", base, malID), map[string]bool{"enabled": true}, http.StatusOK)
	if !state.Dirty {
		t.Fatal("expected dirty session after toggle")
	}

	ids := []int{malID, imdbID}
	for _, src := range state.Sources {
		if src.ID != malID && src.ID != imdbID {
			ids = append(ids, src.ID)
		}
	}
	state = env.do(t, http.MethodPut, base+"/sources/order", map[string]any{"order": ids}, http.StatusOK)
	if state.Sources[0].Name != "MyAnimeList" || state.Sources[0].Priority != 1 {
		t.Fatalf("unexpected order after reorder: %+v", state.Sources[0])
	}

	env.do(t, http.MethodPut, base+"/fields", map[string]any{"section": "Text", "key": "font_size", "value": 72}, http.StatusOK)

	if _, written := env.store.docs[badge.MainResource(badge.DomainReview)]; written {
		t.Fatal("batched edits must not persist before save")
	}

	state = env.do(t, http.MethodPost, base+"/save", nil, http.StatusOK)
	if state.Dirty {
		t.Fatal("expected clean session after save")
	}

	raw := env.store.docs[badge.MainResource(badge.DomainReview)]
	var doc map[string]map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("persisted document unreadable: %v", err)
	}
	order, _ := doc["Sources"]["priorityOrder"].([]any)
	if len(order) == 0 || order[0] != "myanimelist" || order[1] != "imdb" {
		t.Fatalf("unexpected persisted priorityOrder: %v", order)
	}
	if doc["Sources"]["enable_myanimelist"] != true {
		t.Fatal("toggle missing from persisted document")
	}
	if doc["Text"]["font_size"] != float64(72) {
		t.Fatal("field edit missing from persisted document")
	}

	env.do(t, http.MethodDelete, base, nil, http.StatusNoContent)
	env.do(t, http.MethodGet, base, nil, http.StatusNotFound)
}

func TestTuningEndpointWritesThrough(t *testing.T) {
	env := newTestEnv(t)

	state := env.do(t, http.MethodPost, "/api/sessions", map[string]string{"domain": "resolution"}, http.StatusCreated)
	base := "/api/sessions/" + state.SessionID

	state = env.do(t, http.MethodPut, base+"/tuning", map[string]any{"field": "maxBadges", "value": 2}, http.StatusOK)
	if state.Tuning.MaxBadges != 2 {
		t.Fatalf("expected maxBadges 2, got %+v", state.Tuning)
	}
	if state.Dirty {
		t.Fatal("tuning writes must not mark the main document dirty")
	}

	if _, written := env.store.docs[badge.TuningResource(badge.DomainResolution)]; !written {
		t.Fatal("tuning change must write through immediately")
	}

	env.do(t, http.MethodPut, base+"/tuning", map[string]any{"field": "bogus", "value": 1}, http.StatusBadRequest)
}

func TestMappingEndpoints(t *testing.T) {
	env := newTestEnv(t)

	state := env.do(t, http.MethodPost, "/api/sessions", map[string]string{"domain": "review"}, http.StatusCreated)
	base := "/api/sessions/" + state.SessionID

	state = env.do(t, http.MethodPost, base+"/mappings", map[string]any{"key": "letterboxd", "value": "rating/letterboxd.png"}, http.StatusOK)
	if state.Settings["ImageMapping"]["letterboxd"] != "rating/letterboxd.png" {
		t.Fatalf("mapping entry missing: %v", state.Settings["ImageMapping"])
	}

	state = env.do(t, http.MethodPut, base+"/mappings/letterboxd", map[string]string{"newKey": "boxd"}, http.StatusOK)
	if state.Settings["ImageMapping"]["boxd"] != "rating/letterboxd.png" {
		t.Fatalf("rename lost value: %v", state.Settings["ImageMapping"])
	}

	state = env.do(t, http.MethodDelete, base+"/mappings/boxd", nil, http.StatusOK)
	if _, exists := state.Settings["ImageMapping"]["boxd"]; exists {
		t.Fatal("expected mapping entry removed")
	}

	env.do(t, http.MethodDelete, base+"/mappings/boxd", nil, http.StatusBadRequest)
}

func TestOpenSessionRejectsUnknownDomain(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/sessions", map[string]string{"domain": "poster"}, http.StatusBadRequest)
}

func TestOperationsOnUnknownSessionReturn404(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/sessions/nope/save", nil, http.StatusNotFound)
	env.do(t, http.MethodPut, "/api/sessions/nope/fields", map[string]any{"section": "Text", "key": "font_size", "value": 1}, http.StatusNotFound)
}

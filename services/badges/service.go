package badges

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"posterforge/badge"
	"posterforge/models"
	"posterforge/store"
)

var (
	ErrStoreRequired  = errors.New("resource store not provided")
	ErrUnknownSession = errors.New("unknown or expired session")
)

// DefaultIdleTTL is how long an editing session may sit untouched before it
// is discarded.
const DefaultIdleTTL = 30 * time.Minute

// Service owns the editing sessions the dashboard operates on. Each session
// wraps one badge.Session; all access to a session goes through the service
// so the single-editor execution model holds per session.
type Service struct {
	mu       sync.Mutex
	store    store.ResourceStore
	idleTTL  time.Duration
	sessions map[string]*entry
}

type entry struct {
	session  *badge.Session
	lastUsed time.Time
}

// NewService creates the session registry. A non-positive idleTTL falls back
// to DefaultIdleTTL.
func NewService(st store.ResourceStore, idleTTL time.Duration) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Service{
		store:    st,
		idleTTL:  idleTTL,
		sessions: make(map[string]*entry),
	}, nil
}

// Open creates and loads a new editing session for a domain, returning its
// id. Session state is read through With.
func (s *Service) Open(ctx context.Context, domain badge.Domain) (string, error) {
	session, err := badge.NewSession(domain, s.store)
	if err != nil {
		return "", err
	}
	if err := session.Load(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictStaleLocked()
	s.sessions[id] = &entry{session: session, lastUsed: time.Now()}
	log.Printf("[badges] opened %s session %s", domain, id)
	return id, nil
}

// With runs fn against the identified session while holding the registry
// lock, so session operations never interleave.
func (s *Service) With(id string, fn func(*badge.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictStaleLocked()

	e, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	e.lastUsed = time.Now()
	return fn(e.session)
}

// Close discards a session. Closing an unknown id is not an error.
func (s *Service) Close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		log.Printf("[badges] closed session %s", id)
	}
}

// HandleJobEvent forwards a job status event to every open session.
func (s *Service) HandleJobEvent(ctx context.Context, ev models.JobEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if err := e.session.HandleJobStatus(ctx, ev.Status); err != nil {
			log.Printf("[badges] session %s reload after job %s failed: %v", id, ev.JobName, err)
		}
	}
}

// evictStaleLocked drops sessions idle past the TTL. Must be called with
// s.mu held.
func (s *Service) evictStaleLocked() {
	cutoff := time.Now().Add(-s.idleTTL)
	for id, e := range s.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			log.Printf("[badges] expired idle session %s", id)
		}
	}
}

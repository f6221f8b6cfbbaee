package badge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"posterforge/models"
	"posterforge/store"
)

var (
	ErrStoreRequired     = errors.New("resource store not provided")
	ErrUnknownSource     = errors.New("unknown source id")
	ErrBadOrder          = errors.New("order must be a permutation of current source ids")
	ErrUnknownMappingKey = errors.New("unknown mapping key")
	ErrMappingKeyExists  = errors.New("mapping key already exists")
)

// Session is the settings façade for one editing session of one badge
// domain. It owns its copy of the settings document and the source list;
// nothing is shared across sessions and there is no package-level state.
//
// Main-document mutations (field edits, toggles, reorders, mapping entries)
// are batched: they only touch in-memory state until Save writes the whole
// document. Tuning mutations write through immediately to their own
// resource.
//
// Sessions are driven by one UI callback at a time and are not safe for
// concurrent use; the registry in services/badges serializes access.
type Session struct {
	domain         Domain
	store          store.ResourceStore
	resource       string
	tuningResource string

	doc     Document
	sources []models.Source
	tuning  SourceTuning
	dirty   bool
	loadGen uint64

	notices []models.Notice
}

// MainResource returns the persisted resource name for a domain's main
// settings document.
func MainResource(domain Domain) string {
	return fmt.Sprintf("badge-settings-%s", domain)
}

// TuningResource returns the persisted resource name for a domain's
// source-tuning document.
func TuningResource(domain Domain) string {
	return fmt.Sprintf("badge-tuning-%s", domain)
}

// NewSession creates an unloaded session seeded from the default catalog.
// Callers normally follow up with Load.
func NewSession(domain Domain, st store.ResourceStore) (*Session, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if _, err := ParseDomain(string(domain)); err != nil {
		return nil, err
	}
	return &Session{
		domain:         domain,
		store:          st,
		resource:       MainResource(domain),
		tuningResource: TuningResource(domain),
		doc:            DefaultDocument(domain),
		sources:        DefaultSources(domain),
		tuning:         DefaultTuning(domain),
	}, nil
}

// Load fetches both persisted documents, merges them over defaults and
// reconciles the source list from the merged bag. Fetch and decode failures
// are recoverable: the session falls back to defaults and raises a notice.
// If Load is called again while a previous fetch is still outstanding, the
// later call's results win.
func (s *Session) Load(ctx context.Context) error {
	s.loadGen++
	gen := s.loadGen

	raw, err := s.store.Get(ctx, s.resource)
	doc := DefaultDocument(s.domain)
	if err != nil {
		log.Printf("[badge] load %s failed, using defaults: %v", s.resource, err)
		s.notify(models.NoticeWarning, fmt.Sprintf("Could not load %s badge settings; defaults restored.", s.domain))
	} else {
		merged, mergeErr := MergeWithDefaults(raw, s.domain)
		if mergeErr != nil {
			log.Printf("[badge] merge %s failed, using defaults: %v", s.resource, mergeErr)
			s.notify(models.NoticeWarning, fmt.Sprintf("Stored %s badge settings were unreadable; defaults restored.", s.domain))
		}
		doc = merged
	}

	sources := SyncFromBag(DefaultSources(s.domain), doc[SectionSources])

	rawTuning, err := s.store.Get(ctx, s.tuningResource)
	tuning := DefaultTuning(s.domain)
	if err != nil {
		log.Printf("[badge] load %s failed, using defaults: %v", s.tuningResource, err)
		s.notify(models.NoticeWarning, fmt.Sprintf("Could not load %s source tuning; defaults restored.", s.domain))
	} else {
		decoded, decodeErr := decodeTuning(rawTuning, s.domain)
		if decodeErr != nil {
			log.Printf("[badge] decode %s failed, using defaults: %v", s.tuningResource, decodeErr)
			s.notify(models.NoticeWarning, fmt.Sprintf("Stored %s source tuning was unreadable; defaults restored.", s.domain))
		}
		tuning = decoded
	}

	if gen != s.loadGen {
		// A newer Load finished first; discard this response.
		return nil
	}

	s.doc = doc
	s.sources = sources
	s.tuning = tuning
	s.dirty = false
	return nil
}

// Save rebuilds the Sources bag from the source list and writes the whole
// main document in one request. On success the in-memory document becomes
// exactly what was written; on failure every pending edit is retained.
func (s *Session) Save(ctx context.Context) error {
	doc := s.doc.Clone()
	doc[SectionSources] = SyncToBag(s.sources, s.doc[SectionSources])

	if err := s.store.Put(ctx, s.resource, doc); err != nil {
		log.Printf("[badge] save %s failed: %v", s.resource, err)
		s.notify(models.NoticeError, fmt.Sprintf("Saving %s badge settings failed; your edits are still here.", s.domain))
		return fmt.Errorf("save %s: %w", s.resource, err)
	}

	s.doc = doc
	s.dirty = false
	return nil
}

// UpdateField stages one field edit in the main document.
func (s *Session) UpdateField(section, key string, value any) {
	s.doc.Section(section)[key] = value
	s.dirty = true
}

// ToggleSource flips one source's enabled flag and writes just that source's
// enable key into the bag, leaving priorityOrder untouched. The change is
// included in the next Save.
func (s *Session) ToggleSource(id int, enabled bool) error {
	idx := s.sourceIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}
	s.sources[idx].Enabled = enabled
	s.doc[SectionSources] = ApplyToggle(s.doc[SectionSources], s.sources[idx])
	s.dirty = true
	return nil
}

// ReorderSources replaces the source order with the given id sequence, which
// must be a permutation of the current ids. Priority and DisplayOrder are
// renumbered to the 1-based list position and the bag's priorityOrder is
// fully rebuilt.
func (s *Session) ReorderSources(ids []int) error {
	if len(ids) != len(s.sources) {
		return ErrBadOrder
	}
	byID := make(map[int]models.Source, len(s.sources))
	for _, src := range s.sources {
		byID[src.ID] = src
	}

	reordered := make([]models.Source, 0, len(ids))
	for _, id := range ids {
		src, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrBadOrder, id)
		}
		delete(byID, id)
		src.Priority = len(reordered) + 1
		src.DisplayOrder = src.Priority
		reordered = append(reordered, src)
	}

	s.sources = reordered
	s.doc[SectionSources] = SyncToBag(s.sources, s.doc[SectionSources])
	s.dirty = true
	return nil
}

// AddMappingEntry stages a new image-to-label mapping entry.
func (s *Session) AddMappingEntry(key string, value any) error {
	mapping := s.doc.Section(SectionImageMapping)
	if _, exists := mapping[key]; exists {
		return fmt.Errorf("%w: %q", ErrMappingKeyExists, key)
	}
	mapping[key] = value
	s.dirty = true
	return nil
}

// RemoveMappingEntry stages removal of a mapping entry.
func (s *Session) RemoveMappingEntry(key string) error {
	mapping := s.doc.Section(SectionImageMapping)
	if _, exists := mapping[key]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownMappingKey, key)
	}
	delete(mapping, key)
	s.dirty = true
	return nil
}

// RenameMappingEntry stages a key rename, keeping the entry's value.
func (s *Session) RenameMappingEntry(oldKey, newKey string) error {
	mapping := s.doc.Section(SectionImageMapping)
	value, exists := mapping[oldKey]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownMappingKey, oldKey)
	}
	if oldKey == newKey {
		return nil
	}
	if _, exists := mapping[newKey]; exists {
		return fmt.Errorf("%w: %q", ErrMappingKeyExists, newKey)
	}
	mapping[newKey] = value
	delete(mapping, oldKey)
	s.dirty = true
	return nil
}

// SetTuningField updates one tuning field and immediately writes the whole
// tuning document through to its resource. A failed write keeps the
// in-memory change and raises a notice; the two copies may diverge until the
// next successful write.
func (s *Session) SetTuningField(ctx context.Context, field string, value any) error {
	if err := s.tuning.setField(field, value); err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.tuningResource, s.tuning); err != nil {
		log.Printf("[badge] write-through %s failed: %v", s.tuningResource, err)
		s.notify(models.NoticeError, fmt.Sprintf("Saving %s source tuning failed; the change is applied locally only.", s.domain))
		return fmt.Errorf("write %s: %w", s.tuningResource, err)
	}
	return nil
}

// HandleJobStatus reacts to a badge job status event. A succeeded run may
// have normalized the persisted documents server-side, so a clean session
// reloads; a session with unsaved edits is left alone.
func (s *Session) HandleJobStatus(ctx context.Context, status models.JobStatus) error {
	if status != models.JobStatusSucceeded || s.dirty {
		return nil
	}
	log.Printf("[badge] job succeeded, reloading %s session", s.domain)
	return s.Load(ctx)
}

// Domain returns the session's badge domain.
func (s *Session) Domain() Domain { return s.domain }

// Dirty reports whether the main document has edits pending a Save.
func (s *Session) Dirty() bool { return s.dirty }

// Sources returns a copy of the current source list in priority order.
func (s *Session) Sources() []models.Source {
	out := models.CloneSources(s.sources)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Priority < out[b].Priority })
	return out
}

// Document returns an independent copy of the current main document.
func (s *Session) Document() Document { return s.doc.Clone() }

// Tuning returns the current source-tuning document.
func (s *Session) Tuning() SourceTuning { return s.tuning }

// Notices drains and returns the accumulated user-visible notices.
func (s *Session) Notices() []models.Notice {
	out := s.notices
	s.notices = nil
	return out
}

func (s *Session) notify(level models.NoticeLevel, message string) {
	s.notices = append(s.notices, models.Notice{Level: level, Message: message})
}

func (s *Session) sourceIndex(id int) int {
	for i := range s.sources {
		if s.sources[i].ID == id {
			return i
		}
	}
	return -1
}

// Package fallback implements the local journal tier: journals whose writes
// could not be committed to the remote document store land here and never
// migrate back on their own.
package fallback

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/kv"
	"github.com/inkwell-app/inkwell/internal/model"
)

// Store keeps the whole fallback tier as one serialized list under a single
// well-known key. Every operation is a read-modify-write of the full blob;
// fine for a single-user client cache, not for high write volume.
type Store struct {
	mu sync.Mutex
	kv *kv.Store
}

func New(kvs *kv.Store) *Store {
	return &Store{kv: kvs}
}

// NewID returns a fresh identifier in the fallback namespace.
func NewID() string {
	return model.FallbackIDPrefix + uuid.New().String()
}

func (s *Store) load() []model.Journal {
	var list []model.Journal
	s.kv.Get(kv.KeyFallbackJournals, &list)
	// Presence in this blob is what makes a journal fallback-tier; a
	// downgraded journal keeps its remote-namespace id but lives here now.
	for i := range list {
		list[i].Ref = model.TierFallback
	}
	return list
}

func (s *Store) save(list []model.Journal) error {
	return s.kv.Put(kv.KeyFallbackJournals, list)
}

// Upsert inserts rec if its id is unseen, otherwise replaces the stored copy
// in place. Either way the stored record gets a fresh update stamp.
func (s *Store) Upsert(rec model.Journal) (model.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = rec.Clone()
	rec.UpdatedAt = time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	list := s.load()
	replaced := false
	for i := range list {
		if list[i].ID == rec.ID {
			list[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, rec)
	}
	return rec, s.save(list)
}

// ListByOwner returns the stored journals belonging to ownerID. Order is
// whatever the blob holds; callers sort for display.
func (s *Store) ListByOwner(ownerID string) []model.Journal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Journal
	for _, j := range s.load() {
		if j.UserID == ownerID {
			out = append(out, j.Clone())
		}
	}
	return out
}

// All returns every stored journal regardless of owner.
func (s *Store) All() []model.Journal {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	out := make([]model.Journal, 0, len(list))
	for _, j := range list {
		out = append(out, j.Clone())
	}
	return out
}

// Get returns the stored journal with the given id.
func (s *Store) Get(id string) (model.Journal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.load() {
		if j.ID == id {
			return j.Clone(), true
		}
	}
	return model.Journal{}, false
}

// Remove deletes the journal with the given id. Removing an absent id is a
// no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	out := list[:0]
	for _, j := range list {
		if j.ID != id {
			out = append(out, j)
		}
	}
	if len(out) == len(list) {
		return nil
	}
	return s.save(out)
}

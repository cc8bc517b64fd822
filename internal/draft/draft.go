// Package draft persists the single in-progress journal draft so an
// interrupted session can resume composing.
package draft

import (
	"time"

	"github.com/inkwell-app/inkwell/internal/kv"
	"github.com/inkwell-app/inkwell/internal/model"
)

// Store holds at most one draft at a time; a save replaces the previous one.
type Store struct {
	kv *kv.Store
}

func New(kvs *kv.Store) *Store {
	return &Store{kv: kvs}
}

// Save stores the draft with a fresh timestamp. tags is the raw
// comma-separated form input, kept unsplit until submit.
func (s *Store) Save(title, content, tags string) error {
	return s.kv.Put(kv.KeyDraft, model.Draft{
		Title:   title,
		Content: content,
		Tags:    tags,
		SavedAt: time.Now(),
	})
}

// Load returns the stored draft. An expired draft is discarded and reported
// as absent, same as a missing or unreadable one.
func (s *Store) Load() (model.Draft, bool) {
	var d model.Draft
	if !s.kv.Get(kv.KeyDraft, &d) {
		return model.Draft{}, false
	}
	if d.Expired(time.Now()) {
		_ = s.kv.Delete(kv.KeyDraft)
		return model.Draft{}, false
	}
	return d, true
}

// Discard removes the stored draft. Called after a successful submit.
func (s *Store) Discard() error {
	return s.kv.Delete(kv.KeyDraft)
}

package draft

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-app/inkwell/internal/kv"
	"github.com/inkwell-app/inkwell/internal/model"
)

func newTestStore(t *testing.T) (*Store, *kv.Store) {
	t.Helper()
	kvs := kv.Open(t.TempDir(), zerolog.Nop())
	return New(kvs), kvs
}

func TestSaveLoadDiscard(t *testing.T) {
	s, _ := newTestStore(t)

	if _, ok := s.Load(); ok {
		t.Fatal("empty store reported a draft")
	}

	if err := s.Save("T", "C", "x, y"); err != nil {
		t.Fatalf("save: %v", err)
	}
	d, ok := s.Load()
	if !ok {
		t.Fatal("saved draft not loadable")
	}
	if d.Title != "T" || d.Content != "C" || d.Tags != "x, y" {
		t.Fatalf("round trip mangled draft: %+v", d)
	}
	if d.SavedAt.IsZero() {
		t.Fatal("save did not stamp the draft")
	}

	if err := s.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, ok := s.Load(); ok {
		t.Fatal("draft survived discard")
	}
	if err := s.Discard(); err != nil {
		t.Fatalf("second discard: %v", err)
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Save("first", "c", ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("second", "c", ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	d, ok := s.Load()
	if !ok || d.Title != "second" {
		t.Fatalf("got %+v, want the replacing draft", d)
	}
}

func TestExpiredDraftDiscardedOnLoad(t *testing.T) {
	s, kvs := newTestStore(t)
	stale := model.Draft{
		Title:   "old",
		Content: "c",
		SavedAt: time.Now().Add(-model.DraftMaxAge - time.Hour),
	}
	if err := kvs.Put(kv.KeyDraft, stale); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, ok := s.Load(); ok {
		t.Fatal("expired draft served")
	}
	// The expired value is gone, not just filtered.
	var raw model.Draft
	if kvs.Get(kv.KeyDraft, &raw) {
		t.Fatal("expired draft still stored")
	}
}

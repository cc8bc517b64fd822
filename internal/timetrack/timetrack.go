// Package timetrack accumulates time spent in the app across sessions.
package timetrack

import (
	"sync"
	"time"

	"github.com/inkwell-app/inkwell/internal/kv"
)

type persisted struct {
	TotalSeconds int64 `json:"totalSeconds"`
}

// Tracker measures the current session against a monotonic start instant
// and folds it into the persisted total on Flush.
type Tracker struct {
	store *kv.Store

	mu       sync.Mutex
	started  time.Time
	previous time.Duration
}

// New loads the accumulated total and starts the session clock.
func New(store *kv.Store) *Tracker {
	var p persisted
	store.Get(kv.KeyTimeTracked, &p)
	return &Tracker{
		store:    store,
		started:  time.Now(),
		previous: time.Duration(p.TotalSeconds) * time.Second,
	}
}

// Session reports time elapsed in the current session.
func (t *Tracker) Session() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.started)
}

// Total reports all-time accumulated usage including the current session.
func (t *Tracker) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previous + time.Since(t.started)
}

// Flush folds the current session into the persisted total and restarts the
// session clock. Call on shutdown, or periodically.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	t.previous += time.Since(t.started)
	t.started = time.Now()
	total := t.previous
	t.mu.Unlock()

	return t.store.Put(kv.KeyTimeTracked, persisted{TotalSeconds: int64(total / time.Second)})
}

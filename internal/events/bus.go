// Package events is a lightweight in-process pub/sub bus used for auth-state
// and connectivity change notifications.
package events

import (
	"sync"

	"github.com/inkwell-app/inkwell/internal/model"
)

// Kind represents the type of event published on the bus.
type Kind string

const (
	KindAuthChanged         Kind = "auth_changed"
	KindConnectivityChanged Kind = "connectivity_changed"
)

// Event carries the minimum data consumers need. User is set for
// KindAuthChanged (nil means signed out); Online is set for
// KindConnectivityChanged.
type Event struct {
	Kind   Kind
	User   *model.User
	Online bool
}

// Bus fans events out to subscribers over buffered channels. Delivery is
// best-effort: a subscriber that has fallen behind misses the event rather
// than blocking the publisher.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	buffer int
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 8
	}
	return &Bus{subs: make(map[int]chan Event), buffer: buffer}
}

// Publish enqueues the event to every live subscriber without blocking.
// It returns the number of subscribers that received it.
func (b *Bus) Publish(evt Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe handle. Unsubscribing closes the channel; it is safe to call
// the handle more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

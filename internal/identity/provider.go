// Package identity wraps the external auth provider behind a small adapter:
// a current-user accessor plus a subscribable auth-state stream.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkwell-app/inkwell/internal/events"
	"github.com/inkwell-app/inkwell/internal/model"
)

// Provider is the identity surface the rest of the application sees. A nil
// user on the stream (and from CurrentUser) means signed out.
type Provider interface {
	CurrentUser() *model.User
	// Subscribe registers fn for auth-state changes and returns an
	// unsubscribe handle. fn is invoked once immediately with the current
	// state so subscribers need no separate bootstrap read.
	Subscribe(fn func(*model.User)) (unsubscribe func())
	SignIn(ctx context.Context, uid string) (*model.User, error)
	SignOut(ctx context.Context) error
}

// StaticProvider authenticates against a fixed set of known identities. It
// stands in for the hosted auth provider in development and tests.
// Subscriber callbacks run synchronously inside SignIn/SignOut, so a caller
// returning from SignIn observes the post-transition state everywhere.
type StaticProvider struct {
	mu      sync.Mutex
	known   map[string]model.User
	current *model.User
	bus     *events.Bus
	subs    map[int]func(*model.User)
	nextSub int
}

// NewStaticProvider seeds the provider with the given identities.
func NewStaticProvider(bus *events.Bus, users ...model.User) *StaticProvider {
	known := make(map[string]model.User, len(users))
	for _, u := range users {
		known[u.UID] = u
	}
	return &StaticProvider{known: known, bus: bus, subs: make(map[int]func(*model.User))}
}

func (p *StaticProvider) CurrentUser() *model.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

func (p *StaticProvider) Subscribe(fn func(*model.User)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	fn(p.CurrentUser())

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// notify invokes subscribers outside the provider lock.
func (p *StaticProvider) notify(u *model.User) {
	p.mu.Lock()
	fns := make([]func(*model.User), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		var cp *model.User
		if u != nil {
			c := *u
			cp = &c
		}
		fn(cp)
	}
}

func (p *StaticProvider) SignIn(ctx context.Context, uid string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	u, ok := p.known[uid]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("unknown identity %q", uid)
	}
	p.current = &u
	p.mu.Unlock()

	cp := u
	p.notify(&cp)
	p.bus.Publish(events.Event{Kind: events.KindAuthChanged, User: &cp})
	return &cp, nil
}

func (p *StaticProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.notify(nil)
	p.bus.Publish(events.Event{Kind: events.KindAuthChanged, User: nil})
	return nil
}

// Package journal implements the reconciliation engine: the single owner of
// the in-memory journal collections, the router that decides which tier a
// write lands on, and the merge that turns three storage tiers into one
// display sequence.
package journal

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/fallback"
	"github.com/inkwell-app/inkwell/internal/identity"
	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/samples"
	"github.com/inkwell-app/inkwell/internal/shardqueue"
	"github.com/inkwell-app/inkwell/internal/translate"
)

// RemoteStore is the slice of the remote adapter the engine depends on.
type RemoteStore interface {
	Create(ctx context.Context, collection string, fields map[string]interface{}) (*docstore.Document, error)
	Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*docstore.Document, error)
	Delete(ctx context.Context, collection, id string) error
	QueryOrdered(ctx context.Context, q docstore.Query) ([]*docstore.Document, error)
}

// Engine owns session state explicitly; nothing here lives in package scope.
type Engine struct {
	remote RemoteStore
	local  *fallback.Store
	ids    identity.Provider
	cache  *translate.Cache
	exec   *shardqueue.ShardExecutor
	log    zerolog.Logger

	mu         sync.Mutex
	user       *model.User
	owned      []model.Journal // current user's journals, remote + fallback
	all        []model.Journal // every remote journal, any owner
	tombstones map[string]struct{}

	unsubscribe func()
	loaded      chan struct{} // closed after each load-on-auth completes
}

// Options bundle the engine's collaborators.
type Options struct {
	Remote     RemoteStore
	Local      *fallback.Store
	Identity   identity.Provider
	Translator translate.Translator
	Language   string // source language of authored content
	Queue      shardqueue.Config
	Log        zerolog.Logger
}

// NewEngine wires an engine. Call Start to attach it to the auth stream and
// Close to release the subscription and drain pending writes.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		remote:     opts.Remote,
		local:      opts.Local,
		ids:        opts.Identity,
		exec:       shardqueue.New(opts.Queue),
		log:        opts.Log.With().Str("component", "engine").Logger(),
		tombstones: make(map[string]struct{}),
	}
	tr := opts.Translator
	if tr == nil {
		tr = translate.Placeholder{}
	}
	e.cache = translate.NewCache(tr, e, opts.Language, opts.Log)
	return e
}

// Start subscribes to the auth-state stream. The engine holds exactly one
// subscription for its lifetime; auth changes trigger load-on-auth.
func (e *Engine) Start(ctx context.Context) {
	e.unsubscribe = e.ids.Subscribe(func(u *model.User) {
		e.onAuthChange(ctx, u)
	})
}

// Close detaches from the auth stream and stops the write queue, draining
// accepted jobs.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.exec.Stop()
}

// CurrentUser returns the session identity (nil when signed out).
func (e *Engine) CurrentUser() *model.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user == nil {
		return nil
	}
	u := *e.user
	return &u
}

func (e *Engine) onAuthChange(ctx context.Context, u *model.User) {
	e.mu.Lock()
	e.user = u
	e.owned = nil
	if u == nil {
		e.all = nil
		e.mu.Unlock()
		e.log.Info().Msg("signed out, cleared journal collections")
		return
	}
	done := make(chan struct{})
	e.loaded = done
	e.mu.Unlock()

	// Populate the two collections concurrently; each side falls back on
	// its own.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.loadOwned(ctx, u.UID)
	}()
	go func() {
		defer wg.Done()
		e.loadAll(ctx)
	}()
	go func() {
		wg.Wait()
		close(done)
	}()
}

// WaitLoaded blocks until the load triggered by the most recent sign-in has
// settled. Mainly for the CLI and tests; the merged view is usable (samples
// plus fallback) before then.
func (e *Engine) WaitLoaded(ctx context.Context) error {
	e.mu.Lock()
	done := e.loaded
	e.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) loadOwned(ctx context.Context, uid string) {
	docs, err := e.remote.QueryOrdered(ctx, docstore.Query{
		Collection:  Collection,
		FilterField: "userId",
		FilterValue: uid,
		OrderField:  "createdAt",
		Descending:  true,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("owned query failed, reading fallback store")
		list := e.local.ListByOwner(uid)
		sort.Slice(list, func(i, k int) bool { return list[i].CreatedAt.After(list[k].CreatedAt) })
		e.mu.Lock()
		e.owned = list
		e.mu.Unlock()
		return
	}

	list := make([]model.Journal, 0, len(docs))
	for _, d := range docs {
		j, err := journalFromDoc(d)
		if err != nil {
			e.log.Warn().Err(err).Msg("skipping malformed document")
			continue
		}
		list = append(list, j)
	}
	e.mu.Lock()
	// Keep fallback journals created before the load finished.
	for _, j := range e.owned {
		if j.Ref == model.TierFallback {
			list = append([]model.Journal{j}, list...)
		}
	}
	e.owned = list
	e.mu.Unlock()
}

func (e *Engine) loadAll(ctx context.Context) {
	docs, err := e.remote.QueryOrdered(ctx, docstore.Query{
		Collection: Collection,
		OrderField: "createdAt",
		Descending: true,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("global query failed, merged view will use samples")
		e.mu.Lock()
		e.all = nil
		e.mu.Unlock()
		return
	}

	list := make([]model.Journal, 0, len(docs))
	for _, d := range docs {
		j, err := journalFromDoc(d)
		if err != nil {
			e.log.Warn().Err(err).Msg("skipping malformed document")
			continue
		}
		list = append(list, j)
	}
	e.mu.Lock()
	e.all = list
	e.mu.Unlock()
}

// tombstoned reports whether id was deleted this session. Callers hold e.mu.
func (e *Engine) tombstoned(id string) bool {
	_, ok := e.tombstones[id]
	return ok
}

// prependOwned inserts j at the head of the owned list, replacing any stale
// copy with the same id. Re-reads current state under the lock; never applies
// a write that lost against a delete.
func (e *Engine) prependOwned(j model.Journal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tombstoned(j.ID) {
		return
	}
	rest := make([]model.Journal, 0, len(e.owned)+1)
	rest = append(rest, j)
	for _, cur := range e.owned {
		if cur.ID != j.ID {
			rest = append(rest, cur)
		}
	}
	e.owned = rest
}

// replaceInMemory swaps the stored copy of j in both collections, if present.
func (e *Engine) replaceInMemory(j model.Journal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tombstoned(j.ID) {
		return
	}
	for i := range e.owned {
		if e.owned[i].ID == j.ID {
			e.owned[i] = j
		}
	}
	for i := range e.all {
		if e.all[i].ID == j.ID {
			e.all[i] = j
		}
	}
}

// dropFromRemoteLists removes id from the in-memory remote collections. Part
// of the one-way tier downgrade: the fallback copy becomes the only copy.
func (e *Engine) dropFromRemoteLists(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.all[:0]
	for _, j := range e.all {
		if j.ID != id {
			out = append(out, j)
		}
	}
	e.all = out
}

// removeEverywhere deletes id from both in-memory collections and records a
// tombstone so an in-flight write for the same id cannot resurrect it.
func (e *Engine) removeEverywhere(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tombstones[id] = struct{}{}
	owned := e.owned[:0]
	for _, j := range e.owned {
		if j.ID != id {
			owned = append(owned, j)
		}
	}
	e.owned = owned
	all := e.all[:0]
	for _, j := range e.all {
		if j.ID != id {
			all = append(all, j)
		}
	}
	e.all = all
}

// findByID looks the journal up across every tier. The fallback store is
// consulted first: a downgraded journal keeps its remote-namespace id, and
// after a fresh load the stale remote document is back in the in-memory
// lists, so the lookup must resolve to the fallback copy or a later edit
// would route to the remote store and undo the downgrade. Samples resolve
// last; they are always readable.
func (e *Engine) findByID(id string) (model.Journal, bool) {
	if j, ok := e.local.Get(id); ok {
		return j, true
	}
	e.mu.Lock()
	for _, j := range e.owned {
		if j.ID == id {
			e.mu.Unlock()
			return j.Clone(), true
		}
	}
	for _, j := range e.all {
		if j.ID == id {
			e.mu.Unlock()
			return j.Clone(), true
		}
	}
	e.mu.Unlock()
	return samples.Get(id)
}

// runSerial executes fn on the per-id FIFO queue and waits for it. Writes to
// the same journal id therefore never interleave, even when callers race.
func (e *Engine) runSerial(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	job := shardqueue.JobFunc(func(jctx context.Context) error {
		err := fn(jctx)
		done <- err
		return err
	})
	if err := e.exec.Submit(ctx, key, job); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

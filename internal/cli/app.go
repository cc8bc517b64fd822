// Package cli implements the inkwell command line: a thin presentation layer
// that forwards user intents to the journal engine and renders the merged
// view.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/internal/draft"
	"github.com/inkwell-app/inkwell/internal/events"
	"github.com/inkwell-app/inkwell/internal/fallback"
	"github.com/inkwell-app/inkwell/internal/identity"
	"github.com/inkwell-app/inkwell/internal/journal"
	"github.com/inkwell-app/inkwell/internal/kv"
	"github.com/inkwell-app/inkwell/internal/localstate"
	"github.com/inkwell-app/inkwell/internal/logger"
	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/netmon"
	"github.com/inkwell-app/inkwell/internal/remote"
	"github.com/inkwell-app/inkwell/internal/shardqueue"
	"github.com/inkwell-app/inkwell/internal/timetrack"
)

// demoRoster stands in for the hosted identity provider's user directory.
var demoRoster = []model.User{
	{UID: "amelia", DisplayName: "Amelia Ortiz"},
	{UID: "ben", DisplayName: "Ben Takahashi"},
	{UID: "chiara", DisplayName: "Chiara Rossi"},
}

// preferences is the kv-persisted session state carried across invocations.
type preferences struct {
	UserID   string `json:"userId,omitempty"`
	Language string `json:"language,omitempty"`
}

// App wires the full client stack for one CLI invocation.
type App struct {
	Config  config.Config
	Log     zerolog.Logger
	Bus     *events.Bus
	KV      *kv.Store
	Local   *fallback.Store
	IDs     identity.Provider
	Engine  *journal.Engine
	Drafts  *draft.Store
	Tracker *timetrack.Tracker
	Monitor *netmon.Monitor

	prefs preferences
}

// NewApp builds the stack, restores the persisted session, and waits for the
// load-on-auth pass so commands see settled collections.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	log := logger.New("inkwell")

	kvDir, err := localstate.KVDir()
	if err != nil {
		return nil, err
	}
	store := kv.Open(kvDir, log)

	rem, err := remote.New(cfg.DocstoreURL, remote.WithTimeout(cfg.RemoteTimeout))
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(8)
	ids := identity.NewStaticProvider(bus, demoRoster...)
	local := fallback.New(store)

	a := &App{
		Config:  *cfg,
		Log:     log,
		Bus:     bus,
		KV:      store,
		Local:   local,
		IDs:     ids,
		Drafts:  draft.New(store),
		Tracker: timetrack.New(store),
		Monitor: netmon.New(rem, bus, cfg.ProbeInterval, cfg.SlowThreshold, log),
	}
	store.Get(kv.KeyPreferences, &a.prefs)
	if a.prefs.Language != "" {
		a.Config.Language = a.prefs.Language
	}

	a.Engine = journal.NewEngine(journal.Options{
		Remote:   rem,
		Local:    local,
		Identity: ids,
		Language: a.Config.Language,
		Queue:    shardqueue.Config{Shards: 4, QueueSize: 64, EnqueueTimeout: 100 * time.Millisecond},
		Log:      log,
	})
	a.Engine.Start(ctx)

	if a.prefs.UserID != "" {
		if _, err := ids.SignIn(ctx, a.prefs.UserID); err != nil {
			log.Warn().Err(err).Str("uid", a.prefs.UserID).Msg("stored session no longer valid")
			a.prefs.UserID = ""
		} else if err := a.Engine.WaitLoaded(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Close flushes time tracking and stops the engine.
func (a *App) Close() {
	if err := a.Tracker.Flush(); err != nil {
		a.Log.Warn().Err(err).Msg("failed to persist usage time")
	}
	a.Engine.Close()
}

func (a *App) savePrefs() error {
	return a.KV.Put(kv.KeyPreferences, a.prefs)
}

// Language is the active display language for this invocation.
func (a *App) Language() string {
	return a.Config.Language
}

package journal

import (
	"context"
	"errors"

	"github.com/inkwell-app/inkwell/internal/fallback"
	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/shardqueue"
)

// Input carries the user-editable journal fields. Tags arrive already split
// and trimmed (model.SplitTags), stored verbatim.
type Input struct {
	Title   string
	Content string
	Tags    []string
}

// Create writes a new journal for the signed-in user. The tier is decided
// exactly once, here: the remote store under its deadline, or the fallback
// store when the remote write errors or times out. Either way the record is
// visible in the owned collection when the call returns.
func (e *Engine) Create(ctx context.Context, in Input) (model.Journal, error) {
	user := e.CurrentUser()
	if user == nil {
		return model.Journal{}, model.ErrNotAuthenticated
	}
	if err := model.ValidateJournalInput(in.Title, in.Content); err != nil {
		return model.Journal{}, err
	}

	j := model.Journal{
		UserID:  user.UID,
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
	}

	doc, err := e.remote.Create(ctx, Collection, fieldsFor(j))
	if err == nil {
		out, convErr := journalFromDoc(doc)
		if convErr == nil {
			e.prependOwned(out)
			e.log.Info().Str("id", out.ID).Msg("journal created remotely")
			return out, nil
		}
		err = convErr
	}

	// Remote path lost; land the write locally under a fallback id.
	e.log.Warn().Err(err).Msg("remote create failed, saving locally")
	j.ID = fallback.NewID()
	j.Ref = model.TierFallback
	stored, lerr := e.local.Upsert(j)
	if lerr != nil {
		return model.Journal{}, lerr
	}
	e.prependOwned(stored)
	return stored, nil
}

// Update edits an existing journal. Ownership is re-checked here, at the
// point of mutation, regardless of what the caller rendered. Routing
// dispatches on the record's tier tag: fallback journals never attempt the
// remote store; remote journals that fail the deadline are downgraded to the
// fallback tier under their existing id, one way.
func (e *Engine) Update(ctx context.Context, id string, in Input) (model.Journal, error) {
	user := e.CurrentUser()
	if user == nil {
		return model.Journal{}, model.ErrNotAuthenticated
	}

	existing, ok := e.findByID(id)
	if !ok {
		return model.Journal{}, model.ErrNotFound
	}
	if existing.Ref == model.TierSample {
		return model.Journal{}, model.ErrNotEditable
	}
	if existing.UserID != user.UID {
		return model.Journal{}, model.ErrNotOwner
	}
	if err := model.ValidateJournalInput(in.Title, in.Content); err != nil {
		return model.Journal{}, err
	}

	updated := existing.Clone()
	updated.Title = in.Title
	updated.Content = in.Content
	updated.Tags = in.Tags

	var out model.Journal
	write := func(ctx context.Context) error {
		var err error
		out, err = e.routeUpdate(ctx, updated)
		return err
	}
	err := e.runSerial(ctx, id, write)
	if errors.Is(err, shardqueue.ErrQueueFull) || errors.Is(err, shardqueue.ErrExecutorClosed) {
		// Back-pressure must not turn an edit into a hard failure.
		err = write(ctx)
	}
	return out, err
}

// routeUpdate performs the tier-dispatched write for an already-authorized
// update. Runs on the per-id queue.
func (e *Engine) routeUpdate(ctx context.Context, j model.Journal) (model.Journal, error) {
	e.mu.Lock()
	dead := e.tombstoned(j.ID)
	e.mu.Unlock()
	if dead {
		return model.Journal{}, model.ErrNotFound
	}

	if j.Ref == model.TierFallback {
		stored, err := e.local.Upsert(j)
		if err != nil {
			return model.Journal{}, err
		}
		e.replaceInMemory(stored)
		return stored, nil
	}

	doc, err := e.remote.Update(ctx, Collection, j.ID, fieldsFor(j))
	if err == nil {
		out, convErr := journalFromDoc(doc)
		if convErr == nil {
			e.replaceInMemory(out)
			return out, nil
		}
		err = convErr
	}

	// One-way tier downgrade: keep the record under its existing id in the
	// fallback store and drop the stale remote copy from the in-memory list
	// so the merged view shows it exactly once.
	e.log.Warn().Err(err).Str("id", j.ID).Msg("remote update failed, downgrading to fallback tier")
	j.Ref = model.TierFallback
	stored, lerr := e.local.Upsert(j)
	if lerr != nil {
		return model.Journal{}, lerr
	}
	e.dropFromRemoteLists(j.ID)
	e.replaceInMemory(stored)
	return stored, nil
}

// Delete removes a journal, dispatching on the id namespace rather than the
// tier tag: fallback-namespace ids only ever existed locally, while every
// other id attempts a remote delete first, with no fallback path. A
// downgraded journal carries a remote-namespace id and may still have a
// stale document in the remote store, so both that document and the local
// copy must go or the journal resurfaces on the next load. A failed remote
// delete is surfaced verbatim and state is left untouched.
func (e *Engine) Delete(ctx context.Context, id string) error {
	user := e.CurrentUser()
	if user == nil {
		return model.ErrNotAuthenticated
	}

	existing, ok := e.findByID(id)
	if !ok {
		return model.ErrNotFound
	}
	if existing.Ref == model.TierSample {
		return model.ErrNotEditable
	}
	if existing.UserID != user.UID {
		return model.ErrNotOwner
	}

	return e.runSerial(ctx, id, func(ctx context.Context) error {
		if model.TierForID(id) == model.TierFallback {
			if err := e.local.Remove(id); err != nil {
				return err
			}
			e.removeEverywhere(id)
			return nil
		}
		if err := e.remote.Delete(ctx, Collection, id); err != nil {
			// A downgraded copy whose remote document is already gone is
			// still deletable locally.
			if _, haveLocal := e.local.Get(id); !haveLocal || !errors.Is(err, model.ErrNotFound) {
				return err
			}
		}
		if err := e.local.Remove(id); err != nil {
			e.log.Warn().Err(err).Str("id", id).Msg("fallback copy not removed after remote delete")
		}
		e.removeEverywhere(id)
		return nil
	})
}

// PersistTranslations writes a freshly built translation back to the tier
// that owns the journal. Implements translate.Persister.
func (e *Engine) PersistTranslations(ctx context.Context, j model.Journal) error {
	switch j.Ref {
	case model.TierSample:
		return nil // bundled, immutable
	case model.TierFallback:
		return e.runSerial(ctx, j.ID, func(ctx context.Context) error {
			e.mu.Lock()
			dead := e.tombstoned(j.ID)
			e.mu.Unlock()
			if dead {
				return nil
			}
			stored, err := e.local.Upsert(j)
			if err != nil {
				return err
			}
			e.replaceInMemory(stored)
			return nil
		})
	default:
		return e.runSerial(ctx, j.ID, func(ctx context.Context) error {
			_, err := e.routeUpdate(ctx, j)
			return err
		})
	}
}

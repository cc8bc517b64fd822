package journal

import (
	"context"
	"strings"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/samples"
)

// Entry is one row of the merged view: the journal plus its text resolved
// for the active display language.
type Entry struct {
	Journal model.Journal
	Display model.Translation
}

// Get returns the journal with the given id, searched across the in-memory
// collections and the fallback store.
func (e *Engine) Get(id string) (model.Journal, error) {
	j, ok := e.findByID(id)
	if !ok {
		return model.Journal{}, model.ErrNotFound
	}
	return j, nil
}

// Translate resolves j's text for lang through the translation cache,
// building and persisting the translation on first use.
func (e *Engine) Translate(ctx context.Context, j *model.Journal, lang string) (model.Translation, error) {
	return e.cache.GetOrBuild(ctx, j, lang)
}

// MergedView combines the tiers into the single display sequence. Order is
// fixed: the remote collections (owned first, then other users' journals,
// when authenticated; the global list otherwise), then the fallback store
// contents, then the built-in samples. A journal appears at most once, and
// the fallback copy always wins: a downgraded journal keeps its remote id,
// so the remote query can return a stale document under the same id and the
// merge must show the fallback edit in its place, never both. Each entry is
// decorated through the translation cache for lang; a decoration failure
// falls back to the source text.
func (e *Engine) MergedView(ctx context.Context, lang string) []Entry {
	e.mu.Lock()
	user := e.user
	owned := append([]model.Journal(nil), e.owned...)
	all := append([]model.Journal(nil), e.all...)
	e.mu.Unlock()

	var local []model.Journal
	fb := make(map[string]model.Journal)
	if user != nil {
		local = e.local.All()
		for _, j := range local {
			fb[j.ID] = j
		}
	}

	seen := make(map[string]struct{})
	var merged []model.Journal
	add := func(j model.Journal) {
		if _, dup := seen[j.ID]; dup {
			return
		}
		if f, ok := fb[j.ID]; ok {
			j = f
		}
		seen[j.ID] = struct{}{}
		merged = append(merged, j)
	}

	if user != nil {
		for _, j := range owned {
			add(j)
		}
		for _, j := range all {
			if j.UserID != user.UID {
				add(j)
			}
		}
		for _, j := range local {
			add(j)
		}
	} else {
		for _, j := range all {
			add(j)
		}
	}
	for _, s := range samples.Set() {
		add(s)
	}

	out := make([]Entry, 0, len(merged))
	for i := range merged {
		j := merged[i]
		display, err := e.cache.GetOrBuild(ctx, &j, lang)
		if err != nil {
			e.log.Warn().Err(err).Str("id", j.ID).Str("lang", lang).Msg("translation unavailable, showing source text")
			display = model.Translation{Title: j.Title, Content: j.Content, Tags: j.Tags}
		}
		out = append(out, Entry{Journal: j, Display: display})
	}
	return out
}

// Search filters the merged view by case-insensitive substring match over
// title, content, and tags of the displayed text. The view is newest-first;
// oldestFirst reverses the sequence after filtering.
func (e *Engine) Search(ctx context.Context, q, lang string, oldestFirst bool) []Entry {
	view := e.MergedView(ctx, lang)
	needle := strings.ToLower(strings.TrimSpace(q))

	matched := view[:0]
	for _, entry := range view {
		if needle == "" || entryMatches(entry, needle) {
			matched = append(matched, entry)
		}
	}
	if oldestFirst {
		for i, k := 0, len(matched)-1; i < k; i, k = i+1, k-1 {
			matched[i], matched[k] = matched[k], matched[i]
		}
	}
	return matched
}

func entryMatches(entry Entry, needle string) bool {
	if strings.Contains(strings.ToLower(entry.Display.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Display.Content), needle) {
		return true
	}
	for _, tag := range entry.Display.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

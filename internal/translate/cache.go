package translate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/samples"
)

// Persister writes a journal's updated translations map back to whichever
// tier owns the journal. The reconciliation engine implements it; sample
// journals are never persisted.
type Persister interface {
	PersistTranslations(ctx context.Context, j model.Journal) error
}

// Cache decorates journals with their rendering for a display language,
// building missing languages at most once per journal.
type Cache struct {
	tr      Translator
	sink    Persister
	srcLang string
	log     zerolog.Logger
}

func NewCache(tr Translator, sink Persister, srcLang string, log zerolog.Logger) *Cache {
	if srcLang == "" {
		srcLang = "en"
	}
	return &Cache{tr: tr, sink: sink, srcLang: srcLang, log: log.With().Str("component", "translate").Logger()}
}

// GetOrBuild returns j's rendering for lang. Cached languages are returned
// as-is, never re-synthesized. Sample journals come from the bundled table.
// Otherwise the translator runs once and the result is stored into the
// journal's translations map and persisted to its owning tier; j is mutated
// so in-memory collections see the cached language immediately.
func (c *Cache) GetOrBuild(ctx context.Context, j *model.Journal, lang string) (model.Translation, error) {
	source := model.Translation{Title: j.Title, Content: j.Content, Tags: j.Tags}
	if lang == "" || lang == c.srcLang {
		return source, nil
	}

	if j.Ref == model.TierSample {
		if tr, ok := samples.Translation(j.ID, lang); ok {
			return tr, nil
		}
		return source, nil
	}

	if tr, ok := j.Translations[lang]; ok {
		return tr, nil
	}

	tr, err := c.build(ctx, source, lang)
	if err != nil {
		return source, err
	}

	if j.Translations == nil {
		j.Translations = make(map[string]model.Translation, 1)
	}
	j.Translations[lang] = tr

	if c.sink != nil {
		if err := c.sink.PersistTranslations(ctx, *j); err != nil {
			// The in-memory copy is already decorated; persistence will be
			// retried the next time this language is rebuilt after reload.
			c.log.Warn().Err(err).Str("id", j.ID).Str("lang", lang).Msg("translation persist failed")
		}
	}
	return tr, nil
}

func (c *Cache) build(ctx context.Context, src model.Translation, lang string) (model.Translation, error) {
	title, err := c.tr.Translate(ctx, src.Title, lang)
	if err != nil {
		return model.Translation{}, err
	}
	content, err := c.tr.Translate(ctx, src.Content, lang)
	if err != nil {
		return model.Translation{}, err
	}
	var tags []string
	if len(src.Tags) > 0 {
		tags = make([]string, 0, len(src.Tags))
		for _, t := range src.Tags {
			tt, err := c.tr.Translate(ctx, t, lang)
			if err != nil {
				return model.Translation{}, err
			}
			tags = append(tags, tt)
		}
	}
	return model.Translation{Title: title, Content: content, Tags: tags}, nil
}

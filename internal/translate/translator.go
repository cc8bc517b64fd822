// Package translate builds and memoizes per-journal, per-language renderings
// of title/content/tags.
package translate

import (
	"context"
	"fmt"
)

// Translator converts a single piece of text into the target language. The
// implementation is injected so a real translation backend can replace the
// development placeholder without touching the cache.
type Translator interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text, lang string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text, lang string) (string, error) {
	return f(ctx, text, lang)
}

// Placeholder deterministically marks text with the target language instead
// of translating it. Useful in development and as the default until a real
// backend is wired.
type Placeholder struct{}

func (Placeholder) Translate(_ context.Context, text, lang string) (string, error) {
	return fmt.Sprintf("[%s] %s", lang, text), nil
}

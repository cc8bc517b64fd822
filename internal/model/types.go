package model

import (
	"strings"
	"time"
)

// Tier identifies which storage origin owns a journal. It is decided once
// when the journal is created and carried on the record; routing never
// re-derives it by inspecting the id string.
type Tier int

const (
	TierRemote Tier = iota
	TierFallback
	TierSample
)

func (t Tier) String() string {
	switch t {
	case TierRemote:
		return "remote"
	case TierFallback:
		return "fallback"
	case TierSample:
		return "sample"
	default:
		return "unknown"
	}
}

// Id prefixes are the serialized form of the non-remote tiers. They keep the
// three id namespaces disjoint on the wire and in the local blob; in-process
// dispatch always goes through Journal.Ref.
const (
	FallbackIDPrefix = "local-"
	SampleIDPrefix   = "sample-"
)

// TierForID recovers the tier tag when deserializing a record whose origin
// is only visible in its id (fallback blob entries, sample seeds).
func TierForID(id string) Tier {
	switch {
	case strings.HasPrefix(id, FallbackIDPrefix):
		return TierFallback
	case strings.HasPrefix(id, SampleIDPrefix):
		return TierSample
	default:
		return TierRemote
	}
}

// Translation holds one language's rendering of a journal's text fields.
type Translation struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Journal is the central entity. Tags preserve insertion order verbatim and
// are not deduplicated. CreatedAt/UpdatedAt are opaque comparable instants:
// server-assigned for remote journals, client-clock for fallback journals.
type Journal struct {
	ID           string                 `json:"id"`
	Ref          Tier                   `json:"-"`
	UserID       string                 `json:"userId,omitempty"`
	Title        string                 `json:"title"`
	Content      string                 `json:"content"`
	Tags         []string               `json:"tags,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
	Translations map[string]Translation `json:"translations,omitempty"`
}

// Clone returns a deep copy so engine snapshots never alias caller slices.
func (j Journal) Clone() Journal {
	out := j
	if j.Tags != nil {
		out.Tags = append([]string(nil), j.Tags...)
	}
	if j.Translations != nil {
		out.Translations = make(map[string]Translation, len(j.Translations))
		for lang, tr := range j.Translations {
			cp := tr
			if tr.Tags != nil {
				cp.Tags = append([]string(nil), tr.Tags...)
			}
			out.Translations[lang] = cp
		}
	}
	return out
}

// ExcerptLength is the display truncation point for journal content.
const ExcerptLength = 150

// Excerpt returns the content truncated for list display.
func (j Journal) Excerpt() string {
	runes := []rune(j.Content)
	if len(runes) <= ExcerptLength {
		return j.Content
	}
	return string(runes[:ExcerptLength]) + "…"
}

// User is the minimal identity carried by the auth provider.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
}

// DraftMaxAge is how long an unsubmitted draft survives before it is
// considered stale and discarded on load.
const DraftMaxAge = 24 * time.Hour

// Draft is the one ephemeral unsubmitted form capture. It never reaches the
// remote or fallback journal tiers.
type Draft struct {
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Tags    string    `json:"tags"`
	SavedAt time.Time `json:"savedAt"`
}

// Expired reports whether the draft is older than the retention window.
func (d Draft) Expired(now time.Time) bool {
	return now.Sub(d.SavedAt) > DraftMaxAge
}

// SplitTags turns the raw comma-separated tag input into the stored tag
// sequence: split, trimmed, empty segments dropped, order preserved,
// duplicates kept exactly as typed.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

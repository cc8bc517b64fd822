package journal

import (
	"encoding/json"
	"fmt"

	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/model"
)

// Collection is the document store collection holding journal records.
const Collection = "journals"

// journalFields is the wire shape of a journal inside a document's field map.
type journalFields struct {
	UserID       string                       `json:"userId"`
	Title        string                       `json:"title"`
	Content      string                       `json:"content"`
	Tags         []string                     `json:"tags,omitempty"`
	Translations map[string]model.Translation `json:"translations,omitempty"`
}

func fieldsFor(j model.Journal) map[string]interface{} {
	out := map[string]interface{}{
		"userId":  j.UserID,
		"title":   j.Title,
		"content": j.Content,
		"tags":    j.Tags,
	}
	if len(j.Translations) > 0 {
		out["translations"] = j.Translations
	}
	return out
}

func journalFromDoc(doc *docstore.Document) (model.Journal, error) {
	var f journalFields
	if err := json.Unmarshal(doc.Fields, &f); err != nil {
		return model.Journal{}, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	return model.Journal{
		ID:           doc.ID,
		Ref:          model.TierRemote,
		UserID:       f.UserID,
		Title:        f.Title,
		Content:      f.Content,
		Tags:         f.Tags,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		Translations: f.Translations,
	}, nil
}

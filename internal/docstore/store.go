// Package docstore defines the generic collection/document persistence
// contract behind the hosted document store service. Documents are opaque
// JSON field maps; the store assigns ids and timestamps from its own clock.
package docstore

import (
	"context"
	"encoding/json"
	"time"
)

// Document is one stored record. Fields holds the caller-supplied JSON
// object; CreatedAt/UpdatedAt are server-assigned.
type Document struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Fields     json.RawMessage `json:"fields"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Query selects documents from one collection, optionally filtered by
// equality on a single top-level field, ordered by a timestamp column.
type Query struct {
	Collection  string
	FilterField string // empty means no filter
	FilterValue string
	OrderField  string // "createdAt" or "updatedAt"
	Descending  bool
	Limit       int // 0 means no limit
}

// Store exposes persistence operations required by the HTTP handlers.
// Implementations live under docstore/<driver>/ (postgres, sqlite).
type Store interface {
	Documents() Documents
	HealthPing(ctx context.Context) error
	Close() error
}

type Documents interface {
	Create(ctx context.Context, collection string, fields map[string]interface{}) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Patch merges fields into the stored document and bumps UpdatedAt.
	Patch(ctx context.Context, collection, id string, fields map[string]interface{}) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	QueryOrdered(ctx context.Context, q Query) ([]*Document, error)
}

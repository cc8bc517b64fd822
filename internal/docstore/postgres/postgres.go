// Package postgres provides the Postgres-backed document store adapter using
// the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/model"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql and
// ensures the schema exists.
func NewWithDB(db *sql.DB) (docstore.Store, error) {
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &pgStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS documents (
            collection TEXT NOT NULL,
            doc_id TEXT NOT NULL,
            fields JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY(collection, doc_id)
        );
        CREATE INDEX IF NOT EXISTS documents_created_idx ON documents(collection, created_at);
    `)
	return err
}

type pgStore struct{ db *sql.DB }

func (s *pgStore) Documents() docstore.Documents { return &documents{db: s.db} }

func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close() error { return s.db.Close() }

type documents struct{ db *sql.DB }

func (d *documents) Create(ctx context.Context, collection string, fields map[string]interface{}) (*docstore.Document, error) {
	id := uuid.New().String()
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	var created, updated time.Time
	row := d.db.QueryRowContext(ctx, `
        INSERT INTO documents (collection, doc_id, fields)
        VALUES ($1,$2,$3)
        RETURNING created_at, updated_at
    `, collection, id, string(raw))
	if err := row.Scan(&created, &updated); err != nil {
		return nil, err
	}
	return &docstore.Document{Collection: collection, ID: id, Fields: raw, CreatedAt: created, UpdatedAt: updated}, nil
}

func (d *documents) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	doc := &docstore.Document{Collection: collection, ID: id}
	var raw []byte
	row := d.db.QueryRowContext(ctx, `
        SELECT fields, created_at, updated_at FROM documents
        WHERE collection=$1 AND doc_id=$2
    `, collection, id)
	if err := row.Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	doc.Fields = raw
	return doc, nil
}

func (d *documents) Patch(ctx context.Context, collection, id string, fields map[string]interface{}) (*docstore.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	doc := &docstore.Document{Collection: collection, ID: id}
	var merged []byte
	row := d.db.QueryRowContext(ctx, `
        UPDATE documents SET fields = fields || $3::jsonb, updated_at = now()
        WHERE collection=$1 AND doc_id=$2
        RETURNING fields, created_at, updated_at
    `, collection, id, string(raw))
	if err := row.Scan(&merged, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	doc.Fields = merged
	return doc, nil
}

func (d *documents) Delete(ctx context.Context, collection, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM documents WHERE collection=$1 AND doc_id=$2`, collection, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (d *documents) QueryOrdered(ctx context.Context, q docstore.Query) ([]*docstore.Document, error) {
	orderCol, err := orderColumn(q.OrderField)
	if err != nil {
		return nil, err
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	query := `SELECT doc_id, fields, created_at, updated_at FROM documents WHERE collection=$1`
	args := []interface{}{q.Collection}
	if q.FilterField != "" {
		query += fmt.Sprintf(` AND fields->>$%d = $%d`, len(args)+1, len(args)+2)
		args = append(args, q.FilterField, q.FilterValue)
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, orderCol, dir)
	if q.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*docstore.Document
	for rows.Next() {
		doc := &docstore.Document{Collection: q.Collection}
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		doc.Fields = raw
		out = append(out, doc)
	}
	return out, rows.Err()
}

func orderColumn(field string) (string, error) {
	switch field {
	case "", "createdAt":
		return "created_at", nil
	case "updatedAt":
		return "updated_at", nil
	default:
		return "", fmt.Errorf("unsupported order field: %s", field)
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/model"
)

// SqliteStore implements docstore.Store using the modernc SQLite driver.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (or creates) a SQLite database file and applies the
// schema.
func NewSqliteStore(path string) (docstore.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewSqliteStoreWithDB(db)
}

// NewSqliteStoreWithDB allows wiring with an existing connection (used by the
// factory and by tests).
func NewSqliteStoreWithDB(db *sql.DB) (docstore.Store, error) {
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Documents() docstore.Documents { return &documents{db: s.db} }

func (s *SqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteStore) Close() error { return s.db.Close() }

type documents struct{ db *sql.DB }

func (d *documents) Create(ctx context.Context, collection string, fields map[string]interface{}) (*docstore.Document, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	_, err = d.db.ExecContext(ctx, `INSERT INTO Documents (Collection, DocId, Fields, CreatedAt, UpdatedAt) VALUES (?,?,?,?,?)`,
		collection, id, string(raw), now, now)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{Collection: collection, ID: id, Fields: raw, CreatedAt: now, UpdatedAt: now}, nil
}

func (d *documents) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	row := d.db.QueryRowContext(ctx, `SELECT Fields, CreatedAt, UpdatedAt FROM Documents WHERE Collection = ? AND DocId = ?`, collection, id)
	return scanDocument(row, collection, id)
}

func (d *documents) Patch(ctx context.Context, collection, id string, fields map[string]interface{}) (*docstore.Document, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	var createdAt time.Time
	row := tx.QueryRowContext(ctx, `SELECT Fields, CreatedAt FROM Documents WHERE Collection = ? AND DocId = ?`, collection, id)
	if err := row.Scan(&raw, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	merged := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return nil, fmt.Errorf("stored document %s/%s unparseable: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE Documents SET Fields = ?, UpdatedAt = ? WHERE Collection = ? AND DocId = ?`,
		string(out), now, collection, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &docstore.Document{Collection: collection, ID: id, Fields: out, CreatedAt: createdAt, UpdatedAt: now}, nil
}

func (d *documents) Delete(ctx context.Context, collection, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM Documents WHERE Collection = ? AND DocId = ?`, collection, id)
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

	query := `SELECT DocId, Fields, CreatedAt, UpdatedAt FROM Documents WHERE Collection = ?`
	args := []interface{}{q.Collection}
	if q.FilterField != "" {
		query += ` AND json_extract(Fields, '$.' || ?) = ?`
		args = append(args, q.FilterField, q.FilterValue)
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, orderCol, dir)
	if q.Limit > 0 {
		query += ` LIMIT ?`
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
		var raw string
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		doc.Fields = json.RawMessage(raw)
		out = append(out, doc)
	}
	return out, rows.Err()
}

func orderColumn(field string) (string, error) {
	switch field {
	case "", "createdAt":
		return "CreatedAt", nil
	case "updatedAt":
		return "UpdatedAt", nil
	default:
		return "", fmt.Errorf("unsupported order field: %s", field)
	}
}

func scanDocument(row *sql.Row, collection, id string) (*docstore.Document, error) {
	doc := &docstore.Document{Collection: collection, ID: id}
	var raw string
	if err := row.Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	doc.Fields = json.RawMessage(raw)
	return doc, nil
}

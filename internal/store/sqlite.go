package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/viewcore/internal/engine"
)

// SQLiteStore persists one model's rows as JSON documents in a shared
// `rows` table. Rows are schemaless maps keyed by column descriptor keys, so
// the store loads the model's documents and applies query semantics in Go.
type SQLiteStore struct {
	db    *sql.DB
	model string
}

// EnsureSchema creates the shared rows table. Called once at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rows (
			model      TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT,
			PRIMARY KEY (model, id)
		)`)
	if err != nil {
		return fmt.Errorf("creating rows table: %w", err)
	}
	return nil
}

// NewSQLiteStore creates a store scoped to one model name.
func NewSQLiteStore(db *sql.DB, modelName string) *SQLiteStore {
	return &SQLiteStore{db: db, model: modelName}
}

func (s *SQLiteStore) Fetch(ctx context.Context, q engine.Query) (engine.FetchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, created_at, updated_at, deleted_at FROM rows WHERE model = ?`, s.model)
	if err != nil {
		return engine.FetchResult{}, fmt.Errorf("fetching %s rows: %w", s.model, err)
	}
	defer rows.Close()

	var all []map[string]any
	for rows.Next() {
		var id, data, createdAt, updatedAt string
		var deletedAt sql.NullString
		if err := rows.Scan(&id, &data, &createdAt, &updatedAt, &deletedAt); err != nil {
			return engine.FetchResult{}, fmt.Errorf("scanning %s row: %w", s.model, err)
		}
		row := ParseObject(data)
		row["id"] = id
		row["created_at"] = createdAt
		row["updated_at"] = updatedAt
		if deletedAt.Valid {
			row["deleted_at"] = deletedAt.String
		} else {
			row["deleted_at"] = nil
		}
		all = append(all, NormalizeRow(row))
	}
	if err := rows.Err(); err != nil {
		return engine.FetchResult{}, fmt.Errorf("reading %s rows: %w", s.model, err)
	}

	page, total := applyQuery(all, q)
	return engine.FetchResult{Rows: page, Total: total}, nil
}

func (s *SQLiteStore) Submit(ctx context.Context, id string, payload map[string]any, isEdit bool) (string, map[string]string, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if !isEdit {
		if id == "" {
			id = uuid.New().String()
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return "", nil, fmt.Errorf("encoding %s row: %w", s.model, err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO rows (model, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			s.model, id, string(data), now, now)
		if err != nil {
			return "", nil, fmt.Errorf("inserting %s row: %w", s.model, err)
		}
		return id, nil, nil
	}

	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM rows WHERE model = ? AND id = ?`, s.model, id).Scan(&existing)
	if err == sql.ErrNoRows {
		return "", nil, fmt.Errorf("row %s not found", id)
	}
	if err != nil {
		return "", nil, fmt.Errorf("loading %s row: %w", s.model, err)
	}

	merged := ParseObject(existing)
	for k, v := range payload {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return "", nil, fmt.Errorf("encoding %s row: %w", s.model, err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE rows SET data = ?, updated_at = ? WHERE model = ? AND id = ?`,
		string(data), now, s.model, id)
	if err != nil {
		return "", nil, fmt.Errorf("updating %s row: %w", s.model, err)
	}
	return id, nil, nil
}

func (s *SQLiteStore) BulkMutate(ctx context.Context, op engine.BulkOp, ids []string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	var stmt string
	args := make([]any, 0, len(ids)+2)

	switch op {
	case engine.BulkDelete:
		stmt = `UPDATE rows SET deleted_at = ? WHERE model = ? AND id IN (` + placeholders(len(ids)) + `)`
		args = append(args, now, s.model)
	case engine.BulkRestore:
		stmt = `UPDATE rows SET deleted_at = NULL WHERE model = ? AND id IN (` + placeholders(len(ids)) + `)`
		args = append(args, s.model)
	case engine.BulkPurge:
		stmt = `DELETE FROM rows WHERE model = ? AND id IN (` + placeholders(len(ids)) + `)`
		args = append(args, s.model)
	default:
		return fmt.Errorf("unknown bulk op %q", op)
	}
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("bulk %s on %s: %w", op, s.model, err)
	}
	return nil
}

// Analytics reports aggregate counts straight from SQL.
func (s *SQLiteStore) Analytics(ctx context.Context) (engine.Analytics, error) {
	var a engine.Analytics
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN deleted_at IS NULL THEN 1 END),
			COUNT(CASE WHEN deleted_at IS NOT NULL THEN 1 END)
		FROM rows WHERE model = ?`, s.model).Scan(&a.Total, &a.Deleted)
	if err != nil {
		return engine.Analytics{}, fmt.Errorf("aggregating %s rows: %w", s.model, err)
	}
	return a, nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ", ?"
	}
	return out
}

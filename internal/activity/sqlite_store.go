package activity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore implements Store over a shared database handle. Entries live
// in their own table next to the row documents.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLiteStore. EnsureSchema must run before use.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureSchema creates the activity_entries table if it does not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_entries (
			event_id    TEXT NOT NULL,
			event_type  TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			model       TEXT NOT NULL,
			row_id      TEXT NOT NULL,
			actor       TEXT NOT NULL DEFAULT '',
			summary     TEXT NOT NULL,
			payload     TEXT,
			PRIMARY KEY (model, row_id, occurred_at, event_id)
		);
		CREATE INDEX IF NOT EXISTS idx_activity_row_time
			ON activity_entries (model, row_id, occurred_at DESC);
	`)
	return err
}

func (s *SQLiteStore) WriteEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO activity_entries (
		event_id, event_type, occurred_at, model, row_id, actor, summary, payload
	) VALUES `)

	args := make([]any, 0, len(entries)*8)
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.EventID, e.EventType, e.OccurredAt.UTC().Format(time.RFC3339Nano),
			e.Model, e.RowID, e.Actor, e.Summary, string(e.Payload),
		)
	}

	b.WriteString(" ON CONFLICT DO NOTHING")
	_, err := s.db.ExecContext(ctx, b.String(), args...)
	return err
}

func (s *SQLiteStore) QueryByRow(ctx context.Context, model, rowID string, opts QueryOptions) ([]Entry, string, int, error) {
	limit := clampQueryLimit(opts.Limit)

	conditions := []string{"model = ?", "row_id = ?"}
	args := []any{model, rowID}

	if opts.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	if opts.Until != nil {
		conditions = append(conditions, "occurred_at <= ?")
		args = append(args, opts.Until.UTC().Format(time.RFC3339Nano))
	}
	if len(opts.EventTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(opts.EventTypes)), ", ")
		conditions = append(conditions, fmt.Sprintf("event_type IN (%s)", placeholders))
		for _, et := range opts.EventTypes {
			args = append(args, et)
		}
	}
	if opts.Cursor != "" {
		if cursorTime, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			conditions = append(conditions, "occurred_at < ?")
			args = append(args, cursorTime.UTC().Format(time.RFC3339Nano))
		}
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countArgs := append([]any(nil), args...)
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM activity_entries WHERE "+where, countArgs...,
	).Scan(&total); err != nil {
		return nil, "", 0, fmt.Errorf("counting activity entries: %w", err)
	}

	// Fetch one extra to decide whether a next page exists.
	query := fmt.Sprintf(`SELECT event_id, event_type, occurred_at, model, row_id, actor, summary, payload
		FROM activity_entries WHERE %s
		ORDER BY occurred_at DESC LIMIT ?`, where)
	args = append(args, limit+1)

	entries, err := s.scanEntries(ctx, query, args)
	if err != nil {
		return nil, "", 0, err
	}

	var nextCursor string
	if len(entries) > limit {
		entries = entries[:limit]
		nextCursor = entries[len(entries)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return entries, nextCursor, total, nil
}

func (s *SQLiteStore) Search(ctx context.Context, query string, opts SearchOptions) ([]Entry, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	conditions := []string{"summary LIKE '%' || ? || '%' COLLATE NOCASE"}
	args := []any{query}

	if opts.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, opts.Model)
	}
	if opts.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countArgs := append([]any(nil), args...)
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM activity_entries WHERE "+where, countArgs...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting activity search: %w", err)
	}

	sqlQuery := fmt.Sprintf(`SELECT event_id, event_type, occurred_at, model, row_id, actor, summary, payload
		FROM activity_entries WHERE %s
		ORDER BY occurred_at DESC LIMIT ?`, where)
	args = append(args, limit)

	entries, err := s.scanEntries(ctx, sqlQuery, args)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *SQLiteStore) scanEntries(ctx context.Context, query string, args []any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var occurredAt string
		var payload sql.NullString
		if err := rows.Scan(&e.EventID, &e.EventType, &occurredAt, &e.Model, &e.RowID, &e.Actor, &e.Summary, &payload); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
		if payload.Valid && payload.String != "" {
			e.Payload = []byte(payload.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

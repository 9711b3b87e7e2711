// Package activity maintains a per-row audit trail over the mutation event
// stream. One mutation event fans out into one entry per affected row, so
// the trail for a single row can be read without scanning the whole log.
package activity

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one audit record for one row. Bulk actions produce one entry per
// affected row, all sharing the originating event id.
type Entry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Model      string          `json:"model"`
	RowID      string          `json:"row_id"`
	Actor      string          `json:"actor,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// QueryOptions filters a per-row trail read.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	EventTypes []string
	Cursor     string // occurred_at of the last entry from the previous page
	Limit      int
}

// SearchOptions filters a summary search across models.
type SearchOptions struct {
	Model string
	Since *time.Time
	Limit int
}

// Store reads and writes audit entries.
type Store interface {
	// WriteEntries appends entries. Writing the same event twice is a no-op
	// for stores that can detect it; callers should not rely on that.
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByRow returns the trail for one row, newest first, with cursor
	// paging.
	QueryByRow(ctx context.Context, model, rowID string, opts QueryOptions) (entries []Entry, nextCursor string, total int, err error)

	// Search matches entry summaries case-insensitively, newest first.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []Entry, total int, err error)
}

const (
	defaultQueryLimit  = 100
	maxQueryLimit      = 500
	defaultSearchLimit = 20
)

func clampQueryLimit(n int) int {
	if n <= 0 || n > maxQueryLimit {
		return defaultQueryLimit
	}
	return n
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

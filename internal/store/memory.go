package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/viewcore/internal/engine"
)

// MemoryStore implements engine.DataSource over in-memory rows.
// Intended for demos and testing — no SQLite required.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []map[string]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed replaces the store's rows. Rows without ids get one assigned.
func (s *MemoryStore) Seed(rows []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	for _, r := range rows {
		if r["id"] == nil || r["id"] == "" {
			r["id"] = uuid.New().String()
		}
		s.rows = append(s.rows, NormalizeRow(r))
	}
}

func (s *MemoryStore) Fetch(_ context.Context, q engine.Query) (engine.FetchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, total := applyQuery(s.rows, q)
	return engine.FetchResult{Rows: page, Total: total}, nil
}

func (s *MemoryStore) Submit(_ context.Context, id string, payload map[string]any, isEdit bool) (string, map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !isEdit {
		row := make(map[string]any, len(payload)+2)
		for k, v := range payload {
			row[k] = v
		}
		if id == "" {
			id = uuid.New().String()
		}
		row["id"] = id
		row["created_at"] = time.Now().UTC().Format(time.RFC3339)
		s.rows = append(s.rows, NormalizeRow(row))
		return id, nil, nil
	}

	for _, r := range s.rows {
		if fmt.Sprintf("%v", r["id"]) == id {
			for k, v := range payload {
				r[k] = v
			}
			r["updated_at"] = time.Now().UTC().Format(time.RFC3339)
			NormalizeRow(r)
			return id, nil, nil
		}
	}
	return "", nil, fmt.Errorf("row %s not found", id)
}

func (s *MemoryStore) BulkMutate(_ context.Context, op engine.BulkOp, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	switch op {
	case engine.BulkDelete:
		for _, r := range s.rows {
			if wanted[fmt.Sprintf("%v", r["id"])] {
				r["deleted_at"] = time.Now().UTC().Format(time.RFC3339)
			}
		}
	case engine.BulkRestore:
		for _, r := range s.rows {
			if wanted[fmt.Sprintf("%v", r["id"])] {
				r["deleted_at"] = nil
			}
		}
	case engine.BulkPurge:
		kept := s.rows[:0]
		for _, r := range s.rows {
			if !wanted[fmt.Sprintf("%v", r["id"])] {
				kept = append(kept, r)
			}
		}
		s.rows = kept
	default:
		return fmt.Errorf("unknown bulk op %q", op)
	}
	return nil
}

// Analytics reports aggregate counts over the store.
func (s *MemoryStore) Analytics(_ context.Context) (engine.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := engine.Analytics{}
	for _, r := range s.rows {
		if r["deleted_at"] != nil {
			a.Deleted++
			continue
		}
		a.Total++
	}
	return a, nil
}

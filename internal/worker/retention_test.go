package worker

import (
	"context"
	"testing"
	"time"

	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/model"
)

type trashSource struct {
	rows   []map[string]any
	purged [][]string
}

func (s *trashSource) Fetch(ctx context.Context, q engine.Query) (engine.FetchResult, error) {
	var out []map[string]any
	for _, row := range s.rows {
		if !q.IncludeDeleted && row["deleted_at"] != nil {
			continue
		}
		out = append(out, row)
	}
	return engine.FetchResult{Rows: out, Total: len(out)}, nil
}

func (s *trashSource) Submit(ctx context.Context, id string, payload map[string]any, isEdit bool) (string, map[string]string, error) {
	return id, nil, nil
}

func (s *trashSource) BulkMutate(ctx context.Context, op engine.BulkOp, ids []string) error {
	if op == engine.BulkPurge {
		s.purged = append(s.purged, ids)
	}
	return nil
}

func retentionFixture(t *testing.T, paranoid bool) (*Retention, *trashSource) {
	t.Helper()

	old := time.Now().Add(-72 * time.Hour).Format(time.RFC3339)
	recent := time.Now().Add(-1 * time.Hour).Format(time.RFC3339)
	src := &trashSource{rows: []map[string]any{
		{"id": "r-1", "name": "kept", "deleted_at": nil},
		{"id": "r-2", "name": "fresh trash", "deleted_at": recent},
		{"id": "r-3", "name": "stale trash", "deleted_at": old},
		{"id": "r-4", "name": "bad timestamp", "deleted_at": "yesterday"},
	}}

	m := engine.Model{
		Name:     "contacts",
		Paranoid: paranoid,
		Columns:  []model.Column{{Key: "name", Title: "Name", Type: model.TypeText}},
	}
	eng, err := engine.New(m, src, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	w := &Retention{
		Engines: func() []*engine.Engine { return []*engine.Engine{eng} },
		MaxAge:  24 * time.Hour,
	}
	return w, src
}

func TestRetention_PurgesOnlyStaleTrash(t *testing.T) {
	w, src := retentionFixture(t, true)

	w.sweep(context.Background())

	if len(src.purged) != 1 {
		t.Fatalf("purge calls = %d, want 1", len(src.purged))
	}
	if len(src.purged[0]) != 1 || src.purged[0][0] != "r-3" {
		t.Fatalf("purged ids = %v, want [r-3]", src.purged[0])
	}
}

func TestRetention_SkipsHardDeleteModels(t *testing.T) {
	w, src := retentionFixture(t, false)

	w.sweep(context.Background())

	if len(src.purged) != 0 {
		t.Fatalf("purge calls = %d, want 0 for a hard-delete model", len(src.purged))
	}
}

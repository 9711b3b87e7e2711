package store

import (
	"context"
	"testing"

	"github.com/matthewbaird/viewcore/internal/engine"
)

func seeded() *MemoryStore {
	s := NewMemoryStore()
	s.Seed([]map[string]any{
		{"id": "a", "name": "Ada Lovelace", "age": 36, "status": "active"},
		{"id": "b", "name": "Grace Hopper", "age": 85, "status": "active"},
		{"id": "c", "name": "Alan Turing", "age": 41, "status": "retired"},
	})
	return s
}

func ids(rows []map[string]any) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r["id"].(string)
	}
	return out
}

func TestMemoryStore_FetchAll(t *testing.T) {
	s := seeded()
	res, err := s.Fetch(context.Background(), engine.Query{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 || len(res.Rows) != 3 {
		t.Errorf("total = %d rows = %d, want 3/3", res.Total, len(res.Rows))
	}
}

func TestMemoryStore_FilterAndSearch(t *testing.T) {
	s := seeded()

	res, _ := s.Fetch(context.Background(), engine.Query{
		Page: 1, PageSize: 20,
		Filters: map[string]any{"status": "active"},
	})
	if res.Total != 2 {
		t.Errorf("status filter total = %d, want 2", res.Total)
	}

	res, _ = s.Fetch(context.Background(), engine.Query{
		Page: 1, PageSize: 20,
		Search: "turing",
	})
	if res.Total != 1 || res.Rows[0]["id"] != "c" {
		t.Errorf("search = %v, want just row c", ids(res.Rows))
	}
}

func TestMemoryStore_SortNumeric(t *testing.T) {
	s := seeded()
	res, _ := s.Fetch(context.Background(), engine.Query{
		Page: 1, PageSize: 20,
		Sort: &engine.Sort{Field: "age"},
	})
	got := ids(res.Rows)
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("asc by age = %v, want %v", got, want)
		}
	}

	res, _ = s.Fetch(context.Background(), engine.Query{
		Page: 1, PageSize: 20,
		Sort: &engine.Sort{Field: "age", Desc: true},
	})
	if ids(res.Rows)[0] != "b" {
		t.Errorf("desc by age starts with %v, want b", ids(res.Rows))
	}
}

func TestMemoryStore_SortDescKeepsTieOrder(t *testing.T) {
	s := NewMemoryStore()
	s.Seed([]map[string]any{
		{"id": "a", "rank": 2},
		{"id": "b", "rank": 1},
		{"id": "c", "rank": 2},
		{"id": "d", "rank": nil},
	})

	res, _ := s.Fetch(context.Background(), engine.Query{
		Page: 1, PageSize: 20,
		Sort: &engine.Sort{Field: "rank", Desc: true},
	})
	got := ids(res.Rows)
	want := []string{"a", "c", "b", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("desc by rank = %v, want %v (ties keep seed order, nils sink)", got, want)
		}
	}
}

func TestMemoryStore_Paging(t *testing.T) {
	s := seeded()
	res, _ := s.Fetch(context.Background(), engine.Query{Page: 2, PageSize: 2})
	if res.Total != 3 || len(res.Rows) != 1 {
		t.Errorf("page 2 of 2 = total %d len %d, want 3/1", res.Total, len(res.Rows))
	}

	res, _ = s.Fetch(context.Background(), engine.Query{Page: 9, PageSize: 2})
	if res.Total != 3 || len(res.Rows) != 0 {
		t.Errorf("past-the-end page = total %d len %d, want 3/0", res.Total, len(res.Rows))
	}
}

func TestMemoryStore_CreateAndEdit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	createdID, fieldErrs, err := s.Submit(ctx, "", map[string]any{"name": "Ada"}, false)
	if err != nil || fieldErrs != nil {
		t.Fatalf("create: errs=%v err=%v", fieldErrs, err)
	}
	if createdID == "" {
		t.Fatal("create returned no id")
	}
	res, _ := s.Fetch(ctx, engine.Query{Page: 1, PageSize: 20})
	if res.Total != 1 {
		t.Fatalf("total after create = %d", res.Total)
	}
	row := res.Rows[0]
	if row["id"] != createdID {
		t.Errorf("stored id = %v, want the returned %q", row["id"], createdID)
	}
	if row["created_at"] == nil {
		t.Error("created row has no created_at")
	}

	if _, _, err := s.Submit(ctx, createdID, map[string]any{"name": "Ada Lovelace"}, true); err != nil {
		t.Fatalf("edit: %v", err)
	}
	res, _ = s.Fetch(ctx, engine.Query{Page: 1, PageSize: 20})
	if res.Rows[0]["name"] != "Ada Lovelace" {
		t.Errorf("edit not merged: %v", res.Rows[0]["name"])
	}
	if res.Rows[0]["updated_at"] == nil {
		t.Error("edited row has no updated_at")
	}

	if _, _, err := s.Submit(ctx, "nope", map[string]any{}, true); err == nil {
		t.Error("editing an unknown id should fail")
	}
}

func TestMemoryStore_SoftDeleteCycle(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	if err := s.BulkMutate(ctx, engine.BulkDelete, []string{"a", "c"}); err != nil {
		t.Fatal(err)
	}
	res, _ := s.Fetch(ctx, engine.Query{Page: 1, PageSize: 20})
	if res.Total != 1 || res.Rows[0]["id"] != "b" {
		t.Errorf("after delete = %v, want just b", ids(res.Rows))
	}

	// deleted rows still reachable with include_deleted
	res, _ = s.Fetch(ctx, engine.Query{Page: 1, PageSize: 20, IncludeDeleted: true})
	if res.Total != 3 {
		t.Errorf("include_deleted total = %d, want 3", res.Total)
	}

	if err := s.BulkMutate(ctx, engine.BulkRestore, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	res, _ = s.Fetch(ctx, engine.Query{Page: 1, PageSize: 20})
	if res.Total != 2 {
		t.Errorf("after restore total = %d, want 2", res.Total)
	}

	if err := s.BulkMutate(ctx, engine.BulkPurge, []string{"c"}); err != nil {
		t.Fatal(err)
	}
	res, _ = s.Fetch(ctx, engine.Query{Page: 1, PageSize: 20, IncludeDeleted: true})
	if res.Total != 2 {
		t.Errorf("after purge total = %d, want 2", res.Total)
	}

	if err := s.BulkMutate(ctx, "mangle", []string{"a"}); err == nil {
		t.Error("unknown op should be rejected")
	}
}

func TestMemoryStore_Analytics(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	s.BulkMutate(ctx, engine.BulkDelete, []string{"a"})

	a, err := s.Analytics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Total != 2 || a.Deleted != 1 {
		t.Errorf("analytics = %+v, want total 2 deleted 1", a)
	}
}

func TestParseObject_Fallbacks(t *testing.T) {
	if got := ParseObject(`{"a":1}`); got["a"] != float64(1) {
		t.Errorf("valid object = %v", got)
	}
	for _, raw := range []string{"", "not json", "[1,2]", "null"} {
		got := ParseObject(raw)
		if got == nil || len(got) != 0 {
			t.Errorf("ParseObject(%q) = %v, want empty map", raw, got)
		}
	}
}

func TestParseArray_Fallbacks(t *testing.T) {
	if got := ParseArray(`[1,2]`); len(got) != 2 {
		t.Errorf("valid array = %v", got)
	}
	for _, raw := range []string{"", "not json", `{"a":1}`, "null"} {
		got := ParseArray(raw)
		if got == nil || len(got) != 0 {
			t.Errorf("ParseArray(%q) = %v, want empty slice", raw, got)
		}
	}
}

func TestNormalizeRow(t *testing.T) {
	row := NormalizeRow(map[string]any{
		"nested":   `{"displayName":"Ada"}`,
		"tags":     `["a","b"]`,
		"plain":    "just text",
		"braceish": "{not json",
	})
	if m, ok := row["nested"].(map[string]any); !ok || m["displayName"] != "Ada" {
		t.Errorf("nested = %v", row["nested"])
	}
	if a, ok := row["tags"].([]any); !ok || len(a) != 2 {
		t.Errorf("tags = %v", row["tags"])
	}
	if row["plain"] != "just text" {
		t.Errorf("plain string mutated: %v", row["plain"])
	}
	if row["braceish"] != "{not json" {
		t.Errorf("unparseable value should stay raw: %v", row["braceish"])
	}
}

// Package store provides the engine's data sources: an in-memory store for
// demos and tests, and a SQLite-backed store that persists rows as JSON
// documents. Both apply paging, sorting, and filtering in Go over the
// model's row set.
package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matthewbaird/viewcore/internal/engine"
)

// applyQuery filters, sorts, and pages rows according to q. It returns the
// page plus the total match count before paging.
func applyQuery(rows []map[string]any, q engine.Query) ([]map[string]any, int) {
	var matched []map[string]any
	for _, r := range rows {
		if !q.IncludeDeleted && r["deleted_at"] != nil {
			continue
		}
		if !matchFilters(r, q.Filters) {
			continue
		}
		if q.Search != "" && !matchSearch(r, q.Search) {
			continue
		}
		matched = append(matched, r)
	}

	if q.Sort != nil && q.Sort.Field != "" {
		field, desc := q.Sort.Field, q.Sort.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return compareValues(matched[j][field], matched[i][field])
			}
			return compareValues(matched[i][field], matched[j][field])
		})
	}

	total := len(matched)
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= total {
		return nil, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func matchFilters(row map[string]any, filters map[string]any) bool {
	for k, want := range filters {
		if fmt.Sprintf("%v", row[k]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func matchSearch(row map[string]any, search string) bool {
	q := strings.ToLower(search)
	for _, v := range row {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// compareValues orders mixed-type cell values: numbers numerically,
// everything else by string form. Nils sort first.
func compareValues(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

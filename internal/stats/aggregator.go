// Package stats aggregates loaded rows into per-column value distributions
// for the analytics view. Only enumerable column types are aggregated; free
// text and structural columns would produce one bucket per row.
package stats

import (
	"fmt"

	"github.com/matthewbaird/viewcore/internal/model"
)

// Distributions counts distinct values per enumerable column. Boolean columns
// bucket into "true"/"false", rating columns into their integer score, and
// multi-valued columns (tags, multiselect) count each element.
func Distributions(rows []map[string]any, columns []model.Column) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, col := range columns {
		if !aggregatable(col.Type) {
			continue
		}
		dist := make(map[string]int)
		for _, row := range rows {
			for _, bucket := range buckets(row[col.Key], col.Type) {
				dist[bucket]++
			}
		}
		if len(dist) > 0 {
			out[col.Key] = dist
		}
	}
	return out
}

// DominantValue returns the bucket with the highest count, or "" for an
// empty distribution. Ties resolve to the lexically smallest bucket so the
// result is deterministic.
func DominantValue(dist map[string]int) string {
	best := ""
	bestCount := 0
	for v, c := range dist {
		if c > bestCount || (c == bestCount && (best == "" || v < best)) {
			best = v
			bestCount = c
		}
	}
	return best
}

func aggregatable(t model.ColumnType) bool {
	switch t {
	case model.TypeSelect, model.TypeMultiselect, model.TypeBoolean,
		model.TypeRating, model.TypeTags:
		return true
	}
	return false
}

func buckets(v any, t model.ColumnType) []string {
	if v == nil {
		return nil
	}
	switch t {
	case model.TypeBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return []string{"true"}
			}
			return []string{"false"}
		}
		return nil
	case model.TypeRating:
		switch n := v.(type) {
		case float64:
			return []string{fmt.Sprintf("%d", int(n))}
		case int:
			return []string{fmt.Sprintf("%d", n)}
		}
		return nil
	case model.TypeTags, model.TypeMultiselect:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		var out []string
		for _, it := range items {
			if s, ok := it.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := v.(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}
}

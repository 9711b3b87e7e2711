package display

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/viewcore/internal/model"
)

// nameKeys and descriptionKeys are the substring hints the primary-column
// heuristic scans for, in precedence order.
var (
	nameKeys        = []string{"name", "title", "label", "username", "firstname", "fullname"}
	descriptionKeys = []string{"description", "subject", "message", "content", "summary", "note"}
)

// plainValueTypes are column types whose values read poorly as a headline;
// rule 5 skips them.
var plainValueTypes = map[model.ColumnType]bool{
	model.TypeSelect:  true,
	model.TypeBoolean: true,
	model.TypeDate:    true,
	model.TypeNumber:  true,
}

// PrimaryColumn deterministically picks the column that represents a row's
// headline value in card and expanded summaries. Column priority is
// deliberately ignored here. Precedence, first match wins:
//
//  1. a compound column
//  2. a key containing a name-like hint
//  3. a key containing a description-like hint
//  4. a key containing "email"
//  5. the first non-structural column whose type reads as a headline
//  6. the first non-structural column
//  7. the first column
//
// Returns false only for an empty column set.
func PrimaryColumn(columns []model.Column) (model.Column, bool) {
	if len(columns) == 0 {
		return model.Column{}, false
	}
	for _, c := range columns {
		if c.Type == model.TypeCompound {
			return c, true
		}
	}
	if c, ok := findByHint(columns, nameKeys); ok {
		return c, true
	}
	if c, ok := findByHint(columns, descriptionKeys); ok {
		return c, true
	}
	if c, ok := findByHint(columns, []string{"email"}); ok {
		return c, true
	}
	for _, c := range columns {
		if structural(c) || plainValueTypes[c.Type] {
			continue
		}
		return c, true
	}
	for _, c := range columns {
		if structural(c) {
			continue
		}
		return c, true
	}
	return columns[0], true
}

func findByHint(columns []model.Column, hints []string) (model.Column, bool) {
	for _, c := range columns {
		key := strings.ToLower(c.Key)
		for _, h := range hints {
			if strings.Contains(key, h) {
				return c, true
			}
		}
	}
	return model.Column{}, false
}

func structural(c model.Column) bool {
	switch c.Key {
	case "id", "select", "actions":
		return true
	}
	return c.Type == model.TypeActions
}

// PrimaryValue resolves the headline value for a row.
//
// Non-compound columns read a possibly dot-pathed value from the row; a
// missing, empty, or literal "N/A" value falls back to displaying the row's
// id with UseIDFallback set. Compound columns must resolve to an object, else
// the same fallback applies.
type PrimaryValue struct {
	Value         any  `json:"value"`
	UseIDFallback bool `json:"use_id_fallback"`
}

// ResolvePrimary reads the primary column's value from a row.
func ResolvePrimary(col model.Column, row map[string]any) PrimaryValue {
	raw := LookupPath(row, col.StorageKey())
	if col.Type == model.TypeCompound {
		if obj, ok := raw.(map[string]any); ok {
			return PrimaryValue{Value: obj}
		}
		return idFallback(row)
	}
	if blankValue(raw) {
		return idFallback(row)
	}
	return PrimaryValue{Value: raw}
}

func blankValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == "" || s == "N/A"
	}
	return false
}

func idFallback(row map[string]any) PrimaryValue {
	return PrimaryValue{Value: fmt.Sprintf("%v", row["id"]), UseIDFallback: true}
}

// LookupPath reads a dot-separated path from a nested row map. A missing
// segment returns nil.
func LookupPath(row map[string]any, path string) any {
	cur := any(row)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

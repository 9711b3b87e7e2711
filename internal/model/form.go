package model

import "sort"

// FieldRef points a form at a column. A bare Key refers directly to a
// top-level column; a ref carrying CompoundKey addresses a sub-field nested
// inside the named compound column. Per-reference overrides, when non-nil,
// take precedence over the resolved column's own settings.
type FieldRef struct {
	Key         string `json:"key"`
	CompoundKey string `json:"compound_key,omitempty"`

	Type      ColumnType `json:"type,omitempty"`
	Required  *bool      `json:"required,omitempty"`
	Options   []Option   `json:"options,omitempty"`
	Min       *float64   `json:"min,omitempty"`
	Max       *float64   `json:"max,omitempty"`
	Condition string     `json:"condition,omitempty"`

	Validate ValidateFunc `json:"-"`
}

// Nested reports whether the reference is indirected through a compound
// column.
func (r FieldRef) Nested() bool { return r.CompoundKey != "" }

// FormGroup is one titled section of a form. Condition, when non-empty, is an
// expression evaluated against current form values to decide whether the
// group is shown.
type FormGroup struct {
	Title     string     `json:"title"`
	Priority  int        `json:"priority"`
	Condition string     `json:"condition,omitempty"`
	Fields    []FieldRef `json:"fields"`
}

// FormDescriptor lays out the create or edit form as an ordered list of
// groups.
type FormDescriptor struct {
	Groups []FormGroup `json:"groups"`
}

// SortedGroups returns the groups ordered by ascending priority, stable for
// equal priorities.
func (f FormDescriptor) SortedGroups() []FormGroup {
	out := make([]FormGroup, len(f.Groups))
	copy(out, f.Groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// FieldRefs returns every field reference across all groups, in group
// priority order.
func (f FormDescriptor) FieldRefs() []FieldRef {
	var out []FieldRef
	for _, g := range f.SortedGroups() {
		out = append(out, g.Fields...)
	}
	return out
}

// AllowedKeys returns the set of field keys the descriptor references,
// used to restrict schema generation to form-visible fields.
func (f FormDescriptor) AllowedKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, ref := range f.FieldRefs() {
		keys[ref.Key] = true
	}
	return keys
}

// Package model defines the declarative column and form metadata that drives
// the view engine. A page supplies a column set (one Column per entity field)
// and optionally a per-mode FormDescriptor; the schema generator, the list
// renderer, and the view machine all derive their behavior from these
// descriptors and never mutate them.
package model

import "fmt"

// ColumnType is the closed set of field kinds the engine understands.
// Every operation over columns (validator choice, default choice, cell
// rendering decisions) switches exhaustively on this type.
type ColumnType string

const (
	TypeText         ColumnType = "text"
	TypeTextarea     ColumnType = "textarea"
	TypeEmail        ColumnType = "email"
	TypeNumber       ColumnType = "number"
	TypeRating       ColumnType = "rating"
	TypeDate         ColumnType = "date"
	TypeBoolean      ColumnType = "boolean"
	TypeSelect       ColumnType = "select"
	TypeMultiselect  ColumnType = "multiselect"
	TypeTags         ColumnType = "tags"
	TypeImage        ColumnType = "image"
	TypeCompound     ColumnType = "compound"
	TypeCustomFields ColumnType = "custom_fields"
	TypeActions      ColumnType = "actions"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypeNumber, TypeRating,
		TypeDate, TypeBoolean, TypeSelect, TypeMultiselect, TypeTags,
		TypeImage, TypeCompound, TypeCustomFields, TypeActions:
		return true
	}
	return false
}

// Option is one choice in a select/multiselect column.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ValidateFunc is a per-column custom predicate. It returns an error message
// for the given value, or "" when the value is acceptable.
type ValidateFunc func(value any) string

// Column describes a single entity field.
//
// Key is the UI field name; BaseKey is the persisted/API name when the two
// diverge (a select showing a name but persisting an id). Priority ranks the
// column 1-5 for viewport-driven visibility, 1 meaning always shown.
type Column struct {
	Key         string     `json:"key"`
	BaseKey     string     `json:"base_key,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        ColumnType `json:"type"`

	Required bool `json:"required"`
	Optional bool `json:"optional"`

	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	Options         []Option `json:"options,omitempty"`
	OptionsEndpoint string   `json:"options_endpoint,omitempty"`

	Priority     int  `json:"priority,omitempty"`
	ExpandedOnly bool `json:"expanded_only,omitempty"`
	Sortable     bool `json:"sortable,omitempty"`

	Compound *CompoundConfig `json:"compound,omitempty"`

	// Validate is an optional custom predicate layered on top of the
	// type-derived validator.
	Validate ValidateFunc `json:"-"`
}

// StorageKey returns BaseKey when set, otherwise Key.
func (c Column) StorageKey() string {
	if c.BaseKey != "" {
		return c.BaseKey
	}
	return c.Key
}

// SubField is one nested field inside a compound column. Extracted sub-fields
// become top-level form fields, so their keys must be unique across the whole
// column set.
type SubField struct {
	Key         string     `json:"key"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Type        ColumnType `json:"type,omitempty"`
	Required    bool       `json:"required"`
	Options     []Option   `json:"options,omitempty"`

	Editable     bool `json:"editable"`
	UsedInCreate bool `json:"used_in_create"`
}

// EnabledFor reports whether the sub-field participates in the given form
// mode.
func (s SubField) EnabledFor(isEdit bool) bool {
	if isEdit {
		return s.Editable
	}
	return s.UsedInCreate
}

// CompoundConfig bundles the nested layout of a compound column: an avatar
// image, one or more primary values, an optional secondary value, and an
// ordered metadata list.
type CompoundConfig struct {
	Image     *SubField  `json:"image,omitempty"`
	Primary   []SubField `json:"primary"`
	Secondary *SubField  `json:"secondary,omitempty"`
	Metadata  []SubField `json:"metadata,omitempty"`
}

// SubFields returns the compound's sub-fields in extraction order:
// image, primary, secondary, then metadata.
func (cc CompoundConfig) SubFields() []SubField {
	var out []SubField
	if cc.Image != nil {
		out = append(out, *cc.Image)
	}
	out = append(out, cc.Primary...)
	if cc.Secondary != nil {
		out = append(out, *cc.Secondary)
	}
	out = append(out, cc.Metadata...)
	return out
}

// FindColumn returns the column with the given key, or false.
func FindColumn(columns []Column, key string) (Column, bool) {
	for _, c := range columns {
		if c.Key == key || (c.BaseKey != "" && c.BaseKey == key) {
			return c, true
		}
	}
	return Column{}, false
}

// ValidateColumns checks descriptor-set invariants at load time: every column
// has a key and a known type, top-level keys are unique, and compound
// sub-field keys collide with nothing else in the set.
func ValidateColumns(columns []Column) error {
	seen := make(map[string]string, len(columns))
	for _, c := range columns {
		if c.Key == "" {
			return fmt.Errorf("column with empty key")
		}
		if !c.Type.Valid() {
			return fmt.Errorf("column %q: unknown type %q", c.Key, c.Type)
		}
		if prev, ok := seen[c.Key]; ok {
			return fmt.Errorf("duplicate key %q (also used by %s)", c.Key, prev)
		}
		seen[c.Key] = "column " + c.Key
		if c.Type == TypeCompound {
			if c.Compound == nil || len(c.Compound.Primary) == 0 {
				return fmt.Errorf("compound column %q: missing primary sub-field", c.Key)
			}
			for _, sf := range c.Compound.SubFields() {
				if sf.Key == "" {
					return fmt.Errorf("compound column %q: sub-field with empty key", c.Key)
				}
				if prev, ok := seen[sf.Key]; ok {
					return fmt.Errorf("compound column %q: sub-field key %q collides with %s", c.Key, sf.Key, prev)
				}
				seen[sf.Key] = fmt.Sprintf("compound %s sub-field %s", c.Key, sf.Key)
			}
		}
	}
	return nil
}

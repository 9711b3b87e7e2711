// Package schema derives a validation schema and a default-value map from
// column descriptors. Build is pure: identical inputs always produce the same
// schema, so callers cache per (columns, form, mode) and rebuild only when
// one of those changes identity.
package schema

import (
	"log"

	"github.com/matthewbaird/viewcore/internal/model"
)

// Schema maps field keys to their validators.
type Schema map[string]Validator

// Defaults maps field keys to their type-specific zero values. Absent values
// (numbers, dates, ratings, images) are nil entries, never 0 or "".
type Defaults map[string]any

// Build generates the validation schema and defaults for the given column
// set, optional form descriptor, and mode.
//
// When a form descriptor is present, only referenced fields are included.
// Nested references run through compound extraction first, so a sub-field
// wins a key collision with a same-named top-level column. Without a form
// descriptor every column is included, and compound columns fall back to
// whole-compound expansion: each sub-field enabled for the mode registers
// under its own key.
func Build(columns []model.Column, form *model.FormDescriptor, isEdit bool) (Schema, Defaults) {
	s := make(Schema)
	d := make(Defaults)

	if form != nil {
		// Nested refs first: compound extractions take precedence on key
		// collisions.
		for _, ref := range form.FieldRefs() {
			if !ref.Nested() {
				continue
			}
			col, ok := model.ExtractCompoundField(ref, columns, isEdit)
			if !ok {
				log.Printf("schema: dropping unresolved field ref %q (compound %q)", ref.Key, ref.CompoundKey)
				continue
			}
			col = model.ApplyOverrides(col, ref)
			register(s, d, ref.Key, col)
		}
		for _, ref := range form.FieldRefs() {
			if ref.Nested() {
				continue
			}
			if _, taken := s[ref.Key]; taken {
				continue
			}
			col, ok := model.FindColumn(columns, ref.Key)
			if !ok {
				log.Printf("schema: dropping unresolved field ref %q", ref.Key)
				continue
			}
			col = model.ApplyOverrides(col, ref)
			if col.Type == model.TypeCompound {
				continue
			}
			register(s, d, ref.Key, col)
		}
		return s, d
	}

	for _, col := range columns {
		switch col.Type {
		case model.TypeCompound:
			if col.Compound == nil {
				continue
			}
			for _, sf := range col.Compound.SubFields() {
				if !sf.EnabledFor(isEdit) {
					continue
				}
				ref := model.FieldRef{Key: sf.Key, CompoundKey: col.Key}
				sub, ok := model.ExtractCompoundField(ref, columns, isEdit)
				if !ok {
					continue
				}
				register(s, d, sf.Key, sub)
			}
		case model.TypeActions:
			// No value, no schema entry.
		default:
			register(s, d, col.Key, col)
		}
	}
	return s, d
}

func register(s Schema, d Defaults, key string, col model.Column) {
	s[key] = Validator{
		Field:    key,
		Type:     col.Type,
		Required: col.Required,
		Min:      col.Min,
		Max:      col.Max,
		Options:  col.Options,
		Custom:   col.Validate,
	}
	d[key] = defaultValue(col)
}

// defaultValue picks the type-specific zero value used to seed a fresh create
// form and to restore a cancelled one.
func defaultValue(col model.Column) any {
	switch col.Type {
	case model.TypeText, model.TypeTextarea, model.TypeEmail:
		return ""
	case model.TypeNumber, model.TypeRating, model.TypeDate, model.TypeImage:
		return nil
	case model.TypeBoolean:
		return false
	case model.TypeSelect:
		if len(col.Options) > 0 {
			return col.Options[0].Value
		}
		return ""
	case model.TypeMultiselect, model.TypeTags:
		return []string{}
	case model.TypeCustomFields:
		return map[string]any{}
	case model.TypeCompound, model.TypeActions:
		return nil
	}
	return nil
}

// Validate checks all values against the schema. It returns a map of field
// key to error message; nil when everything passes. Fields present in values
// but absent from the schema are ignored.
func (s Schema) Validate(values map[string]any) map[string]string {
	var errs map[string]string
	for key, v := range s {
		if msg := v.Check(values[key]); msg != "" {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[key] = msg
		}
	}
	return errs
}

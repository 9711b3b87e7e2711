package model

// subFieldKind distinguishes where inside a compound a sub-field was found;
// it drives the type inference for the synthesized column.
type subFieldKind int

const (
	kindImage subFieldKind = iota
	kindPrimary
	kindSecondary
	kindMetadata
)

// ExtractCompoundField resolves a nested field reference into a synthetic
// top-level column. It locates the compound column named by ref.CompoundKey
// and scans its image, primary, secondary, and metadata sub-fields in that
// order for ref.Key. The first match wins.
//
// Extraction is mode-aware: a sub-field not enabled for the given mode
// (Editable for edit, UsedInCreate for create) does not resolve, so it never
// reaches the generated schema for that mode. The source compound column is
// never mutated; repeated calls with identical inputs return identical
// results.
func ExtractCompoundField(ref FieldRef, columns []Column, isEdit bool) (Column, bool) {
	if !ref.Nested() {
		return Column{}, false
	}
	owner, ok := FindColumn(columns, ref.CompoundKey)
	if !ok || owner.Type != TypeCompound || owner.Compound == nil {
		return Column{}, false
	}

	sf, kind, ok := findSubField(*owner.Compound, ref.Key)
	if !ok || !sf.EnabledFor(isEdit) {
		return Column{}, false
	}

	col := Column{
		Key:         sf.Key,
		Title:       sf.Title,
		Description: sf.Description,
		Type:        inferSubFieldType(sf, kind),
		Required:    sf.Required,
		Optional:    !sf.Required,
		Options:     sf.Options,
	}
	return col, true
}

func findSubField(cc CompoundConfig, key string) (SubField, subFieldKind, bool) {
	if cc.Image != nil && cc.Image.Key == key {
		return *cc.Image, kindImage, true
	}
	for _, sf := range cc.Primary {
		if sf.Key == key {
			return sf, kindPrimary, true
		}
	}
	if cc.Secondary != nil && cc.Secondary.Key == key {
		return *cc.Secondary, kindSecondary, true
	}
	for _, sf := range cc.Metadata {
		if sf.Key == key {
			return sf, kindMetadata, true
		}
	}
	return SubField{}, 0, false
}

// inferSubFieldType maps a sub-field position to a concrete column type:
// image slots are images, primary slots are text, secondary and metadata
// slots use their declared type and fall back to text.
func inferSubFieldType(sf SubField, kind subFieldKind) ColumnType {
	switch kind {
	case kindImage:
		return TypeImage
	case kindPrimary:
		return TypeText
	case kindSecondary, kindMetadata:
		if sf.Type != "" && sf.Type.Valid() {
			return sf.Type
		}
		return TypeText
	}
	return TypeText
}

// ResolveFieldRef resolves a reference to the column it addresses: nested
// refs go through compound extraction, direct refs through plain lookup.
// Unresolvable refs return false; callers drop them with a diagnostic rather
// than failing hard.
func ResolveFieldRef(ref FieldRef, columns []Column, isEdit bool) (Column, bool) {
	if ref.Nested() {
		return ExtractCompoundField(ref, columns, isEdit)
	}
	col, ok := FindColumn(columns, ref.Key)
	if !ok {
		return Column{}, false
	}
	return col, true
}

// ApplyOverrides merges reference-level overrides onto a resolved column.
func ApplyOverrides(col Column, ref FieldRef) Column {
	if ref.Type != "" && ref.Type.Valid() {
		col.Type = ref.Type
	}
	if ref.Required != nil {
		col.Required = *ref.Required
		col.Optional = !*ref.Required
	}
	if len(ref.Options) > 0 {
		col.Options = ref.Options
	}
	if ref.Min != nil {
		col.Min = ref.Min
	}
	if ref.Max != nil {
		col.Max = ref.Max
	}
	if ref.Validate != nil {
		col.Validate = ref.Validate
	}
	return col
}

package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matthewbaird/viewcore/internal/model"
)

// numericPattern matches string-encoded numbers the engine accepts for
// number fields: optional sign, digits, optional decimal part.
var numericPattern = regexp.MustCompile(`^-?\d*\.?\d+$`)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dateLayouts are tried in order when a date field arrives as a string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// FileRef represents an uploaded file before it has a URL. Image fields
// accept either a FileRef or a string URL.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Validator checks one field's value. It is a tagged union over the column
// type: Check switches exhaustively on Type.
type Validator struct {
	Field    string
	Type     model.ColumnType
	Required bool
	Min      *float64
	Max      *float64
	Options  []model.Option
	Custom   model.ValidateFunc
}

// Check returns an error message for the value, or "" when it passes.
// A nil value on an optional field always passes.
func (v Validator) Check(value any) string {
	if isEmpty(value) {
		if v.Required {
			return fmt.Sprintf("%s is required", v.Field)
		}
		return ""
	}
	if msg := v.checkTyped(value); msg != "" {
		return msg
	}
	if v.Custom != nil {
		return v.Custom(value)
	}
	return ""
}

func (v Validator) checkTyped(value any) string {
	switch v.Type {
	case model.TypeText, model.TypeTextarea:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", v.Field)
		}
		return v.checkStringBounds(s)
	case model.TypeEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fmt.Sprintf("%s must be a valid email address", v.Field)
		}
		return ""
	case model.TypeNumber:
		n, ok := CoerceNumber(value)
		if !ok {
			return fmt.Sprintf("%s must be a number", v.Field)
		}
		if v.Min != nil && n < *v.Min {
			return fmt.Sprintf("%s must be at least %v", v.Field, *v.Min)
		}
		if v.Max != nil && n > *v.Max {
			return fmt.Sprintf("%s must be at most %v", v.Field, *v.Max)
		}
		return ""
	case model.TypeRating:
		n, ok := CoerceNumber(value)
		if !ok || n != float64(int(n)) || n < 1 || n > 5 {
			return fmt.Sprintf("%s must be a whole number between 1 and 5", v.Field)
		}
		return ""
	case model.TypeDate:
		switch d := value.(type) {
		case time.Time:
			return ""
		case string:
			for _, layout := range dateLayouts {
				if _, err := time.Parse(layout, d); err == nil {
					return ""
				}
			}
			return fmt.Sprintf("%s must be a valid date", v.Field)
		default:
			return fmt.Sprintf("%s must be a valid date", v.Field)
		}
	case model.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%s must be true or false", v.Field)
		}
		return ""
	case model.TypeSelect:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", v.Field)
		}
		if len(v.Options) > 0 && !optionValue(v.Options, s) {
			return fmt.Sprintf("%s must be one of the listed options", v.Field)
		}
		return ""
	case model.TypeTags:
		if _, ok := stringList(value); !ok {
			return fmt.Sprintf("%s must be a list of strings", v.Field)
		}
		return ""
	case model.TypeMultiselect:
		if _, ok := stringList(value); ok {
			return ""
		}
		if _, ok := refList(value); ok {
			return ""
		}
		return fmt.Sprintf("%s must be a list of selections", v.Field)
	case model.TypeImage:
		switch value.(type) {
		case string, FileRef, *FileRef:
			return ""
		}
		return fmt.Sprintf("%s must be a file or URL", v.Field)
	case model.TypeCustomFields:
		switch value.(type) {
		case map[string]any, string:
			return ""
		}
		return fmt.Sprintf("%s must be an object", v.Field)
	case model.TypeCompound, model.TypeActions:
		// Never validated directly; compounds are extracted field by field
		// and actions columns carry no value.
		return ""
	}
	return ""
}

func (v Validator) checkStringBounds(s string) string {
	n := len(strings.TrimSpace(s))
	if v.Min != nil && n < int(*v.Min) {
		return fmt.Sprintf("%s must be at least %d characters", v.Field, int(*v.Min))
	}
	if v.Max != nil && n > int(*v.Max) {
		return fmt.Sprintf("%s must be at most %d characters", v.Field, int(*v.Max))
	}
	return ""
}

// CoerceNumber accepts native numbers and numeric strings, returning the
// float value. Empty strings do not coerce: an empty optional number stays
// absent rather than becoming zero.
func CoerceNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if !numericPattern.MatchString(n) {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// isEmpty reports whether a submitted value counts as "not provided".
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}

func optionValue(opts []model.Option, s string) bool {
	for _, o := range opts {
		if o.Value == s {
			return true
		}
	}
	return false
}

func stringList(value any) ([]string, bool) {
	switch list := value.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// refList accepts multiselect values shaped as {id, name} objects.
func refList(value any) ([]map[string]any, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		if _, ok := m["id"]; !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

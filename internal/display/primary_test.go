package display

import (
	"testing"

	"github.com/matthewbaird/viewcore/internal/model"
)

func TestPrimaryColumn_CompoundWins(t *testing.T) {
	cols := []model.Column{
		{Key: "title", Type: model.TypeText},
		{Key: "user", Type: model.TypeCompound},
	}
	c, ok := PrimaryColumn(cols)
	if !ok || c.Key != "user" {
		t.Errorf("primary = %q, want user (compound outranks name hints)", c.Key)
	}
}

func TestPrimaryColumn_NameHint(t *testing.T) {
	cols := []model.Column{
		{Key: "id", Type: model.TypeText},
		{Key: "createdAt", Type: model.TypeDate},
		{Key: "fullName", Type: model.TypeText},
	}
	c, _ := PrimaryColumn(cols)
	if c.Key != "fullName" {
		t.Errorf("primary = %q, want fullName", c.Key)
	}
}

func TestPrimaryColumn_DescriptionBeforeEmail(t *testing.T) {
	cols := []model.Column{
		{Key: "email", Type: model.TypeEmail},
		{Key: "subject", Type: model.TypeText},
	}
	c, _ := PrimaryColumn(cols)
	if c.Key != "subject" {
		t.Errorf("primary = %q, want subject", c.Key)
	}
}

func TestPrimaryColumn_SkipsEnumishTypes(t *testing.T) {
	cols := []model.Column{
		{Key: "id", Type: model.TypeText},
		{Key: "status", Type: model.TypeSelect},
		{Key: "count", Type: model.TypeNumber},
		{Key: "slug", Type: model.TypeText},
	}
	c, _ := PrimaryColumn(cols)
	if c.Key != "slug" {
		t.Errorf("primary = %q, want slug", c.Key)
	}
}

func TestPrimaryColumn_RatingReadsAsHeadline(t *testing.T) {
	cols := []model.Column{
		{Key: "id", Type: model.TypeText},
		{Key: "score", Type: model.TypeRating},
		{Key: "blurb", Type: model.TypeTextarea},
	}
	c, _ := PrimaryColumn(cols)
	if c.Key != "score" {
		t.Errorf("primary = %q, want score (ratings are not enumish)", c.Key)
	}
}

func TestPrimaryColumn_FallsBackToFirstNonStructural(t *testing.T) {
	cols := []model.Column{
		{Key: "id", Type: model.TypeText},
		{Key: "when", Type: model.TypeDate},
	}
	c, _ := PrimaryColumn(cols)
	if c.Key != "when" {
		t.Errorf("primary = %q, want when", c.Key)
	}
}

func TestPrimaryColumn_Deterministic(t *testing.T) {
	cols := []model.Column{
		{Key: "alpha", Type: model.TypeText},
		{Key: "beta", Type: model.TypeText},
	}
	first, _ := PrimaryColumn(cols)
	for i := 0; i < 10; i++ {
		again, _ := PrimaryColumn(cols)
		if again.Key != first.Key {
			t.Fatalf("heuristic not deterministic: %q then %q", first.Key, again.Key)
		}
	}
}

func TestResolvePrimary_IDFallback(t *testing.T) {
	col := model.Column{Key: "name", Type: model.TypeText}
	for _, blank := range []any{nil, "", "N/A"} {
		pv := ResolvePrimary(col, map[string]any{"id": "abc123", "name": blank})
		if !pv.UseIDFallback {
			t.Errorf("value %v should fall back to id", blank)
		}
		if pv.Value != "abc123" {
			t.Errorf("fallback value = %v, want abc123", pv.Value)
		}
	}

	pv := ResolvePrimary(col, map[string]any{"id": "abc123", "name": "Ada"})
	if pv.UseIDFallback || pv.Value != "Ada" {
		t.Errorf("got %+v, want Ada without fallback", pv)
	}
}

func TestResolvePrimary_CompoundNeedsObject(t *testing.T) {
	col := model.Column{Key: "user", Type: model.TypeCompound}

	pv := ResolvePrimary(col, map[string]any{"id": "r1", "user": "not-an-object"})
	if !pv.UseIDFallback {
		t.Error("non-object compound value should fall back to id")
	}

	pv = ResolvePrimary(col, map[string]any{"id": "r1", "user": map[string]any{"displayName": "Ada"}})
	if pv.UseIDFallback {
		t.Error("object compound value should not fall back")
	}
}

func TestResolvePrimary_DotPath(t *testing.T) {
	col := model.Column{Key: "profile.name", Type: model.TypeText}
	row := map[string]any{
		"id":      "r1",
		"profile": map[string]any{"name": "Ada"},
	}
	pv := ResolvePrimary(col, row)
	if pv.Value != "Ada" || pv.UseIDFallback {
		t.Errorf("got %+v, want nested Ada", pv)
	}
}

func TestLookupPath_MissingSegment(t *testing.T) {
	row := map[string]any{"a": map[string]any{"b": 1}}
	if v := LookupPath(row, "a.c.d"); v != nil {
		t.Errorf("missing path = %v, want nil", v)
	}
}

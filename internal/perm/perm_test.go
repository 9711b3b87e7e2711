package perm

import "testing"

func testKeys() Keys {
	return Keys{
		Access: "orders.access",
		View:   "orders.view",
		Create: "orders.create",
		Edit:   "orders.edit",
		Delete: "orders.delete",
	}
}

func TestResolve_FullCapabilities(t *testing.T) {
	r, err := NewResolver(testKeys(), "")
	if err != nil {
		t.Fatal(err)
	}
	s := r.Resolve([]string{"orders.access", "orders.view", "orders.create", "orders.edit", "orders.delete"})
	if !s.CanAccess || !s.CanView || !s.CanCreate || !s.CanEdit || !s.CanDelete {
		t.Errorf("got %+v, want everything granted", s)
	}
}

func TestResolve_MissingAccessDisablesAll(t *testing.T) {
	r, _ := NewResolver(testKeys(), "")
	s := r.Resolve([]string{"orders.view", "orders.edit"})
	if s.CanAccess {
		t.Error("access should be denied")
	}
	if s.CanView || s.CanEdit {
		t.Error("no capability survives a missing access key")
	}
}

func TestResolve_EmptyKeyGrants(t *testing.T) {
	r, _ := NewResolver(Keys{}, "")
	s := r.Resolve(nil)
	if !s.CanAccess || !s.CanView || !s.CanCreate || !s.CanEdit || !s.CanDelete {
		t.Errorf("unconfigured keys should grant, got %+v", s)
	}
}

func TestCanEditRow_Condition(t *testing.T) {
	r, err := NewResolver(Keys{}, `row.status != "archived"`)
	if err != nil {
		t.Fatal(err)
	}
	s := r.Resolve(nil)

	if !r.CanEditRow(s, map[string]any{"status": "open"}) {
		t.Error("open row should be editable")
	}
	if r.CanEditRow(s, map[string]any{"status": "archived"}) {
		t.Error("archived row should not be editable")
	}
}

func TestCanEditRow_SoftDeleted(t *testing.T) {
	r, _ := NewResolver(Keys{}, "")
	s := r.Resolve(nil)
	if r.CanEditRow(s, map[string]any{"deleted_at": "2026-01-01T00:00:00Z"}) {
		t.Error("soft-deleted row must never be editable")
	}
	if !r.CanEditRow(s, map[string]any{"deleted_at": nil}) {
		t.Error("nil deleted_at should not block editing")
	}
}

func TestCanEditRow_RequiresEditCapability(t *testing.T) {
	r, _ := NewResolver(testKeys(), "")
	s := r.Resolve([]string{"orders.access", "orders.view"})
	if r.CanEditRow(s, map[string]any{}) {
		t.Error("row edit without the edit capability")
	}
}

func TestNewResolver_BadExpression(t *testing.T) {
	if _, err := NewResolver(Keys{}, "row.status !="); err == nil {
		t.Error("expected a compile error")
	}
}

func TestCanEditRow_EvalErrorDenies(t *testing.T) {
	r, err := NewResolver(Keys{}, `row.count > 3`)
	if err != nil {
		t.Fatal(err)
	}
	s := r.Resolve(nil)
	if r.CanEditRow(s, map[string]any{"count": "not-a-number"}) {
		t.Error("evaluation error should deny, not grant")
	}
}

// Package perm resolves table-level capability keys against a caller's
// capability list, plus per-row edit eligibility via a compiled condition
// expression.
package perm

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Keys names the capabilities a model requires for each operation. Empty
// keys grant the operation unconditionally.
type Keys struct {
	Access string `json:"access,omitempty"`
	View   string `json:"view,omitempty"`
	Create string `json:"create,omitempty"`
	Edit   string `json:"edit,omitempty"`
	Delete string `json:"delete,omitempty"`
}

// Set holds the resolved capability booleans for one caller on one model.
type Set struct {
	CanAccess bool `json:"can_access"`
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// Resolver computes permission sets and row-level edit eligibility for one
// model. The edit condition, when configured, is compiled once and evaluated
// against each row's map.
type Resolver struct {
	keys    Keys
	editPrg *vm.Program
}

// NewResolver compiles the optional edit condition expression. The expression
// sees the row under the name "row", e.g. `row.status != "archived"`.
func NewResolver(keys Keys, editCondition string) (*Resolver, error) {
	r := &Resolver{keys: keys}
	if editCondition != "" {
		prg, err := expr.Compile(editCondition, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling edit condition: %w", err)
		}
		r.editPrg = prg
	}
	return r, nil
}

// Resolve computes the capability booleans for a caller. A missing access
// capability does not hide the view — callers render it disabled with an
// overlay so layout is preserved — but it forces every other capability off.
func (r *Resolver) Resolve(capabilities []string) Set {
	has := func(key string) bool {
		if key == "" {
			return true
		}
		for _, c := range capabilities {
			if c == key {
				return true
			}
		}
		return false
	}
	s := Set{CanAccess: has(r.keys.Access)}
	if !s.CanAccess {
		return s
	}
	s.CanView = has(r.keys.View)
	s.CanCreate = has(r.keys.Create)
	s.CanEdit = has(r.keys.Edit)
	s.CanDelete = has(r.keys.Delete)
	return s
}

// CanEditRow gates per-row editing: the caller must hold the edit capability,
// the row must not be soft-deleted, and the edit condition (if any) must hold.
// Evaluation errors deny the edit rather than failing the request.
func (r *Resolver) CanEditRow(s Set, row map[string]any) bool {
	if !s.CanEdit {
		return false
	}
	if deleted, ok := row["deleted_at"]; ok && deleted != nil {
		return false
	}
	if r.editPrg == nil {
		return true
	}
	out, err := expr.Run(r.editPrg, map[string]any{"row": row})
	if err != nil {
		return false
	}
	allowed, _ := out.(bool)
	return allowed
}

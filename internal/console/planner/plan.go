// Package planner transforms RQL AST nodes into validated query plans
// against the registered models.
package planner

import "github.com/matthewbaird/viewcore/internal/engine"

// PlanType identifies the kind of query plan.
type PlanType int

const (
	PlanFind PlanType = iota
	PlanGet
	PlanCount
	PlanDescribe
	PlanLifecycle
	PlanMeta
)

// QueryPlan is the validated, resolved plan ready for the executor.
type QueryPlan struct {
	Type  PlanType
	Model string

	// For PlanFind / PlanCount
	Predicates  []PredicateSpec
	Columns     []string // projection (nil = all)
	Order       *OrderSpec
	Limit       int // 0 = use default
	Offset      int
	WithDeleted bool

	// For PlanGet
	ID string

	// For PlanLifecycle
	BulkOp engine.BulkOp
	IDs    []string

	// For PlanMeta
	MetaCommand string
	MetaArgs    []string
}

// PredicateSpec is a resolved predicate for the executor.
type PredicateSpec struct {
	Column string
	Op     PredicateOp
	Value  any   // coerced Go value
	Values []any // for OpIn
}

// PredicateOp enumerates comparison operators at the plan level.
type PredicateOp int

const (
	OpEQ PredicateOp = iota
	OpNEQ
	OpGT
	OpLT
	OpGTE
	OpLTE
	OpIn
	OpLike
)

// String returns the operator symbol.
func (op PredicateOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNEQ:
		return "!="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpGTE:
		return ">="
	case OpLTE:
		return "<="
	case OpIn:
		return "IN"
	case OpLike:
		return "LIKE"
	default:
		return "?"
	}
}

// OrderSpec is a resolved ordering specification.
type OrderSpec struct {
	Column string
	Desc   bool
}

package planner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/matthewbaird/viewcore/internal/console/rql"
	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/model"
)

// DefaultLimit is applied when no explicit limit is specified.
const DefaultLimit = 100

// Engines is the slice of the engine registry the planner and executor need.
// handler.Registry satisfies it.
type Engines interface {
	Get(name string) (*engine.Engine, error)
	Names() []string
}

// ColumnInfo is the queryable shape of one row field.
type ColumnInfo struct {
	Key     string
	Type    model.ColumnType
	Options []model.Option
}

// builtins are row fields every model carries regardless of its columns.
var builtins = []ColumnInfo{
	{Key: "id", Type: model.TypeText},
	{Key: "created_at", Type: model.TypeDate},
	{Key: "updated_at", Type: model.TypeDate},
	{Key: "deleted_at", Type: model.TypeDate},
}

// Planner transforms RQL AST nodes into QueryPlans using the engine registry.
type Planner struct {
	engines Engines
}

// New creates a planner backed by the given engine registry.
func New(engines Engines) *Planner {
	return &Planner{engines: engines}
}

// Plan converts an RQL statement AST node into a validated QueryPlan.
func (p *Planner) Plan(stmt rql.Statement) (*QueryPlan, error) {
	switch s := stmt.(type) {
	case *rql.FindStmt:
		return p.planFind(s)
	case *rql.GetStmt:
		return p.planGet(s)
	case *rql.CountStmt:
		return p.planCount(s)
	case *rql.DescribeStmt:
		return p.planDescribe(s)
	case *rql.LifecycleStmt:
		return p.planLifecycle(s)
	case *rql.MetaCmdStmt:
		return &QueryPlan{Type: PlanMeta, MetaCommand: s.Command, MetaArgs: s.Args}, nil
	default:
		return nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// ── find ─────────────────────────────────────────────────────────────────────

func (p *Planner) planFind(stmt *rql.FindStmt) (*QueryPlan, error) {
	m, cols, err := p.resolveModel(stmt.Model)
	if err != nil {
		return nil, err
	}

	plan := &QueryPlan{
		Type:        PlanFind,
		Model:       m.Name,
		Limit:       DefaultLimit,
		WithDeleted: stmt.WithDeleted,
	}

	if stmt.Where != nil {
		preds, err := p.resolvePredicates(m, cols, stmt.Where.Expr)
		if err != nil {
			return nil, err
		}
		plan.Predicates = preds
	}

	if stmt.Select != nil {
		for _, c := range stmt.Select.Columns {
			ci, err := p.resolveColumn(m, cols, c)
			if err != nil {
				return nil, err
			}
			plan.Columns = append(plan.Columns, ci.Key)
		}
	}

	if stmt.OrderBy != nil {
		ci, err := p.resolveColumn(m, cols, stmt.OrderBy.Column)
		if err != nil {
			return nil, err
		}
		plan.Order = &OrderSpec{Column: ci.Key, Desc: stmt.OrderBy.Desc}
	}

	if stmt.Limit != nil {
		plan.Limit = stmt.Limit.Value
	}
	if stmt.Offset != nil {
		plan.Offset = stmt.Offset.Value
	}

	return plan, nil
}

// ── get ──────────────────────────────────────────────────────────────────────

func (p *Planner) planGet(stmt *rql.GetStmt) (*QueryPlan, error) {
	m, _, err := p.resolveModel(stmt.Model)
	if err != nil {
		return nil, err
	}
	return &QueryPlan{Type: PlanGet, Model: m.Name, ID: stmt.ID}, nil
}

// ── count ────────────────────────────────────────────────────────────────────

func (p *Planner) planCount(stmt *rql.CountStmt) (*QueryPlan, error) {
	m, cols, err := p.resolveModel(stmt.Model)
	if err != nil {
		return nil, err
	}

	plan := &QueryPlan{
		Type:        PlanCount,
		Model:       m.Name,
		WithDeleted: stmt.WithDeleted,
	}

	if stmt.Where != nil {
		preds, err := p.resolvePredicates(m, cols, stmt.Where.Expr)
		if err != nil {
			return nil, err
		}
		plan.Predicates = preds
	}

	return plan, nil
}

// ── describe ─────────────────────────────────────────────────────────────────

func (p *Planner) planDescribe(stmt *rql.DescribeStmt) (*QueryPlan, error) {
	if stmt.Model == "" {
		return &QueryPlan{Type: PlanDescribe}, nil
	}
	m, _, err := p.resolveModel(stmt.Model)
	if err != nil {
		return nil, err
	}
	return &QueryPlan{Type: PlanDescribe, Model: m.Name}, nil
}

// ── delete / restore / purge ─────────────────────────────────────────────────

func (p *Planner) planLifecycle(stmt *rql.LifecycleStmt) (*QueryPlan, error) {
	m, _, err := p.resolveModel(stmt.Model)
	if err != nil {
		return nil, err
	}

	var op engine.BulkOp
	switch stmt.Op {
	case rql.OpDelete:
		op = engine.BulkDelete
	case rql.OpRestore:
		op = engine.BulkRestore
	case rql.OpPurge:
		op = engine.BulkPurge
	default:
		return nil, fmt.Errorf("unsupported lifecycle verb '%s'", stmt.Op)
	}

	if (op == engine.BulkRestore || op == engine.BulkPurge) && !m.Paranoid {
		return nil, fmt.Errorf("'%s' requires a soft-deleting model; '%s' deletes rows permanently", stmt.Op, m.Name)
	}

	return &QueryPlan{Type: PlanLifecycle, Model: m.Name, BulkOp: op, IDs: stmt.IDs}, nil
}

// ── Resolution ───────────────────────────────────────────────────────────────

// Columns returns the queryable columns of a model: builtins, top-level
// columns, and compound sub-fields flattened to their extracted keys. The
// map is keyed by the lowercased key so lookups are case-insensitive; each
// ColumnInfo keeps the row's real key.
func Columns(m engine.Model) map[string]ColumnInfo {
	out := make(map[string]ColumnInfo)
	for _, b := range builtins {
		out[b.Key] = b
	}
	for _, c := range m.Columns {
		switch c.Type {
		case model.TypeCompound:
			for _, sf := range c.Compound.SubFields() {
				out[strings.ToLower(sf.Key)] = ColumnInfo{Key: sf.Key, Type: sf.Type, Options: sf.Options}
			}
		case model.TypeActions:
			// not a row field
		default:
			out[strings.ToLower(c.StorageKey())] = ColumnInfo{Key: c.StorageKey(), Type: c.Type, Options: c.Options}
		}
	}
	return out
}

// ColumnKeys returns the queryable column keys of a model, sorted.
func ColumnKeys(m engine.Model) []string {
	cols := Columns(m)
	keys := make([]string, 0, len(cols))
	for _, ci := range cols {
		keys = append(keys, ci.Key)
	}
	sort.Strings(keys)
	return keys
}

func (p *Planner) resolveModel(name string) (engine.Model, map[string]ColumnInfo, error) {
	e, err := p.engines.Get(name)
	if err != nil {
		suggestion := rql.SuggestFrom(name, p.engines.Names(), 3)
		if suggestion != "" {
			return engine.Model{}, nil, fmt.Errorf("unknown model '%s' (%s)", name, suggestion)
		}
		return engine.Model{}, nil, fmt.Errorf("unknown model '%s'", name)
	}
	m := e.Model()
	return m, Columns(m), nil
}

func (p *Planner) resolveColumn(m engine.Model, cols map[string]ColumnInfo, name string) (ColumnInfo, error) {
	if ci, ok := cols[strings.ToLower(name)]; ok {
		return ci, nil
	}
	suggestion := rql.SuggestFrom(name, ColumnKeys(m), 3)
	if suggestion != "" {
		return ColumnInfo{}, fmt.Errorf("unknown column '%s' on model '%s' (%s)", name, m.Name, suggestion)
	}
	return ColumnInfo{}, fmt.Errorf("unknown column '%s' on model '%s'", name, m.Name)
}

// ── Predicate resolution ────────────────────────────────────────────────────

// resolvePredicates flattens an AND-connected expression tree into a list of
// predicates. OR and NOT are rejected with clear errors; the capped in-memory
// evaluation the executor does cannot honor them faithfully.
func (p *Planner) resolvePredicates(m engine.Model, cols map[string]ColumnInfo, expr rql.Expr) ([]PredicateSpec, error) {
	switch e := expr.(type) {
	case *rql.ComparisonExpr:
		spec, err := p.resolveComparison(m, cols, e)
		if err != nil {
			return nil, err
		}
		return []PredicateSpec{spec}, nil

	case *rql.InExpr:
		spec, err := p.resolveInExpr(m, cols, e)
		if err != nil {
			return nil, err
		}
		return []PredicateSpec{spec}, nil

	case *rql.BinaryLogicExpr:
		if e.Op == rql.LogicAnd {
			left, err := p.resolvePredicates(m, cols, e.Left)
			if err != nil {
				return nil, err
			}
			right, err := p.resolvePredicates(m, cols, e.Right)
			if err != nil {
				return nil, err
			}
			return append(left, right...), nil
		}
		return nil, fmt.Errorf("OR expressions are not supported; run separate queries")

	case *rql.NotExpr:
		return nil, fmt.Errorf("NOT expressions are not supported; use != or separate queries")

	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func (p *Planner) resolveComparison(m engine.Model, cols map[string]ColumnInfo, expr *rql.ComparisonExpr) (PredicateSpec, error) {
	ci, err := p.resolveColumn(m, cols, expr.Column)
	if err != nil {
		return PredicateSpec{}, err
	}

	val, err := coerceLiteral(expr.Value, ci)
	if err != nil {
		return PredicateSpec{}, fmt.Errorf("column '%s': %w", expr.Column, err)
	}

	op := mapCompOp(expr.Op)

	if op == OpGT || op == OpLT || op == OpGTE || op == OpLTE {
		if !ordered(ci.Type) {
			return PredicateSpec{}, fmt.Errorf("column '%s' (type %s) does not support operator %s",
				expr.Column, ci.Type, op)
		}
	}
	if op == OpLike && ci.Type != model.TypeText && ci.Type != model.TypeTextarea && ci.Type != model.TypeEmail {
		return PredicateSpec{}, fmt.Errorf("'like' only applies to text columns, not %s", ci.Type)
	}

	return PredicateSpec{Column: ci.Key, Op: op, Value: val}, nil
}

func (p *Planner) resolveInExpr(m engine.Model, cols map[string]ColumnInfo, expr *rql.InExpr) (PredicateSpec, error) {
	ci, err := p.resolveColumn(m, cols, expr.Column)
	if err != nil {
		return PredicateSpec{}, err
	}

	var values []any
	for _, lit := range expr.Values {
		val, err := coerceLiteral(lit, ci)
		if err != nil {
			return PredicateSpec{}, fmt.Errorf("column '%s': %w", expr.Column, err)
		}
		values = append(values, val)
	}

	return PredicateSpec{Column: ci.Key, Op: OpIn, Values: values}, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────────

// ordered reports whether ordered operators make sense for a column type.
func ordered(t model.ColumnType) bool {
	switch t {
	case model.TypeNumber, model.TypeRating, model.TypeDate:
		return true
	}
	return false
}

func mapCompOp(op rql.CompOp) PredicateOp {
	switch op {
	case rql.CompEQ:
		return OpEQ
	case rql.CompNEQ:
		return OpNEQ
	case rql.CompGT:
		return OpGT
	case rql.CompLT:
		return OpLT
	case rql.CompGTE:
		return OpGTE
	case rql.CompLTE:
		return OpLTE
	case rql.CompLike:
		return OpLike
	default:
		return OpEQ
	}
}

// coerceLiteral converts an RQL literal to a Go value matching the column
// type. Select and multiselect values are validated against the option set.
func coerceLiteral(lit rql.Literal, ci ColumnInfo) (any, error) {
	switch lit.Type {
	case rql.LitString:
		if (ci.Type == model.TypeSelect || ci.Type == model.TypeMultiselect) && len(ci.Options) > 0 {
			valid := make([]string, 0, len(ci.Options))
			for _, opt := range ci.Options {
				if strings.EqualFold(lit.Raw, opt.Value) {
					return opt.Value, nil
				}
				valid = append(valid, opt.Value)
			}
			return nil, fmt.Errorf("invalid option '%s', valid options: %v", lit.Raw, valid)
		}
		return lit.Raw, nil

	case rql.LitInt:
		n, err := strconv.ParseInt(lit.Raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer: %s", lit.Raw)
		}
		// Rows hold JSON numbers as float64
		return float64(n), nil

	case rql.LitFloat:
		f, err := strconv.ParseFloat(lit.Raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float: %s", lit.Raw)
		}
		return f, nil

	case rql.LitBool:
		return strings.EqualFold(lit.Raw, "true"), nil

	case rql.LitNull:
		return nil, nil

	default:
		return lit.Raw, nil
	}
}

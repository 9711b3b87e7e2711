// Package executor runs console query plans against the live engines.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/matthewbaird/viewcore/internal/console/planner"
	"github.com/matthewbaird/viewcore/internal/engine"
)

// fetchWindow bounds how many rows one query pulls from the source before
// in-memory predicate evaluation. Results past the window are not visible
// to the console.
const fetchWindow = 500

// Result holds the output of a plan execution.
type Result struct {
	Rows   []json.RawMessage `json:"rows,omitempty"`
	Count  *int              `json:"count,omitempty"`
	Output string            `json:"output,omitempty"`
	Meta   *ResultMeta       `json:"meta,omitempty"`
}

// ResultMeta describes the result set.
type ResultMeta struct {
	Model string `json:"model"`
	Total int    `json:"total"`
}

// Executor runs QueryPlans against the engine registry. Every execution is
// capability-checked with the caller's capability list.
type Executor struct {
	engines planner.Engines
}

// New creates an executor over the given engine registry.
func New(engines planner.Engines) *Executor {
	return &Executor{engines: engines}
}

// Execute runs a query plan and returns the result.
func (e *Executor) Execute(ctx context.Context, plan *planner.QueryPlan, caps []string, actor string) (*Result, error) {
	switch plan.Type {
	case planner.PlanFind:
		return e.execFind(ctx, plan, caps)
	case planner.PlanGet:
		return e.execGet(ctx, plan, caps)
	case planner.PlanCount:
		return e.execCount(ctx, plan, caps)
	case planner.PlanDescribe:
		return e.execDescribe(plan)
	case planner.PlanLifecycle:
		return e.execLifecycle(ctx, plan, caps, actor)
	case planner.PlanMeta:
		return nil, fmt.Errorf("meta-commands should be handled by the meta-command handler")
	default:
		return nil, fmt.Errorf("unsupported plan type: %d", plan.Type)
	}
}

func (e *Executor) viewableEngine(model string, caps []string) (*engine.Engine, error) {
	eng, err := e.engines.Get(model)
	if err != nil {
		return nil, err
	}
	set := eng.Resolver().Resolve(caps)
	if !set.CanAccess || !set.CanView {
		return nil, fmt.Errorf("missing view capability for model '%s'", model)
	}
	return eng, nil
}

// ── find ─────────────────────────────────────────────────────────────────────

func (e *Executor) execFind(ctx context.Context, plan *planner.QueryPlan, caps []string) (*Result, error) {
	eng, err := e.viewableEngine(plan.Model, caps)
	if err != nil {
		return nil, err
	}

	rows, err := e.fetchMatching(ctx, eng, plan)
	if err != nil {
		return nil, err
	}

	if plan.Order != nil {
		sortRows(rows, plan.Order.Column, plan.Order.Desc)
	}

	if plan.Offset > 0 {
		if plan.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[plan.Offset:]
		}
	}
	if plan.Limit > 0 && len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
	}

	out, err := serializeRows(rows, plan.Columns)
	if err != nil {
		return nil, fmt.Errorf("serialization failed: %w", err)
	}

	return &Result{
		Rows: out,
		Meta: &ResultMeta{Model: plan.Model, Total: len(out)},
	}, nil
}

// ── get ──────────────────────────────────────────────────────────────────────

func (e *Executor) execGet(ctx context.Context, plan *planner.QueryPlan, caps []string) (*Result, error) {
	eng, err := e.viewableEngine(plan.Model, caps)
	if err != nil {
		return nil, err
	}

	row, found, err := eng.FetchRow(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no %s row with id '%s'", plan.Model, plan.ID)
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("serialization failed: %w", err)
	}

	return &Result{
		Rows: []json.RawMessage{data},
		Meta: &ResultMeta{Model: plan.Model, Total: 1},
	}, nil
}

// ── count ────────────────────────────────────────────────────────────────────

func (e *Executor) execCount(ctx context.Context, plan *planner.QueryPlan, caps []string) (*Result, error) {
	eng, err := e.viewableEngine(plan.Model, caps)
	if err != nil {
		return nil, err
	}

	// With no predicates the source total is exact; otherwise count within
	// the fetch window.
	if len(plan.Predicates) == 0 {
		res, err := eng.Source().Fetch(ctx, engine.Query{
			Page:           1,
			PageSize:       1,
			IncludeDeleted: plan.WithDeleted,
		})
		if err != nil {
			return nil, fmt.Errorf("count failed: %w", err)
		}
		return &Result{
			Count: &res.Total,
			Meta:  &ResultMeta{Model: plan.Model, Total: res.Total},
		}, nil
	}

	rows, err := e.fetchMatching(ctx, eng, plan)
	if err != nil {
		return nil, err
	}
	count := len(rows)
	return &Result{
		Count: &count,
		Meta:  &ResultMeta{Model: plan.Model, Total: count},
	}, nil
}

// ── describe ─────────────────────────────────────────────────────────────────

func (e *Executor) execDescribe(plan *planner.QueryPlan) (*Result, error) {
	if plan.Model == "" {
		names := e.engines.Names()
		return &Result{Output: fmt.Sprintf("Models (%d):\n  %s", len(names), strings.Join(names, "\n  "))}, nil
	}

	eng, err := e.engines.Get(plan.Model)
	if err != nil {
		return nil, err
	}
	m := eng.Model()

	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s", m.Name)
	if m.Title != "" {
		fmt.Fprintf(&b, " (%s)", m.Title)
	}
	b.WriteString("\n")
	if m.Paranoid {
		b.WriteString("Soft delete: yes\n")
	}
	if m.EditCondition != "" {
		fmt.Fprintf(&b, "Edit condition: %s\n", m.EditCondition)
	}

	cols := planner.Columns(m)
	b.WriteString("\nColumns:\n")
	for _, key := range planner.ColumnKeys(m) {
		ci := cols[strings.ToLower(key)]
		extra := ""
		if len(ci.Options) > 0 {
			vals := make([]string, 0, len(ci.Options))
			for _, opt := range ci.Options {
				vals = append(vals, opt.Value)
			}
			extra = " options=[" + strings.Join(vals, ", ") + "]"
		}
		fmt.Fprintf(&b, "  %-24s %s%s\n", key, ci.Type, extra)
	}

	return &Result{Output: b.String()}, nil
}

// ── delete / restore / purge ─────────────────────────────────────────────────

func (e *Executor) execLifecycle(ctx context.Context, plan *planner.QueryPlan, caps []string, actor string) (*Result, error) {
	eng, err := e.engines.Get(plan.Model)
	if err != nil {
		return nil, err
	}

	set := eng.Resolver().Resolve(caps)
	if !set.CanAccess || !set.CanDelete {
		return nil, fmt.Errorf("missing delete capability for model '%s'", plan.Model)
	}

	if err := eng.BulkAction(ctx, plan.BulkOp, plan.IDs, actor); err != nil {
		return nil, fmt.Errorf("%s failed: %w", plan.BulkOp, err)
	}

	count := len(plan.IDs)
	return &Result{
		Count:  &count,
		Output: fmt.Sprintf("%s: %d %s row(s)", plan.BulkOp, count, plan.Model),
		Meta:   &ResultMeta{Model: plan.Model, Total: count},
	}, nil
}

// ── Row fetching and predicate evaluation ───────────────────────────────────

// fetchMatching pulls a window of rows with equality predicates pushed into
// the source filter, then evaluates the full predicate list in memory.
func (e *Executor) fetchMatching(ctx context.Context, eng *engine.Engine, plan *planner.QueryPlan) ([]map[string]any, error) {
	q := engine.Query{
		Page:           1,
		PageSize:       fetchWindow,
		IncludeDeleted: plan.WithDeleted,
	}
	for _, pred := range plan.Predicates {
		if pred.Op == planner.OpEQ {
			if q.Filters == nil {
				q.Filters = make(map[string]any)
			}
			q.Filters[pred.Column] = pred.Value
		}
	}

	res, err := eng.Source().Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var rows []map[string]any
	for _, row := range res.Rows {
		if matchesAll(row, plan.Predicates) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func matchesAll(row map[string]any, preds []planner.PredicateSpec) bool {
	for _, pred := range preds {
		if !matches(row, pred) {
			return false
		}
	}
	return true
}

func matches(row map[string]any, pred planner.PredicateSpec) bool {
	val := row[pred.Column]

	switch pred.Op {
	case planner.OpEQ:
		return equalValues(val, pred.Value)
	case planner.OpNEQ:
		return !equalValues(val, pred.Value)
	case planner.OpGT, planner.OpLT, planner.OpGTE, planner.OpLTE:
		cmp, ok := compareValues(val, pred.Value)
		if !ok {
			return false
		}
		switch pred.Op {
		case planner.OpGT:
			return cmp > 0
		case planner.OpLT:
			return cmp < 0
		case planner.OpGTE:
			return cmp >= 0
		default:
			return cmp <= 0
		}
	case planner.OpIn:
		for _, want := range pred.Values {
			if equalValues(val, want) {
				return true
			}
		}
		return false
	case planner.OpLike:
		s, ok := val.(string)
		pattern, ok2 := pred.Value.(string)
		return ok && ok2 && likeMatch(s, pattern)
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

// compareValues orders two values: numbers numerically, strings lexically.
func compareValues(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// likeMatch implements SQL-style LIKE with % wildcards, case-insensitive.
func likeMatch(s, pattern string) bool {
	s = strings.ToLower(s)
	pattern = strings.ToLower(pattern)

	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}

	// Leading segment anchors at the start, trailing at the end, the rest
	// must appear in order.
	if parts[0] != "" {
		if !strings.HasPrefix(s, parts[0]) {
			return false
		}
		s = s[len(parts[0]):]
	}
	last := parts[len(parts)-1]
	if last != "" {
		if !strings.HasSuffix(s, last) {
			return false
		}
		s = s[:len(s)-len(last)]
	}
	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		idx := strings.Index(s, mid)
		if idx < 0 {
			return false
		}
		s = s[idx+len(mid):]
	}
	return true
}

func sortRows(rows []map[string]any, column string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		cmp, ok := compareValues(rows[i][column], rows[j][column])
		if !ok {
			return false
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func serializeRows(rows []map[string]any, columns []string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		projected := row
		if len(columns) > 0 {
			projected = make(map[string]any, len(columns)+1)
			// id is always included
			if v, ok := row["id"]; ok {
				projected["id"] = v
			}
			for _, c := range columns {
				if v, ok := row[c]; ok {
					projected[c] = v
				}
			}
		}
		data, err := json.Marshal(projected)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

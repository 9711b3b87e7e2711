package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/viewcore/internal/console/rql"
	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/model"
	"github.com/matthewbaird/viewcore/internal/perm"
)

type stubSource struct{}

func (stubSource) Fetch(ctx context.Context, q engine.Query) (engine.FetchResult, error) {
	return engine.FetchResult{}, nil
}

func (stubSource) Submit(ctx context.Context, id string, payload map[string]any, isEdit bool) (string, map[string]string, error) {
	return id, nil, nil
}

func (stubSource) BulkMutate(ctx context.Context, op engine.BulkOp, ids []string) error {
	return nil
}

type fakeEngines struct {
	engines map[string]*engine.Engine
}

func (f *fakeEngines) Get(name string) (*engine.Engine, error) {
	e, ok := f.engines[name]
	if !ok {
		return nil, assert.AnError
	}
	return e, nil
}

func (f *fakeEngines) Names() []string {
	names := make([]string, 0, len(f.engines))
	for n := range f.engines {
		names = append(names, n)
	}
	return names
}

func testEngines(t *testing.T) *fakeEngines {
	t.Helper()

	contacts := engine.Model{
		Name:     "contacts",
		Paranoid: true,
		Columns: []model.Column{
			{
				Key:   "profile",
				Title: "Profile",
				Type:  model.TypeCompound,
				Compound: &model.CompoundConfig{
					Primary:   []model.SubField{{Key: "displayName", Type: model.TypeText, Required: true, Editable: true, UsedInCreate: true}},
					Secondary: &model.SubField{Key: "email", Type: model.TypeEmail, Editable: true, UsedInCreate: true},
				},
			},
			{
				Key: "status", Title: "Status", Type: model.TypeSelect,
				Options: []model.Option{{Value: "active", Label: "Active"}, {Value: "retired", Label: "Retired"}},
			},
			{Key: "score", Title: "Score", Type: model.TypeRating},
			{Key: "row_actions", Title: "", Type: model.TypeActions},
		},
		Permissions: perm.Keys{},
	}

	orders := engine.Model{
		Name:    "orders",
		Columns: []model.Column{{Key: "total", Title: "Total", Type: model.TypeNumber}},
	}

	f := &fakeEngines{engines: make(map[string]*engine.Engine)}
	for _, m := range []engine.Model{contacts, orders} {
		e, err := engine.New(m, stubSource{}, nil)
		require.NoError(t, err)
		f.engines[m.Name] = e
	}
	return f
}

func planRQL(t *testing.T, engines Engines, input string) (*QueryPlan, error) {
	t.Helper()
	lexer := rql.NewLexer(input)
	tokens, lexErrs := lexer.Tokenize()
	require.Empty(t, lexErrs)

	parser := rql.NewParser(tokens)
	stmts, parseErrs := parser.Parse()
	require.Empty(t, parseErrs)
	require.Len(t, stmts, 1)

	return New(engines).Plan(stmts[0])
}

func mustPlan(t *testing.T, engines Engines, input string) *QueryPlan {
	t.Helper()
	plan, err := planRQL(t, engines, input)
	require.NoError(t, err)
	return plan
}

func TestPlanner_FindBasic(t *testing.T) {
	engines := testEngines(t)
	plan := mustPlan(t, engines, "find contacts")

	assert.Equal(t, PlanFind, plan.Type)
	assert.Equal(t, "contacts", plan.Model)
	assert.Equal(t, DefaultLimit, plan.Limit)
	assert.Empty(t, plan.Predicates)
}

func TestPlanner_FindWithWhere(t *testing.T) {
	engines := testEngines(t)
	plan := mustPlan(t, engines, `find contacts where status = "active" and score >= 3`)

	require.Len(t, plan.Predicates, 2)
	assert.Equal(t, "status", plan.Predicates[0].Column)
	assert.Equal(t, OpEQ, plan.Predicates[0].Op)
	assert.Equal(t, "active", plan.Predicates[0].Value)

	assert.Equal(t, "score", plan.Predicates[1].Column)
	assert.Equal(t, OpGTE, plan.Predicates[1].Op)
	assert.Equal(t, float64(3), plan.Predicates[1].Value)
}

func TestPlanner_CompoundSubFieldResolves(t *testing.T) {
	engines := testEngines(t)
	plan := mustPlan(t, engines, `find contacts where displayname != "Ada" order by email`)

	require.Len(t, plan.Predicates, 1)
	assert.Equal(t, "displayName", plan.Predicates[0].Column, "resolution restores the row's real key")
	require.NotNil(t, plan.Order)
	assert.Equal(t, "email", plan.Order.Column)
}

func TestPlanner_UnknownModelSuggestion(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, "find contact")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model 'contact'")
	assert.Contains(t, err.Error(), "did you mean 'contacts'?")
}

func TestPlanner_UnknownColumnSuggestion(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `find contacts where stats = "active"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column 'stats'")
	assert.Contains(t, err.Error(), "did you mean 'status'?")
}

func TestPlanner_InvalidSelectOption(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `find contacts where status = "archived"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid option 'archived'")
}

func TestPlanner_OrderedOpOnUnorderedColumn(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `find contacts where status > "active"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support operator >")
}

func TestPlanner_LikeOnNonTextColumn(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `find contacts where score like "3%"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'like' only applies to text columns")
}

func TestPlanner_OrRejected(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `find contacts where status = "active" or score = 5`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OR expressions are not supported")
}

func TestPlanner_NotRejected(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `find contacts where not status = "active"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT expressions are not supported")
}

func TestPlanner_InPredicate(t *testing.T) {
	engines := testEngines(t)
	plan := mustPlan(t, engines, `count contacts where status in ["active", "retired"]`)

	assert.Equal(t, PlanCount, plan.Type)
	require.Len(t, plan.Predicates, 1)
	assert.Equal(t, OpIn, plan.Predicates[0].Op)
	assert.Equal(t, []any{"active", "retired"}, plan.Predicates[0].Values)
}

func TestPlanner_Lifecycle(t *testing.T) {
	engines := testEngines(t)
	plan := mustPlan(t, engines, `delete contacts ["r-1", "r-2"]`)

	assert.Equal(t, PlanLifecycle, plan.Type)
	assert.Equal(t, engine.BulkDelete, plan.BulkOp)
	assert.Equal(t, []string{"r-1", "r-2"}, plan.IDs)
}

func TestPlanner_RestoreNeedsSoftDelete(t *testing.T) {
	engines := testEngines(t)
	_, err := planRQL(t, engines, `restore orders "o-1"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a soft-deleting model")
}

func TestPlanner_DescribeWithoutModel(t *testing.T) {
	engines := testEngines(t)
	plan := mustPlan(t, engines, "describe")
	assert.Equal(t, PlanDescribe, plan.Type)
	assert.Empty(t, plan.Model)
}

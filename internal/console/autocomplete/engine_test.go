package autocomplete

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/model"
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

type oneEngine struct {
	eng *engine.Engine
}

func (o *oneEngine) Get(name string) (*engine.Engine, error) {
	if name != o.eng.Model().Name {
		return nil, assert.AnError
	}
	return o.eng, nil
}

func (o *oneEngine) Names() []string {
	return []string{o.eng.Model().Name}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()

	m := engine.Model{
		Name: "contacts",
		Columns: []model.Column{
			{Key: "name", Title: "Name", Type: model.TypeText},
			{
				Key: "status", Title: "Status", Type: model.TypeSelect,
				Options: []model.Option{{Value: "active", Label: "Active"}, {Value: "retired", Label: "Retired"}},
			},
		},
	}
	eng, err := engine.New(m, stubSource{}, nil)
	require.NoError(t, err)
	return New(&oneEngine{eng: eng})
}

func labels(items []CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestComplete_EmptyInputSuggestsVerbsAndCommands(t *testing.T) {
	e := testEngine(t)
	got := labels(e.Complete("", 0))
	assert.Contains(t, got, "find")
	assert.Contains(t, got, "describe")
	assert.Contains(t, got, ":help")
}

func TestComplete_PartialVerb(t *testing.T) {
	e := testEngine(t)
	got := labels(e.Complete("fi", 2))
	assert.Equal(t, []string{"find"}, got)
}

func TestComplete_ModelAfterVerb(t *testing.T) {
	e := testEngine(t)
	got := labels(e.Complete("find ", 5))
	assert.Equal(t, []string{"contacts"}, got)
}

func TestComplete_ColumnsAfterWhere(t *testing.T) {
	e := testEngine(t)
	input := "find contacts where "
	got := labels(e.Complete(input, len(input)))
	assert.Contains(t, got, "name")
	assert.Contains(t, got, "status")
	assert.Contains(t, got, "id", "built-in columns complete too")
}

func TestComplete_OperatorsAfterColumn(t *testing.T) {
	e := testEngine(t)
	input := "find contacts where status "
	got := labels(e.Complete(input, len(input)))
	assert.Contains(t, got, "=")
	assert.Contains(t, got, "like")
}

func TestComplete_OptionValuesAfterOperator(t *testing.T) {
	e := testEngine(t)
	input := "find contacts where status = "
	items := e.Complete(input, len(input))
	require.Len(t, items, 2)
	assert.Equal(t, "active", items[0].Label)
	assert.Equal(t, `"active"`, items[0].InsertText)
}

func TestComplete_ByAfterOrder(t *testing.T) {
	e := testEngine(t)
	input := "find contacts order "
	got := labels(e.Complete(input, len(input)))
	assert.Equal(t, []string{"by"}, got)
}

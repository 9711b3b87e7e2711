package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/viewcore/internal/event"
	"github.com/matthewbaird/viewcore/internal/eventbus"
	"github.com/matthewbaird/viewcore/internal/model"
	"github.com/matthewbaird/viewcore/internal/view"
)

// fakeSource records the calls the engine makes, in order.
type fakeSource struct {
	mu            sync.Mutex
	calls         []string
	rows          []map[string]any
	fieldErrs     map[string]string
	submitErr     error
	fetchErr      error
	submitBlock   chan struct{}
	submitEntered chan struct{}
	generatedID   string
}

func (f *fakeSource) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeSource) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) Fetch(_ context.Context, q Query) (FetchResult, error) {
	f.record("fetch")
	if f.fetchErr != nil {
		return FetchResult{}, f.fetchErr
	}
	return FetchResult{Rows: f.rows, Total: len(f.rows)}, nil
}

func (f *fakeSource) Submit(_ context.Context, id string, payload map[string]any, isEdit bool) (string, map[string]string, error) {
	f.record("submit")
	if f.submitEntered != nil {
		close(f.submitEntered)
		f.submitEntered = nil
	}
	if f.submitBlock != nil {
		<-f.submitBlock
	}
	if f.submitErr != nil || len(f.fieldErrs) > 0 {
		return "", f.fieldErrs, f.submitErr
	}
	if id == "" {
		id = f.generatedID
	}
	return id, nil, nil
}

func (f *fakeSource) BulkMutate(_ context.Context, op BulkOp, ids []string) error {
	f.record("bulk:" + string(op))
	return nil
}

func testModel(paranoid bool) Model {
	return Model{
		Name:     "contacts",
		Paranoid: paranoid,
		Columns: []model.Column{
			{Key: "name", Type: model.TypeText, Required: true},
			{Key: "age", Type: model.TypeNumber, Optional: true},
		},
	}
}

func TestSubmit_LocalValidationNeverHitsNetwork(t *testing.T) {
	src := &fakeSource{}
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)

	outcome := e.Submit(context.Background(), "", map[string]any{"name": "", "age": "30"}, false, "tester")

	require.NotEmpty(t, outcome.FieldErrors)
	assert.Contains(t, outcome.FieldErrors, "name")
	assert.Empty(t, src.callLog(), "a local validation failure must not reach the data source")
}

func TestSubmit_SuccessRefetchesBeforeOverview(t *testing.T) {
	src := &fakeSource{rows: []map[string]any{{"id": "r1", "name": "Ada"}}}
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)
	e.Machine().GoToCreate()

	outcome := e.Submit(context.Background(), "", map[string]any{"name": "Ada"}, false, "tester")

	require.True(t, outcome.OK)
	assert.Equal(t, []string{"submit", "fetch"}, src.callLog(), "the page refetch must follow the submit")
	assert.Equal(t, view.StateOverview, e.Machine().Current())
	rows, total, _ := e.Page()
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
}

func TestSubmit_CreatePublishesGeneratedRowID(t *testing.T) {
	src := &fakeSource{generatedID: "gen-42"}
	bus := eventbus.New(4)
	got := make(chan event.MutationEvent, 1)
	bus.Subscribe("capture", eventbus.HandlerFunc(func(_ context.Context, evt event.MutationEvent) error {
		got <- evt
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	e, err := New(testModel(false), src, bus)
	require.NoError(t, err)

	outcome := e.Submit(context.Background(), "", map[string]any{"name": "Ada"}, false, "tester")
	require.True(t, outcome.OK)

	select {
	case evt := <-got:
		assert.Equal(t, "row_created", evt.EventType)
		assert.Equal(t, []string{"gen-42"}, evt.RowIDs, "the event must carry the id the source generated")
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestSubmit_ServerFieldErrors(t *testing.T) {
	src := &fakeSource{fieldErrs: map[string]string{"name": "already taken"}}
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)
	e.Machine().GoToCreate()

	outcome := e.Submit(context.Background(), "", map[string]any{"name": "Ada"}, false, "tester")

	assert.Equal(t, "already taken", outcome.FieldErrors["name"])
	assert.False(t, outcome.OK)
	assert.Equal(t, view.StateCreate, e.Machine().Current(), "the form stays up on server field errors")
}

func TestSubmit_GeneralErrorKeepsForm(t *testing.T) {
	src := &fakeSource{submitErr: errors.New("connection reset")}
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)
	e.Machine().GoToEdit("r1")

	outcome := e.Submit(context.Background(), "r1", map[string]any{"name": "Ada"}, true, "tester")

	assert.Equal(t, "connection reset", outcome.Error)
	assert.Empty(t, outcome.FieldErrors)
	assert.Equal(t, view.StateEdit, e.Machine().Current())
}

func TestSubmit_InFlightGuard(t *testing.T) {
	src := &fakeSource{
		submitBlock:   make(chan struct{}),
		submitEntered: make(chan struct{}),
	}
	entered := src.submitEntered
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)

	done := make(chan SubmitOutcome)
	go func() {
		done <- e.Submit(context.Background(), "", map[string]any{"name": "Ada"}, false, "tester")
	}()

	// wait until the first submit reaches the data source
	<-entered

	second := e.Submit(context.Background(), "", map[string]any{"name": "Bob"}, false, "tester")
	assert.Equal(t, ErrSubmitInFlight.Error(), second.Error)

	close(src.submitBlock)
	first := <-done
	assert.True(t, first.OK)
}

func TestBulkAction_RestoreNeedsParanoid(t *testing.T) {
	src := &fakeSource{}
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)

	err = e.BulkAction(context.Background(), BulkRestore, []string{"r1"}, "tester")
	require.Error(t, err)
	assert.Empty(t, src.callLog(), "a rejected bulk op must not reach the data source")
}

func TestBulkAction_DeleteRefetches(t *testing.T) {
	src := &fakeSource{}
	e, err := New(testModel(true), src, nil)
	require.NoError(t, err)

	require.NoError(t, e.BulkAction(context.Background(), BulkDelete, []string{"r1", "r2"}, "tester"))
	assert.Equal(t, []string{"bulk:delete", "fetch"}, src.callLog())
}

func TestLoad_ErrorKeepsPreviousRows(t *testing.T) {
	src := &fakeSource{rows: []map[string]any{{"id": "r1"}}}
	e, err := New(testModel(false), src, nil)
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))

	src.fetchErr = errors.New("gateway timeout")
	require.Error(t, e.Load(context.Background()))

	rows, _, fetchErr := e.Page()
	assert.Len(t, rows, 1, "previous rows survive a failed refetch")
	assert.Equal(t, "gateway timeout", fetchErr)
}

func TestNew_RejectsBadModel(t *testing.T) {
	_, err := New(Model{Name: "x", Columns: []model.Column{{Key: "a", Type: "mystery"}}}, &fakeSource{}, nil)
	assert.Error(t, err)

	_, err = New(Model{
		Name:          "x",
		Columns:       []model.Column{{Key: "a", Type: model.TypeText}},
		EditCondition: "row.status !=",
	}, &fakeSource{}, nil)
	assert.Error(t, err)
}

func TestVisibleGroups_Conditions(t *testing.T) {
	f := &model.FormDescriptor{Groups: []model.FormGroup{
		{Title: "Always", Priority: 2},
		{Title: "External", Priority: 1, Condition: `values.kind == "external"`},
	}}

	groups := VisibleGroups(f, map[string]any{"kind": "internal"})
	require.Len(t, groups, 1)
	assert.Equal(t, "Always", groups[0].Title)

	groups = VisibleGroups(f, map[string]any{"kind": "external"})
	require.Len(t, groups, 2)
	assert.Equal(t, "External", groups[0].Title, "groups come back in priority order")
}

func TestDefaultsFor_ReturnsCopy(t *testing.T) {
	e, err := New(testModel(false), &fakeSource{}, nil)
	require.NoError(t, err)

	d := e.DefaultsFor(false)
	d["name"] = "mutated"
	assert.Equal(t, "", e.DefaultsFor(false)["name"], "callers must get a private copy")
}

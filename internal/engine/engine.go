// Package engine ties one model's metadata to a data source: it owns the
// fetched page, the derived schemas and defaults, the view machine, and the
// submit/bulk flows. All transport failures become state on the engine, never
// panics, and nothing is retried without an explicit caller action.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matthewbaird/viewcore/internal/event"
	"github.com/matthewbaird/viewcore/internal/eventbus"
	"github.com/matthewbaird/viewcore/internal/model"
	"github.com/matthewbaird/viewcore/internal/perm"
	"github.com/matthewbaird/viewcore/internal/schema"
	"github.com/matthewbaird/viewcore/internal/stats"
	"github.com/matthewbaird/viewcore/internal/view"
)

// ErrSubmitInFlight is returned when a second submit is attempted while one
// is already running on the same engine.
var ErrSubmitInFlight = errors.New("submit already in flight")

// Model is the full declarative description of one table: columns, per-mode
// forms, and permission configuration. Treated as immutable once supplied.
type Model struct {
	Name          string                `json:"name"`
	Title         string                `json:"title,omitempty"`
	Columns       []model.Column        `json:"columns"`
	CreateForm    *model.FormDescriptor `json:"create_form,omitempty"`
	EditForm      *model.FormDescriptor `json:"edit_form,omitempty"`
	Permissions   perm.Keys             `json:"permissions"`
	EditCondition string                `json:"edit_condition,omitempty"`
	Paranoid      bool                  `json:"paranoid,omitempty"`
}

// SubmitOutcome reports how a submit ended. Exactly one of the three shapes
// applies: field errors (local or server), a general error message, or
// success.
type SubmitOutcome struct {
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Error       string            `json:"error,omitempty"`
	OK          bool              `json:"ok"`
}

// Engine drives one model instance. The validation schemas and defaults are
// built once at construction — the descriptor triple never changes identity
// for a live engine — and the machine is reset if the engine is rebuilt for a
// new model.
type Engine struct {
	model    Model
	source   DataSource
	resolver *perm.Resolver
	machine  *view.Machine
	bus      *eventbus.Bus

	createSchema   schema.Schema
	createDefaults schema.Defaults
	editSchema     schema.Schema
	editDefaults   schema.Defaults

	mu         sync.Mutex
	query      Query
	rows       []map[string]any
	total      int
	fetchErr   string
	submitting bool
}

// New validates the model's column set, compiles its permission resolver,
// and derives both mode schemas. The bus may be nil.
func New(m Model, source DataSource, bus *eventbus.Bus) (*Engine, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("model with empty name")
	}
	if err := model.ValidateColumns(m.Columns); err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, err)
	}
	resolver, err := perm.NewResolver(m.Permissions, m.EditCondition)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, err)
	}
	e := &Engine{
		model:    m,
		source:   source,
		resolver: resolver,
		machine:  view.NewMachine(),
		bus:      bus,
		query:    Query{Page: 1, PageSize: 20},
	}
	e.createSchema, e.createDefaults = schema.Build(m.Columns, m.CreateForm, false)
	e.editSchema, e.editDefaults = schema.Build(m.Columns, m.EditForm, true)
	return e, nil
}

// Model returns the immutable model description.
func (e *Engine) Model() Model { return e.model }

// Source returns the engine's backing data source.
func (e *Engine) Source() DataSource { return e.source }

// Machine returns the engine's view state machine.
func (e *Engine) Machine() *view.Machine { return e.machine }

// Resolver returns the engine's permission resolver.
func (e *Engine) Resolver() *perm.Resolver { return e.resolver }

// SchemaFor returns the validation schema for the given mode.
func (e *Engine) SchemaFor(isEdit bool) schema.Schema {
	if isEdit {
		return e.editSchema
	}
	return e.createSchema
}

// DefaultsFor returns a copy of the default value map for the given mode,
// safe for the caller to fill in.
func (e *Engine) DefaultsFor(isEdit bool) map[string]any {
	src := e.createDefaults
	if isEdit {
		src = e.editDefaults
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Load fetches the current page and replaces the engine's row state. A fetch
// failure is recorded as an error string with a retry affordance; the
// previous rows are kept so the view does not flash empty.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	q := e.query
	e.mu.Unlock()

	res, err := e.source.Fetch(ctx, q)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.fetchErr = err.Error()
		return err
	}
	e.rows = res.Rows
	e.total = res.Total
	e.fetchErr = ""
	return nil
}

// SetQuery replaces the page/sort/filter state. The caller follows up with
// Load.
func (e *Engine) SetQuery(q Query) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	e.mu.Lock()
	e.query = q
	e.mu.Unlock()
}

// Page returns the currently loaded rows, total count, and any fetch error.
func (e *Engine) Page() ([]map[string]any, int, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows, e.total, e.fetchErr
}

// Row finds a loaded row by id. Editing an id that is not on the loaded page
// returns false; the caller decides how to surface that.
func (e *Engine) Row(id string) (map[string]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rows {
		if fmt.Sprintf("%v", r["id"]) == id {
			return r, true
		}
	}
	return nil, false
}

// FetchRow loads a single row by id straight from the data source, including
// soft-deleted rows. Used when an edit targets a row outside the loaded page.
func (e *Engine) FetchRow(ctx context.Context, id string) (map[string]any, bool, error) {
	res, err := e.source.Fetch(ctx, Query{
		Page:           1,
		PageSize:       1,
		Filters:        map[string]any{"id": id},
		IncludeDeleted: true,
	})
	if err != nil {
		return nil, false, err
	}
	if len(res.Rows) == 0 {
		return nil, false, nil
	}
	return res.Rows[0], true, nil
}

// Submit runs the full mutation flow for the create or edit form:
//
//  1. reject if a submit is already in flight on this engine
//  2. validate locally — a local failure returns field errors and performs
//     no network call
//  3. submit to the data source; server field errors map 1:1 into the same
//     per-field slots, general errors leave the form intact
//  4. on success, re-fetch the current page BEFORE transitioning back to
//     overview, so the overview never shows stale post-mutation data
//
// There is no cancellation of an in-flight submit: navigating away lets the
// request complete in the background. Known limitation carried from the
// original design.
func (e *Engine) Submit(ctx context.Context, id string, values map[string]any, isEdit bool, actor string) SubmitOutcome {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return SubmitOutcome{Error: ErrSubmitInFlight.Error()}
	}
	e.submitting = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()

	if errs := e.SchemaFor(isEdit).Validate(values); errs != nil {
		return SubmitOutcome{FieldErrors: errs}
	}

	rowID, fieldErrs, err := e.source.Submit(ctx, id, values, isEdit)
	if err != nil {
		return SubmitOutcome{Error: err.Error()}
	}
	if len(fieldErrs) > 0 {
		return SubmitOutcome{FieldErrors: fieldErrs}
	}

	// Refetch before leaving the form view.
	if err := e.Load(ctx); err != nil {
		return SubmitOutcome{OK: true, Error: err.Error()}
	}
	e.machine.GoToOverview()
	e.publish(ctx, rowID, values, isEdit, actor)
	return SubmitOutcome{OK: true}
}

func (e *Engine) publish(ctx context.Context, id string, values map[string]any, isEdit bool, actor string) {
	if e.bus == nil {
		return
	}
	if isEdit {
		e.bus.Publish(ctx, event.NewRowUpdated(e.model.Name, id, actor, values))
		return
	}
	e.bus.Publish(ctx, event.NewRowCreated(e.model.Name, id, actor, values))
}

// BulkAction applies a bulk mutation and re-fetches the current page. The
// restore and purge operations assume the data source supports soft
// deletion; non-paranoid models reject them up front.
func (e *Engine) BulkAction(ctx context.Context, op BulkOp, ids []string, actor string) error {
	if len(ids) == 0 {
		return nil
	}
	if !e.model.Paranoid && op != BulkDelete {
		return fmt.Errorf("model %s does not support %s", e.model.Name, op)
	}
	if err := e.source.BulkMutate(ctx, op, ids); err != nil {
		return err
	}
	if e.bus != nil {
		e.bus.Publish(ctx, event.NewBulkAction(e.model.Name, string(op), actor, ids))
	}
	return e.Load(ctx)
}

// analyticsSampleSize caps how many rows are pulled to compute per-column
// distributions.
const analyticsSampleSize = 1000

// Analytics fetches aggregate figures when the data source supports them,
// then enriches them with per-column value distributions over a bounded
// sample of rows.
func (e *Engine) Analytics(ctx context.Context) (Analytics, error) {
	src, ok := e.source.(AnalyticsSource)
	if !ok {
		return Analytics{}, fmt.Errorf("model %s has no analytics source", e.model.Name)
	}
	a, err := src.Analytics(ctx)
	if err != nil {
		return Analytics{}, err
	}
	res, err := e.source.Fetch(ctx, Query{Page: 1, PageSize: analyticsSampleSize})
	if err == nil {
		a.ByColumn = stats.Distributions(res.Rows, e.model.Columns)
	}
	return a, nil
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/viewcore/internal/display"
	"github.com/matthewbaird/viewcore/internal/engine"
)

// TableHandler serves the generic, metadata-driven CRUD surface: every
// registered model gets the same list/create/update/bulk/view endpoints,
// driven entirely by its column descriptors.
type TableHandler struct {
	registry *Registry
}

// NewTableHandler creates a TableHandler over the given registry.
func NewTableHandler(registry *Registry) *TableHandler {
	return &TableHandler{registry: registry}
}

// ListModels returns the registered model names.
func (h *TableHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": h.registry.Names()})
}

// GetModel returns one model's descriptor plus the caller's resolved
// permission set and the model's primary column.
func (h *TableHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	m := e.Model()
	perms := e.Resolver().Resolve(caller.Capabilities)
	resp := map[string]any{
		"model":       m,
		"permissions": perms,
	}
	if primary, found := display.PrimaryColumn(m.Columns); found {
		resp["primary_column"] = primary.Key
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSchema returns the validation schema outline and default values for a
// form mode (?mode=edit, create by default).
func (h *TableHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	e, _, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	isEdit := r.URL.Query().Get("mode") == "edit"
	s := e.SchemaFor(isEdit)
	fields := make(map[string]any, len(s))
	for key, v := range s {
		fields[key] = map[string]any{
			"type":     v.Type,
			"required": v.Required,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":   fields,
		"defaults": e.DefaultsFor(isEdit),
	})
}

// GetColumns returns the columns visible for a breakpoint and toggle set
// (?breakpoint=mobile&visible=a,b,c).
func (h *TableHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	e, _, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	bp := display.Breakpoint(r.URL.Query().Get("breakpoint"))
	if bp == "" {
		bp = display.BreakpointDesktop
	}
	var toggled map[string]bool
	if raw := r.URL.Query()["visible"]; len(raw) > 0 {
		toggled = make(map[string]bool)
		for _, key := range raw {
			toggled[key] = true
		}
	}
	cols := display.VisibleColumns(e.Model().Columns, bp, toggled)
	writeJSON(w, http.StatusOK, map[string]any{"columns": cols})
}

// ListRows fetches a page of rows. A caller without the access capability
// gets an empty, disabled payload — the view renders inert rather than
// unmounting. Rows are annotated with per-row edit eligibility and the
// resolved primary value.
func (h *TableHandler) ListRows(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	perms := e.Resolver().Resolve(caller.Capabilities)
	if !perms.CanAccess {
		writeJSON(w, http.StatusOK, map[string]any{"rows": []any{}, "total": 0, "disabled": true})
		return
	}
	if !perms.CanView {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "view capability required")
		return
	}

	e.SetQuery(parseQuery(r))
	if err := e.Load(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "FETCH_ERROR", err.Error())
		return
	}
	rows, total, _ := e.Page()

	primary, hasPrimary := display.PrimaryColumn(e.Model().Columns)
	annotated := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out := make(map[string]any, len(row)+2)
		for k, v := range row {
			out[k] = v
		}
		out["_can_edit"] = e.Resolver().CanEditRow(perms, row)
		if hasPrimary {
			out["_primary"] = display.ResolvePrimary(primary, row)
		}
		annotated = append(annotated, out)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": annotated, "total": total})
}

// CreateRow validates and creates a row from the request body.
func (h *TableHandler) CreateRow(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, true)
	if !ok {
		return
	}
	perms := e.Resolver().Resolve(caller.Capabilities)
	if !perms.CanCreate {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "create capability required")
		return
	}
	var values map[string]any
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.writeOutcome(w, e.Submit(r.Context(), "", values, false, caller.Actor), http.StatusCreated)
}

// UpdateRow validates and updates the addressed row.
func (h *TableHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, true)
	if !ok {
		return
	}
	perms := e.Resolver().Resolve(caller.Capabilities)
	if !perms.CanEdit {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "edit capability required")
		return
	}
	id := chi.URLParam(r, "id")

	row, found, err := e.FetchRow(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "FETCH_ERROR", err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "row "+id+" not found")
		return
	}
	if !e.Resolver().CanEditRow(perms, row) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "row is not editable")
		return
	}

	var values map[string]any
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	h.writeOutcome(w, e.Submit(r.Context(), id, values, true, caller.Actor), http.StatusOK)
}

type bulkRequest struct {
	Op  engine.BulkOp `json:"op"`
	IDs []string      `json:"ids"`
}

// BulkAction applies soft delete, restore, or permanent delete to the
// selected ids.
func (h *TableHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, true)
	if !ok {
		return
	}
	perms := e.Resolver().Resolve(caller.Capabilities)
	if !perms.CanDelete {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "delete capability required")
		return
	}
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if err := e.BulkAction(r.Context(), req.Op, req.IDs, caller.Actor); err != nil {
		writeError(w, http.StatusBadRequest, "BULK_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Analytics returns aggregate figures for the analytics view.
func (h *TableHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	perms := e.Resolver().Resolve(caller.Capabilities)
	if !perms.CanView {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "view capability required")
		return
	}
	a, err := e.Analytics(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "FETCH_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetView reports the model's current view state.
func (h *TableHandler) GetView(w http.ResponseWriter, r *http.Request) {
	e, _, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	m := e.Machine()
	writeJSON(w, http.StatusOK, map[string]any{
		"current":    m.Current(),
		"editing_id": m.EditingID(),
	})
}

type viewRequest struct {
	ID string `json:"id,omitempty"`
}

// ViewAction drives the view state machine: create, edit, overview,
// analytics, back, reset.
func (h *TableHandler) ViewAction(w http.ResponseWriter, r *http.Request) {
	e, caller, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	perms := e.Resolver().Resolve(caller.Capabilities)
	m := e.Machine()

	var req viewRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
	}

	switch chi.URLParam(r, "action") {
	case "create":
		if !perms.CanCreate {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "create capability required")
			return
		}
		m.GoToCreate()
	case "edit":
		if !perms.CanEdit {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "edit capability required")
			return
		}
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "MISSING_ID", "edit requires a row id")
			return
		}
		m.GoToEdit(req.ID)
	case "overview":
		m.GoToOverview()
	case "analytics":
		m.GoToAnalytics()
	case "back":
		m.GoBack()
	case "reset":
		m.Reset()
	default:
		writeError(w, http.StatusBadRequest, "UNKNOWN_ACTION", "unknown view action")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"current":    m.Current(),
		"editing_id": m.EditingID(),
	})
}

func (h *TableHandler) lookup(w http.ResponseWriter, r *http.Request, requireActor bool) (*engine.Engine, CallerInfo, bool) {
	caller, ok := parseCaller(w, r, requireActor)
	if !ok {
		return nil, CallerInfo{}, false
	}
	e, err := h.registry.Get(modelParam(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return nil, CallerInfo{}, false
	}
	return e, caller, true
}

func (h *TableHandler) writeOutcome(w http.ResponseWriter, outcome engine.SubmitOutcome, successStatus int) {
	switch {
	case len(outcome.FieldErrors) > 0:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"validation_errors": outcome.FieldErrors,
		})
	case !outcome.OK:
		writeError(w, http.StatusBadRequest, "SUBMIT_ERROR", outcome.Error)
	default:
		writeJSON(w, successStatus, map[string]any{"ok": true})
	}
}

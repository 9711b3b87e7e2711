package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/viewcore/internal/activity"
)

// ActivityHandler serves the per-row audit trail collected from the mutation
// event bus.
type ActivityHandler struct {
	store activity.Store
}

// NewActivityHandler creates an ActivityHandler over the given store.
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// RowActivity handles GET /v1/models/{model}/rows/{id}/activity.
func (h *ActivityHandler) RowActivity(w http.ResponseWriter, r *http.Request) {
	model := modelParam(r)
	rowID := chi.URLParam(r, "id")
	values := r.URL.Query()

	opts := activity.QueryOptions{Cursor: values.Get("cursor")}
	if v := values.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := values.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_TIMESTAMP", "since must be RFC 3339")
			return
		}
		opts.Since = &ts
	}
	if v := values.Get("until"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_TIMESTAMP", "until must be RFC 3339")
			return
		}
		opts.Until = &ts
	}
	if v := values.Get("types"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.EventTypes = append(opts.EventTypes, t)
			}
		}
	}

	entries, nextCursor, total, err := h.store.QueryByRow(r.Context(), model, rowID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ACTIVITY_QUERY_FAILED", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":     entries,
		"total":       total,
		"next_cursor": nextCursor,
	})
}

// Search handles GET /v1/activity/search?q=...&model=...&since=...
func (h *ActivityHandler) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := values.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "q parameter is required")
		return
	}

	opts := activity.SearchOptions{Model: values.Get("model")}
	if v := values.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := values.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_TIMESTAMP", "since must be RFC 3339")
			return
		}
		opts.Since = &ts
	}

	entries, total, err := h.store.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ACTIVITY_SEARCH_FAILED", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
	})
}

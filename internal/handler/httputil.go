package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/viewcore/internal/engine"
)

// CallerInfo holds the identity and capability list extracted from request
// headers. Authentication itself happens upstream; the engine only needs the
// resolved capability strings.
type CallerInfo struct {
	Actor        string
	Capabilities []string
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// modelParam extracts the model name path parameter.
func modelParam(r *http.Request) string {
	return chi.URLParam(r, "model")
}

// parseCaller extracts caller identity from request headers. Mutating
// endpoints require an actor; read endpoints pass requireActor=false.
func parseCaller(w http.ResponseWriter, r *http.Request, requireActor bool) (CallerInfo, bool) {
	info := CallerInfo{Actor: r.Header.Get("X-Actor")}
	if requireActor && info.Actor == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ACTOR", "X-Actor header is required")
		return CallerInfo{}, false
	}
	if caps := r.Header.Get("X-Capabilities"); caps != "" {
		for _, c := range strings.Split(caps, ",") {
			if c = strings.TrimSpace(c); c != "" {
				info.Capabilities = append(info.Capabilities, c)
			}
		}
	}
	return info, true
}

// parseQuery builds a fetch query from list endpoint query params. Column
// filters arrive as filter.<key>=<value> params.
func parseQuery(r *http.Request) engine.Query {
	q := engine.Query{Page: 1, PageSize: 20}
	values := r.URL.Query()
	if v := values.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page = n
		}
	}
	if v := values.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.PageSize = n
		}
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if v := values.Get("sort"); v != "" {
		q.Sort = &engine.Sort{Field: v, Desc: values.Get("order") == "desc"}
	}
	q.Search = values.Get("search")
	q.IncludeDeleted = values.Get("include_deleted") == "true"
	for key, vals := range values {
		if !strings.HasPrefix(key, "filter.") || len(vals) == 0 {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]any)
		}
		q.Filters[strings.TrimPrefix(key, "filter.")] = vals[0]
	}
	return q
}

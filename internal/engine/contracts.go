package engine

import "context"

// Sort orders a fetch by one field.
type Sort struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Query describes one page of data to fetch.
type Query struct {
	Page           int            `json:"page"`
	PageSize       int            `json:"page_size"`
	Sort           *Sort          `json:"sort,omitempty"`
	Filters        map[string]any `json:"filters,omitempty"`
	Search         string         `json:"search,omitempty"`
	IncludeDeleted bool           `json:"include_deleted,omitempty"`
}

// FetchResult is one fetched page.
type FetchResult struct {
	Rows  []map[string]any `json:"rows"`
	Total int              `json:"total"`
}

// BulkOp is a bulk action over selected row ids.
type BulkOp string

const (
	BulkDelete  BulkOp = "delete"  // soft delete
	BulkRestore BulkOp = "restore" // undo soft delete
	BulkPurge   BulkOp = "purge"   // permanent delete
)

// DataSource is the transport the engine drives. Submit with an empty id
// creates; with an id it updates. It returns the row's id (generated by the
// source on create, echoed on update) so mutation events can reference the
// row. A submit may fail with per-field messages (returned map, nil error)
// or with a general error.
type DataSource interface {
	Fetch(ctx context.Context, q Query) (FetchResult, error)
	Submit(ctx context.Context, id string, payload map[string]any, isEdit bool) (string, map[string]string, error)
	BulkMutate(ctx context.Context, op BulkOp, ids []string) error
}

// AnalyticsSource is optionally implemented by data sources that can report
// aggregate figures for the analytics view.
type AnalyticsSource interface {
	Analytics(ctx context.Context) (Analytics, error)
}

// Analytics is the aggregate summary shown in the analytics view.
type Analytics struct {
	Total    int                       `json:"total"`
	Deleted  int                       `json:"deleted"`
	ByColumn map[string]map[string]int `json:"by_column,omitempty"`
}

// Package meta handles console meta-commands (:help, :clear, :models, :history).
package meta

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/viewcore/internal/console/planner"
	"github.com/matthewbaird/viewcore/internal/console/session"
)

// Handler dispatches meta-commands.
type Handler struct {
	engines planner.Engines
}

// New creates a meta-command handler over the engine registry.
func New(engines planner.Engines) *Handler {
	return &Handler{engines: engines}
}

// Result is the output of a meta-command execution.
type Result struct {
	Output string `json:"output"`
	Clear  bool   `json:"clear,omitempty"` // signal the frontend to clear the screen
}

// Execute runs a meta-command and returns the result.
func (h *Handler) Execute(sess *session.Session, command string, args []string) (*Result, error) {
	switch command {
	case "help":
		return h.help(args)
	case "clear":
		return &Result{Clear: true}, nil
	case "env":
		return h.env(sess)
	case "history":
		return h.history(sess)
	case "models":
		return h.models()
	case "columns":
		return h.columns(args)
	default:
		return nil, fmt.Errorf("unknown meta-command ':%s'. Type :help for available commands", command)
	}
}

func (h *Handler) help(args []string) (*Result, error) {
	if len(args) > 0 {
		return h.helpTopic(args[0])
	}

	help := `RQL — row query language

Queries:
  find <model> [clauses]     Search rows
  get <model> "<id>"         Fetch a single row by id
  count <model> [where ...]  Count matching rows
  describe [<model>]         Show model columns, or list models

Row lifecycle:
  delete <model> "<id>"              Soft-delete (or ["<id>", ...])
  restore <model> "<id>"             Undo a soft delete
  purge <model> "<id>"               Permanently remove

Clauses (any order):
  where <column> <op> <value>   Filter results
  select <column>, ...          Project specific columns
  order by <column> [asc|desc]  Sort results
  limit <n>                     Limit result count
  offset <n>                    Skip first n results
  --deleted                     Include soft-deleted rows

Operators: =, !=, >, <, >=, <=, like, in
Logic: and (or/not are not supported)

Meta-commands:
  :help [topic]     Show help
  :clear            Clear the screen
  :env              Show session info
  :history          Show command history
  :models           List registered models
  :columns <model>  Show a model's columns

Examples:
  find contacts where status = "active" limit 10
  find contacts where displayName like "A%" order by score desc
  get contacts "r-42"
  count contacts where score >= 3 --deleted
  delete contacts ["r-1", "r-2"]`

	return &Result{Output: help}, nil
}

func (h *Handler) helpTopic(topic string) (*Result, error) {
	switch topic {
	case "find":
		return &Result{Output: "find <model> [where ...] [select ...] [order by ...] [limit N] [offset N] [--deleted]"}, nil
	case "get":
		return &Result{Output: "get <model> \"<id>\"\n\nFetches a single row by id, soft-deleted rows included."}, nil
	case "count":
		return &Result{Output: "count <model> [where ...] [--deleted]\n\nReturns the number of matching rows."}, nil
	case "describe":
		return &Result{Output: "describe [<model>]\n\nWithout a model, lists all registered models. With one, shows its columns and options."}, nil
	case "delete":
		return &Result{Output: "delete <model> \"<id>\"\ndelete <model> [\"<id>\", ...]\n\nSoft-deletes on soft-deleting models, permanent otherwise."}, nil
	case "restore":
		return &Result{Output: "restore <model> \"<id>\"\n\nUndoes a soft delete. Only valid on soft-deleting models."}, nil
	case "purge":
		return &Result{Output: "purge <model> \"<id>\"\n\nPermanently removes soft-deleted rows. Only valid on soft-deleting models."}, nil
	case "where":
		return &Result{Output: "where <column> <op> <value> [and <column> <op> <value> ...]\n\nOperators: =, !=, >, <, >=, <=, like, in\n\nLIKE uses % as a wildcard:\n  find contacts where email like \"%@example.com\""}, nil
	default:
		return &Result{Output: fmt.Sprintf("No help available for '%s'", topic)}, nil
	}
}

func (h *Handler) env(sess *session.Session) (*Result, error) {
	out := fmt.Sprintf("Session: %s\nActor: %s\nCapabilities: %s\nCreated: %s\nLast active: %s\nHistory entries: %d",
		sess.ID, sess.Actor,
		strings.Join(sess.Capabilities, ", "),
		sess.CreatedAt.Format("2006-01-02 15:04:05"),
		sess.LastActiveAt.Format("2006-01-02 15:04:05"),
		len(sess.History))
	return &Result{Output: out}, nil
}

func (h *Handler) history(sess *session.Session) (*Result, error) {
	if len(sess.History) == 0 {
		return &Result{Output: "(no history)"}, nil
	}

	var b strings.Builder
	for i, entry := range sess.History {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, entry)
	}
	return &Result{Output: b.String()}, nil
}

func (h *Handler) models() (*Result, error) {
	names := h.engines.Names()
	return &Result{Output: fmt.Sprintf("Models (%d):\n  %s", len(names), strings.Join(names, "\n  "))}, nil
}

func (h *Handler) columns(args []string) (*Result, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("usage: :columns <model>")
	}

	name := strings.ToLower(args[0])
	eng, err := h.engines.Get(name)
	if err != nil {
		return nil, err
	}
	m := eng.Model()

	cols := planner.Columns(m)
	var b strings.Builder
	fmt.Fprintf(&b, "Columns of %s:\n", m.Name)
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

package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/viewcore/internal/console/autocomplete"
	"github.com/matthewbaird/viewcore/internal/console/executor"
	"github.com/matthewbaird/viewcore/internal/console/meta"
	"github.com/matthewbaird/viewcore/internal/console/planner"
	"github.com/matthewbaird/viewcore/internal/console/rql"
	"github.com/matthewbaird/viewcore/internal/console/session"
)

// rowBatchSize controls how many rows are sent per "rows" message.
const rowBatchSize = 50

// Handler manages WebSocket connections for the console.
type Handler struct {
	sessions     *session.Manager
	planner      *planner.Planner
	executor     *executor.Executor
	autocomplete *autocomplete.Engine
	meta         *meta.Handler
}

// NewHandler creates a WebSocket handler with all dependencies.
func NewHandler(
	sessions *session.Manager,
	pl *planner.Planner,
	exec *executor.Executor,
	ac *autocomplete.Engine,
	metaHandler *meta.Handler,
) *Handler {
	return &Handler{
		sessions:     sessions,
		planner:      pl,
		executor:     exec,
		autocomplete: ac,
		meta:         metaHandler,
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. The caller's
// identity and capabilities come from the same headers the REST API uses.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		actor = "console"
	}
	var caps []string
	if raw := r.Header.Get("X-Capabilities"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				caps = append(caps, c)
			}
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("console: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create(actor, caps)
	defer h.sessions.Remove(sess.ID)
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID, Actor: sess.Actor},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("console: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case "execute":
			h.handleExecute(ctx, conn, sess, msg)
		case "autocomplete":
			h.handleAutocomplete(ctx, conn, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		case "cancel":
			// queries run synchronously; cancel is a no-op
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleExecute(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	start := time.Now()

	var data ExecuteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid execute data")
		return
	}

	if data.Query == "" {
		h.sendError(ctx, conn, msg.ID, "empty_query", "empty query")
		return
	}

	sess.AddHistory(data.Query)

	lexer := rql.NewLexer(data.Query)
	tokens, lexErrors := lexer.Tokenize()
	if len(lexErrors) > 0 {
		h.sendError(ctx, conn, msg.ID, "lex_error", lexErrors[0].Error())
		return
	}

	parser := rql.NewParser(tokens)
	stmts, parseErrors := parser.Parse()
	if len(parseErrors) > 0 {
		h.sendError(ctx, conn, msg.ID, "parse_error", parseErrors[0].Error())
		return
	}
	if len(stmts) == 0 {
		h.sendError(ctx, conn, msg.ID, "empty_query", "no statements found")
		return
	}

	for _, stmt := range stmts {
		plan, err := h.planner.Plan(stmt)
		if err != nil {
			h.sendError(ctx, conn, msg.ID, "plan_error", err.Error())
			return
		}

		if plan.Type == planner.PlanMeta {
			result, err := h.meta.Execute(sess, plan.MetaCommand, plan.MetaArgs)
			if err != nil {
				h.sendError(ctx, conn, msg.ID, "meta_error", err.Error())
				return
			}
			h.send(ctx, conn, ServerMessage{
				Type:      "output",
				RequestID: msg.ID,
				Data:      OutputData{Output: result.Output, Clear: result.Clear},
			})
			continue
		}

		result, err := h.executor.Execute(ctx, plan, sess.Capabilities, sess.Actor)
		if err != nil {
			h.sendError(ctx, conn, msg.ID, "exec_error", err.Error())
			return
		}

		if result.Meta != nil {
			h.send(ctx, conn, ServerMessage{
				Type:      "meta",
				RequestID: msg.ID,
				Data:      MetaData{Model: result.Meta.Model, Total: result.Meta.Total},
			})
		}

		for i := 0; i < len(result.Rows); i += rowBatchSize {
			end := i + rowBatchSize
			if end > len(result.Rows) {
				end = len(result.Rows)
			}
			h.send(ctx, conn, ServerMessage{
				Type:      "rows",
				RequestID: msg.ID,
				Data:      RowsData{Rows: result.Rows[i:end]},
			})
		}

		if result.Output != "" {
			h.send(ctx, conn, ServerMessage{
				Type:      "output",
				RequestID: msg.ID,
				Data:      OutputData{Output: result.Output},
			})
		}

		if result.Count != nil {
			h.send(ctx, conn, ServerMessage{
				Type:      "rows",
				RequestID: msg.ID,
				Data:      map[string]int{"count": *result.Count},
			})
		}

		total := 0
		if result.Meta != nil {
			total = result.Meta.Total
		}
		h.send(ctx, conn, ServerMessage{
			Type:      "done",
			RequestID: msg.ID,
			Data: DoneData{
				Total:   total,
				Elapsed: time.Since(start).String(),
			},
		})
	}
}

func (h *Handler) handleAutocomplete(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data AutocompleteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid autocomplete data")
		return
	}

	items := h.autocomplete.Complete(data.Query, data.Cursor)
	h.send(ctx, conn, ServerMessage{
		Type:      "completions",
		RequestID: msg.ID,
		Data:      CompletionsData{Items: items},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("console: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}

// Package live pushes refresh notifications to connected clients over
// WebSocket. The hub subscribes to the mutation event bus; when a model's
// rows change, every client subscribed to that model is told to re-fetch.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/matthewbaird/viewcore/internal/event"
)

// client is one connected WebSocket with its model subscriptions.
type client struct {
	id     string
	conn   *websocket.Conn
	ctx    context.Context
	mu     sync.Mutex
	models map[string]bool
}

func (c *client) subscribed(modelName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.models[modelName]
}

// Hub manages live connections and fans mutation events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// HandleEvent implements eventbus.Handler: it broadcasts a refresh message
// to every client subscribed to the event's model.
func (h *Hub) HandleEvent(_ context.Context, evt event.MutationEvent) error {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.subscribed(evt.Model) {
			continue
		}
		h.send(c, ServerMessage{
			Type: "refresh",
			Data: RefreshData{
				Model:     evt.Model,
				EventType: evt.EventType,
				RowIDs:    evt.RowIDs,
			},
		})
	}
	return nil
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("live: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	c := &client{
		id:     uuid.New().String(),
		conn:   conn,
		ctx:    r.Context(),
		models: make(map[string]bool),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
	}()

	h.send(c, ServerMessage{Type: "hello", Data: map[string]string{"client_id": c.id}})

	for {
		var msg ClientMessage
		if err := wsjson.Read(c.ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("live: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case "subscribe":
			h.handleSubscribe(c, msg, true)
		case "unsubscribe":
			h.handleSubscribe(c, msg, false)
		case "ping":
			h.send(c, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(c, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Hub) handleSubscribe(c *client, msg ClientMessage, on bool) {
	var data SubscribeData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Model == "" {
		h.sendError(c, msg.ID, "invalid_data", "subscribe requires a model name")
		return
	}
	c.mu.Lock()
	if on {
		c.models[data.Model] = true
	} else {
		delete(c.models, data.Model)
	}
	c.mu.Unlock()
	h.send(c, ServerMessage{Type: "subscribed", RequestID: msg.ID, Data: data})
}

func (h *Hub) send(c *client, msg ServerMessage) {
	if err := wsjson.Write(c.ctx, c.conn, msg); err != nil {
		log.Printf("live: write error: %v", err)
	}
}

func (h *Hub) sendError(c *client, requestID, code, message string) {
	h.send(c, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}

package live

import "encoding/json"

// ClientMessage is the envelope clients send over the live channel.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the envelope the hub sends to clients.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// SubscribeData names the model a client wants refresh notifications for.
type SubscribeData struct {
	Model string `json:"model"`
}

// RefreshData tells a client that rows of a model changed and the current
// page should be re-fetched.
type RefreshData struct {
	Model     string   `json:"model"`
	EventType string   `json:"event_type"`
	RowIDs    []string `json:"row_ids,omitempty"`
}

// ErrorData carries a structured error to the client.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Package event defines the mutation events the engine publishes after a
// successful create, update, or bulk action. Subscribers (the live refresh
// hub, audit logging) consume them off the in-process bus.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MutationEvent is the canonical shape of every engine event.
type MutationEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Model      string          `json:"model"`
	RowIDs     []string        `json:"row_ids,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Recorder persists or forwards mutation events.
type Recorder interface {
	Record(evt MutationEvent) error
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// NewRowCreated records a successful create of one row.
func NewRowCreated(modelName, rowID, actor string, row map[string]any) MutationEvent {
	return MutationEvent{
		ID:         newID(),
		EventType:  "row_created",
		OccurredAt: time.Now(),
		Model:      modelName,
		RowIDs:     []string{rowID},
		Actor:      actor,
		Summary:    fmt.Sprintf("Created %s row %s", modelName, rowID),
		Payload:    mustJSON(row),
	}
}

// NewRowUpdated records a successful update of one row.
func NewRowUpdated(modelName, rowID, actor string, row map[string]any) MutationEvent {
	return MutationEvent{
		ID:         newID(),
		EventType:  "row_updated",
		OccurredAt: time.Now(),
		Model:      modelName,
		RowIDs:     []string{rowID},
		Actor:      actor,
		Summary:    fmt.Sprintf("Updated %s row %s", modelName, rowID),
		Payload:    mustJSON(row),
	}
}

// NewBulkAction records a bulk delete, restore, or permanent delete.
func NewBulkAction(modelName, op, actor string, rowIDs []string) MutationEvent {
	return MutationEvent{
		ID:         newID(),
		EventType:  "rows_" + op,
		OccurredAt: time.Now(),
		Model:      modelName,
		RowIDs:     rowIDs,
		Actor:      actor,
		Summary:    fmt.Sprintf("%s %d %s rows", op, len(rowIDs), modelName),
	}
}

package activity

import (
	"context"

	"github.com/matthewbaird/viewcore/internal/event"
)

// Indexer subscribes to the mutation event bus and fans each event out into
// per-row audit entries.
type Indexer struct {
	store Store
}

// NewIndexer creates an Indexer writing to the given store.
func NewIndexer(store Store) *Indexer {
	return &Indexer{store: store}
}

// HandleEvent implements eventbus.Handler. An event with no row ids still
// produces one model-level entry so nothing is lost from the trail.
func (ix *Indexer) HandleEvent(ctx context.Context, evt event.MutationEvent) error {
	rowIDs := evt.RowIDs
	if len(rowIDs) == 0 {
		rowIDs = []string{""}
	}

	entries := make([]Entry, 0, len(rowIDs))
	for _, id := range rowIDs {
		entries = append(entries, Entry{
			EventID:    evt.ID,
			EventType:  evt.EventType,
			OccurredAt: evt.OccurredAt,
			Model:      evt.Model,
			RowID:      id,
			Actor:      evt.Actor,
			Summary:    evt.Summary,
			Payload:    evt.Payload,
		})
	}
	return ix.store.WriteEntries(ctx, entries)
}

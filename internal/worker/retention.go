// Package worker hosts background jobs that run alongside the HTTP server.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/matthewbaird/viewcore/internal/engine"
)

// sweepPageSize bounds how many rows one sweep inspects per model.
const sweepPageSize = 500

// Retention permanently removes soft-deleted rows once they have been in
// the trash longer than MaxAge. Only paranoid models are swept; everything
// else has no trash to empty.
type Retention struct {
	Engines  func() []*engine.Engine
	Interval time.Duration
	MaxAge   time.Duration
}

// Run sweeps on a ticker until the context is cancelled. The first sweep
// happens immediately so a restart does not postpone overdue purges.
func (w *Retention) Run(ctx context.Context) {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	w.sweep(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Retention) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.MaxAge)
	for _, e := range w.Engines() {
		m := e.Model()
		if !m.Paranoid {
			continue
		}
		ids, err := w.expiredIDs(ctx, e, cutoff)
		if err != nil {
			log.Printf("retention: %s: %v", m.Name, err)
			continue
		}
		if len(ids) == 0 {
			continue
		}
		if err := e.BulkAction(ctx, engine.BulkPurge, ids, "retention"); err != nil {
			log.Printf("retention: purging %d %s rows: %v", len(ids), m.Name, err)
			continue
		}
		log.Printf("retention: purged %d %s rows deleted before %s", len(ids), m.Name, cutoff.Format(time.RFC3339))
	}
}

func (w *Retention) expiredIDs(ctx context.Context, e *engine.Engine, cutoff time.Time) ([]string, error) {
	res, err := e.Source().Fetch(ctx, engine.Query{
		Page:           1,
		PageSize:       sweepPageSize,
		IncludeDeleted: true,
	})
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, row := range res.Rows {
		deletedAt, ok := row["deleted_at"].(string)
		if !ok || deletedAt == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, deletedAt)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			ids = append(ids, fmt.Sprintf("%v", row["id"]))
		}
	}
	return ids, nil
}

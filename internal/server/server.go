// Package server assembles the HTTP surface and starts the server.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/viewcore/internal/activity"
	"github.com/matthewbaird/viewcore/internal/console/autocomplete"
	"github.com/matthewbaird/viewcore/internal/console/executor"
	"github.com/matthewbaird/viewcore/internal/console/meta"
	"github.com/matthewbaird/viewcore/internal/console/planner"
	"github.com/matthewbaird/viewcore/internal/console/session"
	"github.com/matthewbaird/viewcore/internal/console/wire"
	"github.com/matthewbaird/viewcore/internal/eventbus"
	"github.com/matthewbaird/viewcore/internal/handler"
	"github.com/matthewbaird/viewcore/internal/live"
)

// Session lifetimes for the admin console.
const (
	consoleSessionMaxAge = 12 * time.Hour
	consoleIdleTimeout   = 30 * time.Minute
)

// Config holds server configuration.
type Config struct {
	Port     int
	Registry *handler.Registry
	Bus      *eventbus.Bus
	Activity activity.Store
}

// Run starts the HTTP server with all routes registered and blocks until the
// context is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	th := handler.NewTableHandler(cfg.Registry)
	ah := handler.NewActivityHandler(cfg.Activity)
	r.Route("/v1/models", func(r chi.Router) {
		r.Get("/", th.ListModels)
		r.Route("/{model}", func(r chi.Router) {
			r.Get("/", th.GetModel)
			r.Get("/schema", th.GetSchema)
			r.Get("/columns", th.GetColumns)
			r.Get("/rows", th.ListRows)
			r.Post("/rows", th.CreateRow)
			r.Patch("/rows/{id}", th.UpdateRow)
			r.Get("/rows/{id}/activity", ah.RowActivity)
			r.Post("/rows/bulk", th.BulkAction)
			r.Get("/analytics", th.Analytics)
			r.Get("/view", th.GetView)
			r.Post("/view/{action}", th.ViewAction)
		})
	})
	r.Get("/v1/activity/search", ah.Search)

	hub := live.NewHub()
	cfg.Bus.Subscribe("live", hub)
	r.Handle("/v1/live", hub)

	sessions := session.NewManager(consoleSessionMaxAge, consoleIdleTimeout)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessions.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
	consoleHandler := wire.NewHandler(
		sessions,
		planner.New(cfg.Registry),
		executor.New(cfg.Registry),
		autocomplete.New(cfg.Registry),
		meta.New(cfg.Registry),
	)
	r.Handle("/v1/console", consoleHandler)

	wrapped := handler.Recovery(handler.Logging(r))

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("starting server on %s (%d models registered)", addr, len(cfg.Registry.Names()))

	srv := &http.Server{
		Addr:    addr,
		Handler: wrapped,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	return srv.ListenAndServe()
}

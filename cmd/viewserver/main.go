package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matthewbaird/viewcore/internal/activity"
	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/eventbus"
	"github.com/matthewbaird/viewcore/internal/handler"
	"github.com/matthewbaird/viewcore/internal/modeldef"
	"github.com/matthewbaird/viewcore/internal/seed"
	"github.com/matthewbaird/viewcore/internal/server"
	"github.com/matthewbaird/viewcore/internal/store"
	"github.com/matthewbaird/viewcore/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "file:viewcore.db?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("running schema migration: %v", err)
	}

	trail := activity.NewSQLiteStore(db)
	if err := trail.EnsureSchema(ctx); err != nil {
		log.Fatalf("running activity schema migration: %v", err)
	}
	log.Println("database migrated successfully")

	modelDir := os.Getenv("MODEL_DIR")
	if modelDir == "" {
		modelDir = "./models"
	}
	models, err := modeldef.LoadDir(modelDir)
	if err != nil {
		log.Fatalf("loading model definitions: %v", err)
	}
	log.Printf("loaded %d model definitions from %s", len(models), modelDir)

	bus := eventbus.New(256)
	bus.Subscribe("activity", activity.NewIndexer(trail))
	bus.Start(ctx)

	registry := handler.NewRegistry(func(name string) engine.DataSource {
		return store.NewSQLiteStore(db, name)
	}, bus)
	registry.Rebuild(models)

	go func() {
		if err := modeldef.Watch(ctx, modelDir, registry.Rebuild); err != nil {
			log.Printf("model watcher stopped: %v", err)
		}
	}()

	if days := os.Getenv("RETENTION_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			log.Fatalf("RETENTION_DAYS must be a positive integer, got %q", days)
		}
		ret := &worker.Retention{
			Engines: registry.Engines,
			MaxAge:  time.Duration(n) * 24 * time.Hour,
		}
		go ret.Run(ctx)
	}

	if os.Getenv("SEED_DEMO") != "" {
		seed.Demo(ctx, registry.Engines(), "seed")
	}

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	if err := server.Run(ctx, server.Config{
		Port:     port,
		Registry: registry,
		Bus:      bus,
		Activity: trail,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

package handler

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/eventbus"
)

// SourceFactory builds a data source for a model name. The server wires it
// to SQLite; tests wire it to memory stores.
type SourceFactory func(modelName string) engine.DataSource

// Registry holds the live engines, one per registered model. Rebuild swaps
// the whole set atomically so a model-definition hot reload never leaves a
// half-updated registry visible to handlers.
type Registry struct {
	mu        sync.RWMutex
	engines   map[string]*engine.Engine
	newSource SourceFactory
	bus       *eventbus.Bus
}

// NewRegistry creates a registry that builds engines with the given source
// factory and event bus.
func NewRegistry(newSource SourceFactory, bus *eventbus.Bus) *Registry {
	return &Registry{
		engines:   make(map[string]*engine.Engine),
		newSource: newSource,
		bus:       bus,
	}
}

// Rebuild replaces the registry contents with engines for the given models.
// A model that fails to build is skipped with a log line; the rest register.
func (reg *Registry) Rebuild(models []engine.Model) {
	next := make(map[string]*engine.Engine, len(models))
	for _, m := range models {
		e, err := engine.New(m, reg.newSource(m.Name), reg.bus)
		if err != nil {
			log.Printf("registry: skipping model %s: %v", m.Name, err)
			continue
		}
		next[m.Name] = e
	}
	reg.mu.Lock()
	reg.engines = next
	reg.mu.Unlock()
}

// Get returns the engine for a model name.
func (reg *Registry) Get(name string) (*engine.Engine, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	return e, nil
}

// Engines returns all registered engines in model-name order.
func (reg *Registry) Engines() []*engine.Engine {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.engines))
	for n := range reg.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*engine.Engine, 0, len(names))
	for _, n := range names {
		out = append(out, reg.engines[n])
	}
	return out
}

// Names returns the registered model names, sorted.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.engines))
	for n := range reg.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

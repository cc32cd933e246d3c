package auth

import (
	"fmt"
	"sync"

	"github.com/BlackMission/spauth/internal/domain"
)

type entry struct {
	factory  Factory
	once     sync.Once
	strategy Strategy
	err      error
}

// Registry maps strategy names to their factories. Strategies are built
// lazily on first lookup and reused afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a named strategy factory to the registry.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("%w: name and factory are required", domain.ErrInvalidConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateStrategy, name)
	}
	r.entries[name] = &entry{factory: factory}
	return nil
}

// Get returns the strategy registered under name, building it if needed.
// A factory error is returned on every subsequent lookup as well.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStrategyNotFound, name)
	}

	e.once.Do(func() {
		e.strategy, e.err = e.factory()
	})
	if e.err != nil {
		return nil, fmt.Errorf("building strategy %s: %w", name, e.err)
	}
	return e.strategy, nil
}

// Names returns the list of registered strategy names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

package reporter

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Strob0t/runhooks/internal/domain/hook"
)

// Factory creates a Reporter from its dependencies.
type Factory func(deps Deps) Reporter

var (
	mu        sync.RWMutex
	factories = make(map[hook.Type]Factory)
)

// Register makes a reporter factory available for a hook type.
// It is typically called from an init() function in the adapter package.
func Register(t hook.Type, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[t]; exists {
		panic(fmt.Sprintf("reporter: duplicate registration for %q", t))
	}
	factories[t] = factory
}

// New creates the Reporter registered for t.
func New(t hook.Type, deps Deps) (Reporter, error) {
	mu.RLock()
	factory, ok := factories[t]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("reporter: unknown hook type %q", t)
	}
	return factory(deps), nil
}

// Available returns the registered hook types, sorted.
func Available() []hook.Type {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]hook.Type, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// NewAll instantiates every registered reporter keyed by hook type.
func NewAll(deps Deps) map[hook.Type]Reporter {
	out := make(map[hook.Type]Reporter)
	for _, t := range Available() {
		r, err := New(t, deps)
		if err != nil {
			continue
		}
		out[t] = r
	}
	return out
}

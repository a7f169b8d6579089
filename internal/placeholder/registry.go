// Package placeholder holds the named predicates that expected fixtures can
// reference instead of literal values, e.g. \assertDateTime().
package placeholder

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by Resolve for unregistered predicate names.
var ErrNotFound = errors.New("placeholder predicate not found")

// Predicate validates one actual value. A nil error means the value satisfies
// the predicate. Each predicate accepts its own underlying kind and rejects
// foreign kinds.
type Predicate func(actual any) error

const defaultNowTolerance = 5 * time.Second

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the time source used by assertDateTimeNow.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithNowTolerance sets the window accepted by assertDateTimeNow.
func WithNowTolerance(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.tolerance = d
		}
	}
}

// WithoutBuiltins creates an empty registry.
func WithoutBuiltins() Option {
	return func(r *Registry) {
		r.builtins = false
	}
}

// Registry maps predicate names to predicates. Predicates are registered at
// start-up and read concurrently afterwards.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate

	now       func() time.Time
	tolerance time.Duration
	builtins  bool
}

// NewRegistry creates a Registry with the built-in predicates registered.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		predicates: make(map[string]Predicate),
		now:        time.Now,
		tolerance:  defaultNowTolerance,
		builtins:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.builtins {
		r.registerBuiltins()
	}
	return r
}

// Register adds a predicate. Returns an error if the name is already registered.
func (r *Registry) Register(name string, predicate Predicate) error {
	if name == "" || predicate == nil {
		return errors.New("placeholder: name and predicate are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.predicates[name]; exists {
		return fmt.Errorf("placeholder already registered: %s", name)
	}
	r.predicates[name] = predicate
	return nil
}

// Resolve returns the predicate registered under name.
func (r *Registry) Resolve(name string) (Predicate, error) {
	r.mu.RLock()
	predicate, ok := r.predicates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return predicate, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.predicates[name]
	return ok
}

// Names returns the registered predicate names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tolerance returns the window used by assertDateTimeNow.
func (r *Registry) Tolerance() time.Duration {
	return r.tolerance
}

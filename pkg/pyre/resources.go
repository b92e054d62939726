package pyre

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Resources is the shared state injected into every invocation of one
// run. Values are shared by reference across concurrent invocations; the
// engine does no locking on their contents, so any serialization across
// invocations of the same node is the node implementation's business.
//
// The engine guarantees the store outlives every invocation of its run
// and releases it only after the run reaches quiescence or is cancelled
// and drained. On release, values implementing io.Closer are closed in
// reverse insertion order.
type Resources struct {
	mu        sync.Mutex
	values    map[string]any
	providers map[string]Provider
	order     []string
	released  bool
}

// Provider builds a resource on first use.
type Provider func(ctx context.Context) (any, error)

// NewResources creates an empty resource store.
func NewResources() *Resources {
	return &Resources{
		values:    make(map[string]any),
		providers: make(map[string]Provider),
	}
}

// Set stores a value under a key, replacing any existing value. The
// first insertion of a key fixes its position in the release order.
func (r *Resources) Set(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.values[key]; !exists {
		r.order = append(r.order, key)
	}
	r.values[key] = value
}

// Provide registers a lazy provider for a key. The provider runs at most
// once, on the first Get that asks for the key. It runs while the
// store's lock is held, so a provider must not call Get or Resource on
// the same store; wire dependent resources together outside the
// provider instead.
func (r *Resources) Provide(key string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[key] = p
}

// Get returns the value for a key, building it through its provider if
// one is registered and the value does not exist yet. Concurrent callers
// observe the same built value.
func (r *Resources) Get(ctx context.Context, key string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.values[key]; ok {
		return v, nil
	}
	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("resource %q not found", key)
	}

	// Build under the lock so the provider runs at most once. Providers
	// are expected to be constructors, not long-running work.
	v, err := p(ctx)
	if err != nil {
		return nil, fmt.Errorf("build resource %q: %w", key, err)
	}
	r.values[key] = v
	r.order = append(r.order, key)
	return v, nil
}

// Contains reports whether a key has a value or a registered provider.
func (r *Resources) Contains(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[key]; ok {
		return true
	}
	_, ok := r.providers[key]
	return ok
}

// Resource fetches a key and asserts its type.
func Resource[T any](ctx context.Context, r *Resources, key string) (T, error) {
	v, err := r.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("resource %q is %T, not %v", key, v, typeOf[T]())
	}
	return t, nil
}

// release closes closeable values in reverse insertion order. Called by
// the engine once no invocation of the run can reference the store
// anymore; releasing twice is a no-op.
func (r *Resources) release(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true

	for i := len(r.order) - 1; i >= 0; i-- {
		key := r.order[i]
		c, ok := r.values[key].(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && logger != nil {
			logger.Warn("resource close failed",
				slog.String("resource", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

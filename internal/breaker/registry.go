package breaker

import (
	"context"
	"sync"
)

// Registry caches one breaker per protected key. Breakers are created
// lazily on first reference and live for the process lifetime.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	opts     []Option
}

// NewRegistry creates a Registry whose breakers share the given options.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		opts:     opts,
	}
}

// Get returns the breaker for key, creating it on first use.
func (r *Registry) Get(key string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[key]; ok {
		return b
	}
	b = New(key, r.opts...)
	r.breakers[key] = b
	return b
}

// Do executes fn under the breaker for key.
func (r *Registry) Do(ctx context.Context, key string, fn Func) error {
	return r.Get(key).Do(ctx, fn)
}

// Snapshot returns the status of every known breaker, keyed by name.
func (r *Registry) Snapshot() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Status, len(r.breakers))
	for key, b := range r.breakers {
		out[key] = b.Status()
	}
	return out
}

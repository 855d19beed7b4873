package provider

import (
	"context"
	"fmt"
	"sync"
)

// IDCache lazily resolves and memoizes an upstream identifier such as a
// zone or account id. The lock is held while resolving so concurrent first
// callers trigger a single upstream lookup. Failed lookups are not cached.
type IDCache[T any] struct {
	mu       sync.Mutex
	value    T
	set      bool
	poisoned bool
}

// Seed stores v as if it had been resolved.
func (c *IDCache[T]) Seed(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.set = true
}

// Get returns the cached identifier, calling resolve on first use. If a
// resolver ever panics the cache is poisoned and every later call fails
// with ErrLocking.
func (c *IDCache[T]) Get(ctx context.Context, resolve func(context.Context) (T, error)) (v T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return v, ErrLocking
	}
	if c.set {
		return c.value, nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			err = fmt.Errorf("%w: resolver panicked: %v", ErrLocking, r)
		}
	}()

	v, err = resolve(ctx)
	if err != nil {
		return v, err
	}
	c.value = v
	c.set = true
	return v, nil
}

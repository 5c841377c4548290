package autowire

import (
	"reflect"
	"sync"
)

// builderFunc produces a fully constructed instance of one type from a pool
// of caller-supplied values. Builders are compiled once per type and cached.
type builderFunc func(r *Resolver, pool *valuePool, stack *createStack) (any, error)

// builderCache provides thread-safe caching for compiled builders. It holds
// no resolution logic and is shared by reference across derived resolvers.
type builderCache struct {
	builders map[reflect.Type]builderFunc
	mu       sync.RWMutex
}

// newBuilderCache creates a new builder cache.
func newBuilderCache() *builderCache {
	return &builderCache{
		builders: make(map[reflect.Type]builderFunc),
	}
}

// get retrieves a builder from the cache.
func (c *builderCache) get(t reflect.Type) (builderFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	builder, ok := c.builders[t]
	return builder, ok
}

// set stores a builder in the cache.
func (c *builderCache) set(t reflect.Type, builder builderFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[t] = builder
}

// has reports whether a builder is cached for t.
func (c *builderCache) has(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.builders[t]
	return ok
}

// remove drops the builder cached for t.
func (c *builderCache) remove(t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.builders, t)
}

// clear removes all cached builders.
func (c *builderCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders = make(map[reflect.Type]builderFunc)
}

// size returns the number of cached builders.
func (c *builderCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.builders)
}

package autowire

import (
	"reflect"
)

// Container is the two-method lookup facade over a resolver, for callers
// that only need service-locator semantics: Has to probe, Get to fetch.
type Container struct {
	resolver *Resolver
}

// NewContainer wraps a resolver in the lookup facade.
func NewContainer(r *Resolver) *Container {
	return &Container{resolver: r}
}

// Resolver returns the underlying resolver.
func (c *Container) Resolver() *Resolver {
	return c.resolver
}

// Has reports whether Get can produce t: a binding or live instance exists,
// or t is a constructible struct type. An unbound interface is not gettable.
func (c *Container) Has(t reflect.Type) bool {
	if t == nil {
		return false
	}

	if _, ok := c.resolver.instances.get(t); ok {
		return true
	}

	if _, ok := c.resolver.bindings[t]; ok {
		return true
	}

	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

// Get resolves t with no supplied values, returning the cached shared
// instance when one is already live.
func (c *Container) Get(t reflect.Type) (any, error) {
	return c.resolver.Create(t)
}

// HasNamed is Has for a type registered by name. Unknown names are simply
// not present.
func (c *Container) HasNamed(name string) bool {
	t, ok := c.resolver.types.Lookup(name)
	if !ok {
		return false
	}

	return c.Has(t)
}

// GetNamed is Get for a type registered by name.
func (c *Container) GetNamed(name string) (any, error) {
	return c.resolver.CreateNamed(name)
}

package autowire

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeRegistry is a thread-safe name registry for constructible types. Names
// are the currency of oneof/all field tags, CreateNamed, the container
// facade's name lookups, and configuration files: anywhere a type must be
// referenced outside the Go type system.
//
// A registry is shared by reference across every resolver derived from the
// same root, like the builder cache.
type TypeRegistry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register maps name to t. Passing an empty name registers t under its
// package-qualified name. Registering the same name for a different type
// is an error; re-registering an identical pair is a no-op.
func (reg *TypeRegistry) Register(name string, t reflect.Type) error {
	if t == nil {
		return ErrNilType
	}

	if name == "" {
		name = qualifiedName(t)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if existing, ok := reg.byName[name]; ok {
		if existing == t {
			return nil
		}
		return fmt.Errorf("name %q already registered for %s", name, formatType(existing))
	}

	reg.byName[name] = t
	if _, ok := reg.byType[t]; !ok {
		reg.byType[t] = name
	}

	return nil
}

// Lookup returns the type registered under name.
func (reg *TypeRegistry) Lookup(name string) (reflect.Type, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	t, ok := reg.byName[name]
	return t, ok
}

// NameOf returns the first name a type was registered under.
func (reg *TypeRegistry) NameOf(t reflect.Type) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	name, ok := reg.byType[t]
	return name, ok
}

// Names returns all registered names.
func (reg *TypeRegistry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.byName))
	for name := range reg.byName {
		names = append(names, name)
	}

	return names
}

// RegisterType registers T under name, or under its package-qualified name
// when name is empty.
func RegisterType[T any](reg *TypeRegistry, name string) error {
	return reg.Register(name, reflect.TypeOf((*T)(nil)).Elem())
}

// qualifiedName returns a stable package-qualified name for a type:
// "pkg.Service" for a named type, "*pkg.Service" for a pointer to it.
func qualifiedName(t reflect.Type) string {
	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}

	if t.Name() == "" {
		return prefix + t.String()
	}

	if t.PkgPath() == "" {
		return prefix + t.Name()
	}

	return prefix + lastSegment(t.PkgPath()) + "." + t.Name()
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}

	return path
}

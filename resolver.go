package autowire

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Factory builds a value using the resolver. Factories registered through
// BindFactory are invoked with the resolver itself, never with the caller's
// value pool.
type Factory func(r *Resolver) (any, error)

// binding routes an abstract type to a concrete target type or a factory.
// Pre-built instances are stored as zero-argument factories.
type binding struct {
	target  reflect.Type // alias target; nil for factory bindings
	factory Factory
}

var resolverType = reflect.TypeOf((*Resolver)(nil))

// Resolver is the autowiring engine. It recursively constructs a target
// type's object graph, matching caller-supplied positional values against
// classified struct fields and consulting the binding table and shared set.
//
// A Resolver value is immutable configuration: Share, Bind, BindFactory,
// BindInstance, and Bindings return derived resolvers with their own copies
// of the binding table, shared set, and instance table, while the builder
// cache and type registry are shared by reference across the whole lineage.
// Fork shares everything by reference except the instance table, which
// starts empty — no live singleton ever leaks between forks.
type Resolver struct {
	id        string
	bindings  map[reflect.Type]binding
	shared    map[reflect.Type]struct{}
	instances *instanceTable
	builders  *builderCache
	types     *TypeRegistry
}

// Option configures a root resolver.
type Option func(*Resolver)

// WithTypeRegistry sets the registry used for oneof/all tags, CreateNamed,
// and configuration files. Defaults to a fresh empty registry.
func WithTypeRegistry(reg *TypeRegistry) Option {
	return func(r *Resolver) {
		if reg != nil {
			r.types = reg
		}
	}
}

// New creates an empty root resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		id:        uuid.NewString(),
		bindings:  make(map[reflect.Type]binding),
		shared:    make(map[reflect.Type]struct{}),
		instances: newInstanceTable(),
		builders:  newBuilderCache(),
		types:     NewTypeRegistry(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ID returns the unique id of this resolver. Every derivation gets its own.
func (r *Resolver) ID() string {
	return r.id
}

// Types returns the registry shared across this resolver's lineage.
func (r *Resolver) Types() *TypeRegistry {
	return r.types
}

// ========================================
// Resolution
// ========================================

// Create constructs an instance of t, consuming values against its fields
// by the matching precedence and recursively creating whatever remains
// unresolved. Either the whole graph is constructed or an error is returned
// with nothing registered.
func (r *Resolver) Create(t reflect.Type, values ...any) (any, error) {
	if t == nil {
		return nil, ResolutionError{Cause: ErrNilType}
	}

	return r.create(t, newValuePool(values), newCreateStack())
}

// CreateNamed is Create for a type registered by name.
func (r *Resolver) CreateNamed(name string, values ...any) (any, error) {
	t, ok := r.types.Lookup(name)
	if !ok {
		return nil, ResolutionError{Name: name, Cause: ErrUnknownTypeName}
	}

	return r.Create(t, values...)
}

// create is the resolution state machine: live shared instance, cycle
// guard, then the build states under the singleton lock when t is shared.
func (r *Resolver) create(t reflect.Type, pool *valuePool, stack *createStack) (any, error) {
	if v, ok := r.instances.get(t); ok {
		return v, nil
	}

	if err := stack.push(t); err != nil {
		return nil, ResolutionError{Type: t, Cause: err}
	}
	defer stack.pop(t)

	if r.isShared(t) {
		return r.instances.construct(t, func() (any, error) {
			return r.build(t, pool, stack)
		})
	}

	return r.build(t, pool, stack)
}

// build runs the binding, cached-builder, and introspection states in order.
// The binding table is consulted first: the builder cache is shared across
// the whole lineage and purely additive, so a lineage that rebinds t must
// shadow the compiled builder rather than evict it from under its siblings.
func (r *Resolver) build(t reflect.Type, pool *valuePool, stack *createStack) (any, error) {
	if b, ok := r.bindings[t]; ok {
		if b.target != nil {
			return r.create(b.target, pool, stack)
		}

		v, err := b.factory(r)
		if err != nil {
			return nil, ResolutionError{Type: t, Cause: err}
		}
		return v, nil
	}

	if builder, ok := r.builders.get(t); ok {
		return builder(r, pool, stack)
	}

	builder, err := r.compile(t)
	if err != nil {
		return nil, err
	}

	v, err := builder(r, pool, stack)
	if err != nil {
		return nil, err
	}

	// Cache only after a successful first invocation so a failing type
	// never leaves a broken cache entry behind.
	r.builders.set(t, builder)
	return v, nil
}

// compile classifies the target's fields and wraps the matching policy
// around struct construction.
func (r *Resolver) compile(t reflect.Type) (builderFunc, error) {
	base := t
	ptr := false

	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() != reflect.Struct {
			return nil, ResolutionError{Type: t, Cause: ErrNotConstructible}
		}
		base = t.Elem()
		ptr = true
	case reflect.Struct:
	case reflect.Interface:
		return nil, ResolutionError{Type: t, Cause: ErrNotInstantiable}
	default:
		return nil, ResolutionError{Type: t, Cause: ErrNotConstructible}
	}

	shapes, err := classify(base)
	if err != nil {
		return nil, ResolutionError{Type: t, Cause: err}
	}

	resolved, err := resolveShapes(shapes, r.types)
	if err != nil {
		return nil, ResolutionError{Type: t, Cause: err}
	}

	return func(r *Resolver, pool *valuePool, stack *createStack) (any, error) {
		out := reflect.New(base).Elem()

		for _, rs := range resolved {
			v, err := r.resolveShape(rs, pool, stack)
			if err != nil {
				if _, ok := err.(ResolutionError); ok {
					return nil, err
				}
				return nil, ResolutionError{Type: t, Cause: err}
			}

			if v.IsValid() {
				out.Field(rs.index).Set(v)
			}
		}

		if ptr {
			return out.Addr().Interface(), nil
		}
		return out.Interface(), nil
	}, nil
}

func (r *Resolver) isShared(t reflect.Type) bool {
	_, ok := r.shared[t]
	return ok
}

// factoryFor returns the factory bound for t, if any. Alias bindings do not
// count: the matching policy treats only explicit factories as overrides.
func (r *Resolver) factoryFor(t reflect.Type) (Factory, bool) {
	b, ok := r.bindings[t]
	if !ok || b.factory == nil {
		return nil, false
	}

	return b.factory, true
}

// ========================================
// Derivations
// ========================================

// derive clones configuration copy-on-write: own binding table, shared set,
// and instance table; builder cache and registry stay shared by reference.
func (r *Resolver) derive() *Resolver {
	d := &Resolver{
		id:        uuid.NewString(),
		bindings:  make(map[reflect.Type]binding, len(r.bindings)),
		shared:    make(map[reflect.Type]struct{}, len(r.shared)),
		instances: r.instances.snapshot(),
		builders:  r.builders,
		types:     r.types,
	}

	for t, b := range r.bindings {
		d.bindings[t] = b
	}
	for t := range r.shared {
		d.shared[t] = struct{}{}
	}

	return d
}

// Share returns a derived resolver with the given types singleton-scoped.
// Compiled builders stay valid: create routes shared types through the
// instance table before invoking the builder, so no recompile is needed and
// the lineage-shared builder cache is never touched.
func (r *Resolver) Share(types ...reflect.Type) *Resolver {
	d := r.derive()

	for _, t := range types {
		if t == nil {
			continue
		}
		d.shared[t] = struct{}{}
	}

	return d
}

// Bind returns a derived resolver routing abstract to target, resolved by
// recursive Create.
func (r *Resolver) Bind(abstract, target reflect.Type) *Resolver {
	return r.Bindings(map[reflect.Type]any{abstract: target})
}

// BindFactory returns a derived resolver routing abstract to a factory.
// The factory is invoked with the resolver, never with supplied values.
func (r *Resolver) BindFactory(abstract reflect.Type, f Factory) *Resolver {
	return r.Bindings(map[reflect.Type]any{abstract: f})
}

// BindInstance returns a derived resolver routing abstract to a pre-built
// value.
func (r *Resolver) BindInstance(abstract reflect.Type, v any) *Resolver {
	return r.Bindings(map[reflect.Type]any{abstract: v})
}

// Bindings returns a derived resolver with all entries applied at once.
// Each value may be a reflect.Type (alias), a Factory, or a pre-built
// instance (wrapped as a zero-argument factory). Every rebound key drops
// any live shared instance in the derivation; the binding itself shadows
// the lineage-shared builder cache, which is never mutated. A nil entry
// (nil alias target or nil instance) resolves to ErrNilType.
func (r *Resolver) Bindings(entries map[reflect.Type]any) *Resolver {
	d := r.derive()

	for abstract, entry := range entries {
		if abstract == nil {
			continue
		}

		var b binding
		switch v := entry.(type) {
		case nil:
			b = binding{factory: func(*Resolver) (any, error) { return nil, ErrNilType }}
		case reflect.Type:
			b = binding{target: v}
		case Factory:
			b = binding{factory: fallibleFactory(v)}
		case func(*Resolver) (any, error):
			b = binding{factory: fallibleFactory(v)}
		default:
			value := v
			b = binding{factory: func(*Resolver) (any, error) { return value, nil }}
		}

		d.bindings[abstract] = b
		d.instances.drop(abstract)
	}

	return d
}

func fallibleFactory(f Factory) Factory {
	if f == nil {
		return func(*Resolver) (any, error) { return nil, ErrNilFactory }
	}

	return f
}

// Fork returns a lightweight derivative for an isolated unit of work, such
// as one HTTP request in a long-lived process. It shares the binding table,
// shared set, builder cache, and registry by reference, so expensive
// introspection is reused, but starts with no live singletons.
func (r *Resolver) Fork() *Resolver {
	return &Resolver{
		id:        uuid.NewString(),
		bindings:  r.bindings,
		shared:    r.shared,
		instances: newInstanceTable(),
		builders:  r.builders,
		types:     r.types,
	}
}

// FlushInstances clears this resolver's live singletons in place. It is the
// only mutating operation; configuration is untouched.
func (r *Resolver) FlushInstances() {
	r.instances.clear()
}

// ========================================
// Generic helpers
// ========================================

// Create resolves T through r and type-asserts the result.
func Create[T any](r *Resolver, values ...any) (T, error) {
	var zero T

	t := reflect.TypeOf((*T)(nil)).Elem()
	v, err := r.Create(t, values...)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, ResolutionError{
			Type:  t,
			Cause: TypeMismatchError{Field: "result", Expected: t, Actual: reflect.TypeOf(v)},
		}
	}

	return typed, nil
}

// MustCreate is Create that panics on failure. Intended for program
// initialization paths where a wiring error is fatal.
func MustCreate[T any](r *Resolver, values ...any) T {
	v, err := Create[T](r, values...)
	if err != nil {
		panic(err)
	}

	return v
}

// ========================================
// Instance table
// ========================================

// instanceTable maps shared types to their single live instance. The table
// mutex guards the maps; each entry carries a construction lock so a
// never-built singleton is constructed at most once under contention.
type instanceTable struct {
	mu      sync.Mutex
	entries map[reflect.Type]*instanceEntry
}

type instanceEntry struct {
	mu    sync.Mutex // held for the duration of one construction
	built bool       // guarded by the table mutex
	value any        // guarded by the table mutex
}

func newInstanceTable() *instanceTable {
	return &instanceTable{entries: make(map[reflect.Type]*instanceEntry)}
}

// get returns the live instance for t. Never blocks on an in-flight
// construction; re-entrant resolution relies on that.
func (tbl *instanceTable) get(t reflect.Type) (any, bool) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	e, ok := tbl.entries[t]
	if !ok || !e.built {
		return nil, false
	}

	return e.value, true
}

// construct returns the live instance for t, building it under the entry
// lock when absent. A failed build registers nothing.
func (tbl *instanceTable) construct(t reflect.Type, build func() (any, error)) (any, error) {
	tbl.mu.Lock()
	e, ok := tbl.entries[t]
	if !ok {
		e = &instanceEntry{}
		tbl.entries[t] = e
	}
	tbl.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	tbl.mu.Lock()
	if e.built {
		v := e.value
		tbl.mu.Unlock()
		return v, nil
	}
	tbl.mu.Unlock()

	v, err := build()
	if err != nil {
		return nil, err
	}

	tbl.mu.Lock()
	e.value = v
	e.built = true
	tbl.mu.Unlock()

	return v, nil
}

func (tbl *instanceTable) drop(t reflect.Type) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	delete(tbl.entries, t)
}

func (tbl *instanceTable) clear() {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	tbl.entries = make(map[reflect.Type]*instanceEntry)
}

// snapshot copies the built entries into a fresh table.
func (tbl *instanceTable) snapshot() *instanceTable {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	out := newInstanceTable()
	for t, e := range tbl.entries {
		if e.built {
			out.entries[t] = &instanceEntry{built: true, value: e.value}
		}
	}

	return out
}

// ========================================
// Cycle tracking
// ========================================

// createStack tracks the types in flight for one top-level Create call.
// Resolution is synchronous and re-entrant; revisiting a type means the
// dependency graph has a cycle.
type createStack struct {
	chain  []reflect.Type
	active map[reflect.Type]bool
}

func newCreateStack() *createStack {
	return &createStack{active: make(map[reflect.Type]bool)}
}

func (s *createStack) push(t reflect.Type) error {
	if s.active[t] {
		chain := make([]reflect.Type, len(s.chain))
		copy(chain, s.chain)
		return CircularDependencyError{Type: t, Chain: chain}
	}

	s.active[t] = true
	s.chain = append(s.chain, t)
	return nil
}

func (s *createStack) pop(t reflect.Type) {
	delete(s.active, t)
	if n := len(s.chain); n > 0 && s.chain[n-1] == t {
		s.chain = s.chain[:n-1]
	}
}

// Package autowire provides an autowiring dependency-resolution engine for
// Go applications. Given a target type and a partial, unordered list of
// values, it produces a fully constructed object graph by recursively
// resolving struct fields, consulting a small configuration (shared-type
// set, binding table), and caching introspection results so repeated
// construction is cheap.
//
// # Overview
//
// Unlike register-then-build containers, autowire needs no registration for
// concrete types: any struct (or pointer to struct) can be created directly,
// and its exported fields are wired recursively. Configuration is only
// needed to route interfaces to implementations, override construction with
// factories, or mark types singleton-scoped.
//
//	r := autowire.New()
//	svc, err := autowire.Create[*Service](r)
//
// # Supplied values
//
// Create accepts positional values that are matched to fields by type
// compatibility, in field order, with each value consumed at most once:
//
//	svc, err := autowire.Create[*Server](r, "localhost:8080", tlsConfig)
//
// The order of supplied values does not need to match field order; a string
// lands on the first unclaimed string-shaped field, a *tls.Config on the
// first field it is assignable to. Values no declared field claims are
// soaked up by untyped (any) fields in order.
//
// # Field tags
//
// Struct tags refine wiring where Go's type system cannot express it:
//
//	type Handler struct {
//	    Log     *Logger       `optional:"true"`          // zero value when unresolvable
//	    Level   string        `default:"info"`           // fallback literal
//	    Backend any           `oneof:"store.Mem,string"` // union of accepted types
//	    Stream  any           `all:"io.Reader,io.Closer"`// must satisfy every interface
//	}
//
// Names in oneof and all tags resolve through the resolver's TypeRegistry.
//
// # Bindings and sharing
//
// Resolvers are immutable configuration: every mutator returns a derived
// resolver, sharing the expensive builder cache by reference.
//
//	r = r.Bind(autowire.TypeFor[Greeter](), autowire.TypeFor[*EnglishGreeter]())
//	r = r.Share(autowire.TypeFor[*Database]())
//
// # Forking
//
// A long-lived process derives one lightweight resolver per unit of work:
//
//	fork := r.Fork() // shares configuration and caches, no live singletons
//
// Forks reuse all cached introspection but never observe each other's
// shared instances. FlushInstances drops a resolver's singletons in place.
package autowire

import "reflect"

// TypeFor returns the reflect.Type for T. It is shorthand for
// reflect.TypeFor aimed at Bind/Share call sites.
func TypeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

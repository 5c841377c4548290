package autowire

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that should be wrapped in typed errors when returned.
// Never return these directly to users - always wrap them with context.

var (
	// ErrNilType indicates a nil target type was passed to Create.
	ErrNilType = errors.New("target type cannot be nil")

	// ErrNotInstantiable indicates the target is an interface with no binding.
	ErrNotInstantiable = errors.New("interface has no binding and cannot be instantiated")

	// ErrNotConstructible indicates the target kind cannot be introspected
	// into a wireable field list (functions, channels, maps, primitives).
	ErrNotConstructible = errors.New("type cannot be constructed")

	// ErrUnknownTypeName indicates a name with no entry in the type registry.
	ErrUnknownTypeName = errors.New("type name is not registered")

	// ErrNilFactory indicates a nil factory was passed to BindFactory.
	ErrNilFactory = errors.New("factory cannot be nil")
)

var (
	_ error = ResolutionError{}
	_ error = TypeMismatchError{}
	_ error = CircularDependencyError{}
	_ error = ShapeError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// ResolutionError wraps every failure that occurs during Create. It carries
// the type that could not be resolved (or the registered name, when
// resolution started from a name lookup) and the underlying cause.
type ResolutionError struct {
	Type  reflect.Type
	Name  string // set when resolution started from a registered name
	Cause error
}

func (e ResolutionError) Error() string {
	target := e.Name
	if target == "" {
		target = formatType(e.Type)
	}

	if e.Cause != nil {
		return fmt.Sprintf("cannot resolve %s: %v", target, e.Cause)
	}

	return fmt.Sprintf("cannot resolve %s", target)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a supplied value landed on a field that cannot
// hold it. This surfaces leftover values that match no declared field shape.
type TypeMismatchError struct {
	Field    string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("field %s: expected %s, got %s",
		e.Field, formatType(e.Expected), formatType(e.Actual))
}

// CircularDependencyError indicates a type transitively depends on itself.
type CircularDependencyError struct {
	Type  reflect.Type
	Chain []reflect.Type
}

func (e CircularDependencyError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("circular dependency detected for %s", formatType(e.Type))
	}

	parts := make([]string, 0, len(e.Chain)+1)
	for _, t := range e.Chain {
		parts = append(parts, formatType(t))
	}
	parts = append(parts, formatType(e.Type))

	return fmt.Sprintf("circular dependency detected: %s", strings.Join(parts, " -> "))
}

// ShapeError indicates a struct field carries wiring metadata that cannot be
// classified: a malformed default value, or an unresolvable oneof/all entry.
type ShapeError struct {
	Type  reflect.Type
	Field string
	Tag   string
	Cause error
}

func (e ShapeError) Error() string {
	return fmt.Sprintf("%s.%s: invalid %q tag: %v",
		formatType(e.Type), e.Field, e.Tag, e.Cause)
}

func (e ShapeError) Unwrap() error {
	return e.Cause
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

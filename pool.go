package autowire

import (
	"reflect"
)

// valuePool holds the caller-supplied positional values for one builder
// invocation. Matching consumes entries left to right: once an entry is
// claimed by a field it is removed and can never satisfy another field.
type valuePool struct {
	values []any
}

func newValuePool(values []any) *valuePool {
	if len(values) == 0 {
		return &valuePool{}
	}

	pool := &valuePool{values: make([]any, len(values))}
	copy(pool.values, values)
	return pool
}

func (p *valuePool) empty() bool {
	return len(p.values) == 0
}

// takeMatch removes and returns the first entry satisfying pred.
func (p *valuePool) takeMatch(pred func(any) bool) (any, bool) {
	for i, v := range p.values {
		if pred(v) {
			p.values = append(p.values[:i], p.values[i+1:]...)
			return v, true
		}
	}

	return nil, false
}

// takeAssignable removes the first entry assignable to t. An untyped nil
// entry matches only when allowNil is set.
func (p *valuePool) takeAssignable(t reflect.Type, allowNil bool) (any, bool) {
	return p.takeMatch(func(v any) bool {
		if v == nil {
			return allowNil
		}
		return reflect.TypeOf(v).AssignableTo(t)
	})
}

// takeKind removes the first entry whose runtime kind matches k and which
// the field can actually hold. Kind alone identifies true primitives, but
// composite kinds (pointers, slices, maps, funcs, chans) share a kind across
// incompatible types, so the scan also requires assignability.
func (p *valuePool) takeKind(k reflect.Kind, field reflect.Type) (any, bool) {
	return p.takeMatch(func(v any) bool {
		if v == nil {
			return false
		}

		vt := reflect.TypeOf(v)
		return vt.Kind() == k && fits(vt, field)
	})
}

// takeIntersection removes the first entry that simultaneously satisfies
// every listed type.
func (p *valuePool) takeIntersection(types []reflect.Type) (any, bool) {
	return p.takeMatch(func(v any) bool {
		if v == nil {
			return false
		}

		vt := reflect.TypeOf(v)
		for _, t := range types {
			if t.Kind() == reflect.Interface {
				if !vt.Implements(t) {
					return false
				}
			} else if !vt.AssignableTo(t) {
				return false
			}
		}

		return true
	})
}

// takeFirst removes and returns the left-most remaining entry.
func (p *valuePool) takeFirst() (any, bool) {
	if len(p.values) == 0 {
		return nil, false
	}

	v := p.values[0]
	p.values = p.values[1:]
	return v, true
}

// resolveShape produces the concrete value for one classified field,
// applying the matching precedence: single class type, builtin kinds, union
// class types, intersection, then the untyped/default fallback. An invalid
// reflect.Value result means the field keeps its zero value.
func (r *Resolver) resolveShape(rs *resolvedShape, pool *valuePool, stack *createStack) (reflect.Value, error) {
	// Single class type: pool match, explicit factory, self-injection,
	// optional nil, then recursive construction.
	if rs.single != nil {
		if v, ok := pool.takeAssignable(rs.single, rs.optional); ok {
			return assignTo(rs.fieldType, rs.name, v)
		}

		// An explicit factory wins even over an optional field. create
		// runs it under the cycle guard and the shared-instance table.
		if _, ok := r.factoryFor(rs.single); ok {
			v, err := r.create(rs.single, newValuePool(nil), stack)
			if err != nil {
				return reflect.Value{}, err
			}
			return assignTo(rs.fieldType, rs.name, v)
		}

		if rs.single == resolverType {
			return assignTo(rs.fieldType, rs.name, r)
		}

		if rs.optional {
			return reflect.Value{}, nil
		}

		v, err := r.create(rs.single, newValuePool(nil), stack)
		if err != nil {
			return reflect.Value{}, err
		}
		return assignTo(rs.fieldType, rs.name, v)
	}

	for _, kind := range rs.builtins {
		if v, ok := pool.takeKind(kind, rs.fieldType); ok {
			return assignTo(rs.fieldType, rs.name, v)
		}
	}

	for _, t := range rs.union {
		if v, ok := pool.takeAssignable(t, rs.optional); ok {
			return assignTo(rs.fieldType, rs.name, v)
		}
	}

	if len(rs.intersect) > 0 {
		if v, ok := pool.takeIntersection(rs.intersect); ok {
			return assignTo(rs.fieldType, rs.name, v)
		}
		// Intersections are never auto-constructed; fall through.
	}

	if v, ok := pool.takeFirst(); ok {
		return assignTo(rs.fieldType, rs.name, v)
	}

	if rs.hasDefault {
		return rs.defaultVal, nil
	}

	return reflect.Value{}, nil
}

// fits reports whether a value of type vt can land on a field of type
// field, by direct assignment or same-kind conversion. This is the single
// acceptance rule shared by the pool scans and assignTo.
func fits(vt, field reflect.Type) bool {
	if vt.AssignableTo(field) {
		return true
	}

	return vt.Kind() == field.Kind() && vt.ConvertibleTo(field)
}

// assignTo adapts a matched value to the field's type. Same-kind named
// types are converted; anything else incompatible is a TypeMismatchError.
func assignTo(field reflect.Type, name string, v any) (reflect.Value, error) {
	if v == nil {
		switch field.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			return reflect.Zero(field), nil
		default:
			return reflect.Value{}, TypeMismatchError{Field: name, Expected: field}
		}
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	if rt.AssignableTo(field) {
		return rv, nil
	}

	if rt.Kind() == field.Kind() && rt.ConvertibleTo(field) {
		return rv.Convert(field), nil
	}

	return reflect.Value{}, TypeMismatchError{Field: name, Expected: field, Actual: rt}
}

package autowire

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// paramShape holds the pre-computed classification of a single wireable
// struct field. A shape falls into exactly one of four classes: single
// class type, primitive-or-union, intersection, or untyped.
type paramShape struct {
	index     int
	name      string
	fieldType reflect.Type

	// Classification. single is mutually exclusive with the union and
	// intersection lists; builtins may coexist with unionNames (a oneof
	// tag mixing primitive kinds and class names).
	single         reflect.Type
	builtins       []reflect.Kind
	unionNames     []string
	intersectNames []string

	// Captured regardless of classification.
	optional   bool
	hasDefault bool
	defaultVal reflect.Value
}

// untyped reports whether the field carries no usable type information and
// is satisfied only by positional fallback or its declared default.
func (s *paramShape) untyped() bool {
	return s.single == nil && len(s.builtins) == 0 &&
		len(s.unionNames) == 0 && len(s.intersectNames) == 0
}

// structShapes holds the classification of every wireable field of one
// struct type, in field declaration order.
type structShapes struct {
	target reflect.Type
	shapes []*paramShape
}

// resolvedShape pairs a cached shape with its oneof/all names resolved to
// concrete types through a resolver's registry. Resolution happens at
// builder-compile time so the shape cache itself stays registry-independent.
type resolvedShape struct {
	*paramShape
	union     []reflect.Type
	intersect []reflect.Type
}

// shapeCache caches classifications process-wide, keyed by struct type.
// Classification is pure and idempotent: a race at worst classifies the
// same type twice and both goroutines converge on one stored value.
var shapeCache sync.Map // map[reflect.Type]*structShapes

// builtinKinds maps the primitive names accepted in oneof tags.
var builtinKinds = map[string]reflect.Kind{
	"bool":       reflect.Bool,
	"string":     reflect.String,
	"int":        reflect.Int,
	"int8":       reflect.Int8,
	"int16":      reflect.Int16,
	"int32":      reflect.Int32,
	"int64":      reflect.Int64,
	"uint":       reflect.Uint,
	"uint8":      reflect.Uint8,
	"uint16":     reflect.Uint16,
	"uint32":     reflect.Uint32,
	"uint64":     reflect.Uint64,
	"uintptr":    reflect.Uintptr,
	"float32":    reflect.Float32,
	"float64":    reflect.Float64,
	"complex64":  reflect.Complex64,
	"complex128": reflect.Complex128,
}

var durationType = reflect.TypeOf(time.Duration(0))

// classify returns the field classification for a struct type, computing it
// once per distinct type. Classification failures are returned to the caller
// and never populate the cache.
func classify(t reflect.Type) (*structShapes, error) {
	if cached, ok := shapeCache.Load(t); ok {
		return cached.(*structShapes), nil
	}

	ss, err := classifyStruct(t)
	if err != nil {
		return nil, err
	}

	actual, _ := shapeCache.LoadOrStore(t, ss)
	return actual.(*structShapes), nil
}

// classifyStruct computes shapes for every exported field of t.
func classifyStruct(t reflect.Type) (*structShapes, error) {
	ss := &structShapes{target: t}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		shape, err := classifyField(t, i, field)
		if err != nil {
			return nil, err
		}

		ss.shapes = append(ss.shapes, shape)
	}

	return ss, nil
}

func classifyField(owner reflect.Type, index int, field reflect.StructField) (*paramShape, error) {
	s := &paramShape{
		index:     index,
		name:      field.Name,
		fieldType: field.Type,
	}

	if field.Tag.Get("optional") == "true" {
		s.optional = true
	}

	oneof := field.Tag.Get("oneof")
	all := field.Tag.Get("all")

	switch {
	case oneof != "" || all != "":
		// Tagged fields follow the tag, not the declared type. A oneof
		// entry naming a primitive kind joins builtins; everything else is
		// a class name resolved through the registry at compile time. The
		// all tag contributes the single permitted intersection group.
		for _, entry := range splitTagList(oneof) {
			if kind, ok := builtinKinds[entry]; ok {
				s.builtins = append(s.builtins, kind)
			} else {
				s.unionNames = append(s.unionNames, entry)
			}
		}
		s.intersectNames = splitTagList(all)

	default:
		switch kind := field.Type.Kind(); kind {
		case reflect.Pointer:
			if field.Type.Elem().Kind() == reflect.Struct {
				s.single = field.Type
			} else {
				s.builtins = []reflect.Kind{reflect.Pointer}
			}
		case reflect.Struct:
			s.single = field.Type
		case reflect.Interface:
			// A bare any field is the untyped leftover slot.
			if field.Type.NumMethod() > 0 {
				s.single = field.Type
			}
		default:
			s.builtins = []reflect.Kind{kind}
		}
	}

	if raw, ok := field.Tag.Lookup("default"); ok {
		value, err := parseDefault(field.Type, raw)
		if err != nil {
			return nil, ShapeError{Type: owner, Field: field.Name, Tag: "default", Cause: err}
		}
		s.hasDefault = true
		s.defaultVal = value
	}

	return s, nil
}

// resolveShapes turns cached shapes into compile-ready shapes by resolving
// oneof/all names through the registry.
func resolveShapes(ss *structShapes, reg *TypeRegistry) ([]*resolvedShape, error) {
	resolved := make([]*resolvedShape, 0, len(ss.shapes))

	for _, shape := range ss.shapes {
		rs := &resolvedShape{paramShape: shape}

		for _, name := range shape.unionNames {
			t, ok := reg.Lookup(name)
			if !ok {
				return nil, ShapeError{
					Type: ss.target, Field: shape.name, Tag: "oneof",
					Cause: fmt.Errorf("%q: %w", name, ErrUnknownTypeName),
				}
			}
			rs.union = append(rs.union, t)
		}

		for _, name := range shape.intersectNames {
			t, ok := reg.Lookup(name)
			if !ok {
				return nil, ShapeError{
					Type: ss.target, Field: shape.name, Tag: "all",
					Cause: fmt.Errorf("%q: %w", name, ErrUnknownTypeName),
				}
			}
			rs.intersect = append(rs.intersect, t)
		}

		resolved = append(resolved, rs)
	}

	return resolved, nil
}

// parseDefault parses a default tag value into the field's type.
func parseDefault(t reflect.Type, raw string) (reflect.Value, error) {
	if t == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.String:
		out.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("default values are not supported for %s fields", t.Kind())
	}

	return out, nil
}

func splitTagList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// clearShapeCache clears the process-wide shape cache. Useful for testing.
func clearShapeCache() {
	shapeCache.Range(func(key, _ any) bool {
		shapeCache.Delete(key)
		return true
	})
}

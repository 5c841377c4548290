package autowire

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyFieldClasses(t *testing.T) {
	type subject struct {
		Single    *TDatabase
		ByValue   TLogger
		Iface     TGreeter
		Leftover  any
		Count     int
		Flag      bool
		RawPtr    *int
		Union     any `oneof:"test.MemStore,string"`
		Intersect any `all:"io.Reader,io.Closer"`

		unexported string
	}

	ss, err := classify(reflect.TypeOf((*(subject))(nil)).Elem())
	require.NoError(t, err)
	require.Len(t, ss.shapes, 9)

	byName := make(map[string]*paramShape, len(ss.shapes))
	for _, s := range ss.shapes {
		byName[s.name] = s
	}

	require.Equal(t, reflect.TypeOf((*(*TDatabase))(nil)).Elem(), byName["Single"].single)
	require.Equal(t, reflect.TypeOf((*(TLogger))(nil)).Elem(), byName["ByValue"].single)
	require.Equal(t, reflect.TypeOf((*(TGreeter))(nil)).Elem(), byName["Iface"].single)

	require.True(t, byName["Leftover"].untyped())

	require.Equal(t, []reflect.Kind{reflect.Int}, byName["Count"].builtins)
	require.Equal(t, []reflect.Kind{reflect.Bool}, byName["Flag"].builtins)

	// A pointer to a non-struct is matched by kind, not as a class.
	require.Nil(t, byName["RawPtr"].single)
	require.Equal(t, []reflect.Kind{reflect.Pointer}, byName["RawPtr"].builtins)

	require.Equal(t, []string{"test.MemStore"}, byName["Union"].unionNames)
	require.Equal(t, []reflect.Kind{reflect.String}, byName["Union"].builtins)

	require.Equal(t, []string{"io.Reader", "io.Closer"}, byName["Intersect"].intersectNames)
	require.Nil(t, byName["Intersect"].single)
}

func TestClassifyOptionalAndDefault(t *testing.T) {
	type subject struct {
		Log     *TLogger      `optional:"true"`
		Retries int           `default:"3"`
		Rate    float64       `default:"0.5"`
		Debug   bool          `default:"true"`
		Name    string        `default:"anon"`
		Wait    time.Duration `default:"250ms"`
	}

	ss, err := classify(reflect.TypeOf((*(subject))(nil)).Elem())
	require.NoError(t, err)

	require.True(t, ss.shapes[0].optional)
	require.False(t, ss.shapes[0].hasDefault)

	require.Equal(t, int64(3), ss.shapes[1].defaultVal.Int())
	require.Equal(t, 0.5, ss.shapes[2].defaultVal.Float())
	require.True(t, ss.shapes[3].defaultVal.Bool())
	require.Equal(t, "anon", ss.shapes[4].defaultVal.String())
	require.Equal(t, 250*time.Millisecond, ss.shapes[5].defaultVal.Interface())
}

func TestClassifyBadDefault(t *testing.T) {
	type badInt struct {
		N int `default:"many"`
	}

	_, err := classify(reflect.TypeOf((*(badInt))(nil)).Elem())
	require.Error(t, err)

	var shapeErr ShapeError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, "N", shapeErr.Field)
	require.Equal(t, "default", shapeErr.Tag)
}

func TestClassifyUnsupportedDefaultKind(t *testing.T) {
	type badSlice struct {
		Items []string `default:"a,b"`
	}

	_, err := classify(reflect.TypeOf((*(badSlice))(nil)).Elem())
	require.Error(t, err)
}

func TestClassifyFailureNotCached(t *testing.T) {
	type broken struct {
		N int `default:"oops"`
	}
	target := reflect.TypeOf((*(broken))(nil)).Elem()

	_, err := classify(target)
	require.Error(t, err)

	_, cached := shapeCache.Load(target)
	require.False(t, cached)
}

func TestClassifyCachesPerType(t *testing.T) {
	type cachedSubject struct {
		Name string
	}
	target := reflect.TypeOf((*(cachedSubject))(nil)).Elem()

	a, err := classify(target)
	require.NoError(t, err)
	b, err := classify(target)
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestResolveShapesUnknownName(t *testing.T) {
	type subject struct {
		Store any `oneof:"test.Nope"`
	}

	ss, err := classify(reflect.TypeOf((*(subject))(nil)).Elem())
	require.NoError(t, err)

	_, err = resolveShapes(ss, NewTypeRegistry())
	require.ErrorIs(t, err, ErrUnknownTypeName)

	var shapeErr ShapeError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, "oneof", shapeErr.Tag)
}

func TestResolveShapesBindsNames(t *testing.T) {
	reg := NewTypeRegistry()
	require.NoError(t, reg.Register("test.MemStore", reflect.TypeOf((*(*TMemStore))(nil)).Elem()))
	require.NoError(t, reg.Register("io.Reader", reflect.TypeOf((*(interface{ Read([]byte) (int, error) }))(nil)).Elem()))

	type subject struct {
		Store  any `oneof:"test.MemStore"`
		Stream any `all:"io.Reader"`
	}

	ss, err := classify(reflect.TypeOf((*(subject))(nil)).Elem())
	require.NoError(t, err)

	resolved, err := resolveShapes(ss, reg)
	require.NoError(t, err)
	require.Equal(t, []reflect.Type{reflect.TypeOf((*(*TMemStore))(nil)).Elem()}, resolved[0].union)
	require.Len(t, resolved[1].intersect, 1)
}

func TestSplitTagList(t *testing.T) {
	require.Nil(t, splitTagList(""))
	require.Equal(t, []string{"a"}, splitTagList("a"))
	require.Equal(t, []string{"a", "b"}, splitTagList("a, b"))
	require.Equal(t, []string{"a", "b"}, splitTagList("a,,b,"))
}

package autowire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TLogger is a leaf dependency with a defaulted field.
type TLogger struct {
	Level string `default:"info"`
}

// TDatabase mixes an undefaulted and a defaulted builtin field.
type TDatabase struct {
	DSN      string
	MaxConns int `default:"8"`
}

// TRepository depends on a single class-typed field.
type TRepository struct {
	DB *TDatabase
}

// TService is a two-level dependency graph root.
type TService struct {
	Repo *TRepository
	Log  *TLogger
	Name string
}

// TGreeter is an interface for binding tests.
type TGreeter interface {
	Greet() string
}

type TEnglishGreeter struct {
	Prefix string `default:"hello"`
}

func (g *TEnglishGreeter) Greet() string { return g.Prefix }

type TFrenchGreeter struct{}

func (g *TFrenchGreeter) Greet() string { return "bonjour" }

// TOptionalDep holds a nullable class-typed field.
type TOptionalDep struct {
	Log *TLogger `optional:"true"`
}

// TUntyped holds only the leftover slot.
type TUntyped struct {
	Payload any
}

// TSelfAware receives the resolver itself.
type TSelfAware struct {
	R *Resolver
}

// TPair exercises out-of-order positional matching.
type TPair struct {
	Dep  *TDatabase
	Name string
}

// TTwoStrings exercises one-value-one-field consumption.
type TTwoStrings struct {
	A string
	B string
}

// TMemStore and TSQLStore are union candidates.
type TMemStore struct{}

type TSQLStore struct {
	DSN string
}

// TStoreHolder accepts either store implementation or a plain string DSN.
type TStoreHolder struct {
	Store any `oneof:"test.MemStore,test.SQLStore,string"`
}

// TStreamHolder requires a value satisfying both interfaces at once.
type TStreamHolder struct {
	Stream any `all:"io.Reader,io.Closer"`
}

// Circular dependency test types.

type TCircularA struct{ B *TCircularB }
type TCircularB struct{ A *TCircularA }

// ============================================================================
// Test Helpers
// ============================================================================

// newTestResolver creates a resolver with the union/intersection tag names
// used by the shared fixtures registered.
func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	r := New()
	reg := r.Types()
	require.NoError(t, reg.Register("test.MemStore", TypeFor[*TMemStore]()))
	require.NoError(t, reg.Register("test.SQLStore", TypeFor[*TSQLStore]()))
	require.NoError(t, reg.Register("io.Reader", TypeFor[io.Reader]()))
	require.NoError(t, reg.Register("io.Closer", TypeFor[io.Closer]()))
	return r
}

// RequireCreate resolves a type or fails the test.
func RequireCreate[T any](t *testing.T, r *Resolver, values ...any) T {
	t.Helper()

	v, err := Create[T](r, values...)
	require.NoError(t, err)
	return v
}

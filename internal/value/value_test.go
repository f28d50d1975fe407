package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomIdentity(t *testing.T) {
	a1 := Atom("x")
	a2 := Atom("x")
	assert.True(t, a1 == a2, "atom(\"x\") should be identical across calls")
	assert.True(t, Equal(a1, a2))
}

func TestSymbolNonIdentity(t *testing.T) {
	s1 := NewSymbol("x")
	s2 := NewSymbol("x")
	assert.False(t, s1 == s2, "symbol(\"x\") should not be identical across calls")
	assert.False(t, Equal(s1, s2))
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, IsTruthy(Nil))
	assert.False(t, IsTruthy(False))
	assert.True(t, IsTruthy(True))
	assert.True(t, IsTruthy(Number{Value: 0}))
	assert.True(t, IsTruthy(String{Value: ""}))
}

func TestEqualScalars(t *testing.T) {
	assert.True(t, Equal(Number{Value: 1}, Number{Value: 1}))
	assert.False(t, Equal(Number{Value: 1}, Number{Value: 2}))
	assert.True(t, Equal(String{Value: "a"}, String{Value: "a"}))
	assert.True(t, Equal(Nil, Nil))
}

func TestDeepEqualLists(t *testing.T) {
	a := NewList(Number{Value: 1}, NewList(Number{Value: 2}))
	b := NewList(Number{Value: 1}, NewList(Number{Value: 2}))
	eq, err := DeepEqual(a, b)
	require.NoError(t, err)
	assert.True(t, eq)

	// reference equality under == even though structurally equal
	assert.False(t, Equal(a, b))
}

func TestDeepEqualDetectsCycles(t *testing.T) {
	a := NewList(Nil)
	a.Set(0, a)
	b := NewList(Nil)
	b.Set(0, b)
	_, err := DeepEqual(a, b)
	assert.Error(t, err)
}

// TestDeepEqualSharedSublistIsNotACycle grounds a DAG that is not itself
// cyclic: the same sublist referenced from two different positions of
// its parent. Once the first occurrence's comparison finishes, its
// (a, b) pair must be forgotten so the second occurrence is compared
// fresh rather than misreported as a cycle.
func TestDeepEqualSharedSublistIsNotACycle(t *testing.T) {
	shared := NewList(Number{Value: 1})
	a := NewList(shared, shared)
	b := NewList(shared, shared)

	eq, err := DeepEqual(a, b)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestListOutOfBounds(t *testing.T) {
	l := NewList(Number{Value: 1})
	assert.Equal(t, Nil, l.Get(5))
	assert.False(t, l.Set(5, Number{Value: 2}))
}

func TestRecordSetPreservesInsertionOrderOnUpdate(t *testing.T) {
	r := NewRecord()
	r.Set(String{Value: "a"}, Number{Value: 1})
	r.Set(String{Value: "b"}, Number{Value: 2})
	r.Set(String{Value: "a"}, Number{Value: 3})

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key.(String).Value)
	assert.Equal(t, float64(3), entries[0].Val.(Number).Value)
	assert.Equal(t, "b", entries[1].Key.(String).Value)
}

func TestEnvironmentImmutableAssignFails(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.DeclareImmutable("x", Number{Value: 1}))
	assert.False(t, env.Assign("x", Number{Value: 2}))

	v, ok := env.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, float64(1), v.(Number).Value)
}

func TestEnvironmentMutableAssignAndDelete(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.DeclareMutable("x", Number{Value: 1}))
	assert.True(t, env.Assign("x", Number{Value: 2}))
	v, ok := env.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, float64(2), v.(Number).Value)

	assert.True(t, env.Delete("x"))
	_, ok = env.Lookup("x")
	assert.False(t, ok)
}

func TestEnvironmentForkShadowsParent(t *testing.T) {
	parent := NewEnvironment()
	require.NoError(t, parent.DeclareMutable("x", Number{Value: 1}))
	child := parent.Fork()
	require.NoError(t, child.DeclareImmutable("x", Number{Value: 2}))

	v, _ := child.Lookup("x")
	assert.Equal(t, float64(2), v.(Number).Value)
	v, _ = parent.Lookup("x")
	assert.Equal(t, float64(1), v.(Number).Value)
}

func TestEnvironmentDuplicateDeclarationFails(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.DeclareImmutable("x", Nil))
	assert.Error(t, env.DeclareMutable("x", Nil))
}

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/value"
)

var pos = ast.Pos{}

// fakeEvaluator evaluates just enough node kinds (literals, names) to
// exercise Pin/record-key/default-expression evaluation without
// depending on package eval (which imports pattern, not the reverse).
type fakeEvaluator struct{ env map[string]value.Value }

func (f fakeEvaluator) Eval(node ast.Node, env *value.Environment) (value.Value, error) {
	switch node.Kind {
	case ast.KindNumber:
		return value.Number{Value: node.Data.(ast.NumberData).Value}, nil
	case ast.KindString:
		return value.String{Value: node.Data.(ast.StringData).Value}, nil
	case ast.KindName:
		name := node.Data.(ast.NameData).Value
		if v, ok := env.Lookup(name); ok {
			return v, nil
		}
		if v, ok := f.env[name]; ok {
			return v, nil
		}
		return value.Nil, nil
	default:
		return value.Nil, nil
	}
}

func TestTestNeverMutatesEnv(t *testing.T) {
	env := value.NewEnvironment()
	require.NoError(t, env.DeclareImmutable("a", value.Number{Value: 99}))

	p := ast.Name("a", pos)
	matched, delta, err := Test(p, value.Number{Value: 1}, env, nil, Flags{})
	require.NoError(t, err)
	assert.True(t, matched)

	// env untouched: "a" still resolves to its original binding
	v, ok := env.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, float64(99), v.(value.Number).Value)

	// only after Commit does the delta reach an environment; "a" is already
	// declared in env's own frame, so commit into a child scope
	child := env.Fork()
	require.NoError(t, delta.Commit(child))
	v, ok = child.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, float64(1), v.(value.Number).Value)
}

func TestTestCommitBindsMatchedSubvalues(t *testing.T) {
	env := value.NewEnvironment()
	p := ast.Tuple(pos, ast.Name("x", pos), ast.Name("y", pos))
	list := value.NewList(value.Number{Value: 1}, value.String{Value: "hi"})

	matched, delta, err := Test(p, list, env, nil, Flags{})
	require.NoError(t, err)
	require.True(t, matched)
	require.NoError(t, delta.Commit(env))

	x, _ := env.Lookup("x")
	y, _ := env.Lookup("y")
	assert.Equal(t, float64(1), x.(value.Number).Value)
	assert.Equal(t, "hi", y.(value.String).Value)
}

func TestTupleSpreadDestructure(t *testing.T) {
	env := value.NewEnvironment()
	p := ast.Tuple(pos, ast.Name("a", pos), ast.Spread(pos, ast.Name("b", pos)))
	list := value.NewList(value.Number{Value: 1}, value.Number{Value: 2}, value.Number{Value: 3})

	matched, delta, err := Test(p, list, env, nil, Flags{})
	require.NoError(t, err)
	require.True(t, matched)
	require.NoError(t, delta.Commit(env))

	a, _ := env.Lookup("a")
	assert.Equal(t, float64(1), a.(value.Number).Value)

	b, _ := env.Lookup("b")
	bl, ok := b.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number{Value: 2}, value.Number{Value: 3}}, bl.Snapshot())
}

func TestStrictRejectsArityMismatch(t *testing.T) {
	env := value.NewEnvironment()
	p := ast.Tuple(pos, ast.Name("a", pos), ast.Name("b", pos))
	list := value.NewList(value.Number{Value: 1})

	matched, _, err := Test(p, list, env, nil, Flags{Strict: true})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestStrictRejectsNullOnName(t *testing.T) {
	env := value.NewEnvironment()
	matched, _, err := Test(ast.Name("a", pos), value.Nil, env, nil, Flags{Strict: true})
	require.NoError(t, err)
	assert.False(t, matched)

	matched, _, err = Test(ast.Name("a", pos), value.Nil, env, nil, Flags{})
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestMutableAndExportFlags(t *testing.T) {
	p := ast.Export(pos, ast.Mutable(pos, ast.Name("x", pos)))
	matched, delta, err := Test(p, value.Number{Value: 1}, value.NewEnvironment(), nil, Flags{})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Contains(t, delta.Mut, "x")
	assert.Contains(t, delta.Exports, "x")
	assert.NotContains(t, delta.Imm, "x")
}

func TestAtomPatternMatchesInternedAtomOnly(t *testing.T) {
	env := value.NewEnvironment()
	p := ast.Atom("ok", pos)

	matched, _, err := Test(p, value.Atom("ok"), env, nil, Flags{})
	require.NoError(t, err)
	assert.True(t, matched)

	matched, _, err = Test(p, value.NewSymbol("ok"), env, nil, Flags{})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestRecordPatternSpreadCollectsRest(t *testing.T) {
	env := value.NewEnvironment()
	rec := value.NewRecord()
	rec.Set(value.String{Value: "a"}, value.Number{Value: 1})
	rec.Set(value.String{Value: "b"}, value.Number{Value: 2})
	rec.Set(value.String{Value: "c"}, value.Number{Value: 3})

	p := ast.Tuple(pos,
		ast.Label(pos, ast.String("a", pos), ast.Name("a", pos)),
		ast.Spread(pos, ast.Name("rest", pos)),
	)

	matched, delta, err := Test(p, rec, env, fakeEvaluator{}, Flags{})
	require.NoError(t, err)
	require.True(t, matched)
	require.NoError(t, delta.Commit(env))

	a, _ := env.Lookup("a")
	assert.Equal(t, float64(1), a.(value.Number).Value)

	rest, _ := env.Lookup("rest")
	restRec, ok := rest.(*value.Record)
	require.True(t, ok)
	_, hasA := restRec.Get(value.String{Value: "a"})
	assert.False(t, hasA)
	v, hasB := restRec.Get(value.String{Value: "b"})
	assert.True(t, hasB)
	assert.Equal(t, float64(2), v.(value.Number).Value)
}

package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-lang/uni/internal/value"
)

func handlerNamed(name string) *value.Handler {
	return &value.Handler{Fn: &value.NativeFunc{Name: name}}
}

func TestLookupInnerShadowsOuter(t *testing.T) {
	var chain *Chain
	chain = chain.Inject(map[string]*value.Handler{"k": handlerNamed("outer")})
	chain = chain.Inject(map[string]*value.Handler{"k": handlerNamed("inner")})

	h, ok := chain.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "inner", h.Fn.(*value.NativeFunc).Name)
}

func TestMaskExposesNextOuterFrame(t *testing.T) {
	var chain *Chain
	chain = chain.Inject(map[string]*value.Handler{"k": handlerNamed("h2")})
	chain = chain.Inject(map[string]*value.Handler{"k": handlerNamed("h1")})
	masked := chain.Mask([]string{"k"})

	h, ok := masked.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "h2", h.Fn.(*value.NativeFunc).Name, "mask at the inner scope exposes the next outer handler")

	// the unmasked chain still resolves to the innermost handler
	h, ok = chain.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "h1", h.Fn.(*value.NativeFunc).Name)
}

func TestWithoutBlocksEvenOuterFrames(t *testing.T) {
	var chain *Chain
	chain = chain.Inject(map[string]*value.Handler{"k": handlerNamed("outer")})
	without := chain.Without([]string{"k"})
	chain2 := without.Inject(map[string]*value.Handler{})

	_, ok := chain2.Lookup("k")
	assert.False(t, ok)
}

func TestLookupUnhandledTag(t *testing.T) {
	var chain *Chain
	_, ok := chain.Lookup("nope")
	assert.False(t, ok)
}

func TestVisibleCollectsInnermostPerTag(t *testing.T) {
	var chain *Chain
	chain = chain.Inject(map[string]*value.Handler{"a": handlerNamed("a-outer")})
	chain = chain.Inject(map[string]*value.Handler{"a": handlerNamed("a-inner"), "b": handlerNamed("b")})

	rec := chain.Visible()
	a, ok := rec.Get(value.String{Value: "a"})
	require.True(t, ok)
	assert.Equal(t, "a-inner", a.(*value.NativeFunc).Name)

	_, ok = rec.Get(value.String{Value: "b"})
	assert.True(t, ok)
}

func TestContinuationIsOneShot(t *testing.T) {
	k, fn := NewContinuation()
	v, err := fn.Fn([]value.Value{value.Number{Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, float64(1), v.(value.Number).Value)

	_, err = k.Invoke(value.Number{Value: 2})
	assert.Error(t, err)
}

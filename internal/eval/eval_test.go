package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/config"
	"github.com/uni-lang/uni/internal/value"
)

var pos = ast.Pos{}

func newTestEvaluator() *Evaluator {
	return New(config.Default("/proj"), nil)
}

func TestArithmeticPrecedenceChain(t *testing.T) {
	// 1 + 2^-3 * 4 - 5 / 6 % 7  ==  2/3
	pow := ast.BinaryOp(pos, "^", ast.Number(2, pos), ast.UnaryOp(pos, "-", ast.Number(3, pos)))
	mul := ast.BinaryOp(pos, "*", pow, ast.Number(4, pos))
	add := ast.BinaryOp(pos, "+", ast.Number(1, pos), mul)
	div := ast.BinaryOp(pos, "/", ast.Number(5, pos), ast.Number(6, pos))
	mod := ast.BinaryOp(pos, "%", div, ast.Number(7, pos))
	root := ast.BinaryOp(pos, "-", add, mod)

	e := newTestEvaluator()
	v, err := e.RunScript("arith.uni", root)
	require.NoError(t, err)
	n, ok := v.(value.Number)
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, n.Value, 1e-9)
}

func TestMutablePostIncrementSequencing(t *testing.T) {
	// mut x := 0; x++, x  ==  [0, 1]
	decl := ast.Declare(pos, ast.Mutable(pos, ast.Name("x", pos)), ast.Number(0, pos))
	pair := ast.Tuple(pos, ast.PostInc(pos, ast.Name("x", pos)), ast.Name("x", pos))
	root := ast.Sequence(pos, decl, pair)

	e := newTestEvaluator()
	v, err := e.RunScript("incr.uni", root)
	require.NoError(t, err)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number{Value: 0}, value.Number{Value: 1}}, list.Snapshot())
}

func TestTuplePatternSpreadBindsRemainder(t *testing.T) {
	// (1, 2, 3) is (a, ...b); reference b  ==  [2, 3]
	isExpr := ast.Is(pos,
		ast.Tuple(pos, ast.Number(1, pos), ast.Number(2, pos), ast.Number(3, pos)),
		ast.Tuple(pos, ast.Name("a", pos), ast.Spread(pos, ast.Name("b", pos))),
	)
	root := ast.Sequence(pos, isExpr, ast.Name("b", pos))

	e := newTestEvaluator()
	v, err := e.RunScript("spread.uni", root)
	require.NoError(t, err)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number{Value: 2}, value.Number{Value: 3}}, list.Snapshot())
}

func TestNestedInjectMaskWithoutResolvesToOuterShadowedHandler(t *testing.T) {
	// inject a: 1, b: 2 {
	//   { a, b } := injected
	//   inject a: a+1, b: b+2 {
	//     mask "a" { without "b" { { a } := injected; a + 1 } }
	//   }
	// }  ==  2
	innerBody := ast.Block(pos, ast.Sequence(pos,
		ast.Declare(pos,
			ast.Tuple(pos, ast.Label(pos, ast.String("a", pos), ast.Name("a", pos))),
			ast.Name("injected", pos),
		),
		ast.BinaryOp(pos, "+", ast.Name("a", pos), ast.Number(1, pos)),
	))
	masked := ast.Mask(pos, []string{"a"}, ast.Without(pos, []string{"b"}, innerBody))

	outerHandlers := ast.Tuple(pos,
		ast.Label(pos, ast.String("a", pos), ast.Number(1, pos)),
		ast.Label(pos, ast.String("b", pos), ast.Number(2, pos)),
	)
	innerHandlers := ast.Tuple(pos,
		ast.Label(pos, ast.String("a", pos), ast.BinaryOp(pos, "+", ast.Name("a", pos), ast.Number(1, pos))),
		ast.Label(pos, ast.String("b", pos), ast.BinaryOp(pos, "+", ast.Name("b", pos), ast.Number(2, pos))),
	)
	outerBody := ast.Sequence(pos,
		ast.Declare(pos,
			ast.Tuple(pos,
				ast.Label(pos, ast.String("a", pos), ast.Name("a", pos)),
				ast.Label(pos, ast.String("b", pos), ast.Name("b", pos)),
			),
			ast.Name("injected", pos),
		),
		ast.Inject(pos, innerHandlers, masked),
	)
	root := ast.Inject(pos, outerHandlers, outerBody)

	e := newTestEvaluator()
	v, err := e.RunScript("handlers.uni", root)
	require.NoError(t, err)
	n, ok := v.(value.Number)
	require.True(t, ok)
	assert.Equal(t, float64(2), n.Value)
}

// TestForkedSenderProducesFIFOReceives exercises a forked task sending two
// values over a channel and closing it, while the main task consumes them
// with the blocking receive operator. Using the blocking form (rather than
// the non-suspending ReceiveStatus poll) is deliberate: the scheduler only
// ever hands the run token to another goroutine at a listed suspension
// point (internal/sched), so a consumer that never suspends would starve
// the sender's goroutine of the token forever.
func TestForkedSenderProducesFIFOReceives(t *testing.T) {
	e := newTestEvaluator()

	chDecl := ast.Declare(pos, ast.Name("c", pos), ast.Application(pos, ast.Name("channel", pos), ast.String("t", pos)))
	sendBody := ast.Sequence(pos,
		ast.Send(pos, ast.Name("c", pos), ast.Number(1, pos)),
		ast.Send(pos, ast.Name("c", pos), ast.Number(2, pos)),
		ast.Application(pos, ast.Name("close", pos), ast.Name("c", pos)),
	)
	forkStmt := ast.Fork(pos, sendBody)
	root := ast.Sequence(pos,
		chDecl,
		forkStmt,
		ast.Tuple(pos, ast.Receive(pos, ast.Name("c", pos)), ast.Receive(pos, ast.Name("c", pos))),
	)

	v, err := e.RunScript("channel.uni", root)
	require.NoError(t, err)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number{Value: 1}, value.Number{Value: 2}}, list.Snapshot())
}

// TestParallelPreservesBranchOrder grounds the `all(1 | 2)` scenario: the
// Parallel AST node is the primitive `all`/`|` sugar compiles down to,
// forking one task per branch and awaiting them in source order.
func TestParallelPreservesBranchOrder(t *testing.T) {
	e := newTestEvaluator()
	root := ast.Parallel(pos, ast.Number(1, pos), ast.Number(2, pos))

	v, err := e.RunScript("parallel.uni", root)
	require.NoError(t, err)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number{Value: 1}, value.Number{Value: 2}}, list.Snapshot())
}

// TestCancelledForkAwaitsToNull grounds: task := fork { wait 1000; 123 };
// cancel task; await task  ==  null. Cancelling before the forked
// goroutine ever runs means await observes a terminal Cancelled status
// immediately, without actually waiting out the timer.
func TestCancelledForkAwaitsToNull(t *testing.T) {
	e := newTestEvaluator()
	forkBody := ast.Sequence(pos,
		ast.Application(pos, ast.Name("wait", pos), ast.Number(1000, pos)),
		ast.Number(123, pos),
	)
	decl := ast.Declare(pos, ast.Name("task", pos), ast.Fork(pos, forkBody))
	cancelCall := ast.Application(pos, ast.Name("cancel", pos), ast.Name("task", pos))
	awaitExpr := ast.Await(pos, ast.Name("task", pos))
	root := ast.Sequence(pos, decl, cancelCall, awaitExpr)

	v, err := e.RunScript("cancel.uni", root)
	require.NoError(t, err)
	assert.Equal(t, value.Nil, v)
}

func TestUnhandledEffectErrors(t *testing.T) {
	e := newTestEvaluator()
	root := ast.Handle(pos, ast.Atom("boom", pos), ast.Placeholder(pos))

	_, err := e.RunScript("unhandled.uni", root)
	require.Error(t, err)
}

func TestInjectHandlesRaisedEffect(t *testing.T) {
	// inject boom: (k, payload) -> payload + 1 { handle(:boom, 41) }  ==  42
	handlerFn := ast.Function(pos,
		ast.Name("k", pos),
		ast.Function(pos, ast.Name("payload", pos), ast.BinaryOp(pos, "+", ast.Name("payload", pos), ast.Number(1, pos)), false),
		false,
	)
	handlers := ast.Tuple(pos, ast.Label(pos, ast.String("boom", pos), handlerFn))
	body := ast.Handle(pos, ast.Atom("boom", pos), ast.Number(41, pos))
	root := ast.Inject(pos, handlers, body)

	e := newTestEvaluator()
	v, err := e.RunScript("handled.uni", root)
	require.NoError(t, err)
	n, ok := v.(value.Number)
	require.True(t, ok)
	assert.Equal(t, float64(42), n.Value)
}

// TestMixedLabelAndPositionalTupleMergesUnderIntegerKeys grounds spec.md's
// noted-not-guessed ambiguity: a tuple literal with at least one Label
// sibling is built as a record, and bare positional values in it land under
// integer keys rather than erroring.
func TestMixedLabelAndPositionalTupleMergesUnderIntegerKeys(t *testing.T) {
	root := ast.Tuple(pos,
		ast.Number(10, pos),
		ast.Label(pos, ast.String("name", pos), ast.String("x", pos)),
		ast.Number(20, pos),
	)

	e := newTestEvaluator()
	v, err := e.RunScript("mixed.uni", root)
	require.NoError(t, err)
	rec, ok := v.(*value.Record)
	require.True(t, ok)

	name, ok := rec.Get(value.String{Value: "name"})
	require.True(t, ok)
	assert.Equal(t, "x", name.(value.String).Value)

	first, ok := rec.Get(value.Number{Value: 0})
	require.True(t, ok)
	assert.Equal(t, float64(10), first.(value.Number).Value)

	second, ok := rec.Get(value.Number{Value: 1})
	require.True(t, ok)
	assert.Equal(t, float64(20), second.(value.Number).Value)
}

// TestBaseHandlersVisibleWithoutExplicitInject grounds the host-installed
// handler path (Evaluator.InjectHostIO, Evaluator.BaseHandlers): a handler
// seeded onto the Evaluator before a script runs is reachable by a bare
// `handle(:io, ...)` with no surrounding `inject` in the script itself.
func TestBaseHandlersVisibleWithoutExplicitInject(t *testing.T) {
	e := newTestEvaluator()
	e.BaseHandlers = e.BaseHandlers.Inject(map[string]*value.Handler{
		"io": {Fn: &value.NativeFunc{Name: "k", Fn: func(args []value.Value) (value.Value, error) {
			return &value.NativeFunc{Name: "payload", Fn: func(args2 []value.Value) (value.Value, error) {
				return args2[0], nil
			}}, nil
		}}},
	})

	root := ast.Handle(pos, ast.Atom("io", pos), ast.Number(7, pos))
	v, err := e.RunScript("hostio.uni", root)
	require.NoError(t, err)
	n, ok := v.(value.Number)
	require.True(t, ok)
	assert.Equal(t, float64(7), n.Value)
}

package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/pattern"
	"github.com/uni-lang/uni/internal/value"
)

// evalFunction builds a closure over the current environment. A
// Function node's Param is always a single pattern; multi-parameter
// functions are curried by the caller that builds the AST (spec.md
// §4.G: "fn a b -> body" desugars to "fn a -> fn b -> body"), so this
// is a direct 1:1 translation with no extra currying machinery needed
// here.
func (e *Evaluator) evalFunction(node ast.Node, ctx Context) (value.Value, error) {
	data := node.Data.(ast.FunctionData)
	return &value.Function{
		Param:   node.Children[0],
		Body:    node.Children[1],
		Env:     ctx.Env,
		HasSelf: data.HasSelf,
	}, nil
}

func (e *Evaluator) evalApplication(node ast.Node, ctx Context) (value.Value, error) {
	calleeV, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(calleeV) {
		return calleeV, nil
	}
	argV, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(argV) {
		return argV, nil
	}
	return e.Call(calleeV, argV, ctx)
}

// Call applies a callable value. A *value.Function call is evaluated
// with the call site's handler chain (ctx.Handlers is threaded through
// unchanged, per spec.md §4.G's dynamic rather than lexical handler
// scoping), but with the closure's own captured Env. A *value.NativeFunc
// either runs context-free, or, for the handful of builtins that need
// access to the evaluator/Context (sync, wait, cancel_on_error, ...),
// dispatches through contextualBuiltins.
func (e *Evaluator) Call(calleeV, argV value.Value, ctx Context) (value.Value, error) {
	switch fn := calleeV.(type) {
	case *value.Function:
		return e.callFunction(fn, argV, ctx)
	case *value.NativeFunc:
		if cb, ok := contextualBuiltins[fn.Name]; ok {
			return cb(e, argV, ctx)
		}
		return fn.Fn([]value.Value{argV})
	default:
		return nil, fmt.Errorf("call: %s is not callable", calleeV.Kind())
	}
}

func (e *Evaluator) callFunction(fn *value.Function, argV value.Value, ctx Context) (value.Value, error) {
	callEnv := fn.Env.Fork()
	if fn.HasSelf {
		if err := callEnv.DeclareImmutable("self", fn); err != nil {
			return nil, err
		}
	}
	matched, delta, err := pattern.Test(fn.Param, argV, callEnv, patternAdapter{e, ctx}, pattern.Flags{})
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("call: argument %s did not match the parameter pattern", argV.Inspect())
	}
	if err := delta.Commit(callEnv); err != nil {
		return nil, err
	}

	bodyCtx := ctx
	bodyCtx.Env = callEnv
	v, err := e.evalHandled(fn.Body, bodyCtx)
	if err != nil {
		return nil, err
	}
	if r, ok := v.(*returnSignal); ok {
		return r.Value, nil
	}
	if isControlSignal(v) {
		return nil, fmt.Errorf("call: break/continue escaped its enclosing loop")
	}
	return v, nil
}

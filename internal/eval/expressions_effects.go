package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/effect"
	"github.com/uni-lang/uni/internal/value"
)

// evalHandled evaluates body and, if the result is an uncaught
// *value.Effect, looks its tag up in ctx.Handlers and invokes the
// handler. This is one of the four places dispatch can trigger (spec.md
// §4.F/§4.G): the others are evalInject/evalMask/evalWithout wrapping
// their own bodies with the same check after adjusting the chain.
// handle() itself is a pure data constructor — it never dispatches —
// so interception only ever happens here, at the boundary a handled
// computation's result crosses back into ordinary evaluation.
func (e *Evaluator) evalHandled(body ast.Node, ctx Context) (value.Value, error) {
	v, err := e.Eval(body, ctx)
	if err != nil {
		return nil, err
	}
	eff, ok := v.(*value.Effect)
	if !ok {
		return v, nil
	}
	tag := keyToTagString(eff.Tag)
	handler, ok := ctx.Handlers.Lookup(tag)
	if !ok {
		return nil, e.systemError(ctx, body.Pos, "effect: unhandled effect %q", tag)
	}
	_, kFn := effect.NewContinuation()
	result, err := e.Call(handler.Fn, kFn, ctx)
	if err != nil {
		return nil, err
	}
	return e.Call(result, eff.Payload, ctx)
}

func keyToTagString(v value.Value) string {
	switch t := v.(type) {
	case value.String:
		return t.Value
	case *value.Symbol:
		return t.Name()
	default:
		return t.Inspect()
	}
}

// evalInject(handlers, body): evaluates the handler record, pushes a
// new frame mapping each label to a Handler, and evaluates body under
// the extended chain.
func (e *Evaluator) evalInject(node ast.Node, ctx Context) (value.Value, error) {
	handlersNode, body := node.Children[0], node.Children[1]
	hv, err := e.Eval(handlersNode, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(hv) {
		return hv, nil
	}
	rec, ok := hv.(*value.Record)
	if !ok {
		return nil, fmt.Errorf("inject: expected a record of handlers, got %s", hv.Kind())
	}
	frame := map[string]*value.Handler{}
	for _, entry := range rec.Entries() {
		tag := keyToTagString(entry.Key)
		if h, ok := entry.Val.(*value.Handler); ok {
			frame[tag] = h
		} else {
			frame[tag] = &value.Handler{Fn: entry.Val}
		}
	}
	innerCtx := ctx
	innerCtx.Handlers = ctx.Handlers.Inject(frame)
	return e.evalHandled(body, innerCtx)
}

func namesFromNode(node ast.Node) []string {
	return node.Data.(ast.NamesData).Names
}

func (e *Evaluator) evalMask(node ast.Node, ctx Context) (value.Value, error) {
	names := namesFromNode(node)
	innerCtx := ctx
	innerCtx.Handlers = ctx.Handlers.Mask(names)
	return e.evalHandled(node.Children[0], innerCtx)
}

func (e *Evaluator) evalWithout(node ast.Node, ctx Context) (value.Value, error) {
	names := namesFromNode(node)
	innerCtx := ctx
	innerCtx.Handlers = ctx.Handlers.Without(names)
	return e.evalHandled(node.Children[0], innerCtx)
}

// evalHandle is the pure data constructor `handle(tag, payload)`
// (spec.md §4.F): it never dispatches by itself, it just builds the
// Effect value, recording the current environment in its CapturedEnv.
func (e *Evaluator) evalHandle(node ast.Node, ctx Context) (value.Value, error) {
	tagV, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(tagV) {
		return tagV, nil
	}
	payloadV, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(payloadV) {
		return payloadV, nil
	}
	return &value.Effect{Tag: tagV, Payload: payloadV, CapturedEnv: ctx.Env}, nil
}

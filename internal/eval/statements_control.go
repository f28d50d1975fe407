package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/pattern"
	"github.com/uni-lang/uni/internal/value"
)

func (e *Evaluator) evalSequence(node ast.Node, ctx Context) (value.Value, error) {
	var result value.Value = value.Nil
	for _, child := range node.Children {
		v, err := e.Eval(child, ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(v) {
			return v, nil
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) evalBlock(node ast.Node, ctx Context) (value.Value, error) {
	inner := ctx
	inner.Env = ctx.Env.Fork()
	v, err := e.Eval(node.Children[0], inner)
	if err != nil {
		return nil, err
	}
	if b, ok := catchBreak(v, ""); ok {
		return b.Value, nil
	}
	return v, nil
}

func (e *Evaluator) evalLabeledBlock(node ast.Node, ctx Context) (value.Value, error) {
	label := node.Data.(ast.LabelData).Name
	inner := ctx
	inner.Env = ctx.Env.Fork()
	v, err := e.Eval(node.Children[0], inner)
	if err != nil {
		return nil, err
	}
	if b, ok := catchBreak(v, label); ok {
		return b.Value, nil
	}
	return v, nil
}

func (e *Evaluator) evalIf(node ast.Node, ctx Context) (value.Value, error) {
	cond, then := node.Children[0], node.Children[1]
	hasElse := node.Kind == ast.KindIfElse
	var els ast.Node
	if hasElse {
		els = node.Children[2]
	}

	if cond.Kind == ast.KindIs {
		discriminant, patNode := cond.Children[0], cond.Children[1]
		dv, err := e.Eval(discriminant, ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(dv) {
			return dv, nil
		}
		matched, delta, err := pattern.Test(patNode, dv, ctx.Env, patternAdapter{e, ctx}, pattern.Flags{})
		if err != nil {
			return nil, err
		}
		if matched {
			branchCtx := ctx
			branchCtx.Env = ctx.Env.Fork()
			if err := delta.Commit(branchCtx.Env); err != nil {
				return nil, err
			}
			return e.Eval(then, branchCtx)
		}
		if hasElse {
			return e.Eval(els, ctx)
		}
		return value.Nil, nil
	}

	cv, err := e.Eval(cond, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(cv) {
		return cv, nil
	}
	if value.IsTruthy(cv) {
		return e.Eval(then, ctx)
	}
	if hasElse {
		return e.Eval(els, ctx)
	}
	return value.Nil, nil
}

func (e *Evaluator) evalWhile(node ast.Node, ctx Context) (value.Value, error) {
	cond, body := node.Children[0], node.Children[1]
	for {
		cv, err := e.Eval(cond, ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(cv) {
			return cv, nil
		}
		if !value.IsTruthy(cv) {
			return value.Nil, nil
		}
		iter := ctx
		iter.Env = ctx.Env.Fork()
		v, err := e.Eval(body, iter)
		if err != nil {
			return nil, err
		}
		if b, ok := catchBreak(v, ""); ok {
			return b.Value, nil
		}
		if _, ok := catchContinue(v, ""); ok {
			continue
		}
		if isControlSignal(v) {
			return v, nil
		}
	}
}

func (e *Evaluator) evalLoop(node ast.Node, ctx Context) (value.Value, error) {
	body := node.Children[0]
	for {
		iter := ctx
		iter.Env = ctx.Env.Fork()
		v, err := e.Eval(body, iter)
		if err != nil {
			return nil, err
		}
		if b, ok := catchBreak(v, ""); ok {
			return b.Value, nil
		}
		if _, ok := catchContinue(v, ""); ok {
			continue
		}
		if isControlSignal(v) {
			return v, nil
		}
	}
}

func (e *Evaluator) evalFor(node ast.Node, ctx Context) (value.Value, error) {
	patNode, iterableNode, body := node.Children[0], node.Children[1], node.Children[2]
	iterV, err := e.Eval(iterableNode, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(iterV) {
		return iterV, nil
	}
	list, ok := iterV.(*value.List)
	if !ok {
		return nil, fmt.Errorf("for: expected a list to iterate, got %s", iterV.Kind())
	}

	var results []value.Value
	for _, item := range list.Snapshot() {
		iter := ctx
		iter.Env = ctx.Env.Fork()
		matched, delta, err := pattern.Test(patNode, item, iter.Env, patternAdapter{e, iter}, pattern.Flags{})
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, fmt.Errorf("for: iteration pattern did not match a list element")
		}
		if err := delta.Commit(iter.Env); err != nil {
			return nil, err
		}

		v, err := e.Eval(body, iter)
		if err != nil {
			return nil, err
		}
		if b, ok := catchBreak(v, ""); ok {
			return b.Value, nil
		}
		if _, ok := catchContinue(v, ""); ok {
			continue
		}
		if isControlSignal(v) {
			return v, nil
		}
		if _, isNull := v.(value.Null); !isNull {
			results = append(results, v)
		}
	}
	return value.NewList(results...), nil
}

func (e *Evaluator) evalReturn(node ast.Node, ctx Context) (value.Value, error) {
	v := value.Value(value.Nil)
	if len(node.Children) > 0 {
		rv, err := e.Eval(node.Children[0], ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(rv) {
			return rv, nil
		}
		v = rv
	}
	return &returnSignal{Value: v}, nil
}

func (e *Evaluator) evalBreak(node ast.Node, ctx Context) (value.Value, error) {
	label := node.Data.(ast.LabelData).Name
	v := value.Value(value.Nil)
	if len(node.Children) > 0 {
		bv, err := e.Eval(node.Children[0], ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(bv) {
			return bv, nil
		}
		v = bv
	}
	return &breakSignal{Label: label, Value: v}, nil
}

func (e *Evaluator) evalContinue(node ast.Node, ctx Context) (value.Value, error) {
	label := node.Data.(ast.LabelData).Name
	v := value.Value(value.Nil)
	if len(node.Children) > 0 {
		cv, err := e.Eval(node.Children[0], ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(cv) {
			return cv, nil
		}
		v = cv
	}
	return &continueSignal{Label: label, Value: v}, nil
}

package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/pattern"
	"github.com/uni-lang/uni/internal/value"
)

// patternAdapter satisfies pattern.Evaluator, letting the pattern
// engine evaluate Pin expressions and Assign-pattern defaults without
// package pattern importing eval.
type patternAdapter struct {
	e   *Evaluator
	ctx Context
}

func (p patternAdapter) Eval(node ast.Node, env *value.Environment) (value.Value, error) {
	c := p.ctx
	c.Env = env
	return p.e.Eval(node, c)
}

// evalIsExpr handles a bare `x is pattern` used as a boolean
// expression, outside of an If condition (which forks a fresh branch
// scope in evalIf instead). On a match, the bound names are committed
// directly into the enclosing scope, so a statement like
// `(1, 2, 3) is (a, ...b)` leaves `a`/`b` visible to whatever follows
// it at the same scope.
func (e *Evaluator) evalIsExpr(node ast.Node, ctx Context) (value.Value, error) {
	discriminant, patNode := node.Children[0], node.Children[1]
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
		if err := delta.Commit(ctx.Env); err != nil {
			return nil, err
		}
	}
	return value.FromBool(matched), nil
}

func (e *Evaluator) evalMatch(node ast.Node, ctx Context) (value.Value, error) {
	dv, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(dv) {
		return dv, nil
	}
	for _, c := range node.Children[1:] {
		patNode, body := c.Children[0], c.Children[1]
		matched, delta, err := pattern.Test(patNode, dv, ctx.Env, patternAdapter{e, ctx}, pattern.Flags{})
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		caseCtx := ctx
		caseCtx.Env = ctx.Env.Fork()
		if err := delta.Commit(caseCtx.Env); err != nil {
			return nil, err
		}
		return e.Eval(body, caseCtx)
	}
	return nil, fmt.Errorf("match: no case matched %s", dv.Inspect())
}

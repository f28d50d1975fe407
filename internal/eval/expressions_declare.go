package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/pattern"
	"github.com/uni-lang/uni/internal/value"
)

func (e *Evaluator) evalDeclare(node ast.Node, ctx Context) (value.Value, error) {
	patNode, exprNode := node.Children[0], node.Children[1]
	v, err := e.Eval(exprNode, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return v, nil
	}
	matched, delta, err := pattern.Test(patNode, v, ctx.Env, patternAdapter{e, ctx}, pattern.Flags{})
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("declare: pattern did not match %s", v.Inspect())
	}
	if err := delta.Commit(ctx.Env); err != nil {
		return nil, err
	}
	if ctx.Exports != nil {
		for name, val := range delta.Exports {
			ctx.Exports.Set(value.String{Value: name}, val)
		}
	}
	return v, nil
}

func (e *Evaluator) evalAssign(node ast.Node, ctx Context) (value.Value, error) {
	patNode, exprNode := node.Children[0], node.Children[1]
	if patNode.Kind == ast.KindIndex {
		return e.evalIndexAssign(patNode, exprNode, ctx)
	}

	v, err := e.Eval(exprNode, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return v, nil
	}
	matched, delta, err := pattern.Test(patNode, v, ctx.Env, patternAdapter{e, ctx}, pattern.Flags{})
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("assign: pattern did not match %s", v.Inspect())
	}
	for name, val := range delta.All() {
		if _, isNull := val.(value.Null); isNull {
			ctx.Env.Delete(name)
			continue
		}
		if !ctx.Env.Assign(name, val) {
			return nil, fmt.Errorf("assign: %q is not an assignable (mutable, declared) binding", name)
		}
	}
	return v, nil
}

func (e *Evaluator) evalIndexAssign(target, exprNode ast.Node, ctx Context) (value.Value, error) {
	tv, err := e.Eval(target.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	iv, err := e.Eval(target.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(exprNode, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return v, nil
	}
	switch t := tv.(type) {
	case *value.List:
		n, ok := iv.(value.Number)
		if !ok {
			return nil, fmt.Errorf("index assign: list index must be a number, got %s", iv.Kind())
		}
		if !t.Set(int(n.Value), v) {
			return nil, fmt.Errorf("index assign: index %v out of bounds", n.Value)
		}
	case *value.Record:
		t.Set(iv, v)
	default:
		return nil, fmt.Errorf("index assign: %s is not indexable", tv.Kind())
	}
	return v, nil
}

func (e *Evaluator) evalIncAssign(node ast.Node, ctx Context) (value.Value, error) {
	patNode, exprNode := node.Children[0], node.Children[1]
	deltaV, err := e.Eval(exprNode, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(deltaV) {
		return deltaV, nil
	}
	deltaN, ok := deltaV.(value.Number)
	if !ok {
		return nil, fmt.Errorf("incassign: right-hand side must be a number, got %s", deltaV.Kind())
	}

	if patNode.Kind == ast.KindIndex {
		tv, err := e.Eval(patNode.Children[0], ctx)
		if err != nil {
			return nil, err
		}
		iv, err := e.Eval(patNode.Children[1], ctx)
		if err != nil {
			return nil, err
		}
		switch t := tv.(type) {
		case *value.List:
			n, ok := iv.(value.Number)
			if !ok {
				return nil, fmt.Errorf("incassign: list index must be a number")
			}
			cur := t.Get(int(n.Value))
			curN, ok := cur.(value.Number)
			if !ok {
				return nil, fmt.Errorf("incassign: target is not a number")
			}
			newV := value.Number{Value: curN.Value + deltaN.Value}
			if !t.Set(int(n.Value), newV) {
				return nil, fmt.Errorf("incassign: index %v out of bounds", n.Value)
			}
			return newV, nil
		case *value.Record:
			cur, _ := t.Get(iv)
			curN, ok := cur.(value.Number)
			if !ok {
				return nil, fmt.Errorf("incassign: target is not a number")
			}
			newV := value.Number{Value: curN.Value + deltaN.Value}
			t.Set(iv, newV)
			return newV, nil
		default:
			return nil, fmt.Errorf("incassign: %s is not indexable", tv.Kind())
		}
	}

	name, ok := patNode.Data.(ast.NameData)
	if !ok {
		return nil, fmt.Errorf("incassign: left-hand side must be a name or index")
	}
	cur, ok := ctx.Env.Lookup(name.Value)
	if !ok {
		return nil, fmt.Errorf("incassign: undeclared name %q", name.Value)
	}
	curN, ok := cur.(value.Number)
	if !ok {
		return nil, fmt.Errorf("incassign: %q is not a number", name.Value)
	}
	newV := value.Number{Value: curN.Value + deltaN.Value}
	if !ctx.Env.Assign(name.Value, newV) {
		return nil, fmt.Errorf("incassign: %q is not an assignable binding", name.Value)
	}
	return newV, nil
}

// evalCrement implements PreInc/PreDec/PostInc/PostDec: delta is +1/-1,
// pre selects whether the updated or prior value is the expression's
// result.
func (e *Evaluator) evalCrement(node ast.Node, ctx Context, delta float64, pre bool) (value.Value, error) {
	target := node.Children[0]
	name, ok := target.Data.(ast.NameData)
	if !ok {
		return nil, fmt.Errorf("increment/decrement: target must be a name")
	}
	cur, ok := ctx.Env.Lookup(name.Value)
	if !ok {
		return nil, fmt.Errorf("increment/decrement: undeclared name %q", name.Value)
	}
	curN, ok := cur.(value.Number)
	if !ok {
		return nil, fmt.Errorf("increment/decrement: %q is not a number", name.Value)
	}
	newV := value.Number{Value: curN.Value + delta}
	if !ctx.Env.Assign(name.Value, newV) {
		return nil, fmt.Errorf("increment/decrement: %q is not an assignable binding", name.Value)
	}
	if pre {
		return newV, nil
	}
	return curN, nil
}

package eval

import (
	"fmt"
	"math"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/value"
)

func (e *Evaluator) evalBinaryOp(node ast.Node, ctx Context) (value.Value, error) {
	op := node.Data.(ast.OpData).Op

	lv, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(lv) {
		return lv, nil
	}

	// Short-circuiting boolean operators evaluate their right operand
	// conditionally, so they branch before evaluating rv.
	switch op {
	case "&&":
		if !value.IsTruthy(lv) {
			return lv, nil
		}
		return e.evalRHS(node.Children[1], ctx)
	case "||":
		if value.IsTruthy(lv) {
			return lv, nil
		}
		return e.evalRHS(node.Children[1], ctx)
	}

	rv, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(rv) {
		return rv, nil
	}

	switch op {
	case "==":
		return value.FromBool(value.Equal(lv, rv)), nil
	case "!=":
		return value.FromBool(!value.Equal(lv, rv)), nil
	case "===":
		eq, err := value.DeepEqual(lv, rv)
		if err != nil {
			return nil, fmt.Errorf("===: %w", err)
		}
		return value.FromBool(eq), nil
	case "!==":
		eq, err := value.DeepEqual(lv, rv)
		if err != nil {
			return nil, fmt.Errorf("!==: %w", err)
		}
		return value.FromBool(!eq), nil
	}

	if op == "+" {
		if ls, ok := lv.(value.String); ok {
			rs, ok := rv.(value.String)
			if !ok {
				return nil, fmt.Errorf("+: cannot add %s to a String", rv.Kind())
			}
			return value.String{Value: ls.Value + rs.Value}, nil
		}
	}

	ln, ok := lv.(value.Number)
	if !ok {
		return nil, fmt.Errorf("%s: expected a Number on the left, got %s", op, lv.Kind())
	}
	rn, ok := rv.(value.Number)
	if !ok {
		return nil, fmt.Errorf("%s: expected a Number on the right, got %s", op, rv.Kind())
	}

	switch op {
	case "+":
		return value.Number{Value: ln.Value + rn.Value}, nil
	case "-":
		return value.Number{Value: ln.Value - rn.Value}, nil
	case "*":
		return value.Number{Value: ln.Value * rn.Value}, nil
	case "/":
		if rn.Value == 0 {
			return nil, fmt.Errorf("/: division by zero")
		}
		return value.Number{Value: ln.Value / rn.Value}, nil
	case "%":
		if rn.Value == 0 {
			return nil, fmt.Errorf("%%: division by zero")
		}
		return value.Number{Value: math.Mod(ln.Value, rn.Value)}, nil
	case "^":
		return value.Number{Value: math.Pow(ln.Value, rn.Value)}, nil
	case "<":
		return value.FromBool(ln.Value < rn.Value), nil
	case "<=":
		return value.FromBool(ln.Value <= rn.Value), nil
	case ">":
		return value.FromBool(ln.Value > rn.Value), nil
	case ">=":
		return value.FromBool(ln.Value >= rn.Value), nil
	default:
		return nil, fmt.Errorf("evaluate: unsupported binary operator %q", op)
	}
}

func (e *Evaluator) evalRHS(node ast.Node, ctx Context) (value.Value, error) {
	v, err := e.Eval(node, ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Evaluator) evalUnaryOp(node ast.Node, ctx Context) (value.Value, error) {
	op := node.Data.(ast.OpData).Op
	v, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return v, nil
	}
	switch op {
	case "-":
		n, ok := v.(value.Number)
		if !ok {
			return nil, fmt.Errorf("-: expected a Number, got %s", v.Kind())
		}
		return value.Number{Value: -n.Value}, nil
	case "!":
		return value.FromBool(!value.IsTruthy(v)), nil
	default:
		return nil, fmt.Errorf("evaluate: unsupported unary operator %q", op)
	}
}

package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/value"
)

// evalTuple builds either a *value.List (no Label children) or a
// *value.Record (any Label child present), expanding Spread children
// in either direction. KindSquareBrackets shares this evaluation: the
// two forms differ only in how the parser decided to group them.
func (e *Evaluator) evalTuple(node ast.Node, ctx Context) (value.Value, error) {
	if hasLabelChild(node.Children) {
		return e.evalRecordLiteral(node, ctx)
	}
	return e.evalListLiteral(node, ctx)
}

func hasLabelChild(children []ast.Node) bool {
	for _, c := range children {
		if c.Kind == ast.KindLabel {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalListLiteral(node ast.Node, ctx Context) (value.Value, error) {
	var items []value.Value
	for _, c := range node.Children {
		if c.Kind == ast.KindSpread {
			sv, err := e.Eval(c.Children[0], ctx)
			if err != nil {
				return nil, err
			}
			if isControlSignal(sv) {
				return sv, nil
			}
			list, ok := sv.(*value.List)
			if !ok {
				return nil, fmt.Errorf("spread: expected a list, got %s", sv.Kind())
			}
			items = append(items, list.Snapshot()...)
			continue
		}
		v, err := e.Eval(c, ctx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(v) {
			return v, nil
		}
		items = append(items, v)
	}
	return value.NewList(items...), nil
}

func (e *Evaluator) evalRecordLiteral(node ast.Node, ctx Context) (value.Value, error) {
	rec := value.NewRecord()
	var positional []value.Value
	for _, c := range node.Children {
		switch c.Kind {
		case ast.KindSpread:
			sv, err := e.Eval(c.Children[0], ctx)
			if err != nil {
				return nil, err
			}
			if isControlSignal(sv) {
				return sv, nil
			}
			src, ok := sv.(*value.Record)
			if !ok {
				return nil, fmt.Errorf("spread: expected a record, got %s", sv.Kind())
			}
			for _, entry := range src.Entries() {
				rec.Set(entry.Key, entry.Val)
			}
		case ast.KindLabel:
			kv, vv, err := e.evalLabelEntry(c, ctx)
			if err != nil {
				return nil, err
			}
			if kv == nil {
				return vv, nil // control signal propagated up
			}
			rec.Set(kv, vv)
		default:
			// A bare positional value alongside at least one Label sibling is
			// a tuple coerced into a record; spec.md leaves the collision
			// between positional indices and label keys undefined but notes
			// the source merges positional items under integer keys after
			// label keys, so a bare value is collected here and merged in at
			// the next integer key once the loop is done, rather than erroring.
			vv, err := e.Eval(c, ctx)
			if err != nil {
				return nil, err
			}
			if isControlSignal(vv) {
				return vv, nil
			}
			positional = append(positional, vv)
		}
	}
	for i, vv := range positional {
		rec.Set(value.Number{Value: float64(i)}, vv)
	}
	return rec, nil
}

// evalLabelEntry evaluates a Label(key, value) pair. It returns a nil
// key with the control-signal Value in vv when evaluation short-
// circuits, so callers can propagate it uniformly.
func (e *Evaluator) evalLabelEntry(node ast.Node, ctx Context) (value.Value, value.Value, error) {
	kv, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, nil, err
	}
	if isControlSignal(kv) {
		return nil, kv, nil
	}
	vv, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, nil, err
	}
	if isControlSignal(vv) {
		return nil, vv, nil
	}
	return kv, vv, nil
}

// evalStandaloneLabel handles a bare Label(key, value) node reached
// outside of a Tuple/SquareBrackets parent, evaluating to a single-
// entry record (spec.md §3: a Label expression by itself is shorthand
// for a one-field record).
func (e *Evaluator) evalStandaloneLabel(node ast.Node, ctx Context) (value.Value, error) {
	kv, vv, err := e.evalLabelEntry(node, ctx)
	if err != nil {
		return nil, err
	}
	if kv == nil {
		return vv, nil
	}
	rec := value.NewRecord()
	rec.Set(kv, vv)
	return rec, nil
}

// evalIndex handles a read of target[index]: numeric index into a
// List, or a String/Symbol (or any) key into a Record.
func (e *Evaluator) evalIndex(node ast.Node, ctx Context) (value.Value, error) {
	tv, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(tv) {
		return tv, nil
	}
	iv, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(iv) {
		return iv, nil
	}
	switch t := tv.(type) {
	case *value.List:
		n, ok := iv.(value.Number)
		if !ok {
			return nil, fmt.Errorf("index: list index must be a number, got %s", iv.Kind())
		}
		return t.Get(int(n.Value)), nil
	case *value.Record:
		v, ok := t.Get(iv)
		if !ok {
			return value.Nil, nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("index: %s is not indexable", tv.Kind())
	}
}

// Package pattern implements the pattern engine (spec.md §4.C): matching
// a pattern AST against a runtime value and producing a set of candidate
// bindings without ever touching the caller's environment directly.
// Committing bindings is a separate, explicit step (Delta.Commit),
// mirroring the spec's "pattern matching never mutates the caller's
// environment; only at bind/assign/inc_assign are the deltas committed."
package pattern

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/value"
)

// Flags carry the strict/mutable/export modifiers through pattern
// recursion.
type Flags struct {
	Mutable bool
	Export  bool
	Strict  bool
}

// Delta is the set of bindings a successful match would introduce.
type Delta struct {
	Imm     map[string]value.Value
	Mut     map[string]value.Value
	Exports map[string]value.Value
}

func newDelta() Delta {
	return Delta{Imm: map[string]value.Value{}, Mut: map[string]value.Value{}, Exports: map[string]value.Value{}}
}

func (d *Delta) merge(o Delta) {
	for k, v := range o.Imm {
		d.Imm[k] = v
	}
	for k, v := range o.Mut {
		d.Mut[k] = v
	}
	for k, v := range o.Exports {
		d.Exports[k] = v
	}
}

// All merges Imm and Mut into a single name -> value map, used by
// Assign where the pattern only decomposes a value into names to
// update, irrespective of which map a Name leaf happened to land in.
func (d Delta) All() map[string]value.Value {
	out := make(map[string]value.Value, len(d.Imm)+len(d.Mut))
	for k, v := range d.Imm {
		out[k] = v
	}
	for k, v := range d.Mut {
		out[k] = v
	}
	return out
}

// Commit declares every binding in d into env. It fails on the first
// name already declared in the current frame.
func (d Delta) Commit(env *value.Environment) error {
	for k, v := range d.Imm {
		if err := env.DeclareImmutable(k, v); err != nil {
			return err
		}
	}
	for k, v := range d.Mut {
		if err := env.DeclareMutable(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Evaluator is the minimal seam the pattern engine needs back into the
// evaluator, for Pin expressions and Assign-pattern defaults. Defined
// here (rather than imported from package eval) to avoid a package
// cycle: eval depends on pattern, not the other way around.
type Evaluator interface {
	Eval(node ast.Node, env *value.Environment) (value.Value, error)
}

// Test matches pattern against v under flags, threading env/ev through
// for Pin and default-expression evaluation. It never mutates env.
func Test(pattern ast.Node, v value.Value, env *value.Environment, ev Evaluator, flags Flags) (bool, Delta, error) {
	switch pattern.Kind {
	case ast.KindPlaceholder, ast.KindImplicitPlaceholder:
		return true, newDelta(), nil

	case ast.KindNumber:
		d := pattern.Data.(ast.NumberData)
		n, ok := v.(value.Number)
		return ok && n.Value == d.Value, newDelta(), nil

	case ast.KindString:
		d := pattern.Data.(ast.StringData)
		s, ok := v.(value.String)
		return ok && s.Value == d.Value, newDelta(), nil

	case ast.KindAtom:
		d := pattern.Data.(ast.AtomData)
		s, ok := v.(*value.Symbol)
		return ok && s == value.Atom(d.Name), newDelta(), nil

	case ast.KindName:
		name := pattern.Data.(ast.NameData).Value
		if flags.Strict {
			if _, isNull := v.(value.Null); isNull {
				return false, newDelta(), nil
			}
		}
		delta := newDelta()
		if flags.Mutable {
			delta.Mut[name] = v
		} else {
			delta.Imm[name] = v
		}
		if flags.Export {
			delta.Exports[name] = v
		}
		return true, delta, nil

	case ast.KindPin:
		result, err := ev.Eval(pattern.Children[0], env)
		if err != nil {
			return false, newDelta(), err
		}
		eq, err := value.DeepEqual(result, v)
		return eq, newDelta(), err

	case ast.KindBind:
		m1, d1, err := Test(pattern.Children[0], v, env, ev, flags)
		if err != nil || !m1 {
			return false, newDelta(), err
		}
		m2, d2, err := Test(pattern.Children[1], v, env, ev, flags)
		if err != nil || !m2 {
			return false, newDelta(), err
		}
		d1.merge(d2)
		return true, d1, nil

	case ast.KindPatAssign:
		matched, delta, err := Test(pattern.Children[0], v, env, ev, flags)
		if err != nil {
			return false, delta, err
		}
		if matched {
			return true, delta, nil
		}
		defVal, err := ev.Eval(pattern.Children[1], env)
		if err != nil {
			return false, newDelta(), err
		}
		return Test(pattern.Children[0], defVal, env, ev, flags)

	case ast.KindLike:
		f := flags
		f.Strict = false
		return Test(pattern.Children[0], v, env, ev, f)

	case ast.KindStrict:
		f := flags
		f.Strict = true
		return Test(pattern.Children[0], v, env, ev, f)

	case ast.KindMutable:
		f := flags
		f.Mutable = true
		return Test(pattern.Children[0], v, env, ev, f)

	case ast.KindExport:
		f := flags
		f.Export = true
		return Test(pattern.Children[0], v, env, ev, f)

	case ast.KindTuple, ast.KindSquareBrackets:
		if hasLabelChild(pattern.Children) {
			rec, ok := v.(*value.Record)
			if !ok {
				return false, newDelta(), nil
			}
			return testRecord(pattern.Children, rec, env, ev, flags)
		}
		list, ok := v.(*value.List)
		if !ok {
			return false, newDelta(), nil
		}
		return testTuple(pattern.Children, list.Snapshot(), env, ev, flags)

	default:
		return false, newDelta(), fmt.Errorf("pattern: unsupported pattern node kind %v", pattern.Kind)
	}
}

func hasLabelChild(children []ast.Node) bool {
	for _, c := range children {
		if c.Kind == ast.KindLabel {
			return true
		}
	}
	return false
}

func testTuple(children []ast.Node, items []value.Value, env *value.Environment, ev Evaluator, flags Flags) (bool, Delta, error) {
	delta := newDelta()
	spreadIdx := -1
	for i, c := range children {
		if c.Kind == ast.KindSpread {
			spreadIdx = i
			break
		}
	}
	if spreadIdx == -1 {
		if flags.Strict && len(items) != len(children) {
			return false, delta, nil
		}
		for i, c := range children {
			var val value.Value = value.Nil
			if i < len(items) {
				val = items[i]
			} else if flags.Strict {
				return false, delta, nil
			}
			m, d, err := Test(c, val, env, ev, flags)
			if err != nil || !m {
				return false, delta, err
			}
			delta.merge(d)
		}
		return true, delta, nil
	}

	before := children[:spreadIdx]
	spreadPat := children[spreadIdx].Children[0]
	after := children[spreadIdx+1:]
	if len(items) < len(before)+len(after) {
		return false, delta, nil
	}
	for i, c := range before {
		m, d, err := Test(c, items[i], env, ev, flags)
		if err != nil || !m {
			return false, delta, err
		}
		delta.merge(d)
	}
	mid := items[len(before) : len(items)-len(after)]
	m, d, err := Test(spreadPat, value.NewList(mid...), env, ev, flags)
	if err != nil || !m {
		return false, delta, err
	}
	delta.merge(d)
	for i, c := range after {
		m, d, err := Test(c, items[len(items)-len(after)+i], env, ev, flags)
		if err != nil || !m {
			return false, delta, err
		}
		delta.merge(d)
	}
	return true, delta, nil
}

func testRecord(children []ast.Node, rec *value.Record, env *value.Environment, ev Evaluator, flags Flags) (bool, Delta, error) {
	delta := newDelta()
	var consumedKeys []value.Value
	var spreadPattern *ast.Node

	consume := func(namePat ast.Node, key value.Value, defExpr *ast.Node) (bool, error) {
		val, ok := rec.Get(key)
		consumedKeys = append(consumedKeys, key)
		if !ok {
			if defExpr != nil {
				v, err := ev.Eval(*defExpr, env)
				if err != nil {
					return false, err
				}
				val = v
			} else {
				val = value.Nil
			}
		}
		m, d, err := Test(namePat, val, env, ev, flags)
		if err != nil || !m {
			return false, err
		}
		delta.merge(d)
		return true, nil
	}

	for _, child := range children {
		switch child.Kind {
		case ast.KindSpread:
			if spreadPattern != nil {
				return false, delta, fmt.Errorf("pattern: multiple spreads in record pattern")
			}
			sp := child.Children[0]
			spreadPattern = &sp
		case ast.KindLabel:
			keyExpr, sub := child.Children[0], child.Children[1]
			keyVal, err := ev.Eval(keyExpr, env)
			if err != nil {
				return false, delta, err
			}
			ok, err := consume(sub, keyVal, nil)
			if err != nil || !ok {
				return false, delta, err
			}
		case ast.KindPatAssign:
			namePat, defExpr := child.Children[0], child.Children[1]
			name, ok := namePat.Data.(ast.NameData)
			if !ok {
				return false, delta, fmt.Errorf("pattern: default applies only to a Name in record position")
			}
			ok2, err := consume(namePat, value.String{Value: name.Value}, &defExpr)
			if err != nil || !ok2 {
				return false, delta, err
			}
		case ast.KindName:
			name := child.Data.(ast.NameData).Value
			ok, err := consume(child, value.String{Value: name}, nil)
			if err != nil || !ok {
				return false, delta, err
			}
		default:
			return false, delta, fmt.Errorf("pattern: unsupported record pattern child kind %v", child.Kind)
		}
	}

	if spreadPattern != nil {
		rest := value.NewRecord()
		for _, e := range rec.Entries() {
			skip := false
			for _, ck := range consumedKeys {
				if value.Equal(ck, e.Key) {
					skip = true
					break
				}
			}
			if !skip {
				rest.Set(e.Key, e.Val)
			}
		}
		m, d, err := Test(*spreadPattern, rest, env, ev, flags)
		if err != nil || !m {
			return false, delta, err
		}
		delta.merge(d)
	}

	return true, delta, nil
}

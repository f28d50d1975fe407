package eval

import "github.com/uni-lang/uni/internal/value"

// returnSignal/breakSignal/continueSignal are the unwinding sentinels
// emitted by the Return/Break/Continue AST nodes, flowing up through
// Sequence/Block/loop evaluation via the ordinary Value return channel
// exactly like the teacher's ReturnValue/BreakSignal/ContinueSignal in
// object_control.go, until the construct that's supposed to catch them
// (a loop for Break/Continue, a function call for Return) does so.
type returnSignal struct{ Value value.Value }

func (r *returnSignal) Kind() value.Kind { return value.KindSignal }
func (r *returnSignal) Inspect() string  { return "<return " + r.Value.Inspect() + ">" }

type breakSignal struct {
	Label string
	Value value.Value
}

func (b *breakSignal) Kind() value.Kind { return value.KindSignal }
func (b *breakSignal) Inspect() string  { return "<break " + b.Label + ">" }

type continueSignal struct {
	Label string
	Value value.Value
}

func (c *continueSignal) Kind() value.Kind { return value.KindSignal }
func (c *continueSignal) Inspect() string  { return "<continue " + c.Label + ">" }

// catchBreak reports whether v is a Break signal this construct (with
// label own, "" for an unlabeled Block/loop) should absorb.
func catchBreak(v value.Value, own string) (*breakSignal, bool) {
	b, ok := v.(*breakSignal)
	if !ok {
		return nil, false
	}
	if b.Label == "" || b.Label == own {
		return b, true
	}
	return nil, false
}

func catchContinue(v value.Value, own string) (*continueSignal, bool) {
	c, ok := v.(*continueSignal)
	if !ok {
		return nil, false
	}
	if c.Label == "" || c.Label == own {
		return c, true
	}
	return nil, false
}

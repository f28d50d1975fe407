// Package effect implements the handler chain and dispatch machinery of
// spec.md §4.F: inject (push), mask, without, and lookup along the chain
// when the evaluator reaches a computation that must be handled.
//
// Continuations: every built-in effect site the core itself drives
// (CreateTaskEffect from fork/async/parallel, ThrowEffect from throw,
// Return/Break/Continue from their prelude functions, IOEffect from
// std/io.open) is escape-style — its handler is invoked at most once and,
// if it resumes at all, resumes synchronously with nothing left to run
// afterward. So a one-shot Continuation here is an identity callback
// guarded by a consumed flag, not a reified call/cc; spec.md §9 itself
// scopes "multi-shot" (and by extension generalized resumable effects)
// out of the core.
package effect

import (
	"fmt"
	"sync"

	"github.com/uni-lang/uni/internal/value"
)

type frameKind int

const (
	pushFrame frameKind = iota
	maskFrame
	withoutFrame
)

// Chain is a persistent (immutable, structurally shared) stack of
// handler frames. The nil *Chain is the empty chain.
type Chain struct {
	parent   *Chain
	kind     frameKind
	handlers map[string]*value.Handler
	names    []string
}

// Inject pushes a new frame of handlers on top of c.
func (c *Chain) Inject(handlers map[string]*value.Handler) *Chain {
	return &Chain{parent: c, kind: pushFrame, handlers: handlers}
}

// Mask renders the topmost frame's handlers for names invisible within
// the derived chain, exposing whatever the next outer frame provides.
func (c *Chain) Mask(names []string) *Chain {
	return &Chain{parent: c, kind: maskFrame, names: names}
}

// Without renders names completely unreachable within the derived
// chain, even from frames further out.
func (c *Chain) Without(names []string) *Chain {
	return &Chain{parent: c, kind: withoutFrame, names: names}
}

// Lookup walks the chain inner-to-outer for tag, honoring any mask/
// without frames encountered along the way.
func (c *Chain) Lookup(tag string) (*value.Handler, bool) {
	maskSkip := map[string]int{}
	blocked := map[string]bool{}
	for f := c; f != nil; f = f.parent {
		switch f.kind {
		case maskFrame:
			for _, n := range f.names {
				maskSkip[n]++
			}
		case withoutFrame:
			for _, n := range f.names {
				blocked[n] = true
			}
		case pushFrame:
			if blocked[tag] {
				continue
			}
			if h, ok := f.handlers[tag]; ok {
				if maskSkip[tag] > 0 {
					maskSkip[tag]--
					continue
				}
				return h, true
			}
		}
	}
	return nil, false
}

// Visible returns the record of currently-visible handlers, backing the
// `injected` identifier (spec.md §4.F/§4.G).
// Visible builds the record the `injected` identifier evaluates to
// (spec.md §4.F/§4.G): one entry per visible tag, holding back the raw
// value that was injected rather than the Handler wrapper around it,
// so `{a, b} := injected` after `inject a: 1, b: 2 { ... }` destructures
// straight to the numbers 1 and 2.
func (c *Chain) Visible() *value.Record {
	seen := map[string]bool{}
	rec := value.NewRecord()
	for f := c; f != nil; f = f.parent {
		if f.kind != pushFrame {
			continue
		}
		for tag := range f.handlers {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			if h, ok := c.Lookup(tag); ok {
				rec.Set(value.String{Value: tag}, h.Fn)
			}
		}
	}
	return rec
}

// Continuation is a one-shot callable: invoking it a second time is a
// runtime error, matching spec.md §4.F/§7.
type Continuation struct {
	mu       sync.Mutex
	consumed bool
}

// NewContinuation returns a fresh, unconsumed continuation as a callable
// value.Value usable directly as an argument to a Handler function.
func NewContinuation() (*Continuation, *value.NativeFunc) {
	k := &Continuation{}
	return k, &value.NativeFunc{
		Name: "continuation",
		Fn: func(args []value.Value) (value.Value, error) {
			v := value.Value(value.Nil)
			if len(args) > 0 {
				v = args[0]
			}
			return k.Invoke(v)
		},
	}
}

// Invoke resumes the continuation with v, or fails if it was already
// invoked once.
func (k *Continuation) Invoke(v value.Value) (value.Value, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.consumed {
		return nil, fmt.Errorf("effect: continuation invoked twice")
	}
	k.consumed = true
	return v, nil
}

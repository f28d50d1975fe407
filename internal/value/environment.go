package value

import (
	"fmt"
	"sync"
)

// Frame is a single lexical scope: an immutable map and a mutable map,
// both keyed by name. Spec.md §3 invariant: a name is never present in
// both maps of the same frame.
type Frame struct {
	mu     sync.RWMutex
	imm    map[string]Value
	mut    map[string]Value
	parent *Frame
}

func newFrame(parent *Frame) *Frame {
	return &Frame{imm: make(map[string]Value), mut: make(map[string]Value), parent: parent}
}

// Environment is a handle to a chain of Frames. Functions capture an
// Environment when they close over their defining scope.
type Environment struct {
	cur *Frame
}

// NewEnvironment returns a fresh, single-frame root environment.
func NewEnvironment() *Environment {
	return &Environment{cur: newFrame(nil)}
}

// Lookup walks inner-to-outer, returning the immutable binding if present,
// else the mutable one, else recursing to the parent frame.
func (e *Environment) Lookup(name string) (Value, bool) {
	for f := e.cur; f != nil; f = f.parent {
		f.mu.RLock()
		if v, ok := f.imm[name]; ok {
			f.mu.RUnlock()
			return v, true
		}
		if v, ok := f.mut[name]; ok {
			f.mu.RUnlock()
			return v, true
		}
		f.mu.RUnlock()
	}
	return nil, false
}

// DeclareImmutable inserts name into the current frame's immutable map.
// It fails if name is already present in the current frame in either map.
func (e *Environment) DeclareImmutable(name string, v Value) error {
	f := e.cur
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.imm[name]; ok {
		return fmt.Errorf("name already declared in this scope: %s", name)
	}
	if _, ok := f.mut[name]; ok {
		return fmt.Errorf("name already declared in this scope: %s", name)
	}
	f.imm[name] = v
	return nil
}

// DeclareMutable inserts name into the current frame's mutable map, with
// the same duplicate-declaration check as DeclareImmutable.
func (e *Environment) DeclareMutable(name string, v Value) error {
	f := e.cur
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.imm[name]; ok {
		return fmt.Errorf("name already declared in this scope: %s", name)
	}
	if _, ok := f.mut[name]; ok {
		return fmt.Errorf("name already declared in this scope: %s", name)
	}
	f.mut[name] = v
	return nil
}

// Assign walks outward to the nearest frame with a mutable binding of
// name and updates it. It fails (returns false) if the binding found is
// immutable, or if name is unknown anywhere in the chain.
func (e *Environment) Assign(name string, v Value) bool {
	for f := e.cur; f != nil; f = f.parent {
		f.mu.Lock()
		if _, ok := f.imm[name]; ok {
			f.mu.Unlock()
			return false
		}
		if _, ok := f.mut[name]; ok {
			f.mut[name] = v
			f.mu.Unlock()
			return true
		}
		f.mu.Unlock()
	}
	return false
}

// Delete removes a mutable binding found by walking outward, used by
// Assign(pattern, expr) when the assigned value is Null (spec.md §4.G:
// "Null value on a name deletes the binding"). Returns false if no
// mutable binding of name exists.
func (e *Environment) Delete(name string) bool {
	for f := e.cur; f != nil; f = f.parent {
		f.mu.Lock()
		if _, ok := f.mut[name]; ok {
			delete(f.mut, name)
			f.mu.Unlock()
			return true
		}
		if _, ok := f.imm[name]; ok {
			f.mu.Unlock()
			return false
		}
		f.mu.Unlock()
	}
	return false
}

// Names collects every name visible from the current frame outward,
// for building a did-you-mean suggestion on an undeclared-name error.
func (e *Environment) Names() []string {
	var out []string
	for f := e.cur; f != nil; f = f.parent {
		f.mu.RLock()
		for k := range f.imm {
			out = append(out, k)
		}
		for k := range f.mut {
			out = append(out, k)
		}
		f.mu.RUnlock()
	}
	return out
}

// Fork returns a child environment chained to this one, used for blocks,
// function bodies, and loop iterations.
func (e *Environment) Fork() *Environment {
	return &Environment{cur: newFrame(e.cur)}
}

// ShallowCopy returns a new Environment handle sharing the same current
// frame; mutations through either handle are visible to both.
func (e *Environment) ShallowCopy() *Environment {
	return &Environment{cur: e.cur}
}

// Mark captures the current frame as a restore point for Replace.
func (e *Environment) Mark() *Frame { return e.cur }

// Replace rebuilds the frame chain from e's current frame down to (but
// not including) upto, re-parenting the rebuilt chain onto prefix's
// current frame instead of upto: the bindings introduced between upto
// and e.cur are copied into the new chain, but the frames below upto are
// swapped for prefix's.
func (e *Environment) Replace(upto *Frame, prefix *Environment) *Environment {
	if e.cur == upto {
		return prefix
	}
	var chain []*Frame
	for f := e.cur; f != nil && f != upto; f = f.parent {
		chain = append(chain, f)
	}
	newParent := prefix.cur
	for i := len(chain) - 1; i >= 0; i-- {
		old := chain[i]
		old.mu.RLock()
		nf := &Frame{imm: cloneMap(old.imm), mut: cloneMap(old.mut), parent: newParent}
		old.mu.RUnlock()
		newParent = nf
	}
	return &Environment{cur: newParent}
}

func cloneMap(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

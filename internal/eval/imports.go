package eval

import (
	"fmt"
	"path/filepath"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/value"
)

// RunScript implements module.Runner for a .uni file: root evaluates to
// a single value under a fresh top-level context. It holds the
// scheduler's run token for the duration, the same way a forked task's
// goroutine does (internal/sched), since a suspension point reached
// from the top level (a channel receive, an await, wait) must have
// something to release.
func (e *Evaluator) RunScript(path string, root ast.Node) (value.Value, error) {
	e.Sched.Acquire()
	defer e.Sched.Release()
	ctx := e.NewContext(filepath.Dir(path))
	v, err := e.evalHandled(root, ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return nil, errUnexpectedSignal("script", path)
	}
	return v, nil
}

// RunModule implements module.Runner for a .unim file: root's top
// level is evaluated with Exports wired so `export`-flagged
// declarations populate the returned record; a trailing bare
// expression (if the file's Sequence ends with one) becomes the
// default export.
func (e *Evaluator) RunModule(path string, root ast.Node) (*value.Record, value.Value, error) {
	e.Sched.Acquire()
	defer e.Sched.Release()
	ctx := e.NewContext(filepath.Dir(path))
	ctx.Exports = value.NewRecord()
	v, err := e.evalHandled(root, ctx)
	if err != nil {
		return nil, nil, err
	}
	if isControlSignal(v) {
		return nil, nil, errUnexpectedSignal("module", path)
	}
	last := root
	if root.Kind == ast.KindSequence && len(root.Children) > 0 {
		last = root.Children[len(root.Children)-1]
	}
	if last.Kind == ast.KindDeclare {
		return ctx.Exports, nil, nil
	}
	return ctx.Exports, v, nil
}

func errUnexpectedSignal(kind, path string) error {
	return fmt.Errorf("%s: break/continue/return escaped the top level of %s", kind, path)
}

// evalImport resolves and loads the target module through the
// registry, binding its shaped value at the Import node's position.
func (e *Evaluator) evalImport(node ast.Node, ctx Context) (value.Value, error) {
	importPath := node.Data.(ast.ImportData).Path
	resolved, err := e.Registry.Resolve(importPath, ctx.FileDir)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", importPath, err)
	}
	m, err := e.Registry.Load(resolved)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", importPath, err)
	}
	return m.AsValue(), nil
}

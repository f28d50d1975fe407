package eval

import (
	"errors"
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/task"
	"github.com/uni-lang/uni/internal/value"
)

// currentParent returns the task a Fork call made during ctx should be
// registered under: the active structured-concurrency scope's
// synthetic owner if one is open, else the enclosing task directly.
func currentParent(ctx Context) *task.Task {
	if ctx.Scope != nil {
		return ctx.Scope.Parent()
	}
	return ctx.Task
}

func cancelChanFor(ctx Context) <-chan struct{} {
	if ctx.Task != nil {
		return ctx.Task.CancelChan()
	}
	return neverCancelCh
}

var neverCancelCh = make(chan struct{})

func (e *Evaluator) evalFork(node ast.Node, ctx Context) (value.Value, error) {
	body := node.Children[0]
	parent := currentParent(ctx)
	t := task.Fork(e.Sched, parent, func(self *task.Task) (value.Value, error) {
		childCtx := ctx
		childCtx.Task = self
		childCtx.Env = ctx.Env.Fork()
		v, err := e.evalHandled(body, childCtx)
		if err != nil {
			return nil, err
		}
		if isControlSignal(v) {
			return nil, fmt.Errorf("fork: break/continue/return escaped the forked body")
		}
		return v, nil
	})
	return t, nil
}

func (e *Evaluator) evalParallel(node ast.Node, ctx Context) (value.Value, error) {
	tasks := make([]*task.Task, len(node.Children))
	for i, child := range node.Children {
		parent := currentParent(ctx)
		body := child
		tasks[i] = task.Fork(e.Sched, parent, func(self *task.Task) (value.Value, error) {
			childCtx := ctx
			childCtx.Task = self
			childCtx.Env = ctx.Env.Fork()
			v, err := e.evalHandled(body, childCtx)
			if err != nil {
				return nil, err
			}
			if isControlSignal(v) {
				return nil, fmt.Errorf("parallel: break/continue/return escaped a branch body")
			}
			return v, nil
		})
	}
	results := make([]value.Value, len(tasks))
	for i, t := range tasks {
		v, err := t.Await(e.Sched, cancelChanFor(ctx))
		if err != nil {
			return nil, fmt.Errorf("parallel: branch %d: %w", i, err)
		}
		results[i] = v
	}
	return value.NewList(results...), nil
}

func (e *Evaluator) evalAwait(node ast.Node, ctx Context) (value.Value, error) {
	tv, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(tv) {
		return tv, nil
	}
	t, ok := tv.(*task.Task)
	if !ok {
		return nil, fmt.Errorf("await: expected a task, got %s", tv.Kind())
	}
	if ctx.Task != nil {
		ctx.Task.RecordStep(e.Cfg.TaskStepBudget, e.Log)
	}
	v, err := t.Await(e.Sched, cancelChanFor(ctx))
	if err != nil {
		// A Cancelled task is not a failure of the awaiting expression: it
		// simply never produced a value, so await settles on null rather
		// than propagating an error (spec.md §8 property 5: cancellation
		// completes await without a Done(v), it does not abort the
		// awaiter). The awaiting task's own cancellation still comes back
		// as task.ErrCancelled from this same call and does propagate.
		if errors.Is(err, task.ErrCancelled) && t.Status() == task.Cancelled {
			return value.Nil, nil
		}
		return nil, fmt.Errorf("await: %w", err)
	}
	return v, nil
}

package eval

import (
	"fmt"
	"time"

	"github.com/uni-lang/uni/internal/channel"
	"github.com/uni-lang/uni/internal/task"
	"github.com/uni-lang/uni/internal/value"
)

// contextualBuiltins holds the handful of prelude names that need
// access to the current Evaluator/Context rather than operating
// purely on their arguments: structured-concurrency scopes and the
// cooperative sleep point. Everything else in the prelude is a plain
// *value.NativeFunc (spec.md §4.E/§4.F): the split exists because
// value.NativeFunc.Fn only ever sees its arguments, and native Go code
// implementing sync/wait/etc. needs the scheduler and the call's
// handler chain, which a context-free signature cannot carry.
var contextualBuiltins = map[string]func(e *Evaluator, arg value.Value, ctx Context) (value.Value, error){
	"try":              builtinTry,
	"sync":             builtinSync,
	"cancel_on_error":  builtinCancelOnError,
	"cancel_on_return": builtinCancelOnReturn,
	"wait":             builtinWait,
	"on_cancel":        builtinOnCancel,
}

// installPrelude declares the core's built-in callables into e's
// global environment, ahead of evaluating any user code (mirrors the
// teacher's registerBuiltins pass run once at interpreter startup).
func installPrelude(e *Evaluator) {
	decl := func(name string, v value.Value) {
		_ = e.globalEnv.DeclareImmutable(name, v)
	}

	decl("symbol", &value.NativeFunc{Name: "symbol", Fn: func(args []value.Value) (value.Value, error) {
		name, err := argString("symbol", args, 0, "")
		if err != nil {
			return nil, err
		}
		return value.NewSymbol(name), nil
	}})

	decl("atom", &value.NativeFunc{Name: "atom", Fn: func(args []value.Value) (value.Value, error) {
		name, err := argString("atom", args, 0, "")
		if err != nil {
			return nil, err
		}
		return value.Atom(name), nil
	}})

	decl("channel", &value.NativeFunc{Name: "channel", Fn: func(args []value.Value) (value.Value, error) {
		name, _ := argString("channel", args, 0, "")
		ch := channel.New(name)
		ch.SetQueueSoftLimit(e.Cfg.ChannelQueueSoftLimit, e.Log)
		return ch, nil
	}})

	decl("close", &value.NativeFunc{Name: "close", Fn: func(args []value.Value) (value.Value, error) {
		ch, err := argChannel("close", args, 0)
		if err != nil {
			return nil, err
		}
		ch.Close()
		return value.Nil, nil
	}})

	decl("cancel", &value.NativeFunc{Name: "cancel", Fn: func(args []value.Value) (value.Value, error) {
		t, err := argTask("cancel", args, 0)
		if err != nil {
			return nil, err
		}
		t.Cancel()
		return value.Nil, nil
	}})

	decl("throw", &value.NativeFunc{Name: "throw", Fn: func(args []value.Value) (value.Value, error) {
		payload := value.Value(value.Nil)
		if len(args) > 0 {
			payload = args[0]
		}
		return &value.Effect{Tag: value.Atom("throw"), Payload: payload}, nil
	}})

	for name := range contextualBuiltins {
		n := name
		decl(n, &value.NativeFunc{Name: n, Fn: func(args []value.Value) (value.Value, error) {
			return nil, fmt.Errorf("%s: called without an evaluation context", n)
		}})
	}
}

func argString(op string, args []value.Value, i int, fallback string) (string, error) {
	if i >= len(args) {
		return fallback, nil
	}
	s, ok := args[i].(value.String)
	if !ok {
		return "", fmt.Errorf("%s: expected a String argument, got %s", op, args[i].Kind())
	}
	return s.Value, nil
}

func argChannel(op string, args []value.Value, i int) (*channel.Chan, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%s: expected a Channel argument", op)
	}
	ch, ok := args[i].(*channel.Chan)
	if !ok {
		return nil, fmt.Errorf("%s: expected a Channel, got %s", op, args[i].Kind())
	}
	return ch, nil
}

func argTask(op string, args []value.Value, i int) (*task.Task, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%s: expected a Task argument", op)
	}
	t, ok := args[i].(*task.Task)
	if !ok {
		return nil, fmt.Errorf("%s: expected a Task, got %s", op, args[i].Kind())
	}
	return t, nil
}

// callThunk invokes a zero-argument closure (one whose parameter
// pattern is a placeholder) with Null as its argument, under ctx.
func (e *Evaluator) callThunk(thunk value.Value, ctx Context) (value.Value, error) {
	return e.Call(thunk, value.Nil, ctx)
}

// builtinTry installs a handler for the "throw" tag that converts an
// uncaught throw into a (:error, payload) list (spec.md §4.F, §7);
// the thunk's own successful result is returned unchanged.
func builtinTry(e *Evaluator, arg value.Value, ctx Context) (value.Value, error) {
	innerCtx := ctx
	innerCtx.Handlers = ctx.Handlers.Inject(map[string]*value.Handler{
		"throw": {Fn: curriedNative("try:throw", func(_ value.Value, payload value.Value) (value.Value, error) {
			return value.NewList(value.AtomError, payload), nil
		})},
	})
	return e.callThunk(arg, innerCtx)
}

// curriedNative adapts a (continuation, payload) handler body into
// the two sequential single-argument calls e.Call makes when invoking
// a Handler (spec.md §4.F: a handler "receives (continuation,
// payload)").
func curriedNative(name string, f func(k, payload value.Value) (value.Value, error)) *value.NativeFunc {
	return &value.NativeFunc{Name: name, Fn: func(args []value.Value) (value.Value, error) {
		k := value.Value(value.Nil)
		if len(args) > 0 {
			k = args[0]
		}
		return &value.NativeFunc{Name: name + ":payload", Fn: func(args2 []value.Value) (value.Value, error) {
			payload := value.Value(value.Nil)
			if len(args2) > 0 {
				payload = args2[0]
			}
			return f(k, payload)
		}}, nil
	}}
}

func builtinSync(e *Evaluator, arg value.Value, ctx Context) (value.Value, error) {
	scope := task.NewScope(currentParent(ctx))
	scopedCtx := ctx
	scopedCtx.Scope = scope
	result, err := e.callThunk(arg, scopedCtx)
	awaitErr := awaitAll(e, scope, ctx)
	if err != nil {
		return nil, err
	}
	if awaitErr != nil {
		return nil, awaitErr
	}
	return result, nil
}

func builtinCancelOnError(e *Evaluator, arg value.Value, ctx Context) (value.Value, error) {
	scope := task.NewScope(currentParent(ctx))
	scopedCtx := ctx
	scopedCtx.Scope = scope
	result, err := e.callThunk(arg, scopedCtx)
	if err != nil {
		scope.CancelChildren()
		return nil, err
	}
	if awaitErr := awaitAll(e, scope, ctx); awaitErr != nil {
		return nil, awaitErr
	}
	return result, nil
}

func builtinCancelOnReturn(e *Evaluator, arg value.Value, ctx Context) (value.Value, error) {
	scope := task.NewScope(currentParent(ctx))
	scopedCtx := ctx
	scopedCtx.Scope = scope
	result, err := e.callThunk(arg, scopedCtx)
	scope.CancelChildren()
	if err != nil {
		return nil, err
	}
	return result, nil
}

func awaitAll(e *Evaluator, scope *task.Scope, ctx Context) error {
	var firstErr error
	for _, t := range scope.Children() {
		if _, err := t.Await(e.Sched, cancelChanFor(ctx)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// builtinWait suspends the calling task for ms milliseconds, the
// core's one timer-based suspension point (spec.md §4.E/§5).
func builtinWait(e *Evaluator, arg value.Value, ctx Context) (value.Value, error) {
	n, ok := arg.(value.Number)
	if !ok {
		return nil, fmt.Errorf("wait: expected a Number of milliseconds, got %s", arg.Kind())
	}
	d := time.Duration(n.Value) * time.Millisecond
	if ctx.Task != nil {
		ctx.Task.RecordStep(e.Cfg.TaskStepBudget, e.Log)
	}
	var cancelled bool
	e.Sched.Suspend(func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-cancelChanFor(ctx):
			cancelled = true
		}
	})
	if cancelled {
		return nil, task.ErrCancelled
	}
	return value.Nil, nil
}

// builtinOnCancel registers a callback invoked when the given task is
// cancelled; the callback runs as an ordinary call under ctx's
// handler chain (spec.md §4.E's on_cancel(task, cb)).
func builtinOnCancel(e *Evaluator, arg value.Value, ctx Context) (value.Value, error) {
	t, ok := arg.(*task.Task)
	if !ok {
		return nil, fmt.Errorf("on_cancel: expected a Task, got %s", arg.Kind())
	}
	return &value.NativeFunc{Name: "on_cancel:callback", Fn: func(args []value.Value) (value.Value, error) {
		cb := value.Value(value.Nil)
		if len(args) > 0 {
			cb = args[0]
		}
		t.OnCancel(func() {
			_, _ = e.Call(cb, value.Nil, ctx)
		})
		return value.Nil, nil
	}}, nil
}

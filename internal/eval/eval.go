// Package eval is the evaluator (spec.md §4.G): it walks an already
// parsed AST and produces runtime values, wiring together the value,
// pattern, channel, task, effect and module packages. Per-node dispatch
// follows the teacher's evaluator.go split across files by concern
// (statements_*.go, expressions_*.go) rather than one giant switch.
package eval

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/config"
	"github.com/uni-lang/uni/internal/diag"
	"github.com/uni-lang/uni/internal/effect"
	"github.com/uni-lang/uni/internal/hostio"
	"github.com/uni-lang/uni/internal/module"
	"github.com/uni-lang/uni/internal/sched"
	"github.com/uni-lang/uni/internal/task"
	"github.com/uni-lang/uni/internal/value"
)

// Context is the per-call evaluation context threaded through Eval.
// Env is lexically scoped (forked at Block/Function/loop-iteration
// boundaries); Handlers is dynamically scoped (inherited across
// Application calls from the caller, per spec.md §4.G's "invokes with
// the call site's handler chain"); Task/Scope track the structured-
// concurrency position a Fork call should register under.
type Context struct {
	Env      *value.Environment
	Handlers *effect.Chain
	Task     *task.Task
	Scope    *task.Scope
	FileDir  string
	Depth    int

	// Exports collects `export`-flagged top-level bindings when
	// non-nil, which is only the case while RunModule is evaluating a
	// .unim file's top level (spec.md §4.H).
	Exports *value.Record
}

// Evaluator owns the resources shared across a whole run: the
// cooperative scheduler, the module registry, and the resolved project
// configuration. Out, Log and Diag follow the teacher's convention of
// routing all diagnostics through a single writer on the top-level
// struct rather than letting individual packages pick their own
// destination.
type Evaluator struct {
	Sched     *sched.Scheduler
	Registry  *module.Registry
	Cfg       config.Config
	Root      *task.Task
	globalEnv *value.Environment

	Out  io.Writer
	Log  *slog.Logger
	Diag diag.Sink

	// BaseHandlers seeds every top-level Context's handler chain
	// (NewContext), letting a host install handlers (e.g. the :io
	// effect's gRPC-backed implementation, see InjectHostIO) that are
	// visible to every script/module this Evaluator runs without user
	// code having to `inject` them explicitly.
	BaseHandlers *effect.Chain
}

// New wires a fresh Evaluator rooted at cfg. source supplies the
// parser seam the module registry needs for on-disk .uni/.unim files
// (nil is fine for embedders that only ever evaluate in-memory ASTs).
// Diagnostics default to a stderr sink and a slog logger over os.Stderr;
// override Out/Log/Diag before running user code to redirect them.
func New(cfg config.Config, source module.Source) *Evaluator {
	s := sched.New()
	e := &Evaluator{
		Sched: s,
		Cfg:   cfg,
		Out:   os.Stderr,
		Log:   diag.NewLogger(os.Stderr),
		Diag:  diag.NewStderrSink(),
	}
	e.Root = task.NewRoot(s)
	e.Registry = module.NewRegistry(cfg, e, source)
	e.Registry.SetLogger(e.Log)
	e.Sched.SetLogger(e.Log)
	e.globalEnv = value.NewEnvironment()
	installPrelude(e)
	return e
}

// NewContext returns a root Context for evaluating a script at fileDir
// with a fresh top-level environment, seeded with e.BaseHandlers.
func (e *Evaluator) NewContext(fileDir string) Context {
	return Context{
		Env:      e.globalEnv.Fork(),
		Handlers: e.BaseHandlers,
		Task:     e.Root,
		FileDir:  fileDir,
	}
}

// InjectHostIO installs client's gRPC-backed :io effect handler
// (package hostio) into BaseHandlers, so every script/module this
// Evaluator subsequently runs can satisfy `std/io.open` without
// wrapping its own top level in `inject`. Grounded on the teacher's
// convention of wiring optional host integrations onto the evaluator
// once at startup rather than per-call (internal/evaluator's
// RegisterBuiltin pass).
func (e *Evaluator) InjectHostIO(client *hostio.Client) {
	e.BaseHandlers = e.BaseHandlers.Inject(map[string]*value.Handler{
		"io": hostio.Handler(client),
	})
}

// Eval is the evaluate(node, ctx) -> Value contract of spec.md §4.G,
// with Go's explicit error channel standing in for the diagnostic
// escape hatch a hosted language would otherwise need a sentinel value
// for.
func (e *Evaluator) Eval(node ast.Node, ctx Context) (value.Value, error) {
	if ctx.Depth > e.Cfg.MaxEvalDepth {
		return nil, e.systemError(ctx, node.Pos, "evaluate: maximum recursion depth exceeded at %d:%d", node.Pos.Start, node.Pos.End)
	}
	ctx.Depth++
	return e.evalCore(node, ctx)
}

// systemError builds a SystemError (spec.md §4.G/§6: "printed via the
// host diagnostic channel, then re-raised") and emits it through e.Diag
// before returning it as the ordinary Go error every other failure path
// propagates.
func (e *Evaluator) systemError(ctx Context, pos ast.Pos, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if e.Diag != nil {
		e.Diag.Emit(diag.Diagnostic{
			Severity: diag.Error,
			Message:  err.Error(),
			FileID:   ctx.FileDir,
			Span:     diag.Span{Start: pos.Start, End: pos.End},
		})
	}
	return err
}

func (e *Evaluator) evalCore(node ast.Node, ctx Context) (value.Value, error) {
	switch node.Kind {
	case ast.KindNumber:
		return value.Number{Value: node.Data.(ast.NumberData).Value}, nil
	case ast.KindString:
		return value.String{Value: node.Data.(ast.StringData).Value}, nil
	case ast.KindAtom:
		return value.Atom(node.Data.(ast.AtomData).Name), nil
	case ast.KindPlaceholder:
		return value.Nil, nil
	case ast.KindImplicitPlaceholder:
		return nil, fmt.Errorf("evaluate: implicit placeholder used as a value at %d:%d", node.Pos.Start, node.Pos.End)
	case ast.KindName:
		return e.evalName(node, ctx)

	case ast.KindSequence:
		return e.evalSequence(node, ctx)
	case ast.KindBlock:
		return e.evalBlock(node, ctx)
	case ast.KindLabeledBlock:
		return e.evalLabeledBlock(node, ctx)

	case ast.KindIf, ast.KindIfElse:
		return e.evalIf(node, ctx)
	case ast.KindWhile:
		return e.evalWhile(node, ctx)
	case ast.KindFor:
		return e.evalFor(node, ctx)
	case ast.KindLoop:
		return e.evalLoop(node, ctx)
	case ast.KindReturn:
		return e.evalReturn(node, ctx)
	case ast.KindBreak:
		return e.evalBreak(node, ctx)
	case ast.KindContinue:
		return e.evalContinue(node, ctx)

	case ast.KindDeclare:
		return e.evalDeclare(node, ctx)
	case ast.KindAssign:
		return e.evalAssign(node, ctx)
	case ast.KindIncAssign:
		return e.evalIncAssign(node, ctx)
	case ast.KindPreInc:
		return e.evalCrement(node, ctx, 1, true)
	case ast.KindPreDec:
		return e.evalCrement(node, ctx, -1, true)
	case ast.KindPostInc:
		return e.evalCrement(node, ctx, 1, false)
	case ast.KindPostDec:
		return e.evalCrement(node, ctx, -1, false)

	case ast.KindTuple, ast.KindSquareBrackets:
		return e.evalTuple(node, ctx)
	case ast.KindLabel:
		return e.evalStandaloneLabel(node, ctx)
	case ast.KindIndex:
		return e.evalIndex(node, ctx)
	case ast.KindSpread:
		return nil, fmt.Errorf("evaluate: spread used outside a tuple/record position at %d:%d", node.Pos.Start, node.Pos.End)

	case ast.KindFunction:
		return e.evalFunction(node, ctx)
	case ast.KindApplication:
		return e.evalApplication(node, ctx)

	case ast.KindSend:
		return e.evalSend(node, ctx)
	case ast.KindReceive:
		return e.evalReceive(node, ctx)
	case ast.KindSendStatus:
		return e.evalSendStatus(node, ctx)
	case ast.KindReceiveStatus:
		return e.evalReceiveStatus(node, ctx)

	case ast.KindFork:
		return e.evalFork(node, ctx)
	case ast.KindParallel:
		return e.evalParallel(node, ctx)
	case ast.KindAwait:
		return e.evalAwait(node, ctx)

	case ast.KindInject:
		return e.evalInject(node, ctx)
	case ast.KindMask:
		return e.evalMask(node, ctx)
	case ast.KindWithout:
		return e.evalWithout(node, ctx)
	case ast.KindHandle:
		return e.evalHandle(node, ctx)

	case ast.KindIs:
		return e.evalIsExpr(node, ctx)
	case ast.KindMatch:
		return e.evalMatch(node, ctx)

	case ast.KindImport:
		return e.evalImport(node, ctx)

	case ast.KindBinaryOp:
		return e.evalBinaryOp(node, ctx)
	case ast.KindUnaryOp:
		return e.evalUnaryOp(node, ctx)

	case ast.KindError:
		return nil, fmt.Errorf("evaluate: %s at %d:%d", node.Data.(ast.ErrorData).Message, node.Pos.Start, node.Pos.End)

	default:
		return nil, fmt.Errorf("evaluate: unsupported node kind %v", node.Kind)
	}
}

// isControlSignal reports whether v must short-circuit ordinary
// sequencing rather than be treated as an ordinary result: the
// return/break/continue sentinels, and an Effect value threading its
// way up to one of the four boundaries (function entry, inject/mask/
// without body, fork body) that actually dispatch it (spec.md §4.F,
// §9's "unify return/break/continue/throw as effects... handled
// uniformly at their semantic boundaries").
func isControlSignal(v value.Value) bool {
	if v == nil {
		return false
	}
	k := v.Kind()
	return k == value.KindSignal || k == value.KindEffect
}

// Package module implements the module registry of spec.md §4.H: path
// resolution, at-most-one-concurrent-load memoization, and the three
// module shapes a resolved path can evaluate to.
package module

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/config"
	"github.com/uni-lang/uni/internal/utils"
	"github.com/uni-lang/uni/internal/value"
)

// Kind distinguishes the three shapes a loaded Module can take.
type Kind int

const (
	// ScriptKind holds the single value a .uni file evaluates to.
	ScriptKind Kind = iota
	// ModuleKind holds a .unim file's exported bindings as a record,
	// plus an optional default export.
	ModuleKind
	// BufferKind holds the raw bytes of any file with an unrecognized
	// extension.
	BufferKind
)

// Module is the result of loading a resolved path.
type Module struct {
	Kind    Kind
	Script  value.Value
	Exports *value.Record
	Default value.Value
	Buffer  []byte
}

// AsValue returns the value an `import` expression binds for m:
// a script's value directly, a module's exports record (with Default
// folded in under the well-known default key if present), or a
// buffer's bytes as an opaque string.
// defaultExportKey is the well-known record key a module's trailing
// bare-expression value (its Default) is folded in under, alongside its
// named `export`-flagged bindings.
var defaultExportKey = value.String{Value: "default"}

func (m *Module) AsValue() value.Value {
	switch m.Kind {
	case ScriptKind:
		return m.Script
	case ModuleKind:
		if m.Default != nil {
			m.Exports.Set(defaultExportKey, m.Default)
		}
		return m.Exports
	case BufferKind:
		return value.String{Value: string(m.Buffer)}
	default:
		return value.Nil
	}
}

// Runner is the seam the registry uses to actually evaluate an already
// parsed AST, implemented by package eval. Defined here (rather than
// importing eval) to keep module a leaf dependency of eval, not the
// other way around.
//
// Turning on-disk source text into an ast.Node is the parser's job,
// which is out of scope for this module (spec.md §1): Source supplies
// the seam a real deployment wires to that external collaborator.
type Runner interface {
	RunScript(path string, root ast.Node) (value.Value, error)
	RunModule(path string, root ast.Node) (exports *value.Record, def value.Value, err error)
}

// Source turns the text of a .uni/.unim file into its parsed AST.
type Source interface {
	Parse(path string, src []byte) (ast.Node, error)
}

// Registry is the at-most-one-concurrent-load module cache.
type Registry struct {
	cfg      config.Config
	runner   Runner
	source   Source
	disk     *DiskCache
	group    singleflight.Group
	mu       sync.Mutex
	cache    map[string]*Module
	builtins map[string]*Module
	log      *slog.Logger
}

// SetLogger attaches a logger that Load emits cache-hit/miss debug
// lines through; nil disables logging (the zero value's behavior).
func (r *Registry) SetLogger(l *slog.Logger) { r.log = l }

// NewRegistry returns a registry rooted at cfg, evaluating source
// through runner once source has parsed it.
func NewRegistry(cfg config.Config, runner Runner, source Source) *Registry {
	return &Registry{
		cfg:      cfg,
		runner:   runner,
		source:   source,
		cache:    map[string]*Module{},
		builtins: map[string]*Module{},
	}
}

// WithDiskCache attaches an optional persistent cache for buffer
// modules, returning r for chaining.
func (r *Registry) WithDiskCache(d *DiskCache) *Registry {
	r.disk = d
	return r
}

// RegisterBuiltin installs a built-in module (e.g. "std/io") that
// short-circuits path resolution entirely.
func (r *Registry) RegisterBuiltin(name string, m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[name] = m
}

// Resolve applies the path resolution rules of spec.md §4.H: a
// "."-prefixed name relative to fromDir, a "/"-prefixed name rooted at
// the project root, anything else looked up under the dependencies
// directory; a directory result is completed with the index file.
func (r *Registry) Resolve(name, fromDir string) (string, error) {
	if _, ok := r.builtins[name]; ok {
		return name, nil
	}
	resolved := utils.ResolveImportPath(r.cfg, fromDir, name)
	resolved = completeWithIndex(resolved)
	return resolved, nil
}

func completeWithIndex(path string) string {
	if config.HasSourceExt(path) {
		return path
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, config.IndexFile)
	}
	return path
}

// Load returns the Module for path, evaluating it at most once even
// under concurrent callers racing on the same path.
func (r *Registry) Load(path string) (*Module, error) {
	r.mu.Lock()
	if m, ok := r.builtins[path]; ok {
		r.mu.Unlock()
		r.debugf("load %s: builtin hit", path)
		return m, nil
	}
	if m, ok := r.cache[path]; ok {
		r.mu.Unlock()
		r.debugf("load %s: cache hit", path)
		return m, nil
	}
	r.mu.Unlock()

	v, err, shared := r.group.Do(path, func() (any, error) {
		r.mu.Lock()
		if m, ok := r.cache[path]; ok {
			r.mu.Unlock()
			return m, nil
		}
		r.mu.Unlock()

		r.debugf("load %s: evaluating", path)
		m, err := r.loadUncached(path)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[path] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.debugf("load %s: joined an in-flight load", path)
	}
	return v.(*Module), nil
}

func (r *Registry) debugf(msg string, args ...any) {
	if r.log != nil {
		r.log.Debug(fmt.Sprintf(msg, args...))
	}
}

func (r *Registry) loadUncached(path string) (*Module, error) {
	switch filepath.Ext(path) {
	case config.ScriptExt:
		root, err := r.parseSource(path)
		if err != nil {
			return nil, err
		}
		v, err := r.runner.RunScript(path, root)
		if err != nil {
			return nil, fmt.Errorf("module: evaluating script %s: %w", path, err)
		}
		return &Module{Kind: ScriptKind, Script: v}, nil

	case config.ModuleExt:
		root, err := r.parseSource(path)
		if err != nil {
			return nil, err
		}
		exports, def, err := r.runner.RunModule(path, root)
		if err != nil {
			return nil, fmt.Errorf("module: evaluating module %s: %w", path, err)
		}
		return &Module{Kind: ModuleKind, Exports: exports, Default: def}, nil

	default:
		if r.disk != nil {
			if buf, ok := r.disk.Get(path); ok {
				return &Module{Kind: BufferKind, Buffer: buf}, nil
			}
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("module: reading buffer %s: %w", path, err)
		}
		if r.disk != nil {
			r.disk.Put(path, buf)
		}
		return &Module{Kind: BufferKind, Buffer: buf}, nil
	}
}

func (r *Registry) parseSource(path string) (ast.Node, error) {
	if r.source == nil {
		return ast.Node{}, fmt.Errorf("module: no source parser configured for %s", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return ast.Node{}, fmt.Errorf("module: reading %s: %w", path, err)
	}
	root, err := r.source.Parse(path, src)
	if err != nil {
		return ast.Node{}, fmt.Errorf("module: parsing %s: %w", path, err)
	}
	return root, nil
}

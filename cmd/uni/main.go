// Command uni is the thin CLI front-end over package eval: it resolves
// project configuration, wires a module registry and diagnostic sink,
// and hands control to the evaluator. It makes no language-design
// decisions of its own (those live in internal/eval and friends).
//
// Turning source text into an ast.Node is out of scope for this core
// (spec.md §1): this binary only evaluates scripts already reduced to
// an AST by a module.Source collaborator, so `run` here is a thin
// wrapper that exits with a clear error until one is wired in, the
// same way the teacher's main.go falls through a chain of subcommand
// handlers before reporting usage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/config"
	"github.com/uni-lang/uni/internal/diag"
	"github.com/uni-lang/uni/internal/eval"
	"github.com/uni-lang/uni/internal/hostio"
	"github.com/uni-lang/uni/internal/module"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("UNI_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCommand(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: uni run [-module-cache path] [-io-host addr] <path>")
}

// runCommand loads the project configuration rooted at the current
// working directory, wires an Evaluator whose module.Source is noSource
// (no parser), and asks the registry to load path. With noSource this
// always fails on an on-disk .uni/.unim file; buffer files (any other
// extension) load as their raw contents. A real deployment supplies its
// own module.Source the same way it supplies its own parser.
//
// -module-cache and -io-host are optional host integrations: the former
// persists buffer-module contents across runs via a sqlite-backed
// disk cache (internal/module.DiskCache), the latter dials a host
// FileService and installs it as the :io effect handler (package
// hostio) so scripts can satisfy `std/io.open` without injecting their
// own handler.
func runCommand(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	moduleCache := fs.String("module-cache", "", "path to a sqlite file caching buffer-module contents across runs")
	ioHost := fs.String("io-host", "", "address of a host FileService satisfying the :io effect (package hostio)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		usage()
		return 1
	}
	path := fs.Arg(0)

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sink := diag.NewStderrSink()
	e := eval.New(cfg, noSource{})
	e.Diag = sink

	if *moduleCache != "" {
		cachePath := *moduleCache
		if !filepath.IsAbs(cachePath) {
			cachePath = filepath.Join(root, cachePath)
		}
		disk, err := module.OpenDiskCache(cachePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer disk.Close()
		e.Registry.WithDiskCache(disk)
	}

	if *ioHost != "" {
		client, err := hostio.Dial(context.Background(), *ioHost)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer client.Close()
		e.InjectHostIO(client)
	}

	m, err := e.Registry.Load(path)
	if err != nil {
		sink.Emit(diag.Diagnostic{Severity: diag.Error, Message: err.Error(), FileID: path})
		return 1
	}
	fmt.Fprintln(os.Stdout, m.AsValue().Inspect())
	return 0
}

// noSource is the default module.Source: this CLI is evaluator
// plumbing only, so it reports the absence of a parser collaborator
// rather than attempting to read source text itself.
type noSource struct{}

var _ module.Source = noSource{}

func (noSource) Parse(path string, src []byte) (ast.Node, error) {
	return ast.Node{}, fmt.Errorf("uni: no parser configured; %s was not pre-parsed", path)
}

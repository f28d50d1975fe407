// Package config holds the project-level configuration for a Uni
// workspace: source file extensions, resource budgets, and the
// dependency-directory convention consumed by the module loader
// (spec.md §4.H). A project's uni.yaml, if present, overrides the
// defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source file extensions recognized by the loader (spec.md §6): ".uni"
// evaluates as a script, ".unim" as a module; anything else becomes an
// opaque buffer module.
const (
	ScriptExt = ".uni"
	ModuleExt = ".unim"

	// IndexFile is appended when a resolved import path names a
	// directory rather than a file.
	IndexFile = "index.uni"

	// DependenciesDir is the directory sibling to the project root that
	// houses non-relative, non-rooted imports.
	DependenciesDir = "dependencies"
)

// Config is the resolved project configuration, loaded from uni.yaml or
// defaulted.
type Config struct {
	// Root is the project root directory; relative ("./foo") and rooted
	// ("/foo") import paths are clamped and resolved against it.
	Root string `yaml:"-"`

	// MaxEvalDepth bounds recursive Evaluate nesting, guarding against a
	// runaway script exhausting the host's goroutine stack.
	MaxEvalDepth int `yaml:"max_eval_depth"`

	// TaskStepBudget is a soft ceiling on the number of suspension
	// points a single task may cross before the scheduler starts
	// surfacing a diagnostic warning about runaway concurrency.
	TaskStepBudget int `yaml:"task_step_budget"`

	// ChannelQueueSoftLimit is a soft cap on a channel's buffered
	// message queue; exceeding it does not block a sender (channels are
	// unbounded per spec.md §4.D) but is reported as a diagnostic.
	ChannelQueueSoftLimit int `yaml:"channel_queue_soft_limit"`

	// Dependencies overrides the sibling directory name used to resolve
	// bare (non-relative, non-rooted) import names.
	Dependencies string `yaml:"dependencies"`
}

// Default returns the built-in configuration for a project rooted at
// root, used when no uni.yaml is present.
func Default(root string) Config {
	return Config{
		Root:                  root,
		MaxEvalDepth:          4096,
		TaskStepBudget:        100000,
		ChannelQueueSoftLimit: 10000,
		Dependencies:          DependenciesDir,
	}
}

// Load reads uni.yaml from root, if present, layering it over Default.
func Load(root string) (Config, error) {
	cfg := Default(root)
	data, err := os.ReadFile(filepath.Join(root, "uni.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.Root = root
	if cfg.Dependencies == "" {
		cfg.Dependencies = DependenciesDir
	}
	return cfg, nil
}

// DependenciesPath returns the resolved dependencies directory for cfg,
// sibling to the project root.
func (c Config) DependenciesPath() string {
	return filepath.Join(filepath.Dir(c.Root), c.Dependencies)
}

// HasSourceExt reports whether path carries one of the recognized
// source extensions.
func HasSourceExt(path string) bool {
	ext := filepath.Ext(path)
	return ext == ScriptExt || ext == ModuleExt
}

// TrimSourceExt strips a recognized source extension from name, if
// present.
func TrimSourceExt(name string) string {
	if strings.HasSuffix(name, ScriptExt) {
		return strings.TrimSuffix(name, ScriptExt)
	}
	if strings.HasSuffix(name, ModuleExt) {
		return strings.TrimSuffix(name, ModuleExt)
	}
	return name
}

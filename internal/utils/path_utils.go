package utils

import (
	"path/filepath"
	"strings"

	"github.com/uni-lang/uni/internal/config"
)

// ResolveImportPath applies the three import-path rules of spec.md
// §4.H against cfg: a "."-prefixed name resolves relative to
// importerDir, clamped so it cannot escape cfg.Root; a "/"-prefixed
// name is rooted at cfg.Root; any other name is looked up under cfg's
// dependencies directory. The result is an absolute path that still
// needs IndexFile appended if it names a directory.
func ResolveImportPath(cfg config.Config, importerDir, importPath string) string {
	switch {
	case strings.HasPrefix(importPath, "."):
		joined := filepath.Join(importerDir, importPath)
		return clampToRoot(cfg.Root, joined)
	case strings.HasPrefix(importPath, "/"):
		return clampToRoot(cfg.Root, filepath.Join(cfg.Root, importPath))
	default:
		return filepath.Join(cfg.DependenciesPath(), importPath)
	}
}

// clampToRoot prevents a relative import from walking ("..") outside
// root; anything that would escape is pinned back to root itself.
func clampToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return root
	}
	return path
}

// ExtractModuleName derives a module name from a file path.
// It takes the base filename and removes any recognized source extension.
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}

// GetModuleDir returns the directory context for a module path.
// If the path points to a source file, returns the file's directory.
// If the path points to a directory (no extension), returns the path itself.
func GetModuleDir(path string) string {
	if config.HasSourceExt(path) {
		return filepath.Dir(path)
	}
	return path
}

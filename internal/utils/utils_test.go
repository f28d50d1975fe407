package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uni-lang/uni/internal/config"
)

func TestResolveImportPathRelative(t *testing.T) {
	cfg := config.Default("/proj")
	got := ResolveImportPath(cfg, "/proj/pkg", "./sibling.uni")
	assert.Equal(t, "/proj/pkg/sibling.uni", got)
}

func TestResolveImportPathRelativeClampedToRoot(t *testing.T) {
	cfg := config.Default("/proj")
	got := ResolveImportPath(cfg, "/proj", "../../etc/passwd")
	assert.Equal(t, "/proj", got)
}

func TestResolveImportPathRooted(t *testing.T) {
	cfg := config.Default("/proj")
	got := ResolveImportPath(cfg, "/proj/anywhere", "/pkg/mod.uni")
	assert.Equal(t, "/proj/pkg/mod.uni", got)
}

func TestResolveImportPathBareUsesDependencies(t *testing.T) {
	cfg := config.Default("/proj")
	got := ResolveImportPath(cfg, "/proj", "std/io")
	assert.Equal(t, "/dependencies/std/io", got)
}

func TestExtractModuleName(t *testing.T) {
	assert.Equal(t, "mod", ExtractModuleName("/a/b/mod.unim"))
	assert.Equal(t, "script", ExtractModuleName("/a/script.uni"))
}

func TestGetModuleDir(t *testing.T) {
	assert.Equal(t, "/a/b", GetModuleDir("/a/b/mod.unim"))
	assert.Equal(t, "/a/b", GetModuleDir("/a/b"))
}

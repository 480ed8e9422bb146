package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDepGraphJS(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "util.js"), []byte("export function f() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("import { f } from './util'\nf()\n"), 0644))

	g, err := BuildDepGraph(root)
	require.NoError(t, err)

	app, ok := g.Nodes["app.js"]
	require.True(t, ok)
	assert.Equal(t, "js", app.Language)
	assert.Equal(t, []string{"util.js"}, app.Imports)

	// Second pass populated the inverse edge.
	assert.Equal(t, []string{"app.js"}, g.ImpactOf("util.js"))
	assert.Empty(t, g.ImpactOf("app.js"))
}

func TestBuildDepGraphPython(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "helpers.py"), []byte("def go(): pass\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("import helpers\nhelpers.go()\n"), 0644))

	g, err := BuildDepGraph(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, g.ImpactOf("helpers.py"))
}

func TestBuildDepGraphSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("let x = 1\n"), 0644))

	g, err := BuildDepGraph(root)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
	assert.Contains(t, g.Nodes, "a.js")
}

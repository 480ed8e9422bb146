package workspace

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathConfinement(t *testing.T) {
	root := t.TempDir()

	resolved, err := ValidatePath(root, "src/main.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "main.go"), resolved)
	assert.True(t, strings.HasPrefix(resolved, root))

	// Absolute path inside the workspace is fine.
	resolved, err = ValidatePath(root, filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.txt"), resolved)
}

func TestValidatePathRejections(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"nul byte", "a\x00b"},
		{"reserved chars", "what?.txt"},
		{"dotdot", "../outside"},
		{"dotdot nested", "a/../../b"},
		{"absolute outside", "/tmp/other/file"},
		{"etc", "/etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePath(root, tt.path)
			require.Error(t, err)
			var perr *PathError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestValidatePathSensitiveDirs(t *testing.T) {
	// A workspace rooted at / would otherwise admit everything; sensitive
	// directories must still be refused.
	_, err := ValidatePath("/", "etc/passwd")
	require.Error(t, err)

	_, err = ValidatePath("/", "proc/self/environ")
	require.Error(t, err)
}

func TestRel(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "a/b.txt", Rel(root, filepath.Join(root, "a", "b.txt")))
}

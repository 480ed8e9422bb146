package tools

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/nextlevelbuilder/coda/internal/runner"
	"github.com/nextlevelbuilder/coda/internal/workspace"
)

// Builtins holds the shared state the built-in tool handlers close over.
type Builtins struct {
	root    string
	backups *workspace.BackupStore
	runner  *runner.Runner
	ignorer *ignore.GitIgnore // from the workspace .gitignore, nil if absent
}

// RegisterBuiltins registers the built-in tool set into the registry.
func RegisterBuiltins(reg *Registry, root string, backups *workspace.BackupStore, run *runner.Runner) error {
	b := &Builtins{root: root, backups: backups, runner: run}
	if ign, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		b.ignorer = ign
	}

	for _, t := range []*Tool{
		b.readFileTool(),
		b.writeFileTool(),
		b.listDirectoryTool(),
		b.runCommandTool(),
		b.applyDiffTool(),
		b.grepSearchTool(),
		b.fileSearchTool(),
	} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// resolve validates a tool-supplied path against the workspace root.
func (b *Builtins) resolve(path string) (string, *Result) {
	resolved, err := workspace.ValidatePath(b.root, path)
	if err != nil {
		return "", ErrorResult(KindPathInvalid, "%v", err)
	}
	return resolved, nil
}

// skipWalkEntry reports whether a walked path should be ignored: the fixed
// exclusion set plus anything the workspace .gitignore rules out.
func (b *Builtins) skipWalkEntry(rel string, d fs.DirEntry) bool {
	if d.IsDir() && defaultSkipDirs[d.Name()] {
		return true
	}
	if b.ignorer != nil && b.ignorer.MatchesPath(rel) {
		return true
	}
	return false
}

// defaultSkipDirs is the fixed directory exclusion set for search walks.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"out":          true,
	".cache":       true,
	".next":        true,
	"vendor":       true,
}

// binaryExtensions are skipped by content search.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".ico": true, ".pdf": true, ".zip": true, ".gz": true, ".tar": true,
	".bz2": true, ".xz": true, ".7z": true, ".exe": true, ".dll": true,
	".so": true, ".dylib": true, ".bin": true, ".o": true, ".a": true,
	".class": true, ".jar": true, ".pyc": true, ".wasm": true,
	".mp3": true, ".mp4": true, ".ogg": true, ".wav": true, ".webm": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".db": true, ".sqlite": true,
}

// ioErrorResult maps an OS error to a distinct IO failure sub-kind.
func ioErrorResult(op string, err error) *Result {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrorResult(KindIO, "%s: not found: %v", op, err)
	case errors.Is(err, fs.ErrPermission):
		return ErrorResult(KindIO, "%s: permission denied: %v", op, err)
	case errors.Is(err, syscall.ENOSPC):
		return ErrorResult(KindIO, "%s: out of space: %v", op, err)
	case errors.Is(err, syscall.EROFS):
		return ErrorResult(KindIO, "%s: read-only filesystem: %v", op, err)
	default:
		return ErrorResult(KindIO, "%s: %v", op, err)
	}
}

// lineCount counts lines the way file metadata reports them:
// newline count plus one, zero for empty content.
func lineCount(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// relOrSame returns the workspace-relative path when possible.
func (b *Builtins) relOrSame(abs string) string {
	return workspace.Rel(b.root, abs)
}

// statExists reports whether a path exists.
func statExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Package workspace confines all file operations to a single root directory
// and owns the pre-modification backup store and the import graph.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// PathError is returned for any rejected path.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Reason
}

// reservedChars are rejected in raw input paths. NUL is never legal;
// the rest are Windows-reserved metacharacters that no portable workspace
// path should carry.
const reservedChars = "\x00<>\"|?*"

// sensitiveDirs are directory prefixes no validated path may fall under,
// even when the workspace root itself is configured inside one of them.
var sensitiveDirs = []string{
	"/etc", "/sys", "/proc", "/boot", "/dev",
	"/root/.ssh", "/root/.gnupg", "/root/.aws", "/root/.config/gcloud",
	"C:\\Windows", "C:\\Program Files", "C:\\Program Files (x86)", "C:\\ProgramData",
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	for _, sub := range []string{".ssh", ".gnupg", ".aws", ".kube", filepath.Join(".config", "gcloud"), filepath.Join("AppData", "Roaming")} {
		sensitiveDirs = append(sensitiveDirs, filepath.Join(home, sub))
	}
}

// ValidatePath normalizes and resolves a user-provided path and confirms it
// stays inside root. Relative paths resolve against root. Returns the
// normalized absolute path.
func ValidatePath(root, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &PathError{Path: path, Reason: "empty path"}
	}
	if strings.ContainsAny(path, reservedChars) {
		return "", &PathError{Path: path, Reason: "contains reserved characters"}
	}
	if containsDotDot(path) {
		return "", &PathError{Path: path, Reason: "parent-directory traversal is not allowed"}
	}

	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", &PathError{Path: path, Reason: "cannot resolve workspace root"}
	}

	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(absRoot, path))
	}

	if !isPathInside(resolved, absRoot) {
		slog.Warn("security.path_escape", "path", path, "resolved", resolved, "workspace", absRoot)
		return "", &PathError{Path: path, Reason: "outside the workspace"}
	}

	for _, dir := range sensitiveDirs {
		if isPathInside(normalizeCase(resolved), normalizeCase(dir)) {
			slog.Warn("security.sensitive_dir", "path", path, "dir", dir)
			return "", &PathError{Path: path, Reason: "inside a protected system directory"}
		}
	}

	return resolved, nil
}

// containsDotDot reports whether any path component is the literal "..".
func containsDotDot(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

// isPathInside checks whether child is inside or equal to parent.
func isPathInside(child, parent string) bool {
	if child == parent {
		return true
	}
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(child, prefix)
}

// normalizeCase folds case on platforms with case-insensitive filesystems.
func normalizeCase(p string) string {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.ToLower(p)
	}
	return p
}

// Rel returns the workspace-relative form of an absolute path, forward-slashed.
func Rel(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

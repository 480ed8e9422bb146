package tools

import (
	"path/filepath"
	"strings"
)

// matchGlob applies the simple glob rules search tools accept:
// "*.ext" and "**/*.ext" match by extension, "*name*" matches by substring,
// and a bare pattern matches as a substring of the base name.
func matchGlob(pattern, baseName string) bool {
	if pattern == "" {
		return true
	}

	pattern = strings.TrimPrefix(pattern, "**/")

	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(baseName, pattern[1:])
	}
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1 {
		return strings.Contains(baseName, strings.Trim(pattern, "*"))
	}
	if matched, err := filepath.Match(pattern, baseName); err == nil && matched {
		return true
	}
	return strings.Contains(baseName, pattern)
}

// matchAnyGlob applies a comma-separated glob list; an empty list matches all.
func matchAnyGlob(patterns string, baseName string) bool {
	if strings.TrimSpace(patterns) == "" {
		return true
	}
	for _, p := range strings.Split(patterns, ",") {
		if matchGlob(strings.TrimSpace(p), baseName) {
			return true
		}
	}
	return false
}

package tools

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

func (b *Builtins) fileSearchTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "file_search",
			Description: "Find files and directories by name pattern",
			Params: []Param{
				{Name: "pattern", Type: TypeString, Description: "Glob or substring to match base names", Required: true},
				{Name: "path", Type: TypeString, Description: "Directory to search", Default: "."},
				{Name: "type", Type: TypeString, Description: "Filter: file, directory, or any", Default: "any"},
				{Name: "max_depth", Type: TypeNumber, Description: "Traversal depth limit", Default: float64(10)},
			},
			Safe: true,
		},
		Handler: b.fileSearch,
	}
}

type foundEntry struct {
	rel   string
	isDir bool
}

func (b *Builtins) fileSearch(ctx context.Context, args map[string]interface{}) *Result {
	pattern, _ := args["pattern"].(string)
	searchPath, _ := args["path"].(string)
	entryType, _ := args["type"].(string)
	maxDepth := 10
	if v, ok := args["max_depth"].(float64); ok && v > 0 {
		maxDepth = int(v)
	}

	if pattern == "" {
		return ErrorResult(KindMissingParameter, "file_search: pattern is required")
	}

	resolved, errResult := b.resolve(searchPath)
	if errResult != nil {
		return errResult
	}

	var found []foundEntry
	truncated := false
	baseDepth := strings.Count(resolved, string(filepath.Separator))

	walkErr := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p == resolved {
			return nil
		}

		depth := strings.Count(p, string(filepath.Separator)) - baseDepth
		if depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := b.relOrSame(p)
		if b.skipWalkEntry(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch entryType {
		case "file":
			if d.IsDir() {
				return nil
			}
		case "directory":
			if !d.IsDir() {
				return nil
			}
		}

		if matchGlob(pattern, d.Name()) {
			found = append(found, foundEntry{rel: rel, isDir: d.IsDir()})
			if len(found) >= maxSearchResults {
				truncated = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		return ErrorResult(KindExec, "file_search: %v", walkErr)
	}

	// Directories before files, then lexicographic.
	sort.Slice(found, func(i, j int) bool {
		if found[i].isDir != found[j].isDir {
			return found[i].isDir
		}
		return found[i].rel < found[j].rel
	})

	if len(found) == 0 {
		return NewResult("No matches found.").WithMeta("matches", 0)
	}

	var sb strings.Builder
	for _, e := range found {
		if e.isDir {
			fmt.Fprintf(&sb, "%s/\n", e.rel)
		} else {
			fmt.Fprintf(&sb, "%s\n", e.rel)
		}
	}
	if truncated {
		fmt.Fprintf(&sb, "(stopped at %d results)", maxSearchResults)
	}

	return NewResult(strings.TrimRight(sb.String(), "\n")).
		WithMeta("matches", len(found)).
		WithMeta("truncated", truncated)
}

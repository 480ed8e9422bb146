package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (b *Builtins) listDirectoryTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "list_directory",
			Description: "List directory contents with file sizes",
			Params: []Param{
				{Name: "path", Type: TypeString, Description: "Directory to list", Default: "."},
				{Name: "recursive", Type: TypeBoolean, Description: "Recurse into subdirectories"},
				{Name: "max_depth", Type: TypeNumber, Description: "Depth limit when recursive"},
			},
			Safe: true,
		},
		Handler: b.listDirectory,
	}
}

func (b *Builtins) listDirectory(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	recursive, _ := args["recursive"].(bool)
	maxDepth := 0
	if v, ok := args["max_depth"].(float64); ok {
		maxDepth = int(v)
	}

	resolved, errResult := b.resolve(path)
	if errResult != nil {
		return errResult
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return ioErrorResult("list_directory", err)
	}
	if !info.IsDir() {
		return ErrorResult(KindIO, "list_directory: %s is not a directory", b.relOrSame(resolved))
	}

	var sb strings.Builder
	count := 0

	if !recursive {
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return ioErrorResult("list_directory", err)
		}
		sortEntries(entries)
		for _, e := range entries {
			writeEntry(&sb, e, e.Name(), 0)
			count++
		}
	} else {
		baseDepth := strings.Count(resolved, string(filepath.Separator))
		err := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if p == resolved {
				return nil
			}
			depth := strings.Count(p, string(filepath.Separator)) - baseDepth
			if maxDepth > 0 && depth > maxDepth {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			rel, _ := filepath.Rel(resolved, p)
			if b.skipWalkEntry(filepath.ToSlash(rel), d) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			writeEntry(&sb, d, filepath.ToSlash(rel), depth-1)
			count++
			return nil
		})
		if err != nil {
			return ioErrorResult("list_directory", err)
		}
	}

	if count == 0 {
		sb.WriteString("(empty directory)")
	}

	return NewResult(sb.String()).WithMeta("entries", count)
}

func sortEntries(entries []os.DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})
}

func writeEntry(sb *strings.Builder, d fs.DirEntry, name string, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	if d.IsDir() {
		fmt.Fprintf(sb, "%s/\n", name)
		return
	}
	size := int64(0)
	if info, err := d.Info(); err == nil {
		size = info.Size()
	}
	fmt.Fprintf(sb, "%s (%d bytes)\n", name, size)
}

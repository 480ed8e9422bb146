package tools

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (b *Builtins) applyDiffTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "apply_diff",
			Description: "Apply a unified-format patch to a file",
			Params: []Param{
				{Name: "path", Type: TypeString, Description: "Target file, relative to the workspace root", Required: true},
				{Name: "diff", Type: TypeString, Description: "Unified diff with @@ hunk headers", Required: true},
				{Name: "create_backup", Type: TypeBoolean, Description: "Write a .backup sibling before patching", Default: true},
			},
			Safe: false,
		},
		Handler: b.applyDiff,
	}
}

func (b *Builtins) applyDiff(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	diff, _ := args["diff"].(string)
	createBackup, _ := args["create_backup"].(bool)

	resolved, errResult := b.resolve(path)
	if errResult != nil {
		return errResult
	}

	if !strings.Contains(diff, "@@") {
		return ErrorResult(KindPatchFormat, "apply_diff: diff contains no @@ hunk marker")
	}

	original := ""
	fileCreated := false
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		original = string(data)
	case os.IsNotExist(err):
		fileCreated = true
	default:
		return ioErrorResult("apply_diff", err)
	}

	backupPath := ""
	if createBackup && !fileCreated {
		backupPath = resolved + ".backup"
		if err := os.WriteFile(backupPath, []byte(original), 0644); err != nil {
			return ioErrorResult("apply_diff: backup", err)
		}
		b.backups.Add(resolved, []byte(original), "apply_diff")
	}

	patched, added, removed := applyUnifiedDiff(original, diff)

	if fileCreated {
		if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
			return ioErrorResult("apply_diff", err)
		}
	}
	if err := os.WriteFile(resolved, []byte(patched), 0644); err != nil {
		if backupPath != "" {
			if restoreErr := os.WriteFile(resolved, []byte(original), 0644); restoreErr != nil {
				slog.Error("apply_diff: restore from backup failed", "path", path, "error", restoreErr)
			}
		}
		return ioErrorResult("apply_diff", err)
	}

	result := NewResult("Patched " + b.relOrSame(resolved)).
		WithMeta("linesAdded", added).
		WithMeta("linesRemoved", removed).
		WithMeta("originalSize", len(original)).
		WithMeta("patchedSize", len(patched)).
		WithMeta("fileCreated", fileCreated)
	if backupPath != "" {
		result.WithMeta("backup", backupPath)
	}
	return result
}

// applyUnifiedDiff applies a unified diff with the lenient hunk algorithm:
// hunk offsets are trusted, removed lines are consumed without verifying they
// match the original.
func applyUnifiedDiff(original, diff string) (patched string, added, removed int) {
	origLines := splitPatchLines(original)

	var out []string
	cursor := 0 // next unconsumed original line (0-based)

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			start := parseHunkStart(line)
			// Emit unprocessed original lines preceding the hunk.
			for cursor < start-1 && cursor < len(origLines) {
				out = append(out, origLines[cursor])
				cursor++
			}
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, `\`):
			// Metadata lines are ignored.
		case strings.HasPrefix(line, "+"):
			out = append(out, line[1:])
			added++
		case strings.HasPrefix(line, "-"):
			if cursor < len(origLines) {
				cursor++
			}
			removed++
		case strings.HasPrefix(line, " "):
			if cursor < len(origLines) {
				out = append(out, origLines[cursor])
				cursor++
			} else {
				out = append(out, line[1:])
			}
		default:
			// Lines without a leading sign are treated as context.
			if cursor < len(origLines) {
				out = append(out, origLines[cursor])
				cursor++
			}
		}
	}

	// Flush remaining original lines.
	for cursor < len(origLines) {
		out = append(out, origLines[cursor])
		cursor++
	}

	patched = strings.Join(out, "\n")
	// Preserve the original's trailing-newline shape; created files end with one.
	if len(out) > 0 && (original == "" || strings.HasSuffix(original, "\n")) {
		patched += "\n"
	}
	return patched, added, removed
}

// parseHunkStart extracts the 1-based original start from "@@ -S,L +S',L' @@".
func parseHunkStart(header string) int {
	rest := strings.TrimPrefix(header, "@@")
	idx := strings.Index(rest, "-")
	if idx < 0 {
		return 1
	}
	rest = rest[idx+1:]
	end := strings.IndexAny(rest, ", ")
	if end >= 0 {
		rest = rest[:end]
	}
	start, err := strconv.Atoi(rest)
	if err != nil || start < 1 {
		return 1
	}
	return start
}

// splitPatchLines splits file content into lines without a trailing phantom
// entry for the final newline.
func splitPatchLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

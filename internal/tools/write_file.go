package tools

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// dangerousContentPatterns trigger a warning on write, never a refusal.
var dangerousContentPatterns = []string{"<script>", "eval(", "rm -rf"}

func (b *Builtins) writeFileTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "write_file",
			Description: "Create or overwrite a file with the given content",
			Params: []Param{
				{Name: "path", Type: TypeString, Description: "Path to the file, relative to the workspace root", Required: true},
				{Name: "content", Type: TypeString, Description: "Full content to write", Required: true},
				{Name: "create_dirs", Type: TypeBoolean, Description: "Create missing parent directories", Default: true},
			},
			Safe: false,
		},
		Handler: b.writeFile,
	}
}

func (b *Builtins) writeFile(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	createDirs, _ := args["create_dirs"].(bool)

	resolved, errResult := b.resolve(path)
	if errResult != nil {
		return errResult
	}

	for _, pattern := range dangerousContentPatterns {
		if strings.Contains(content, pattern) {
			slog.Warn("write_file: content matches dangerous pattern", "path", path, "pattern", pattern)
		}
	}

	existing, readErr := os.ReadFile(resolved)
	created := readErr != nil && os.IsNotExist(readErr)

	dir := filepath.Dir(resolved)
	if !statExists(dir) {
		if !createDirs {
			return ErrorResult(KindIO, "write_file: directory %s does not exist and create_dirs is false", b.relOrSame(dir))
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ioErrorResult("write_file", err)
		}
	}

	if !created {
		b.backups.Add(resolved, existing, "write_file")
	}

	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return ioErrorResult("write_file", err)
	}

	return NewResult("Wrote " + b.relOrSame(resolved)).
		WithMeta("path", resolved).
		WithMeta("size", len(content)).
		WithMeta("lines", lineCount(content)).
		WithMeta("created", created)
}

package tools

import (
	"context"
	"os"
	"strings"
)

func (b *Builtins) readFileTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "read_file",
			Description: "Read the contents of a file in the workspace",
			Params: []Param{
				{Name: "path", Type: TypeString, Description: "Path to the file, relative to the workspace root", Required: true},
				{Name: "encoding", Type: TypeString, Description: "Text encoding", Default: "utf-8"},
			},
			Safe: true,
		},
		Handler: b.readFile,
	}
}

func (b *Builtins) readFile(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)

	resolved, errResult := b.resolve(path)
	if errResult != nil {
		return errResult
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ioErrorResult("read_file", err)
	}

	content := string(data)
	return NewResult(content).
		WithMeta("path", resolved).
		WithMeta("relativePath", b.relOrSame(resolved)).
		WithMeta("size", len(data)).
		WithMeta("lines", strings.Count(content, "\n")+1)
}

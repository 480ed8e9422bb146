package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxSearchResults = 200
	maxLineLength    = 500
)

func (b *Builtins) grepSearchTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "grep_search",
			Description: "Search file contents by regular expression",
			Params: []Param{
				{Name: "pattern", Type: TypeString, Description: "RE2 regular expression", Required: true},
				{Name: "path", Type: TypeString, Description: "Directory to search", Default: "."},
				{Name: "include", Type: TypeString, Description: "Comma-separated glob filters (e.g. *.go,*.ts)"},
				{Name: "fixed_strings", Type: TypeBoolean, Description: "Treat the pattern as a literal string", Default: false},
				{Name: "case_sensitive", Type: TypeBoolean, Description: "Match case-sensitively", Default: false},
			},
			Safe: true,
		},
		Handler: b.grepSearch,
	}
}

func (b *Builtins) grepSearch(ctx context.Context, args map[string]interface{}) *Result {
	pattern, _ := args["pattern"].(string)
	searchPath, _ := args["path"].(string)
	include, _ := args["include"].(string)
	fixedStrings, _ := args["fixed_strings"].(bool)
	caseSensitive, _ := args["case_sensitive"].(bool)

	if pattern == "" {
		return ErrorResult(KindMissingParameter, "grep_search: pattern is required")
	}

	expr := pattern
	if fixedStrings {
		expr = regexp.QuoteMeta(pattern)
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return ErrorResult(KindExec, "grep_search: invalid regex: %v", err)
	}

	resolved, errResult := b.resolve(searchPath)
	if errResult != nil {
		return errResult
	}

	var results []string
	truncated := false

	walkErr := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if truncated {
			return filepath.SkipAll
		}

		rel := b.relOrSame(p)
		if d.IsDir() {
			if p != resolved && b.skipWalkEntry(rel, d) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.skipWalkEntry(rel, d) {
			return nil
		}
		if binaryExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		if !matchAnyGlob(include, d.Name()) {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if !re.MatchString(line) {
				continue
			}
			if len(line) > maxLineLength {
				line = line[:maxLineLength] + "..."
			}
			results = append(results, fmt.Sprintf("%s:%d: %s", rel, lineNum, line))
			if len(results) >= maxSearchResults {
				truncated = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		return ErrorResult(KindExec, "grep_search: %v", walkErr)
	}

	output := "No matches found."
	if len(results) > 0 {
		output = strings.Join(results, "\n")
		if truncated {
			output += fmt.Sprintf("\n(stopped at %d matches)", maxSearchResults)
		}
	}

	return NewResult(output).
		WithMeta("matches", len(results)).
		WithMeta("truncated", truncated)
}

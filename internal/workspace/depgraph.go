package workspace

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DepNode describes one analyzed source file.
type DepNode struct {
	Path     string   // workspace-relative, forward-slashed
	Language string   // "go", "js", "ts", "py"
	Imports  []string // resolved workspace-relative targets
	UsedBy   []string // populated by the second pass
}

// DepGraph is a shallow import graph over the workspace, used to answer
// "what is impacted if X changes". Not on the critical path of the agent loop.
type DepGraph struct {
	Nodes map[string]*DepNode
}

var importPatterns = map[string][]*regexp.Regexp{
	"go": {
		regexp.MustCompile(`^\s*import\s+(?:\w+\s+)?"([^"]+)"`),
		regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"\s*$`), // inside import ( ... )
	},
	"js": {
		regexp.MustCompile(`^\s*import\s+.*from\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
	},
	"py": {
		regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import`),
		regexp.MustCompile(`^\s*import\s+([\w.]+)`),
	},
}

func languageForExt(ext string) string {
	switch ext {
	case ".go":
		return "go"
	case ".js", ".jsx", ".mjs":
		return "js"
	case ".ts", ".tsx":
		return "ts"
	case ".py":
		return "py"
	default:
		return ""
	}
}

// BuildDepGraph scans the workspace tree and resolves intra-workspace imports.
// Only relative JS/TS imports and sibling Python modules resolve to nodes;
// everything else (stdlib, external packages) is dropped.
func BuildDepGraph(root string) (*DepGraph, error) {
	g := &DepGraph{Nodes: make(map[string]*DepNode)}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if defaultSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		lang := languageForExt(filepath.Ext(path))
		if lang == "" {
			return nil
		}

		rel := Rel(root, path)
		node := &DepNode{Path: rel, Language: lang}
		node.Imports = scanImports(root, path, lang)
		g.Nodes[rel] = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Second pass: invert edges.
	for _, node := range g.Nodes {
		for _, imp := range node.Imports {
			if target, ok := g.Nodes[imp]; ok {
				target.UsedBy = append(target.UsedBy, node.Path)
			}
		}
	}
	for _, node := range g.Nodes {
		sort.Strings(node.UsedBy)
	}

	return g, nil
}

// ImpactOf returns the files that directly depend on path.
func (g *DepGraph) ImpactOf(path string) []string {
	node, ok := g.Nodes[filepath.ToSlash(path)]
	if !ok {
		return nil
	}
	return node.UsedBy
}

func scanImports(root, path, lang string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	patterns := importPatterns[lang]
	if lang == "ts" {
		patterns = importPatterns["js"]
	}

	seen := make(map[string]bool)
	var imports []string

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() && lines < 200 { // imports live near the top
		lines++
		line := scanner.Text()
		for _, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			resolved := resolveImport(root, path, lang, m[1])
			if resolved != "" && !seen[resolved] {
				seen[resolved] = true
				imports = append(imports, resolved)
			}
		}
	}
	sort.Strings(imports)
	return imports
}

// resolveImport maps an import specifier to a workspace-relative file, or ""
// when it points outside the workspace (external package, stdlib).
func resolveImport(root, fromFile, lang, spec string) string {
	dir := filepath.Dir(fromFile)

	switch lang {
	case "js", "ts":
		if !strings.HasPrefix(spec, ".") {
			return ""
		}
		base := filepath.Join(dir, spec)
		for _, cand := range []string{base, base + ".js", base + ".ts", base + ".jsx", base + ".tsx", filepath.Join(base, "index.js"), filepath.Join(base, "index.ts")} {
			if info, err := os.Stat(cand); err == nil && !info.IsDir() {
				return Rel(root, cand)
			}
		}
	case "py":
		cand := filepath.Join(dir, strings.ReplaceAll(spec, ".", string(filepath.Separator))+".py")
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			return Rel(root, cand)
		}
	case "go":
		// Go imports are package paths; the whole path resolves only when it
		// names a directory under the root, and a directory is never a node.
		cand := filepath.Join(root, filepath.FromSlash(spec))
		if info, err := os.Stat(cand); err == nil && info.IsDir() {
			return Rel(root, cand)
		}
	}
	return ""
}

// defaultSkipDirs is the search-tool exclusion set plus .idea and .vscode.
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
	".idea":        true,
	".vscode":      true,
}

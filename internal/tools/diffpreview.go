package tools

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
)

// fullDiffLineLimit is the line count at which the preview degrades to +N/-N
// statistics instead of a full unified diff.
const fullDiffLineLimit = 50

var (
	diffAddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	diffDelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	diffHunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	diffHeaderStyle = lipgloss.NewStyle().Bold(true)
)

// DiffPreview renders the change preview shown at the approval prompt.
// When the target does not exist the preview is annotated as a new file.
func DiffPreview(path, oldContent, newContent string, exists bool) string {
	if !exists {
		lines := 0
		if newContent != "" {
			lines = strings.Count(newContent, "\n") + 1
		}
		return diffHeaderStyle.Render(fmt.Sprintf("new file: %s (%d lines)", path, lines))
	}

	oldLines := strings.Count(oldContent, "\n")
	if oldContent != "" && !strings.HasSuffix(oldContent, "\n") {
		oldLines++
	}
	if oldLines >= fullDiffLineLimit {
		added, removed := diffStats(oldContent, newContent)
		return diffHeaderStyle.Render(path) + " " +
			diffAddStyle.Render(fmt.Sprintf("+%d", added)) + "/" +
			diffDelStyle.Render(fmt.Sprintf("-%d", removed))
	}

	return UnifiedDiff(path, oldContent, newContent)
}

// UnifiedDiff produces a colorized unified-format patch.
func UnifiedDiff(path, oldContent, newContent string) string {
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("(diff unavailable: %v)", err)
	}
	if patch == "" {
		return "(no changes)"
	}

	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(diffHeaderStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(diffHunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(diffAddStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(diffDelStyle.Render(line))
		default:
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// diffStats counts added and removed lines between two contents.
func diffStats(oldContent, newContent string) (added, removed int) {
	matcher := difflib.NewMatcher(difflib.SplitLines(oldContent), difflib.SplitLines(newContent))
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'r':
			removed += op.I2 - op.I1
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'i':
			added += op.J2 - op.J1
		}
	}
	return added, removed
}

package agent

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/coda/internal/tools"
)

// buildSystemPrompt assembles the session system message: identity, workspace
// context, the human-readable tool table, and the tag-format instructions.
func buildSystemPrompt(workspaceRoot, notes string, registry *tools.Registry) string {
	var sb strings.Builder

	sb.WriteString(`You are coda, an AI coding assistant running in the terminal. You help the user read, write, and modify code inside a single workspace by invoking tools.

Work in small steps: inspect before you edit, explain what you changed, and prefer minimal diffs. Never invent file contents — read files before modifying them.
`)

	fmt.Fprintf(&sb, "\n# Workspace\n\nRoot directory: %s\n", workspaceRoot)
	if notes != "" {
		sb.WriteString("\nProject notes:\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
	}

	sb.WriteString("\n# Tools\n\n")
	for _, t := range registry.All() {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Def.Name, t.Def.Description)
		for _, p := range t.Def.Params {
			req := ""
			if p.Required {
				req = " (required)"
			}
			fmt.Fprintf(&sb, "    %s [%s]%s: %s\n", p.Name, p.Type, req, p.Description)
		}
	}

	sb.WriteString(`
# Invoking tools

To call tools, emit one or more blocks in exactly this form:

<action>
<invoke tool="NAME">
  <param name="K1">V1</param>
  <param name="K2">V2</param>
</invoke>
</action>

Rules:
- Parameter values are verbatim text; they may span lines but must not contain the literal closing tag.
- You may put several <invoke> elements in one <action> block; they run in order.
- Tool results arrive in the next user message. When you are done, reply with plain text and no <action> block.
`)

	return sb.String()
}

// resultsMessage concatenates tool results into the single user-role message
// appended after a batch, with the trailing explain instruction.
func resultsMessage(entries []string) string {
	var sb strings.Builder
	sb.WriteString("Tool results:\n\n")
	for _, e := range entries {
		sb.WriteString(e)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Explain these results and continue with the task, or reply with plain text if you are done.")
	return sb.String()
}

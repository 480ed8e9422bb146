package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nextlevelbuilder/coda/internal/safety"
	"github.com/nextlevelbuilder/coda/internal/workspace"
)

// ErrSessionQuit is returned when the user answers 'q' at an approval prompt.
// The orchestrator treats it as a graceful session termination.
var ErrSessionQuit = errors.New("session terminated by user")

// Decision is the outcome of an approval prompt.
type Decision int

const (
	DecisionApprove Decision = iota
	DecisionDeny
	DecisionQuit
)

// ApprovalRequest carries what the approver shows the user. The approver owns
// the d-to-re-render loop; Preview is what it shows again, which is the
// DiffPreview output (statistics only for files of 50 or more lines).
type ApprovalRequest struct {
	Tool    string
	Summary string
	Preview string // diff preview for file-writing tools, "" otherwise
}

// Approver prompts the user for per-call approval in review mode.
type Approver interface {
	Approve(req ApprovalRequest) (Decision, error)
}

// Executor validates and dispatches tool calls under the active mode.
type Executor struct {
	registry *Registry
	mode     safety.Mode
	root     string // workspace root, for diff previews
	approver Approver
}

func NewExecutor(registry *Registry, mode safety.Mode, root string, approver Approver) *Executor {
	return &Executor{registry: registry, mode: mode, root: root, approver: approver}
}

// Mode returns the active safety mode.
func (e *Executor) Mode() safety.Mode { return e.mode }

// Execute runs one tool call through the full pipeline:
// resolve → validate → approve → invoke. Only ErrSessionQuit and errors
// returned by the approver propagate as errors; every other failure is a
// *Result.
func (e *Executor) Execute(ctx context.Context, call Call) (*Result, error) {
	tool, ok := e.registry.Get(call.Tool)
	if !ok {
		return ErrorResult(KindUnknownTool, "unknown tool: %s", call.Tool), nil
	}

	if call.Params == nil {
		call.Params = make(map[string]interface{})
	}

	for _, p := range tool.Def.Params {
		if p.Required {
			if _, present := call.Params[p.Name]; !present {
				return ErrorResult(KindMissingParameter, "tool %s: missing required parameter %q", call.Tool, p.Name), nil
			}
		}
	}
	applyDefaults(tool.Def, call.Params)

	switch e.mode {
	case safety.ModeDryRun:
		return NewResult("DRY-RUN; no effect"), nil
	case safety.ModeReview:
		if !tool.Def.Safe {
			decision, err := e.requestApproval(tool, call)
			if err != nil {
				return nil, err
			}
			switch decision {
			case DecisionDeny:
				return ErrorResult(KindPolicyReject, "user denied %s", call.Tool), nil
			case DecisionQuit:
				return nil, ErrSessionQuit
			}
		}
	case safety.ModeAutoApply:
		// No prompt.
	}

	return e.invoke(ctx, tool, call), nil
}

// invoke runs the handler with panic containment.
func (e *Executor) invoke(ctx context.Context, tool *Tool, call Call) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool handler panicked", "tool", call.Tool, "panic", r)
			result = ErrorResult(KindExec, "tool %s panicked: %v", call.Tool, r)
		}
	}()

	result = tool.Handler(ctx, call.Params)
	if result == nil {
		result = ErrorResult(KindExec, "tool %s returned no result", call.Tool)
	}
	return result
}

func (e *Executor) requestApproval(tool *Tool, call Call) (Decision, error) {
	if e.approver == nil {
		// Headless review sessions cannot prompt; denying is the safe answer.
		slog.Warn("no approver configured, denying unsafe tool", "tool", call.Tool)
		return DecisionDeny, nil
	}

	req := ApprovalRequest{
		Tool:    call.Tool,
		Summary: callSummary(call),
	}
	if preview := e.writePreview(call); preview != "" {
		req.Preview = preview
	}

	return e.approver.Approve(req)
}

// writePreview builds the diff preview for file-writing calls.
func (e *Executor) writePreview(call Call) string {
	if call.Tool != "write_file" {
		return ""
	}
	path, _ := call.Params["path"].(string)
	content, _ := call.Params["content"].(string)
	if path == "" {
		return ""
	}

	resolved, err := workspace.ValidatePath(e.root, path)
	if err != nil {
		return ""
	}

	existing, err := os.ReadFile(resolved)
	if err != nil {
		return DiffPreview(path, "", content, false)
	}
	return DiffPreview(path, string(existing), content, true)
}

func applyDefaults(def Definition, params map[string]interface{}) {
	for _, p := range def.Params {
		if p.Default == nil {
			continue
		}
		if _, present := params[p.Name]; !present {
			params[p.Name] = p.Default
		}
	}
}

func callSummary(call Call) string {
	if path, ok := call.Params["path"].(string); ok && path != "" {
		return fmt.Sprintf("%s %s", call.Tool, path)
	}
	if cmd, ok := call.Params["command"].(string); ok && cmd != "" {
		return fmt.Sprintf("%s: %s", call.Tool, cmd)
	}
	return call.Tool
}

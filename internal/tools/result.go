package tools

import "fmt"

// ErrorKind classifies tool failures for the orchestrator and the model.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindUnknownTool      ErrorKind = "UnknownTool"
	KindMissingParameter ErrorKind = "MissingParameter"
	KindPolicyReject     ErrorKind = "PolicyReject"
	KindPathInvalid      ErrorKind = "PathInvalid"
	KindIO               ErrorKind = "IO"
	KindPatchFormat      ErrorKind = "PatchFormat"
	KindCommandTimeout   ErrorKind = "CommandTimeout"
	KindMcpTimeout       ErrorKind = "McpTimeout"
	KindExec             ErrorKind = "Exec"
)

// Result is the unified return type from tool execution: either a success
// with output and metadata, or a failure with an error kind and message.
type Result struct {
	Output   string                 `json:"output,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	IsError  bool                   `json:"is_error"`
	Kind     ErrorKind              `json:"kind,omitempty"`
	Err      string                 `json:"error,omitempty"`
}

func NewResult(output string) *Result {
	return &Result{Output: output}
}

func ErrorResult(kind ErrorKind, format string, args ...interface{}) *Result {
	return &Result{IsError: true, Kind: kind, Err: fmt.Sprintf(format, args...)}
}

// WithMeta attaches a metadata entry and returns the result for chaining.
func (r *Result) WithMeta(key string, value interface{}) *Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}

// Text renders the result as the string fed back to the model.
func (r *Result) Text() string {
	if r.IsError {
		if r.Kind != KindNone {
			return fmt.Sprintf("Error (%s): %s", r.Kind, r.Err)
		}
		return "Error: " + r.Err
	}
	return r.Output
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/coda/internal/runner"
	"github.com/nextlevelbuilder/coda/internal/safety"
)

// errorTailBytes bounds the combined output echoed in failure results.
const errorTailBytes = 2000

func (b *Builtins) runCommandTool() *Tool {
	return &Tool{
		Def: Definition{
			Name:        "run_command",
			Description: "Execute a command in the workspace under the safety policy",
			Params: []Param{
				{Name: "command", Type: TypeString, Description: "Command to run", Required: true},
				{Name: "args", Type: TypeArray, Description: "Argument vector"},
				{Name: "cwd", Type: TypeString, Description: "Working directory, relative to the workspace root"},
			},
			Safe: false,
		},
		Handler: b.runCommand,
	}
}

func (b *Builtins) runCommand(ctx context.Context, args map[string]interface{}) *Result {
	command, _ := args["command"].(string)

	var argv []string
	if rawArgs, ok := args["args"].([]interface{}); ok {
		for _, a := range rawArgs {
			argv = append(argv, fmt.Sprintf("%v", a))
		}
	}

	dir := b.root
	if cwd, ok := args["cwd"].(string); ok && cwd != "" {
		resolved, errResult := b.resolve(cwd)
		if errResult != nil {
			return errResult
		}
		dir = resolved
	}

	result, err := b.runner.Run(ctx, runner.Request{
		Command: command,
		Args:    argv,
		Dir:     dir,
	})
	if err != nil {
		if _, ok := err.(*safety.PolicyError); ok {
			return ErrorResult(KindPolicyReject, "blocked by policy: %v", err)
		}
		return ErrorResult(KindExec, "run_command: %v", err)
	}

	if result.TimedOut {
		return ErrorResult(KindCommandTimeout, "command timed out: %s", command).
			WithMeta("timedOut", true).
			WithMeta("exitCode", result.ExitCode)
	}

	if result.ExitCode != 0 {
		return ErrorResult(KindExec, "command exited with code %d\n%s",
			result.ExitCode, outputTail(result)).
			WithMeta("exitCode", result.ExitCode)
	}

	output := result.Stdout
	if result.Stderr != "" {
		if output != "" {
			output += "\n"
		}
		output += "STDERR:\n" + result.Stderr
	}
	if output == "" {
		output = "(command completed with no output)"
	}

	return NewResult(output).WithMeta("exitCode", 0)
}

// outputTail returns the last portion of combined stderr/stdout for error
// reporting.
func outputTail(r *runner.Result) string {
	combined := strings.TrimSpace(r.Stderr + "\n" + r.Stdout)
	if len(combined) > errorTailBytes {
		combined = "..." + combined[len(combined)-errorTailBytes:]
	}
	return combined
}

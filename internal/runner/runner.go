// Package runner spawns child processes under the active safety policy with
// streaming capture, output caps, and a wall-clock timeout.
package runner

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/nextlevelbuilder/coda/internal/safety"
)

// Request describes one command execution.
type Request struct {
	Command string
	Args    []string
	Dir     string        // working directory, must be pre-validated
	Timeout time.Duration // 0 = policy default
}

// Result is the outcome of a completed child process. A non-zero exit code is
// a result, not an error; only spawn failures return an error from Run.
type Result struct {
	Command  string `json:"command"`
	Args     []string `json:"args"`
	ExitCode int    `json:"exitCode"`
	TimedOut bool   `json:"timedOut"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// Runner executes commands under a safety policy.
type Runner struct {
	policy *safety.Policy
}

func New(policy *safety.Policy) *Runner {
	return &Runner{policy: policy}
}

// Run checks the policy, spawns the child, and waits for completion.
// The tool executor does not check the command policy; the check happens here,
// and nothing is spawned if it fails.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := r.policy.Check(req.Command, req.Args); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.policy.MaxCommandDuration
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := buildCommand(ctx, req)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), "MODE="+string(r.policy.Mode))

	var stdout, stderr capBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	waitErr := cmd.Wait()
	timedOut := ctx.Err() == context.DeadlineExceeded

	result := &Result{
		Command:  req.Command,
		Args:     req.Args,
		TimedOut: timedOut,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	if timedOut {
		result.ExitCode = -1
	}

	slog.Debug("command finished",
		"command", req.Command,
		"exit_code", result.ExitCode,
		"timed_out", timedOut,
		"duration", time.Since(start),
	)

	return result, nil
}

// buildCommand constructs the exec.Cmd. Windows needs cmd.exe interposed so
// script extensions (.cmd, .bat) resolve; everywhere else the child is
// spawned directly, which is what makes the metachar filter sufficient.
func buildCommand(ctx context.Context, req Request) *exec.Cmd {
	if runtime.GOOS == "windows" {
		shellArgs := append([]string{"/c", req.Command}, req.Args...)
		return exec.CommandContext(ctx, "cmd.exe", shellArgs...)
	}
	return exec.CommandContext(ctx, req.Command, req.Args...)
}

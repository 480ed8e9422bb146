package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/coda/internal/safety"
)

func newTestRunner() *Runner {
	return New(safety.NewPolicy(safety.ModeAutoApply))
}

func TestRunCapturesOutput(t *testing.T) {
	r := newTestRunner()

	result, err := r.Run(context.Background(), Request{
		Command: "echo",
		Args:    []string{"hello"},
		Dir:     t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Stderr)
}

func TestRunNonZeroExitIsResultNotError(t *testing.T) {
	r := newTestRunner()

	result, err := r.Run(context.Background(), Request{
		Command: "false",
		Dir:     t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
}

func TestRunPolicyRejectBeforeSpawn(t *testing.T) {
	r := newTestRunner()

	_, err := r.Run(context.Background(), Request{Command: "rm", Args: []string{"-rf", "/"}, Dir: t.TempDir()})
	require.Error(t, err)
	var perr *safety.PolicyError
	assert.ErrorAs(t, err, &perr)

	_, err = r.Run(context.Background(), Request{Command: "ls", Args: []string{"; rm -rf /"}, Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorAs(t, err, &perr)
}

func TestRunTimeout(t *testing.T) {
	r := newTestRunner()

	start := time.Now()
	result, err := r.Run(context.Background(), Request{
		Command: "sleep",
		Args:    []string{"30"},
		Dir:     t.TempDir(),
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, -1, result.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunModeEnvInjected(t *testing.T) {
	r := newTestRunner()

	result, err := r.Run(context.Background(), Request{
		Command: "env",
		Dir:     t.TempDir(),
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(result.Stdout, "MODE=auto-apply"))
}

func TestCapBufferRetainsTail(t *testing.T) {
	var b capBuffer
	chunk := strings.Repeat("x", 1024*1024)
	for i := 0; i < 12; i++ {
		_, err := b.Write([]byte(chunk))
		require.NoError(t, err)
	}
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "[output truncated]"))
	assert.LessOrEqual(t, len(out), retainBytes+1024*1024+64)
}

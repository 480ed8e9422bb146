package safety

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseCommandName(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"ls -la", "ls"},
		{"/usr/bin/ls", "ls"},
		{"C:\\tools\\deploy.exe --all", "deploy"},
		{"./build.sh", "build"},
		{"Script.PS1", "script"},
		{"setup.bat arg", "setup"},
		{"GIT status", "git"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseCommandName(tt.command), "command %q", tt.command)
	}
}

func TestCheckCommandDenyList(t *testing.T) {
	p := NewPolicy(ModeAutoApply)

	for _, cmd := range []string{"rm -rf /", "sudo ls", "/bin/rm", "curl http://x", "dd if=/dev/zero", "shutdown now"} {
		err := p.CheckCommand(cmd)
		require.Error(t, err, "expected %q to be denied", cmd)
		var perr *PolicyError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, KindDenied, perr.Kind)
	}

	assert.NoError(t, p.CheckCommand("ls -la"))
	assert.NoError(t, p.CheckCommand("go test ./..."))
}

func TestCheckCommandAllowListAuthoritative(t *testing.T) {
	p := NewPolicy(ModeAutoApply)
	p.AllowCommands = []string{"go", "ls"}

	assert.NoError(t, p.CheckCommand("go build"))
	assert.NoError(t, p.CheckCommand("ls"))

	err := p.CheckCommand("cat file.txt")
	var perr *PolicyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindNotAllowed, perr.Kind)

	// Deny still takes precedence over allow.
	p.AllowCommands = append(p.AllowCommands, "rm")
	err = p.CheckCommand("rm -rf /")
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindDenied, perr.Kind)
}

func TestCheckArgsMetachars(t *testing.T) {
	p := NewPolicy(ModeAutoApply)

	bad := [][]string{
		{"; rm -rf /"},
		{"`id`"},
		{"$(whoami)"},
		{"${HOME}"},
		{"a || b"},
		{"a && b"},
		{"line1\nline2"},
		{"cr\rhere"},
	}
	for _, args := range bad {
		err := p.CheckArgs("ls", args)
		var perr *PolicyError
		require.ErrorAs(t, err, &perr, "args %v", args)
		assert.Equal(t, KindMetachar, perr.Kind)
	}

	assert.NoError(t, p.CheckArgs("ls", []string{"-la", "src/main.go", "file with spaces"}))

	// The command token itself is filtered too.
	err := p.CheckArgs("ls; rm", nil)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeDryRun, ParseMode("dry-run"))
	assert.Equal(t, ModeAutoApply, ParseMode(" AUTO-APPLY "))
	assert.Equal(t, ModeReview, ParseMode("review"))
	assert.Equal(t, ModeReview, ParseMode("garbage"))
	assert.Equal(t, ModeReview, ParseMode(""))
}

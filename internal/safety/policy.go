// Package safety classifies commands, arguments, and modes before any child
// process is spawned. Checks are ordered so that nothing destructive can slip
// through on the strength of a later, looser rule: deny-list first, then the
// allow-list (authoritative when non-empty), then per-argument filters.
package safety

import (
	"path/filepath"
	"strings"
	"time"
)

// Mode is the session safety mode.
type Mode string

const (
	ModeDryRun    Mode = "dry-run"
	ModeReview    Mode = "review"
	ModeAutoApply Mode = "auto-apply"
)

// ParseMode normalizes a mode string, defaulting to review.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDryRun:
		return ModeDryRun
	case ModeAutoApply:
		return ModeAutoApply
	default:
		return ModeReview
	}
}

// defaultDenyCommands are command base names refused regardless of allow-list.
// Destructive filesystem operations, system control, package managers,
// privilege changes, network fetchers, and process killers.
var defaultDenyCommands = []string{
	"rm", "rmdir", "del", "dd", "mkfs", "fdisk", "diskpart", "format",
	"shutdown", "reboot", "poweroff", "halt", "init",
	"apt", "apt-get", "yum", "dnf", "pacman", "brew", "snap",
	"sudo", "su", "doas", "chown", "chmod", "chgrp", "passwd",
	"curl", "wget", "nc", "ncat", "netcat", "telnet", "ftp", "scp", "ssh",
	"kill", "killall", "pkill", "taskkill",
	"mount", "umount", "crontab", "systemctl", "service",
	"eval", "exec", "source",
}

// scriptExtensions are stripped before base-name comparison so "deploy.sh"
// and "deploy" match the same list entry.
var scriptExtensions = []string{".exe", ".cmd", ".bat", ".sh", ".ps1"}

// forbiddenMetachars are substrings that fail the per-argument filter. The
// runner may interpose a shell on Windows, so the filter must hold even when
// the platform shell is active.
var forbiddenMetachars = []string{";", "`", "$(", "${", "||", "&&", "\r", "\n"}

// Policy is the active safety policy for command execution.
type Policy struct {
	Mode               Mode
	AllowCommands      []string // non-empty = authoritative
	DenyCommands       []string // merged with the built-in deny list
	MaxCommandDuration time.Duration
}

// NewPolicy returns a policy with the built-in deny list and default caps.
func NewPolicy(mode Mode) *Policy {
	return &Policy{
		Mode:               mode,
		DenyCommands:       defaultDenyCommands,
		MaxCommandDuration: 5 * time.Minute,
	}
}

// BaseCommandName extracts the comparable base name of a command string:
// first whitespace token, path tail, script extension stripped, lowercased.
func BaseCommandName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	name := filepath.Base(fields[0])
	// Windows-style separators count as path separators on every platform.
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	lower := strings.ToLower(name)
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(lower, ext) {
			lower = lower[:len(lower)-len(ext)]
			break
		}
	}
	return lower
}

// CheckCommand validates the command name against the deny and allow lists.
func (p *Policy) CheckCommand(command string) error {
	base := BaseCommandName(command)
	if base == "" {
		return &PolicyError{Kind: KindEmptyCommand, Detail: "empty command"}
	}

	for _, denied := range p.DenyCommands {
		if base == normalizeListEntry(denied) || command == denied {
			return &PolicyError{Kind: KindDenied, Detail: "command '" + base + "' is blocked by policy"}
		}
	}

	if len(p.AllowCommands) > 0 {
		for _, allowed := range p.AllowCommands {
			if base == normalizeListEntry(allowed) || command == allowed {
				return nil
			}
		}
		return &PolicyError{Kind: KindNotAllowed, Detail: "command '" + base + "' is not on the allow-list"}
	}

	return nil
}

// CheckArgs validates the command token and every argument against the
// shell-metacharacter filter.
func (p *Policy) CheckArgs(command string, args []string) error {
	values := append([]string{command}, args...)
	for _, v := range values {
		for _, meta := range forbiddenMetachars {
			if strings.Contains(v, meta) {
				return &PolicyError{
					Kind:   KindMetachar,
					Detail: "argument contains forbidden shell metacharacter " + printableMeta(meta),
				}
			}
		}
	}
	return nil
}

// Check runs the full pipeline: command name, then arguments.
func (p *Policy) Check(command string, args []string) error {
	if err := p.CheckCommand(command); err != nil {
		return err
	}
	return p.CheckArgs(command, args)
}

// normalizeListEntry applies the same normalization to list entries as to
// commands, so "Deploy.SH" in a user allow-list matches "deploy".
func normalizeListEntry(entry string) string {
	return BaseCommandName(entry)
}

func printableMeta(meta string) string {
	switch meta {
	case "\r":
		return `\r`
	case "\n":
		return `\n`
	default:
		return "'" + meta + "'"
	}
}

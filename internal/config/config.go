// Package config loads the two configuration layers: the per-user
// config.json in the state directory, and the per-workspace .coda.yml at the
// workspace root. Environment variables overlay both.
package config

import (
	"os"
	"path/filepath"
)

// Config is the per-user configuration.
type Config struct {
	Provider      ProviderConfig `json:"provider"`
	Workspace     string         `json:"workspace,omitempty"` // default: current directory
	Mode          string         `json:"mode,omitempty"`      // dry-run, review, auto-apply
	MaxIterations int            `json:"max_iterations,omitempty"`
	ContextWindow int            `json:"context_window,omitempty"`
	RequestsPerMinute int        `json:"requests_per_minute,omitempty"`
	Verbose       bool           `json:"verbose,omitempty"`

	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// ProviderConfig selects and authenticates the LLM endpoint.
// The API key is NEVER persisted to config.json (secret), only read from env.
type ProviderConfig struct {
	Name    string `json:"name,omitempty"` // default "openai"
	APIKey  string `json:"-"`              // from CODA_API_KEY only
	APIBase string `json:"api_base,omitempty"`
	Model   string `json:"model,omitempty"`
}

// TelemetryConfig configures the optional OTLP trace exporter.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Insecure    bool   `json:"insecure,omitempty"`
}

// WorkspaceConfig is the optional .coda.yml at the workspace root.
type WorkspaceConfig struct {
	// TestCommand runs after any successful file-modifying tool call.
	TestCommand string `yaml:"testCommand,omitempty"`
	// MCPServers maps server name to its launch spec.
	MCPServers map[string]MCPServerConfig `yaml:"mcpServers,omitempty"`
	// IncludePaths and ExcludePaths hint search and listing.
	IncludePaths []string `yaml:"includePaths,omitempty"`
	ExcludePaths []string `yaml:"excludePaths,omitempty"`
	// Notes are injected into the system prompt.
	Notes string `yaml:"notes,omitempty"`
	// AllowCommands and DenyCommands extend the safety policy.
	AllowCommands []string `yaml:"allowCommands,omitempty"`
	DenyCommands  []string `yaml:"denyCommands,omitempty"`
}

// MCPServerConfig describes one external tool server.
type MCPServerConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Cwd     string            `yaml:"cwd,omitempty"`
}

// WorkspaceConfigName is the workspace configuration file name.
const WorkspaceConfigName = ".coda.yml"

// StateDir returns the per-user state directory, created on demand.
func StateDir() string {
	if v := os.Getenv("CODA_HOME"); v != "" {
		return v
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "coda")
	_ = os.MkdirAll(dir, 0755)
	return dir
}

// ExpandHome replaces a leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
		return home + path[1:]
	}
	return home
}

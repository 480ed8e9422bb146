package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/coda/internal/config"
	"github.com/nextlevelbuilder/coda/internal/tools"
)

// safeLaunchers are interpreter commands trusted to launch MCP servers
// without confirmation. Anything else prompts, or is skipped when the
// session has no terminal to ask on.
var safeLaunchers = map[string]bool{
	"node": true, "npx": true, "bun": true, "bunx": true, "deno": true,
	"python": true, "python3": true, "uv": true, "uvx": true, "pipx": true,
	"go": true, "docker": true,
}

// ServerStatus reports one server's connection state.
type ServerStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	ToolCount int    `json:"tool_count"`
	Error     string `json:"error,omitempty"`
}

// serverState tracks one connected server.
type serverState struct {
	name      string
	client    *Client
	toolNames []string
	lastErr   string
}

// Manager spawns MCP clients from the workspace configuration, discovers
// their tools, and registers the adapters into the shared registry.
// Registration finishes before the agent loop starts; the registry is
// read-only afterwards.
type Manager struct {
	mu       sync.Mutex
	servers  map[string]*serverState
	registry *tools.Registry
}

func NewManager(registry *tools.Registry) *Manager {
	return &Manager{
		servers:  make(map[string]*serverState),
		registry: registry,
	}
}

// Start connects every configured server. Failures are logged and skipped;
// one broken server never blocks the session.
func (m *Manager) Start(ctx context.Context, configs map[string]config.MCPServerConfig) {
	for name, cfg := range configs {
		if cfg.Command == "" {
			slog.Warn("mcp.server.invalid", "server", name, "reason", "no command")
			continue
		}
		if !m.launcherPermitted(name, cfg.Command) {
			slog.Warn("mcp.server.skipped", "server", name, "command", cfg.Command, "reason", "launcher not confirmed")
			continue
		}

		if err := m.connect(ctx, name, cfg); err != nil {
			slog.Warn("mcp.server.connect_failed", "server", name, "error", err)
		}
	}
}

func (m *Manager) connect(ctx context.Context, name string, cfg config.MCPServerConfig) error {
	client, err := Connect(ctx, name, ServerSpec{
		Command: cfg.Command,
		Args:    cfg.Args,
		Env:     cfg.Env,
		Dir:     cfg.Cwd,
	})
	if err != nil {
		return err
	}

	remoteTools, err := client.ListTools(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("list tools: %w", err)
	}

	ss := &serverState{name: name, client: client}
	for _, remote := range remoteTools {
		bridge := BridgeTool(client, remote)
		if err := m.registry.Register(bridge); err != nil {
			// Collisions are logged and skipped, never fatal.
			slog.Warn("mcp.tool.name_collision", "server", name, "tool", bridge.Def.Name)
			continue
		}
		ss.toolNames = append(ss.toolNames, bridge.Def.Name)
	}

	m.mu.Lock()
	m.servers[name] = ss
	m.mu.Unlock()

	slog.Info("mcp.server.connected", "server", name, "tools", len(ss.toolNames))
	return nil
}

// launcherPermitted applies the launcher allow-list, falling back to an
// interactive confirmation for unknown commands.
func (m *Manager) launcherPermitted(server, command string) bool {
	if safeLaunchers[command] {
		return true
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false
	}

	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("MCP server %q wants to run %q, which is not a known interpreter. Launch it?", server, command)).
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false
	}
	return confirmed
}

// Stop disconnects all clients in parallel and unregisters their tools.
func (m *Manager) Stop() {
	m.mu.Lock()
	servers := m.servers
	m.servers = make(map[string]*serverState)
	m.mu.Unlock()

	var g errgroup.Group
	for _, ss := range servers {
		g.Go(ss.client.Close)
		for _, toolName := range ss.toolNames {
			m.registry.Unregister(toolName)
		}
	}
	if err := g.Wait(); err != nil {
		slog.Debug("mcp.shutdown", "error", err)
	}
}

// Status reports all connected servers.
func (m *Manager) Status() []ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]ServerStatus, 0, len(m.servers))
	for _, ss := range m.servers {
		statuses = append(statuses, ServerStatus{
			Name:      ss.name,
			Connected: true,
			ToolCount: len(ss.toolNames),
			Error:     ss.lastErr,
		})
	}
	return statuses
}

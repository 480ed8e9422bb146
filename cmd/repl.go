package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/nextlevelbuilder/coda/internal/agent"
	"github.com/nextlevelbuilder/coda/internal/config"
	"github.com/nextlevelbuilder/coda/internal/mcp"
	"github.com/nextlevelbuilder/coda/internal/providers"
	"github.com/nextlevelbuilder/coda/internal/runner"
	"github.com/nextlevelbuilder/coda/internal/safety"
	"github.com/nextlevelbuilder/coda/internal/session"
	"github.com/nextlevelbuilder/coda/internal/telemetry"
	"github.com/nextlevelbuilder/coda/internal/tools"
	"github.com/nextlevelbuilder/coda/internal/workspace"

	"github.com/google/uuid"
)

// runREPL wires the whole runtime and drives the interactive loop.
func runREPL() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root := config.ExpandHome(cfg.Workspace)
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}

	mode := safety.ParseMode(cfg.Mode)

	wsCfg, err := config.LoadWorkspace(root)
	if err != nil {
		return err
	}
	var wsMu sync.RWMutex
	currentWs := wsCfg
	stopWatch, watchErr := config.WatchWorkspace(root, func(updated *config.WorkspaceConfig) {
		wsMu.Lock()
		currentWs = updated
		wsMu.Unlock()
	})
	if watchErr == nil {
		defer stopWatch()
	}
	wsConfig := func() *config.WorkspaceConfig {
		wsMu.RLock()
		defer wsMu.RUnlock()
		return currentWs
	}

	policy := safety.NewPolicy(mode)
	policy.AllowCommands = wsCfg.AllowCommands
	policy.DenyCommands = append(policy.DenyCommands, wsCfg.DenyCommands...)

	registry := tools.NewRegistry()
	backups := workspace.NewBackupStore()
	run := runner.New(policy)
	if err := tools.RegisterBuiltins(registry, root, backups, run); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, cfg.Telemetry)
	defer shutdownTelemetry(context.Background())

	// MCP discovery happens before the loop starts; the registry is
	// read-only afterwards.
	mcpManager := mcp.NewManager(registry)
	mcpManager.Start(ctx, wsCfg.MCPServers)
	defer mcpManager.Stop()

	provider := buildProvider(cfg)
	executor := tools.NewExecutor(registry, mode, root, tools.NewInteractiveApprover())
	sessions := session.NewManager(filepath.Join(config.StateDir(), "sessions"))
	history := session.NewHistory(config.StateDir())

	loop := agent.NewLoop(agent.LoopConfig{
		Provider:          provider,
		Registry:          registry,
		Executor:          executor,
		Sessions:          sessions,
		Backups:           backups,
		WorkspaceRoot:     root,
		WorkspaceCfg:      wsConfig,
		ContextWindow:     cfg.ContextWindow,
		MaxIterations:     cfg.MaxIterations,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Stream:            true,
		OnChunk:           func(s string) { fmt.Print(s) },
	})

	sessionID := uuid.NewString()
	fmt.Printf("coda %s — workspace %s, mode %s (%d tools)\n", Version, root, mode, len(registry.Names()))
	fmt.Println(`Type a request, or "exit" to quit.`)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		history.Add(line)

		result, err := loop.Run(ctx, sessionID, line)
		if err != nil {
			if errors.Is(err, tools.ErrSessionQuit) {
				fmt.Println("\nSession ended.")
				return nil
			}
			if ctx.Err() != nil {
				fmt.Println("\nInterrupted.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		// The answer already streamed through OnChunk; just close the line.
		if result.Iterations > 0 {
			fmt.Println()
		}
	}

	return nil
}

// buildProvider constructs the configured LLM transport.
func buildProvider(cfg *config.Config) providers.Provider {
	p := providers.NewOpenAIProvider(
		cfg.Provider.Name,
		cfg.Provider.APIKey,
		cfg.Provider.APIBase,
		cfg.Provider.Model,
	)
	if os.Getenv("CODA_DEBUG") != "" {
		p = p.WithDebugLog(filepath.Join(config.StateDir(), "debug", "llm-response.log"))
	}
	return p
}

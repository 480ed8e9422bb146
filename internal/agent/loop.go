// Package agent drives the LLM-to-tool iteration loop: streaming extraction,
// transcript management, auto-compression, stop conditions, and the
// post-write test hook.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/coda/internal/config"
	"github.com/nextlevelbuilder/coda/internal/providers"
	"github.com/nextlevelbuilder/coda/internal/safety"
	"github.com/nextlevelbuilder/coda/internal/session"
	"github.com/nextlevelbuilder/coda/internal/telemetry"
	"github.com/nextlevelbuilder/coda/internal/tools"
	"github.com/nextlevelbuilder/coda/internal/workspace"
)

const (
	defaultMaxIterations = 100
	// maxConsecutiveFailures ends the turn when one tool keeps failing.
	maxConsecutiveFailures = 3
	// testCommandTimeout bounds the post-write test hook.
	testCommandTimeout = 60 * time.Second
)

// fileWritingTools trigger the workspace test command on success.
var fileWritingTools = map[string]bool{
	"write_file": true,
	"apply_diff": true,
}

// Loop is the orchestrator for one interactive session.
type Loop struct {
	provider providers.Provider
	registry *tools.Registry
	parser   *tools.Parser
	executor *tools.Executor
	sessions *session.Manager
	backups  *workspace.BackupStore

	workspaceRoot string
	wsConfig      func() *config.WorkspaceConfig // current (live-reloaded) workspace config
	contextWindow int
	maxIterations int
	autoCompress  bool
	limiter       *rate.Limiter
	stream        bool
	onChunk       func(string) // display callback for non-suppressed text
}

// LoopConfig configures a new Loop.
type LoopConfig struct {
	Provider      providers.Provider
	Registry      *tools.Registry
	Executor      *tools.Executor
	Sessions      *session.Manager
	Backups       *workspace.BackupStore
	WorkspaceRoot string
	WorkspaceCfg  func() *config.WorkspaceConfig
	ContextWindow int
	MaxIterations int
	RequestsPerMinute int
	Stream        bool
	OnChunk       func(string)
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.MaxIterations > 1000 {
		slog.Warn("max_iterations is unusually high", "max_iterations", cfg.MaxIterations)
	}
	if cfg.WorkspaceCfg == nil {
		empty := &config.WorkspaceConfig{}
		cfg.WorkspaceCfg = func() *config.WorkspaceConfig { return empty }
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	return &Loop{
		provider:      cfg.Provider,
		registry:      cfg.Registry,
		parser:        tools.NewParser(cfg.Registry),
		executor:      cfg.Executor,
		sessions:      cfg.Sessions,
		backups:       cfg.Backups,
		workspaceRoot: cfg.WorkspaceRoot,
		wsConfig:      cfg.WorkspaceCfg,
		contextWindow: cfg.ContextWindow,
		maxIterations: cfg.MaxIterations,
		autoCompress:  true,
		limiter:       limiter,
		stream:        cfg.Stream,
		onChunk:       cfg.OnChunk,
	}
}

// RunResult is the outcome of one completed turn.
type RunResult struct {
	Content    string
	RunID      string
	Iterations int
}

// Run processes one user message: iterate LLM calls and tool execution until
// the model stops calling tools or a stop condition fires.
func (l *Loop) Run(ctx context.Context, sessionID, userMessage string) (*RunResult, error) {
	runID := uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, "agent.run",
		attribute.String("run.id", runID),
		attribute.String("session.id", sessionID),
	)
	defer span.End()

	transcript := l.sessions.Transcript(sessionID)
	if len(transcript) == 0 {
		l.sessions.GetOrCreate(sessionID)
		transcript = []providers.Message{{
			Role:    "system",
			Content: buildSystemPrompt(l.workspaceRoot, l.wsConfig().Notes, l.registry),
		}}
	}
	transcript = append(transcript, providers.Message{Role: "user", Content: userMessage})

	var finalContent string
	iterations := 0
	failStreak := 0
	failTool := ""

	defer func() {
		l.sessions.SetTranscript(sessionID, transcript)
		l.sessions.UpdateMetadata(sessionID, l.provider.DefaultModel(), l.provider.Name(), l.workspaceRoot)
		if err := l.sessions.Save(sessionID); err != nil {
			slog.Warn("session save failed", "session", sessionID, "error", err)
		}
	}()

	for iterations < l.maxIterations {
		// Cancellation is detectable between iterations.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		// Housekeeping the orchestrator owns: expire old backups.
		l.backups.Sweep()

		if l.autoCompress && needsCompression(transcript, l.contextWindow) {
			transcript = compressTranscript(transcript)
			l.sessions.IncrementCompaction(sessionID)
		}

		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		response, err := l.callModel(ctx, transcript, iterations)
		if err != nil && response == "" {
			return nil, fmt.Errorf("LLM call failed (iteration %d): %w", iterations, err)
		}
		if err != nil {
			// Interrupted stream: the partial response is still parsed.
			slog.Warn("model stream interrupted, using partial response", "error", err)
		}

		calls, text := l.parser.Parse(response)
		transcript = append(transcript, providers.Message{Role: "assistant", Content: response})
		l.sessions.AccumulateTokens(sessionID, int64(EstimateTokens(transcript)), int64(EstimateText(response)))

		if len(calls) == 0 {
			finalContent = text
			break
		}

		var resultEntries []string
		wroteFiles := false
		terminated := false

		for _, call := range calls {
			result, err := l.executeCall(ctx, call)
			if err != nil {
				return nil, err
			}

			resultEntries = append(resultEntries, fmt.Sprintf("[%s]\n%s", call.Tool, result.Text()))

			if result.IsError {
				if call.Tool == failTool {
					failStreak++
				} else {
					failTool = call.Tool
					failStreak = 1
				}
				if failStreak >= maxConsecutiveFailures {
					finalContent = fmt.Sprintf(
						"Stopping: the %s tool failed %d times in a row (last error: %s). Try a different approach, check the path or arguments, or inspect the workspace state first.",
						failTool, failStreak, result.Err,
					)
					l.display(finalContent)
					terminated = true
					break
				}
			} else {
				failStreak = 0
				failTool = ""
				if fileWritingTools[call.Tool] {
					wroteFiles = true
				}
			}
		}

		if terminated {
			break
		}

		if wroteFiles {
			if testCmd := l.wsConfig().TestCommand; testCmd != "" {
				resultEntries = append(resultEntries, l.runTestCommand(ctx, testCmd))
			}
		}

		transcript = append(transcript, providers.Message{
			Role:    "user",
			Content: resultsMessage(resultEntries),
		})

		// Dry-run sessions stop after a single iteration.
		if l.executor.Mode() == safety.ModeDryRun {
			finalContent = text
			break
		}
	}

	if finalContent == "" && iterations >= l.maxIterations {
		slog.Warn("max iterations reached", "session", sessionID, "iterations", iterations)
		finalContent = fmt.Sprintf("Stopping: reached the iteration limit (%d) without a final answer.", l.maxIterations)
		l.display(finalContent)
	}

	return &RunResult{
		Content:    finalContent,
		RunID:      runID,
		Iterations: iterations,
	}, nil
}

// callModel performs one LLM request, with <action>-block suppression on the
// streamed display path.
func (l *Loop) callModel(ctx context.Context, transcript []providers.Message, iteration int) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "agent.llm",
		attribute.Int("iteration", iteration),
		attribute.Int("messages", len(transcript)),
	)
	defer span.End()

	req := providers.ChatRequest{
		Messages: transcript,
		Tools:    l.registry.ProviderDefs(),
		Options: map[string]interface{}{
			providers.OptMaxTokens:   8192,
			providers.OptTemperature: 0.7,
		},
	}

	if !l.stream {
		return l.provider.Chat(ctx, req)
	}

	filter := NewActionFilter(l.onChunk)
	response, err := l.provider.ChatStream(ctx, req, filter.Feed)
	filter.Flush()
	return response, err
}

// executeCall dispatches one tool call through the executor with a span.
func (l *Loop) executeCall(ctx context.Context, call tools.Call) (*tools.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "agent.tool",
		attribute.String("tool.name", call.Tool),
	)
	defer span.End()

	slog.Info("tool call", "tool", call.Tool)
	result, err := l.executor.Execute(ctx, call)
	if err != nil {
		return nil, err
	}

	if result.IsError {
		span.SetAttributes(attribute.String("tool.error", string(result.Kind)))
		slog.Warn("tool error", "tool", call.Tool, "kind", result.Kind, "error", truncateStr(result.Err, 200))
	}
	return result, nil
}

// runTestCommand executes the workspace testCommand after a successful
// file-modifying call. The command comes from the user's own configuration,
// so it runs through the platform shell rather than the argument filter.
func (l *Loop) runTestCommand(ctx context.Context, testCmd string) string {
	ctx, cancel := context.WithTimeout(ctx, testCommandTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd.exe", "/c", testCmd)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", testCmd)
	}
	cmd.Dir = l.workspaceRoot

	output, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("[testCommand]\ntimed out after %s: %s", testCommandTimeout, testCmd)
	}

	tail := strings.TrimSpace(string(output))
	if len(tail) > 2000 {
		tail = "..." + tail[len(tail)-2000:]
	}
	return fmt.Sprintf("[testCommand]\nexitCode:%d\n%s", exitCode, tail)
}

// display forwards orchestrator-synthesized text (stop-condition notices) to
// the same rendering path streamed model text uses.
func (l *Loop) display(s string) {
	if l.onChunk != nil && s != "" {
		l.onChunk("\n" + s)
	}
}

func truncateStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

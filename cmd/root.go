package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/coda/internal/config"
)

// Version is set at build time via -ldflags "-X github.com/nextlevelbuilder/coda/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile   string
	flagMode  string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "coda",
	Short: "coda — interactive CLI coding agent",
	Long:  "coda drives an LLM through a tool-calling loop that reads, writes, patches, and executes code inside a single workspace, under a configurable safety policy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <state dir>/config.json or $CODA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "safety mode: dry-run, review, auto-apply")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(modelsCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("coda %s\n", Version)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("CODA_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(config.StateDir(), "config.json")
}

// loadConfig reads the user config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	if flagMode != "" {
		cfg.Mode = flagMode
	}
	if verbose {
		cfg.Verbose = true
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

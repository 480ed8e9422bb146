package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/coda/internal/config"
	"github.com/nextlevelbuilder/coda/internal/workspace"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, workspace, and MCP server table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			check := func(label string, ok bool, detail string) {
				status := "ok"
				if !ok {
					status = "FAIL"
				}
				fmt.Printf("%-28s %-5s %s\n", label, status, detail)
			}

			check("config file", true, resolveConfigPath())
			check("api key", cfg.Provider.APIKey != "", "set CODA_API_KEY if missing")
			check("provider", true, fmt.Sprintf("%s (%s)", cfg.Provider.Name, cfg.Provider.Model))
			check("safety mode", true, cfg.Mode)

			root := config.ExpandHome(cfg.Workspace)
			if root == "" {
				root, _ = os.Getwd()
			}
			info, statErr := os.Stat(root)
			check("workspace", statErr == nil && info.IsDir(), root)

			wsCfg, wsErr := config.LoadWorkspace(root)
			if wsErr != nil {
				check("workspace config", false, wsErr.Error())
			} else {
				detail := "no " + config.WorkspaceConfigName
				if wsCfg.TestCommand != "" || len(wsCfg.MCPServers) > 0 || wsCfg.Notes != "" {
					detail = fmt.Sprintf("testCommand=%q, %d mcp servers", wsCfg.TestCommand, len(wsCfg.MCPServers))
				}
				check("workspace config", true, detail)
				for name, srv := range wsCfg.MCPServers {
					check("  mcp:"+name, srv.Command != "", srv.Command)
				}
			}

			stateDir := config.StateDir()
			check("state dir", true, stateDir)
			check("sessions dir", true, filepath.Join(stateDir, "sessions"))

			if statErr == nil {
				graph, gErr := workspace.BuildDepGraph(root)
				if gErr == nil {
					check("import graph", true, fmt.Sprintf("%d source files analyzed", len(graph.Nodes)))
				}
			}

			return nil
		},
	}
}

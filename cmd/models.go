package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available at the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			provider := buildProvider(cfg)
			models, err := provider.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}

			for _, m := range models {
				marker := "  "
				if m == cfg.Provider.Model {
					marker = "* "
				}
				fmt.Println(marker + m)
			}
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/internal/audit"
	"github.com/deskhand/deskhand/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run config and setup diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}

		problems := config.Validate(cfg)
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "[FAIL] %s\n", p)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[PASS] model: %s\n", cfg.Model.Name)
		if cfg.Tools.MCP.URL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "[PASS] MCP server: %s\n", cfg.Tools.MCP.URL)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "[WARN] no MCP server configured, agent runs without tools")
		}

		if cfg.Audit.Enabled {
			path, err := config.ExpandPath(cfg.Audit.Path)
			if err != nil {
				return err
			}
			svc, err := audit.NewService(path)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "[FAIL] audit db: %v\n", err)
			} else {
				n, countErr := svc.ToolCallCount(context.Background())
				svc.Close()
				if countErr != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "[FAIL] audit db: %v\n", countErr)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "[PASS] audit db: %s (%d tool calls recorded)\n", path, n)
				}
			}
		}

		if len(problems) > 0 {
			return fmt.Errorf("doctor found %d failing check(s)", len(problems))
		}
		return nil
	},
}

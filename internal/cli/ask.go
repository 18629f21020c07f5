package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/internal/agent"
	"github.com/deskhand/deskhand/internal/approval"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/mcp"
	"github.com/deskhand/deskhand/internal/provider"
	"github.com/deskhand/deskhand/internal/tools"
)

var askMessage string

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the agent a single question from the terminal",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMessage, "message", "m", "", "Message to send to the agent")
}

// runAsk runs one conversation locally. Tool approvals that would pause a
// Slack thread prompt on stdin instead; the continuation path is the same
// either way.
func runAsk(cmd *cobra.Command, args []string) error {
	if askMessage == "" {
		return fmt.Errorf("--message is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	prov, err := provider.Resolve(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	registry := tools.NewRegistry()
	if cfg.Tools.MCP.URL != "" {
		client, err := mcp.NewClient(mcp.Config{
			URL:         cfg.Tools.MCP.URL,
			BearerToken: cfg.Tools.MCP.BearerToken,
			Timeout:     cfg.Tools.MCP.Timeout,
		})
		if err != nil {
			return err
		}
		if _, err := mcp.RegisterTools(ctx, client, registry); err != nil {
			return fmt.Errorf("MCP connection failed: %w", err)
		}
	}

	loop := agent.NewLoop(prov, registry, approval.NewGate(), nil, agent.Config{
		Model:         cfg.Model.Name,
		SystemPrompt:  cfg.Model.SystemPrompt,
		MaxTokens:     cfg.Model.MaxTokens,
		Temperature:   cfg.Model.Temperature,
		MaxIterations: cfg.Model.MaxToolIterations,
	})

	fmt.Printf("deskhand (%s)\n", cfg.Model.Name)

	messages := []provider.Message{{Role: provider.RoleUser, Content: askMessage}}
	reader := bufio.NewReader(os.Stdin)

	for {
		result, err := loop.Run(ctx, messages, func(step int, toolCalls []provider.ToolCall) {
			fmt.Println(agent.FormatToolStatus(toolCalls))
		})
		if err != nil {
			return err
		}
		if !result.Suspended() {
			fmt.Println("\n" + result.Text)
			return nil
		}

		fmt.Println("\n" + approval.FormatPrompt(result.Pending))
		fmt.Print("\nApprove? [y/N] ")
		line, _ := reader.ReadString('\n')
		decision := approval.ParseDecision(line)
		approved := decision.Matched && decision.Approved

		messages = append(messages, approval.ContinuationFrame(result.Pending, approved, decision.Reason)...)
	}
}

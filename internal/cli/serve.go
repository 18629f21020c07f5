package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/internal/agent"
	"github.com/deskhand/deskhand/internal/approval"
	"github.com/deskhand/deskhand/internal/audit"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/conversation"
	"github.com/deskhand/deskhand/internal/mcp"
	"github.com/deskhand/deskhand/internal/provider"
	"github.com/deskhand/deskhand/internal/slackbot"
	"github.com/deskhand/deskhand/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack agent",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	printHeader("DeskHand Slack agent")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if cfg.Slack.BotToken == "" || cfg.Slack.AppToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN and SLACK_APP_TOKEN are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prov, err := provider.Resolve(cfg)
	if err != nil {
		return err
	}

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
		n, err := mcp.RegisterTools(ctx, client, registry)
		if err != nil {
			return fmt.Errorf("MCP connection failed: %w", err)
		}
		slog.Info("MCP tools registered", "count", n, "url", cfg.Tools.MCP.URL)
	} else {
		slog.Info("No MCP server configured, running without tools")
	}

	var auditor *audit.Service
	if cfg.Audit.Enabled {
		path, err := config.ExpandPath(cfg.Audit.Path)
		if err != nil {
			return err
		}
		auditor, err = audit.NewService(path)
		if err != nil {
			return err
		}
		defer auditor.Close()
	}

	var recorder agent.Recorder
	if auditor != nil {
		recorder = auditor
	}
	loop := agent.NewLoop(prov, registry, approval.NewGate(), recorder, agent.Config{
		Model:         cfg.Model.Name,
		SystemPrompt:  cfg.Model.SystemPrompt,
		MaxTokens:     cfg.Model.MaxTokens,
		Temperature:   cfg.Model.Temperature,
		MaxIterations: cfg.Model.MaxToolIterations,
	})

	api := slack.New(cfg.Slack.BotToken, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth failed: %w", err)
	}

	builder := conversation.NewBuilder(api, auth.UserID, cfg.Slack.ThreadHistoryLimit, cfg.Slack.ChannelHistoryLimit)
	responder := slackbot.NewResponder(api, builder, loop, auditor)
	gateway := slackbot.NewGateway(api, responder, auth.UserID)

	slog.Info("Starting Slack agent", "model", cfg.Model.Name, "tools", registry.Len())
	return gateway.Run(ctx)
}

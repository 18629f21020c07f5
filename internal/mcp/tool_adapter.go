package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskhand/deskhand/internal/tools"
)

// ToolAdapter exposes one MCP server tool through the local tool
// interface. MCP tool names pass through unchanged so the approval gate's
// name-based exemptions apply to them directly.
type ToolAdapter struct {
	client *Client
	tool   ToolDefinition
}

func NewToolAdapter(client *Client, tool ToolDefinition) *ToolAdapter {
	return &ToolAdapter{client: client, tool: tool}
}

func (t *ToolAdapter) Name() string {
	return t.tool.Name
}

func (t *ToolAdapter) Description() string {
	return t.tool.Description
}

func (t *ToolAdapter) Parameters() map[string]any {
	if t.tool.InputSchema != nil {
		return t.tool.InputSchema
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *ToolAdapter) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	result, err := t.client.CallTool(ctx, t.tool.Name, input)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i, block := range result.Content {
		if block.Type != "text" {
			continue
		}
		if i > 0 && text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(block.Text)
	}

	if result.IsError {
		return "", fmt.Errorf("tool %s failed: %s", t.tool.Name, text.String())
	}
	return text.String(), nil
}

// RegisterTools connects to the server, discovers its tools, and adds an
// adapter per tool to the registry.
func RegisterTools(ctx context.Context, client *Client, registry *tools.Registry) (int, error) {
	if err := client.Initialize(ctx); err != nil {
		return 0, err
	}
	defs, err := client.ListTools(ctx)
	if err != nil {
		return 0, err
	}
	for _, def := range defs {
		registry.Register(NewToolAdapter(client, def))
	}
	return len(defs), nil
}

// Package config provides configuration types and loading for deskhand.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Slack, Model, Providers, Tools, Audit.
type Config struct {
	Slack     SlackConfig     `json:"slack"`
	Model     ModelConfig     `json:"model"`
	Providers ProvidersConfig `json:"providers"`
	Tools     ToolsConfig     `json:"tools"`
	Audit     AuditConfig     `json:"audit"`
}

// ---------------------------------------------------------------------------
// Slack – socket-mode gateway
// ---------------------------------------------------------------------------

// SlackConfig configures the Slack socket-mode gateway.
type SlackConfig struct {
	BotToken string `json:"botToken" envconfig:"SLACK_BOT_TOKEN"`
	AppToken string `json:"appToken" envconfig:"SLACK_APP_TOKEN"`
	// ThreadHistoryLimit bounds conversations.replies fetches.
	ThreadHistoryLimit int `json:"threadHistoryLimit" envconfig:"SLACK_THREAD_HISTORY_LIMIT"`
	// ChannelHistoryLimit bounds conversations.history fetches for
	// non-threaded DMs.
	ChannelHistoryLimit int `json:"channelHistoryLimit" envconfig:"SLACK_CHANNEL_HISTORY_LIMIT"`
}

// ---------------------------------------------------------------------------
// Model – LLM behaviour
// ---------------------------------------------------------------------------

// ModelConfig groups LLM model and agent-loop settings.
type ModelConfig struct {
	Name              string  `json:"name" envconfig:"LLM_MODEL"`
	MaxTokens         int     `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature       float64 `json:"temperature" envconfig:"TEMPERATURE"`
	MaxToolIterations int     `json:"maxToolIterations" envconfig:"MAX_TOOL_ITERATIONS"`
	SystemPrompt      string  `json:"systemPrompt" envconfig:"SYSTEM_PROMPT"`
}

// ---------------------------------------------------------------------------
// Providers – LLM API keys & endpoints
// ---------------------------------------------------------------------------

// ProvidersConfig contains LLM provider configurations.
type ProvidersConfig struct {
	Anthropic ProviderConfig `json:"anthropic"`
	OpenAI    ProviderConfig `json:"openai"`
}

// ProviderConfig contains settings for a single LLM provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" envconfig:"API_KEY"`
	APIBase string `json:"apiBase,omitempty" envconfig:"API_BASE"`
}

// ---------------------------------------------------------------------------
// Tools – remote tool catalogue (MCP)
// ---------------------------------------------------------------------------

// ToolsConfig contains tool-provider settings.
type ToolsConfig struct {
	MCP MCPConfig `json:"mcp"`
}

// MCPConfig configures the MCP tool-server connection.
type MCPConfig struct {
	URL         string        `json:"url" envconfig:"MCP_URL"`
	BearerToken string        `json:"bearerToken" envconfig:"MCP_BEARER_TOKEN"`
	Timeout     time.Duration `json:"timeout" envconfig:"MCP_TIMEOUT"`
}

// ---------------------------------------------------------------------------
// Audit – tool-call audit trail
// ---------------------------------------------------------------------------

// AuditConfig configures the SQLite audit log.
type AuditConfig struct {
	Enabled bool   `json:"enabled" envconfig:"AUDIT_ENABLED"`
	Path    string `json:"path" envconfig:"AUDIT_DB_PATH"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Slack: SlackConfig{
			ThreadHistoryLimit:  150,
			ChannelHistoryLimit: 20,
		},
		Model: ModelConfig{
			Name:              "claude-haiku-4-5",
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 20,
		},
		Tools: ToolsConfig{
			MCP: MCPConfig{
				Timeout: 30 * time.Second,
			},
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "~/.deskhand/audit.db",
		},
	}
}

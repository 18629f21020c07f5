package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".deskhand"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("DESKHAND_CONFIG")); explicit != "" {
		return ExpandPath(explicit)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// ExpandPath resolves a leading "~" against the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // use defaults if we can't find a config path
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Override with environment variables for each group. The empty prefix
	// keeps the conventional names (SLACK_BOT_TOKEN, MCP_URL, ...).
	if err := envconfig.Process("", &cfg.Slack); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Model); err != nil {
		return nil, err
	}
	if err := envconfig.Process("ANTHROPIC", &cfg.Providers.Anthropic); err != nil {
		return nil, err
	}
	if err := envconfig.Process("OPENAI", &cfg.Providers.OpenAI); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Tools.MCP); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Audit); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the config file, creating the directory
// if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports configuration problems that prevent the gateway from
// starting. The CLI doctor command prints these without aborting.
func Validate(cfg *Config) []string {
	var problems []string
	if strings.TrimSpace(cfg.Slack.BotToken) == "" {
		problems = append(problems, "slack.botToken (SLACK_BOT_TOKEN) is not set")
	}
	if strings.TrimSpace(cfg.Slack.AppToken) == "" {
		problems = append(problems, "slack.appToken (SLACK_APP_TOKEN) is not set")
	}
	if strings.TrimSpace(cfg.Providers.Anthropic.APIKey) == "" && strings.TrimSpace(cfg.Providers.OpenAI.APIKey) == "" {
		problems = append(problems, "no LLM API key configured (ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	}
	return problems
}

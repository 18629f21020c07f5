package provider

import (
	"fmt"
	"strings"

	"github.com/deskhand/deskhand/internal/config"
)

// Compatibility endpoints for providers that speak the chat-completions
// wire format.
const (
	anthropicAPIBase = "https://api.anthropic.com/v1"
	openAIAPIBase    = "https://api.openai.com/v1"
)

// Resolve creates the LLMProvider for the given config. An Anthropic key
// takes precedence over an OpenAI key; the configured model name is used
// with whichever provider is selected.
func Resolve(cfg *config.Config) (LLMProvider, error) {
	model := strings.TrimSpace(cfg.Model.Name)
	if key := strings.TrimSpace(cfg.Providers.Anthropic.APIKey); key != "" {
		base := strings.TrimSpace(cfg.Providers.Anthropic.APIBase)
		if base == "" {
			base = anthropicAPIBase
		}
		return NewOpenAIProvider(key, base, model), nil
	}
	if key := strings.TrimSpace(cfg.Providers.OpenAI.APIKey); key != "" {
		base := strings.TrimSpace(cfg.Providers.OpenAI.APIBase)
		if base == "" {
			base = openAIAPIBase
		}
		return NewOpenAIProvider(key, base, model), nil
	}
	return nil, fmt.Errorf("no LLM API key configured: set ANTHROPIC_API_KEY or OPENAI_API_KEY")
}

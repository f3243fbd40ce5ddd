package perception

import (
	"fmt"
	"time"
)

// ProviderConfig selects and configures an LLM provider.
type ProviderConfig struct {
	Provider string // "openai", "gemini", or any OpenAI-compatible name
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewClient builds an LLMClient for the configured provider. Unknown
// providers assume an OpenAI-compatible endpoint, which covers most hosted
// gateways.
func NewClient(cfg ProviderConfig) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %q: API key required", cfg.Provider)
	}

	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return NewChatClient(ChatClientConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	}
}

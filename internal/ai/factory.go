package ai

import (
	"context"
	"fmt"
)

// ProviderConfig selects and configures one provider.
type ProviderConfig struct {
	Name   string // ollama, anthropic or gemini
	Model  string
	Host   string // Ollama only
	APIKey string // Anthropic and Gemini
}

// NewProvider builds the provider named by cfg.Name.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case ProviderOllama, "":
		return NewOllamaProvider(cfg.Host, WithOllamaModel(cfg.Model)), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.Model)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s, %s or %s)",
			cfg.Name, ProviderOllama, ProviderAnthropic, ProviderGemini)
	}
}

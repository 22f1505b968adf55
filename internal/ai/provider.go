package ai

import (
	"context"
	"time"
)

// Provider names accepted by NewProvider and the config layer.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Default models per provider. The Ollama default mirrors the small local
// model the workflows were tuned against.
const (
	DefaultOllamaModel    = "qwen3:1.7b"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.0-flash"

	DefaultOllamaHost = "http://localhost:11434"
	DefaultMaxTokens  = 4096
)

// Request is a single structured-output call to a model.
type Request struct {
	// Operation names the calling step (e.g. "code.review"). Used for
	// logging, usage accounting and error context.
	Operation string

	// Prompt is the fully rendered prompt text.
	Prompt string

	// SchemaName and Schema describe the JSON object the caller expects.
	// Providers that support native structured output pass the schema on;
	// the rest rely on the instruction embedded in Prompt.
	SchemaName string
	Schema     map[string]any

	// Temperature is the per-component sampling temperature.
	Temperature float64

	// MaxTokens caps the response length (0 = provider default)
	MaxTokens int
}

// Response is the raw text a provider returned plus usage data.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Duration     time.Duration
}

// Provider is one model transport (Ollama, Anthropic, Gemini).
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Invoker is the request/response contract every workflow component depends
// on. *Client implements it; tests substitute scripted fakes.
type Invoker interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

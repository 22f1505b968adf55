// Package config loads workflow configuration from defaults, an optional
// YAML file and FLOWS_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/agentflows/internal/ai"
)

// Config is the full workflow configuration.
type Config struct {
	Provider     ProviderConfig    `yaml:"provider"`
	Temperatures TemperatureConfig `yaml:"temperatures"`
	Loop         LoopConfig        `yaml:"loop"`
	Quorum       QuorumConfig      `yaml:"quorum"`
	Limits       LimitsConfig      `yaml:"limits"`
	Pricing      ai.Pricing        `yaml:"pricing"`
}

// ProviderConfig selects the model backend.
type ProviderConfig struct {
	// Name is ollama, anthropic or gemini
	// Default: ollama
	Name string `yaml:"name"`

	// Model overrides the provider's default model
	Model string `yaml:"model,omitempty"`

	// Host is the Ollama base URL
	// Default: http://localhost:11434
	Host string `yaml:"host,omitempty"`

	// APIKey for hosted providers. Usually supplied through the environment
	// rather than the file.
	APIKey string `yaml:"api_key,omitempty"`

	// MaxTokens caps each completion
	// Default: 4096, Range: 1-200000
	MaxTokens int `yaml:"max_tokens"`
}

// TemperatureConfig holds the sampling temperature of every model step.
// Range for each: 0.0-2.0
type TemperatureConfig struct {
	Generator  float64 `yaml:"generator"`
	Reviewer   float64 `yaml:"reviewer"`
	Optimizer  float64 `yaml:"optimizer"`
	Router     float64 `yaml:"router"`
	Classifier float64 `yaml:"classifier"`
	Voter      float64 `yaml:"voter"`
	Copy       float64 `yaml:"copy"`
	Translate  float64 `yaml:"translate"`
}

// LoopConfig configures the generate/review/optimize loop.
type LoopConfig struct {
	// MaxIterations is the default review budget
	// Default: 3, Range: 1-20
	MaxIterations int `yaml:"max_iterations"`
}

// QuorumConfig configures the voting panel.
type QuorumConfig struct {
	// MaxPanelSize bounds the number of personas
	// Default: 9, Range: 1-25
	MaxPanelSize int `yaml:"max_panel_size"`
}

// LimitsConfig maps onto ai.RetryConfig.
type LimitsConfig struct {
	// MaxConcurrentCalls bounds in-flight model calls (0 = unlimited)
	// Default: 4
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`

	// RequestsPerSecond throttles model calls (0 = unlimited)
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// MaxRetries is the number of transport retries per call
	// Default: 0 (a failed call fails the workflow), Range: 0-10
	MaxRetries int `yaml:"max_retries"`

	// InitialBackoff before the first retry
	// Default: 1s
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// Timeout per attempt (0 = none)
	Timeout time.Duration `yaml:"timeout"`

	// CircuitBreaker enables the breaker around the provider
	// Default: true
	CircuitBreaker bool `yaml:"circuit_breaker"`
}

// DefaultConfig returns the built-in configuration. Temperatures match the
// values each workflow was tuned with.
func DefaultConfig() *Config {
	retry := ai.DefaultRetryConfig()
	return &Config{
		Provider: ProviderConfig{
			Name:      ai.ProviderOllama,
			Host:      ai.DefaultOllamaHost,
			MaxTokens: ai.DefaultMaxTokens,
		},
		Temperatures: TemperatureConfig{
			Generator:  0.3,
			Reviewer:   0.1,
			Optimizer:  0.3,
			Router:     0.1,
			Classifier: 0.7,
			Voter:      0.2,
			Copy:       0.8,
			Translate:  0.8,
		},
		Loop: LoopConfig{
			MaxIterations: 3,
		},
		Quorum: QuorumConfig{
			MaxPanelSize: 9,
		},
		Limits: LimitsConfig{
			MaxConcurrentCalls: retry.MaxConcurrentCalls,
			MaxRetries:         retry.MaxRetries,
			InitialBackoff:     retry.InitialBackoff,
			CircuitBreaker:     retry.CircuitBreakerEnabled,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then environment overrides. The result
// is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SaveDefault writes the default configuration to path.
func SaveDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
//
// Environment variables:
//   - FLOWS_PROVIDER, FLOWS_MODEL, FLOWS_HOST, FLOWS_API_KEY
//   - FLOWS_MAX_TOKENS
//   - FLOWS_MAX_ITERATIONS
//   - FLOWS_QUORUM_MAX_PANEL
//   - FLOWS_MAX_CONCURRENT, FLOWS_RPS, FLOWS_MAX_RETRIES, FLOWS_TIMEOUT
//   - FLOWS_CIRCUIT_BREAKER
//   - ANTHROPIC_API_KEY / GEMINI_API_KEY when FLOWS_API_KEY is unset and
//     the matching provider is selected
//
// Returns an error if any variable has an invalid value.
func (c *Config) ApplyEnv() error {
	if err := parseEnvString("FLOWS_PROVIDER", &c.Provider.Name); err != nil {
		return err
	}
	if err := parseEnvString("FLOWS_MODEL", &c.Provider.Model); err != nil {
		return err
	}
	if err := parseEnvString("FLOWS_HOST", &c.Provider.Host); err != nil {
		return err
	}
	if err := parseEnvString("FLOWS_API_KEY", &c.Provider.APIKey); err != nil {
		return err
	}
	if err := parseEnvInt("FLOWS_MAX_TOKENS", &c.Provider.MaxTokens); err != nil {
		return err
	}
	if err := parseEnvInt("FLOWS_MAX_ITERATIONS", &c.Loop.MaxIterations); err != nil {
		return err
	}
	if err := parseEnvInt("FLOWS_QUORUM_MAX_PANEL", &c.Quorum.MaxPanelSize); err != nil {
		return err
	}
	if err := parseEnvInt("FLOWS_MAX_CONCURRENT", &c.Limits.MaxConcurrentCalls); err != nil {
		return err
	}
	if err := parseEnvFloat("FLOWS_RPS", &c.Limits.RequestsPerSecond); err != nil {
		return err
	}
	if err := parseEnvInt("FLOWS_MAX_RETRIES", &c.Limits.MaxRetries); err != nil {
		return err
	}
	if err := parseEnvDuration("FLOWS_TIMEOUT", &c.Limits.Timeout); err != nil {
		return err
	}
	if err := parseEnvBool("FLOWS_CIRCUIT_BREAKER", &c.Limits.CircuitBreaker); err != nil {
		return err
	}

	c.ResolveAPIKey()
	return nil
}

// ResolveAPIKey fills an empty API key from the selected provider's own
// environment variable.
func (c *Config) ResolveAPIKey() {
	if c.Provider.APIKey != "" {
		return
	}
	switch c.Provider.Name {
	case ai.ProviderAnthropic:
		c.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case ai.ProviderGemini:
		c.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ai.ProviderOllama:
		if c.Provider.Host == "" {
			return fmt.Errorf("provider.host is required for ollama")
		}
	case ai.ProviderAnthropic, ai.ProviderGemini:
		// API key presence is checked when the provider is built so that
		// offline commands still load.
	default:
		return fmt.Errorf("provider.name must be ollama, anthropic or gemini (got %q)", c.Provider.Name)
	}

	if c.Provider.MaxTokens < 1 || c.Provider.MaxTokens > 200000 {
		return fmt.Errorf("provider.max_tokens must be between 1 and 200000 (got %d)", c.Provider.MaxTokens)
	}

	temps := []struct {
		name  string
		value float64
	}{
		{"generator", c.Temperatures.Generator},
		{"reviewer", c.Temperatures.Reviewer},
		{"optimizer", c.Temperatures.Optimizer},
		{"router", c.Temperatures.Router},
		{"classifier", c.Temperatures.Classifier},
		{"voter", c.Temperatures.Voter},
		{"copy", c.Temperatures.Copy},
		{"translate", c.Temperatures.Translate},
	}
	for _, t := range temps {
		if t.value < 0 || t.value > 2 {
			return fmt.Errorf("temperatures.%s must be between 0 and 2 (got %g)", t.name, t.value)
		}
	}

	if c.Loop.MaxIterations < 1 || c.Loop.MaxIterations > 20 {
		return fmt.Errorf("loop.max_iterations must be between 1 and 20 (got %d)", c.Loop.MaxIterations)
	}

	if c.Quorum.MaxPanelSize < 1 || c.Quorum.MaxPanelSize > 25 {
		return fmt.Errorf("quorum.max_panel_size must be between 1 and 25 (got %d)", c.Quorum.MaxPanelSize)
	}

	if c.Limits.MaxConcurrentCalls < 0 {
		return fmt.Errorf("limits.max_concurrent_calls cannot be negative (got %d)", c.Limits.MaxConcurrentCalls)
	}
	if c.Limits.RequestsPerSecond < 0 {
		return fmt.Errorf("limits.requests_per_second cannot be negative (got %g)", c.Limits.RequestsPerSecond)
	}
	if c.Limits.MaxRetries < 0 || c.Limits.MaxRetries > 10 {
		return fmt.Errorf("limits.max_retries must be between 0 and 10 (got %d)", c.Limits.MaxRetries)
	}
	if c.Limits.InitialBackoff < 0 || c.Limits.Timeout < 0 {
		return fmt.Errorf("limits durations cannot be negative")
	}

	if c.Pricing.InputPerMillion < 0 || c.Pricing.OutputPerMillion < 0 {
		return fmt.Errorf("pricing rates cannot be negative")
	}

	return nil
}

// ProviderSettings converts the provider section for ai.NewProvider.
func (c *Config) ProviderSettings() ai.ProviderConfig {
	return ai.ProviderConfig{
		Name:   c.Provider.Name,
		Model:  c.Provider.Model,
		Host:   c.Provider.Host,
		APIKey: c.Provider.APIKey,
	}
}

// RetryConfig converts the limits section for ai.NewClient.
func (c *Config) RetryConfig() ai.RetryConfig {
	retry := ai.DefaultRetryConfig()
	retry.MaxConcurrentCalls = c.Limits.MaxConcurrentCalls
	retry.RequestsPerSecond = c.Limits.RequestsPerSecond
	retry.MaxRetries = c.Limits.MaxRetries
	retry.Timeout = c.Limits.Timeout
	retry.CircuitBreakerEnabled = c.Limits.CircuitBreaker
	if c.Limits.InitialBackoff > 0 {
		retry.InitialBackoff = c.Limits.InitialBackoff
	}
	return retry
}

// String returns a human-readable representation of the config. The API key
// is never printed.
func (c *Config) String() string {
	key := "unset"
	if c.Provider.APIKey != "" {
		key = "set"
	}
	return fmt.Sprintf(
		"Config{Provider: %s, Model: %q, Host: %s, APIKey: %s, MaxTokens: %d, "+
			"MaxIterations: %d, MaxPanel: %d, Concurrency: %d, RPS: %g, Retries: %d}",
		c.Provider.Name, c.Provider.Model, c.Provider.Host, key, c.Provider.MaxTokens,
		c.Loop.MaxIterations, c.Quorum.MaxPanelSize, c.Limits.MaxConcurrentCalls,
		c.Limits.RequestsPerSecond, c.Limits.MaxRetries,
	)
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}

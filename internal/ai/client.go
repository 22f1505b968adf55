// Package ai is the boundary between the workflows and a generative model.
//
// Workflows depend on Invoker and call Invoke[T] for schema-checked
// structured output. Client wraps a Provider (Ollama, Anthropic or Gemini)
// with a circuit breaker, a concurrency limit, an optional rate limit and
// usage accounting.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Client is the Invoker used by every workflow in production.
type Client struct {
	provider       Provider
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted
	limiter        *rate.Limiter
	usage          *UsageTracker
	logger         *slog.Logger
}

var _ Invoker = (*Client)(nil)

// ClientConfig holds client configuration
type ClientConfig struct {
	Provider Provider     // Required
	Retry    *RetryConfig // nil = DefaultRetryConfig()
	Usage    *UsageTracker
	Logger   *slog.Logger
}

// NewClient wraps a provider.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	if retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be non-negative (got %d)", retry.MaxRetries)
	}
	if retry.BackoffMultiplier < 1 {
		retry.BackoffMultiplier = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	usage := cfg.Usage
	if usage == nil {
		usage = NewUsageTracker(Pricing{})
	}

	c := &Client{
		provider: cfg.Provider,
		retry:    retry,
		usage:    usage,
		logger:   logger,
	}

	if retry.CircuitBreakerEnabled {
		c.circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout, logger)
	}
	if retry.MaxConcurrentCalls > 0 {
		c.concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}
	if retry.RequestsPerSecond > 0 {
		burst := retry.MaxConcurrentCalls
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(retry.RequestsPerSecond), burst)
	}

	logger.Debug("model client initialized",
		"provider", cfg.Provider.Name(),
		"max_retries", retry.MaxRetries,
		"circuit_breaker", retry.CircuitBreakerEnabled,
		"max_concurrent", retry.MaxConcurrentCalls,
		"requests_per_second", retry.RequestsPerSecond)

	return c, nil
}

// Complete sends one request to the provider. Every failure is returned as
// *TransportError.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	var resp *Response
	err := c.retryWithBackoff(ctx, req.Operation, func(attemptCtx context.Context) error {
		r, callErr := c.provider.Complete(attemptCtx, req)
		if callErr != nil {
			return callErr
		}
		resp = r
		return nil
	})
	if err != nil {
		c.logger.Debug("model call failed",
			"operation", req.Operation,
			"provider", c.provider.Name(),
			"duration", time.Since(start),
			"error", err)
		return nil, &TransportError{Operation: req.Operation, Provider: c.provider.Name(), Err: err}
	}

	if resp.Duration == 0 {
		resp.Duration = time.Since(start)
	}
	c.usage.Record(req.Operation, resp.InputTokens, resp.OutputTokens, resp.Duration)

	c.logger.Debug("model call completed",
		"operation", req.Operation,
		"provider", c.provider.Name(),
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"duration", resp.Duration)

	return resp, nil
}

// Usage returns the client's usage tracker.
func (c *Client) Usage() *UsageTracker {
	return c.usage
}

// ProviderName returns the wrapped provider's name.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// CircuitState reports the breaker state, or CircuitClosed when disabled.
func (c *Client) CircuitState() CircuitState {
	if c.circuitBreaker == nil {
		return CircuitClosed
	}
	return c.circuitBreaker.GetState()
}

// IsCircuitOpen reports whether err came from an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// Package chain runs a two-stage prompt chain with a deterministic gate
// between the stages: marketing copy is generated for a product, checked in
// code, and only copy that passes is translated into the target language.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/prompts"
)

const (
	DefaultCopyTemperature      = 0.8
	DefaultTranslateTemperature = 0.8
	DefaultLanguage             = "Spanish"
)

// Request is the chain input.
type Request struct {
	Product  string
	Language string
}

// MarketingCopy is the first stage output.
type MarketingCopy struct {
	Headline     string `json:"headline" jsonschema:"description=Catchy headline"`
	Body         string `json:"body" jsonschema:"description=Marketing copy body"`
	CallToAction string `json:"call_to_action" jsonschema:"description=Call to action"`
}

// TranslatedCopy is the second stage output.
type TranslatedCopy struct {
	Headline     string `json:"translated_headline" jsonschema:"description=Translated headline"`
	Body         string `json:"translated_body" jsonschema:"description=Translated body"`
	CallToAction string `json:"translated_cta" jsonschema:"description=Translated call to action"`
}

// Result holds both stages.
type Result struct {
	Request     Request
	Copy        *MarketingCopy
	Translation *TranslatedCopy
	Elapsed     time.Duration
}

// Options configures a Chain.
type Options struct {
	CopyTemperature      float64
	TranslateTemperature float64
	MaxTokens            int
	Checks               []Check
	Logger               *slog.Logger
}

// Chain is a copy -> gate -> translate pipeline.
type Chain struct {
	inv    ai.Invoker
	opts   Options
	logger *slog.Logger
}

// New creates a chain. Nil Checks selects DefaultChecks.
func New(inv ai.Invoker, opts Options) *Chain {
	if opts.Checks == nil {
		opts.Checks = DefaultChecks()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{inv: inv, opts: opts, logger: logger}
}

// Run executes both stages. When the gate rejects the copy Run returns
// *GateValidationError and the translation stage is never invoked.
func (c *Chain) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Product) == "" {
		return nil, fmt.Errorf("product cannot be empty")
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = DefaultLanguage
	}

	start := time.Now()

	mc, err := c.copy(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("copy stage: %w", err)
	}

	if err := Validate(mc, c.opts.Checks); err != nil {
		c.logger.Warn("marketing copy rejected by gate", "product", req.Product, "error", err)
		return nil, err
	}
	c.logger.Info("marketing copy passed gate", "headline", mc.Headline)

	tc, err := c.translate(ctx, req, mc)
	if err != nil {
		return nil, fmt.Errorf("translation stage: %w", err)
	}

	result := &Result{
		Request:     req,
		Copy:        mc,
		Translation: tc,
		Elapsed:     time.Since(start),
	}
	c.logger.Info("chain complete", "product", req.Product, "language", req.Language, "duration", result.Elapsed)
	return result, nil
}

func (c *Chain) copy(ctx context.Context, req Request) (*MarketingCopy, error) {
	prompt, err := prompts.Render(prompts.ChainCopy, map[string]string{
		"product": req.Product,
	})
	if err != nil {
		return nil, err
	}
	return ai.Invoke[MarketingCopy](ctx, c.inv, ai.Call{
		Operation:   prompts.ChainCopy,
		Prompt:      prompt,
		Temperature: c.opts.CopyTemperature,
		MaxTokens:   c.opts.MaxTokens,
	})
}

func (c *Chain) translate(ctx context.Context, req Request, mc *MarketingCopy) (*TranslatedCopy, error) {
	prompt, err := prompts.Render(prompts.ChainTranslate, map[string]string{
		"headline": mc.Headline,
		"body":     mc.Body,
		"cta":      mc.CallToAction,
		"language": req.Language,
	})
	if err != nil {
		return nil, err
	}
	return ai.Invoke[TranslatedCopy](ctx, c.inv, ai.Call{
		Operation:   prompts.ChainTranslate,
		Prompt:      prompt,
		Temperature: c.opts.TranslateTemperature,
		MaxTokens:   c.opts.MaxTokens,
	})
}

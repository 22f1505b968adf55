// Package workflows assembles every workflow over one shared model client
// from a loaded configuration.
package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/chain"
	"github.com/steveyegge/agentflows/internal/classify"
	"github.com/steveyegge/agentflows/internal/coder"
	"github.com/steveyegge/agentflows/internal/config"
	"github.com/steveyegge/agentflows/internal/iterative"
	"github.com/steveyegge/agentflows/internal/quorum"
	"github.com/steveyegge/agentflows/internal/routing"
)

// Set holds one instance of each workflow. All of them share Client, so
// concurrency limits and usage totals are process-wide.
type Set struct {
	Client     *ai.Client
	Loop       *iterative.Controller
	Metrics    *iterative.InMemoryMetricsCollector
	Router     *routing.Router
	Classifier *classify.Classifier
	Voter      *quorum.Voter
	Chain      *chain.Chain

	MaxIterations int
}

// Build creates the provider named in cfg and wires every workflow over it.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Set, error) {
	provider, err := ai.NewProvider(ctx, cfg.ProviderSettings())
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	return BuildWithProvider(provider, cfg, logger)
}

// BuildWithProvider wires every workflow over an already constructed
// provider.
func BuildWithProvider(provider ai.Provider, cfg *config.Config, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	retry := cfg.RetryConfig()
	client, err := ai.NewClient(ai.ClientConfig{
		Provider: provider,
		Retry:    &retry,
		Usage:    ai.NewUsageTracker(cfg.Pricing),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	t := cfg.Temperatures
	maxTokens := cfg.Provider.MaxTokens

	metrics := iterative.NewInMemoryMetricsCollector()
	roles := coder.NewRoles(client,
		coder.Settings{Temperature: t.Generator, MaxTokens: maxTokens},
		coder.Settings{Temperature: t.Reviewer, MaxTokens: maxTokens},
		coder.Settings{Temperature: t.Optimizer, MaxTokens: maxTokens},
		logger)

	voter, err := quorum.New(client, quorum.Options{
		Temperature:  t.Voter,
		MaxPanelSize: cfg.Quorum.MaxPanelSize,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Set{
		Client:     client,
		Loop:       roles.NewController(iterative.Options{Logger: logger, Metrics: metrics}),
		Metrics:    metrics,
		Router:     routing.New(client, t.Router, logger),
		Classifier: classify.New(client, t.Classifier, logger),
		Voter:      voter,
		Chain: chain.New(client, chain.Options{
			CopyTemperature:      t.Copy,
			TranslateTemperature: t.Translate,
			MaxTokens:            maxTokens,
			Logger:               logger,
		}),
		MaxIterations: cfg.Loop.MaxIterations,
	}, nil
}

// Refine runs the generate/review/optimize loop with the configured budget
// when maxIterations is zero.
func (s *Set) Refine(ctx context.Context, task string, maxIterations int) (*iterative.LoopResult, error) {
	if maxIterations == 0 {
		maxIterations = s.MaxIterations
	}
	return s.Loop.Run(ctx, task, maxIterations)
}

// Usage returns the shared client's usage totals.
func (s *Set) Usage() ai.UsageSnapshot {
	return s.Client.Usage().Snapshot()
}

// LoopStats aggregates every refinement run of this process.
func (s *Set) LoopStats() *iterative.AggregateMetrics {
	return s.Metrics.GetAggregateMetrics()
}

// Package coder provides the model-backed generator, reviewer and optimizer
// used by the refinement loop. Each is a stateless pass-through to
// ai.Invoke with a fixed schema and its own temperature.
package coder

import (
	"context"
	"log/slog"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/iterative"
	"github.com/steveyegge/agentflows/internal/prompts"
)

// Default sampling temperatures per role.
const (
	DefaultGeneratorTemperature = 0.3
	DefaultReviewerTemperature  = 0.1
	DefaultOptimizerTemperature = 0.3
)

type codeGeneration struct {
	Code        string `json:"code" jsonschema:"description=Generated code"`
	Explanation string `json:"explanation" jsonschema:"description=How the code works"`
	Language    string `json:"language" jsonschema:"description=Programming language used"`
	Complexity  string `json:"complexity" jsonschema:"description=One of low|medium|high"`
}

type codeReview struct {
	FunctionalityScore int      `json:"functionality_score" jsonschema:"description=Does it work correctly? 1-10"`
	QualityScore       int      `json:"quality_score" jsonschema:"description=Code quality and style 1-10"`
	PerformanceScore   int      `json:"performance_score" jsonschema:"description=Performance efficiency 1-10"`
	Issues             []string `json:"issues" jsonschema:"description=Specific issues found"`
	Suggestions        []string `json:"suggestions" jsonschema:"description=Improvement suggestions"`
	IsProductionReady  bool     `json:"is_production_ready" jsonschema:"description=Ready for production use"`
}

type codeOptimization struct {
	OptimizedCode     string   `json:"optimized_code" jsonschema:"description=Improved code"`
	ImprovementsMade  []string `json:"improvements_made" jsonschema:"description=Specific improvements"`
	PerformanceImpact string   `json:"performance_impact" jsonschema:"description=Expected performance impact"`
}

// Settings carries the per-role model parameters.
type Settings struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces the initial artifact.
type Generator struct {
	inv      ai.Invoker
	settings Settings
	logger   *slog.Logger
}

// Reviewer scores an artifact.
type Reviewer struct {
	inv      ai.Invoker
	settings Settings
	logger   *slog.Logger
}

// Optimizer rewrites an artifact using review feedback.
type Optimizer struct {
	inv      ai.Invoker
	settings Settings
	logger   *slog.Logger
}

var (
	_ iterative.Generator = (*Generator)(nil)
	_ iterative.Reviewer  = (*Reviewer)(nil)
	_ iterative.Optimizer = (*Optimizer)(nil)
)

// NewGenerator creates a generator.
func NewGenerator(inv ai.Invoker, settings Settings, logger *slog.Logger) *Generator {
	return &Generator{inv: inv, settings: settings, logger: orDefault(logger)}
}

// NewReviewer creates a reviewer.
func NewReviewer(inv ai.Invoker, settings Settings, logger *slog.Logger) *Reviewer {
	return &Reviewer{inv: inv, settings: settings, logger: orDefault(logger)}
}

// NewOptimizer creates an optimizer.
func NewOptimizer(inv ai.Invoker, settings Settings, logger *slog.Logger) *Optimizer {
	return &Optimizer{inv: inv, settings: settings, logger: orDefault(logger)}
}

// Generate implements iterative.Generator.
func (g *Generator) Generate(ctx context.Context, task string) (*iterative.Artifact, error) {
	prompt, err := prompts.Render(prompts.CodeGenerate, map[string]string{"task": task})
	if err != nil {
		return nil, err
	}

	out, err := ai.Invoke[codeGeneration](ctx, g.inv, ai.Call{
		Operation:   prompts.CodeGenerate,
		Prompt:      prompt,
		Temperature: g.settings.Temperature,
		MaxTokens:   g.settings.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("code generated", "language", out.Language, "complexity", out.Complexity)

	return &iterative.Artifact{
		Content:     out.Code,
		Explanation: out.Explanation,
		Language:    out.Language,
		Complexity:  out.Complexity,
	}, nil
}

// Review implements iterative.Reviewer.
func (r *Reviewer) Review(ctx context.Context, task, content string) (*iterative.ReviewScore, error) {
	prompt, err := prompts.Render(prompts.CodeReview, map[string]string{"task": task, "code": content})
	if err != nil {
		return nil, err
	}

	out, err := ai.Invoke[codeReview](ctx, r.inv, ai.Call{
		Operation:   prompts.CodeReview,
		Prompt:      prompt,
		Temperature: r.settings.Temperature,
		MaxTokens:   r.settings.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("code reviewed",
		"functionality", out.FunctionalityScore,
		"quality", out.QualityScore,
		"performance", out.PerformanceScore,
		"production_ready", out.IsProductionReady)

	return &iterative.ReviewScore{
		Functionality:   out.FunctionalityScore,
		Quality:         out.QualityScore,
		Performance:     out.PerformanceScore,
		Issues:          out.Issues,
		Suggestions:     out.Suggestions,
		MeetsReleaseBar: out.IsProductionReady,
	}, nil
}

// Optimize implements iterative.Optimizer.
func (o *Optimizer) Optimize(ctx context.Context, task, content, feedback string) (*iterative.OptimizationResult, error) {
	prompt, err := prompts.Render(prompts.CodeOptimize, map[string]string{
		"task":   task,
		"code":   content,
		"review": feedback,
	})
	if err != nil {
		return nil, err
	}

	out, err := ai.Invoke[codeOptimization](ctx, o.inv, ai.Call{
		Operation:   prompts.CodeOptimize,
		Prompt:      prompt,
		Temperature: o.settings.Temperature,
		MaxTokens:   o.settings.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Debug("code optimized", "improvements", len(out.ImprovementsMade))

	return &iterative.OptimizationResult{
		Content:           out.OptimizedCode,
		Improvements:      out.ImprovementsMade,
		PerformanceImpact: out.PerformanceImpact,
	}, nil
}

// Roles bundles the three roles for NewController.
type Roles struct {
	Generator *Generator
	Reviewer  *Reviewer
	Optimizer *Optimizer
}

// NewRoles builds all three roles over one invoker.
func NewRoles(inv ai.Invoker, gen, rev, opt Settings, logger *slog.Logger) Roles {
	return Roles{
		Generator: NewGenerator(inv, gen, logger),
		Reviewer:  NewReviewer(inv, rev, logger),
		Optimizer: NewOptimizer(inv, opt, logger),
	}
}

// NewController wires the roles into a refinement loop controller.
func (r Roles) NewController(opts iterative.Options) *iterative.Controller {
	return iterative.NewController(r.Generator, r.Reviewer, r.Optimizer, opts)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

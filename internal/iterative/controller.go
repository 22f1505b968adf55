package iterative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeedbackSeparator joins reviewer suggestions into optimizer feedback.
const FeedbackSeparator = " | "

// Options configures a Controller. The zero value is usable.
type Options struct {
	Logger  *slog.Logger
	Metrics MetricsCollector
}

// Controller runs the evaluator-optimizer loop. It holds no per-run state,
// but each run is strictly sequential: one model call in flight at a time.
type Controller struct {
	generator Generator
	reviewer  Reviewer
	optimizer Optimizer
	logger    *slog.Logger
	metrics   MetricsCollector
}

// NewController wires the three roles together.
func NewController(gen Generator, rev Reviewer, opt Optimizer, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		generator: gen,
		reviewer:  rev,
		optimizer: opt,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Run generates an artifact for task and refines it for at most
// maxIterations reviews.
//
// For i = 1..maxIterations the current content is reviewed and review
// record i is appended. A passing review ends the run. Otherwise, if budget
// remains, the suggestions are joined with FeedbackSeparator, the optimizer
// rewrites the content, its result is attached to record i, and the rewrite
// becomes the content for review i+1.
func (c *Controller) Run(ctx context.Context, task string, maxIterations int) (*LoopResult, error) {
	if maxIterations < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidBudget, maxIterations)
	}
	if strings.TrimSpace(task) == "" {
		return nil, ErrEmptyTask
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	logger.Info("refinement run starting", "max_iterations", maxIterations)

	genStart := time.Now()
	artifact, err := c.generator.Generate(ctx, task)
	if err == nil && artifact == nil {
		err = errors.New("generator returned no artifact")
	}
	if err != nil {
		return nil, c.fail(logger, runID, &StepError{Step: StepGeneration, Iteration: 0, Err: err})
	}
	genDuration := time.Since(genStart)

	logger.Info("artifact generated",
		"language", artifact.Language,
		"complexity", artifact.Complexity,
		"lines", countLines(artifact.Content),
		"duration", genDuration)

	records := make([]IterationRecord, 0, maxIterations+1)
	records = append(records, IterationRecord{
		Index:      0,
		Kind:       RecordGeneration,
		Generation: artifact,
		Duration:   genDuration,
	})

	current := artifact.Content
	gateSatisfied := false
	var iterMetrics []*IterationMetrics

	for i := 1; i <= maxIterations; i++ {
		reviewStart := time.Now()
		review, err := c.reviewer.Review(ctx, task, current)
		if err == nil && review == nil {
			err = errors.New("reviewer returned no score")
		}
		if err != nil {
			return nil, c.fail(logger, runID, &StepError{Step: StepReview, Iteration: i, Err: err})
		}
		reviewDuration := time.Since(reviewStart)

		record := IterationRecord{
			Index:           i,
			Kind:            RecordReview,
			Review:          review,
			ReviewedContent: current,
		}
		im := &IterationMetrics{
			Iteration:       i,
			Functionality:   review.Functionality,
			Quality:         review.Quality,
			Performance:     review.Performance,
			ScoresInRange:   review.InRange(),
			IssueCount:      len(review.Issues),
			SuggestionCount: len(review.Suggestions),
			GatePassed:      review.MeetsReleaseBar,
			ReviewDuration:  reviewDuration,
		}

		logger.Info("review completed",
			"iteration", i,
			"functionality", review.Functionality,
			"quality", review.Quality,
			"performance", review.Performance,
			"production_ready", review.MeetsReleaseBar,
			"issues", len(review.Issues),
			"duration", reviewDuration)
		if !im.ScoresInRange {
			logger.Warn("review scores outside 1-10", "iteration", i)
		}

		if review.MeetsReleaseBar {
			gateSatisfied = true
			record.Duration = reviewDuration
			records = append(records, record)
			iterMetrics = c.recordIteration(runID, iterMetrics, im)
			break
		}

		if i == maxIterations {
			record.Duration = reviewDuration
			records = append(records, record)
			iterMetrics = c.recordIteration(runID, iterMetrics, im)
			break
		}

		feedback := strings.Join(review.Suggestions, FeedbackSeparator)

		optStart := time.Now()
		optimization, err := c.optimizer.Optimize(ctx, task, current, feedback)
		if err == nil && optimization == nil {
			err = errors.New("optimizer returned no result")
		}
		if err != nil {
			return nil, c.fail(logger, runID, &StepError{Step: StepOptimization, Iteration: i, Err: err})
		}
		optDuration := time.Since(optStart)

		stats := ComputeDiffStats(current, optimization.Content)
		im.Optimized = true
		im.DiffLines = stats.Changed()
		if total := countLines(current); total > 0 {
			im.DiffPercent = float64(im.DiffLines) / float64(total) * 100
		}
		im.OptimizationDuration = optDuration

		logger.Info("optimization applied",
			"iteration", i,
			"improvements", len(optimization.Improvements),
			"lines_inserted", stats.Inserted,
			"lines_deleted", stats.Deleted,
			"duration", optDuration)

		record.Optimization = optimization
		record.Duration = reviewDuration + optDuration
		records = append(records, record)
		iterMetrics = c.recordIteration(runID, iterMetrics, im)

		current = optimization.Content
	}

	result := &LoopResult{
		RunID:         runID,
		Task:          task,
		Records:       records,
		Final:         current,
		GateSatisfied: gateSatisfied,
		MaxIterations: maxIterations,
		Elapsed:       time.Since(start),
	}

	stopReason := StopBudgetExhausted
	if gateSatisfied {
		stopReason = StopGatePassed
	}
	logger.Info("refinement run finished",
		"reviews", result.ReviewCount(),
		"stop_reason", stopReason,
		"elapsed", result.Elapsed)

	if c.metrics != nil {
		c.metrics.RecordRunComplete(result, buildRunMetrics(result, artifact, genDuration, stopReason, iterMetrics))
	}

	return result, nil
}

func (c *Controller) recordIteration(runID string, acc []*IterationMetrics, im *IterationMetrics) []*IterationMetrics {
	if c.metrics != nil {
		c.metrics.RecordIteration(runID, im)
	}
	return append(acc, im)
}

func (c *Controller) fail(logger *slog.Logger, runID string, se *StepError) error {
	logger.Error("refinement run failed",
		"step", string(se.Step),
		"iteration", se.Iteration,
		"error", se.Err)
	if c.metrics != nil {
		c.metrics.RecordRunFailed(runID, se)
	}
	return se
}

func buildRunMetrics(result *LoopResult, artifact *Artifact, genDuration time.Duration, stopReason string, iterations []*IterationMetrics) *RunMetrics {
	rm := &RunMetrics{
		RunID:              result.RunID,
		Language:           artifact.Language,
		Complexity:         artifact.Complexity,
		Reviews:            result.ReviewCount(),
		MaxIterations:      result.MaxIterations,
		GateSatisfied:      result.GateSatisfied,
		StopReason:         stopReason,
		GenerationDuration: genDuration,
		TotalDuration:      result.Elapsed,
		Iterations:         iterations,
	}
	for _, im := range iterations {
		if im.Optimized {
			rm.Optimizations++
		}
	}
	if len(iterations) > 0 {
		rm.ScoreDelta = iterations[len(iterations)-1].MeanScore() - iterations[0].MeanScore()
	}
	return rm
}

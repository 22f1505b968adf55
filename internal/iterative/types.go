package iterative

import (
	"context"
	"time"
)

// Artifact is the initial generation output.
type Artifact struct {
	Content     string
	Explanation string
	Language    string
	// Complexity is one of low, medium or high by convention; not enforced
	Complexity string
}

// ReviewScore is one reviewer verdict on the current content.
//
// Scores are advertised to the model as 1-10 but are passed through as
// returned; use InRange to check them.
type ReviewScore struct {
	Functionality   int
	Quality         int
	Performance     int
	Issues          []string
	Suggestions     []string
	MeetsReleaseBar bool
}

// InRange reports whether all three scores fall within 1-10.
func (r *ReviewScore) InRange() bool {
	for _, s := range []int{r.Functionality, r.Quality, r.Performance} {
		if s < 1 || s > 10 {
			return false
		}
	}
	return true
}

// OptimizationResult is one optimizer rewrite.
type OptimizationResult struct {
	Content           string
	Improvements      []string
	PerformanceImpact string
}

// RecordKind distinguishes trace entries.
type RecordKind string

const (
	RecordGeneration RecordKind = "generation"
	RecordReview     RecordKind = "review"
)

// IterationRecord is one trace entry. Generation records set Generation;
// review records set Review, ReviewedContent and, unless the loop stopped on
// this review, Optimization.
type IterationRecord struct {
	Index int
	Kind  RecordKind

	Generation *Artifact

	Review       *ReviewScore
	Optimization *OptimizationResult

	// ReviewedContent is the exact content the reviewer saw
	ReviewedContent string

	Duration time.Duration
}

// LoopResult is the full trace of one completed run.
type LoopResult struct {
	RunID string
	Task  string

	// Records holds the generation record followed by review records 1..k
	Records []IterationRecord

	// Final is the content of the last reviewed artifact
	Final string

	// GateSatisfied reports whether the final review met the release bar
	GateSatisfied bool

	MaxIterations int
	Elapsed       time.Duration
}

// Initial returns the generated artifact.
func (r *LoopResult) Initial() *Artifact {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0].Generation
}

// Reviews returns the review records in order.
func (r *LoopResult) Reviews() []IterationRecord {
	if len(r.Records) <= 1 {
		return nil
	}
	return r.Records[1:]
}

// ReviewCount returns the number of reviews performed.
func (r *LoopResult) ReviewCount() int {
	return len(r.Reviews())
}

// Generator produces the initial artifact for a task.
type Generator interface {
	Generate(ctx context.Context, task string) (*Artifact, error)
}

// Reviewer scores content against the task.
type Reviewer interface {
	Review(ctx context.Context, task, content string) (*ReviewScore, error)
}

// Optimizer rewrites content using joined review feedback.
type Optimizer interface {
	Optimize(ctx context.Context, task, content, feedback string) (*OptimizationResult, error)
}

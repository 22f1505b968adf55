package iterative

import (
	"sort"
	"sync"
	"time"
)

// MetricsCollector receives instrumentation from Controller.Run. Pass nil in
// Options to disable collection.
type MetricsCollector interface {
	// RecordIteration is called after each review (and its optimization, if any)
	RecordIteration(runID string, metrics *IterationMetrics)

	// RecordRunComplete is called once per successful run
	RecordRunComplete(result *LoopResult, metrics *RunMetrics)

	// RecordRunFailed is called once per failed run
	RecordRunFailed(runID string, err *StepError)

	// GetAggregateMetrics returns rolled-up statistics across all runs
	GetAggregateMetrics() *AggregateMetrics
}

// IterationMetrics captures one review iteration.
type IterationMetrics struct {
	// Iteration is the review index (1-based)
	Iteration int

	Functionality int
	Quality       int
	Performance   int

	// ScoresInRange is false when the reviewer returned a score outside 1-10
	ScoresInRange bool

	IssueCount      int
	SuggestionCount int

	// GatePassed is the reviewer's release-bar verdict
	GatePassed bool

	// Optimized is true when an optimization followed this review
	Optimized bool

	// DiffLines is the number of lines inserted or deleted by the optimization
	DiffLines int

	// DiffPercent is DiffLines relative to the reviewed content's line count
	DiffPercent float64

	ReviewDuration       time.Duration
	OptimizationDuration time.Duration
}

// MeanScore is the average of the three review scores.
func (m *IterationMetrics) MeanScore() float64 {
	return float64(m.Functionality+m.Quality+m.Performance) / 3
}

// RunMetrics summarizes one completed run.
type RunMetrics struct {
	RunID string

	// Language and Complexity are copied from the generated artifact
	Language   string
	Complexity string

	Reviews       int
	Optimizations int
	MaxIterations int

	GateSatisfied bool

	// StopReason is "gate passed" or "budget exhausted"
	StopReason string

	// ScoreDelta is the final review's mean score minus the first review's
	ScoreDelta float64

	GenerationDuration time.Duration
	TotalDuration      time.Duration

	Iterations []*IterationMetrics
}

const (
	StopGatePassed      = "gate passed"
	StopBudgetExhausted = "budget exhausted"
)

// AggregateMetrics rolls up statistics across runs.
type AggregateMetrics struct {
	TotalRuns       int
	FailedRuns      int
	GatePassed      int
	BudgetExhausted int

	// GatePassRate is GatePassed / TotalRuns (0 when no runs)
	GatePassRate float64

	TotalReviews       int
	TotalOptimizations int

	MeanReviews float64

	// P50Reviews and P95Reviews are computed over runs that passed the gate
	P50Reviews int
	P95Reviews int

	MeanScoreDelta float64

	// FailuresByStep counts failed runs per step
	FailuresByStep map[Step]int

	// ByLanguage breaks runs down by generated artifact language
	ByLanguage map[string]*GroupMetrics

	TotalDuration time.Duration
}

// GroupMetrics aggregates a subset of runs.
type GroupMetrics struct {
	Count       int
	GatePassed  int
	MeanReviews float64
}

// InMemoryMetricsCollector keeps all run metrics in memory. Safe for
// concurrent use so one collector can observe several controllers.
type InMemoryMetricsCollector struct {
	mu       sync.Mutex
	runs     []*RunMetrics
	pending  map[string][]*IterationMetrics
	failures map[Step]int
	failed   int
}

// NewInMemoryMetricsCollector creates an empty collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		pending:  make(map[string][]*IterationMetrics),
		failures: make(map[Step]int),
	}
}

// RecordIteration implements MetricsCollector
func (m *InMemoryMetricsCollector) RecordIteration(runID string, metrics *IterationMetrics) {
	if metrics == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[runID] = append(m.pending[runID], metrics)
}

// RecordRunComplete implements MetricsCollector
func (m *InMemoryMetricsCollector) RecordRunComplete(result *LoopResult, metrics *RunMetrics) {
	if metrics == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(metrics.Iterations) == 0 {
		metrics.Iterations = m.pending[metrics.RunID]
	}
	delete(m.pending, metrics.RunID)
	m.runs = append(m.runs, metrics)
}

// RecordRunFailed implements MetricsCollector
func (m *InMemoryMetricsCollector) RecordRunFailed(runID string, err *StepError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, runID)
	m.failed++
	if err != nil {
		m.failures[err.Step]++
	}
}

// Runs returns a copy of the collected run metrics.
func (m *InMemoryMetricsCollector) Runs() []*RunMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*RunMetrics, len(m.runs))
	copy(out, m.runs)
	return out
}

// GetAggregateMetrics implements MetricsCollector
func (m *InMemoryMetricsCollector) GetAggregateMetrics() *AggregateMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg := &AggregateMetrics{
		FailedRuns:     m.failed,
		FailuresByStep: make(map[Step]int, len(m.failures)),
		ByLanguage:     make(map[string]*GroupMetrics),
	}
	for step, n := range m.failures {
		agg.FailuresByStep[step] = n
	}
	if len(m.runs) == 0 {
		return agg
	}

	var passedReviewCounts []int
	var deltaSum float64

	for _, run := range m.runs {
		agg.TotalRuns++
		agg.TotalReviews += run.Reviews
		agg.TotalOptimizations += run.Optimizations
		agg.TotalDuration += run.TotalDuration
		deltaSum += run.ScoreDelta

		if run.GateSatisfied {
			agg.GatePassed++
			passedReviewCounts = append(passedReviewCounts, run.Reviews)
		} else {
			agg.BudgetExhausted++
		}

		if run.Language != "" {
			updateGroupMetrics(agg.ByLanguage, run.Language, run)
		}
	}

	agg.GatePassRate = float64(agg.GatePassed) / float64(agg.TotalRuns)
	agg.MeanReviews = float64(agg.TotalReviews) / float64(agg.TotalRuns)
	agg.MeanScoreDelta = deltaSum / float64(agg.TotalRuns)

	if len(passedReviewCounts) > 0 {
		sort.Ints(passedReviewCounts)
		agg.P50Reviews = percentile(passedReviewCounts, 50)
		agg.P95Reviews = percentile(passedReviewCounts, 95)
	}

	return agg
}

func updateGroupMetrics(groups map[string]*GroupMetrics, key string, run *RunMetrics) {
	g := groups[key]
	if g == nil {
		g = &GroupMetrics{}
		groups[key] = g
	}
	g.Count++
	if run.GateSatisfied {
		g.GatePassed++
	}
	// Incremental mean update
	g.MeanReviews += (float64(run.Reviews) - g.MeanReviews) / float64(g.Count)
}

// percentile returns the Nth percentile from a sorted slice
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	index := (len(sorted) * p) / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

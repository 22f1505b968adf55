package iterative

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestInMemoryMetricsCollector_BasicCollection(t *testing.T) {
	collector := NewInMemoryMetricsCollector()

	collector.RecordIteration("run-1", &IterationMetrics{Iteration: 1, Functionality: 4, Quality: 4, Performance: 4, Optimized: true, DiffLines: 10})
	collector.RecordIteration("run-1", &IterationMetrics{Iteration: 2, Functionality: 8, Quality: 8, Performance: 8, GatePassed: true})

	collector.RecordRunComplete(&LoopResult{RunID: "run-1"}, &RunMetrics{
		RunID:         "run-1",
		Language:      "go",
		Reviews:       2,
		Optimizations: 1,
		GateSatisfied: true,
		ScoreDelta:    4,
		TotalDuration: 200 * time.Millisecond,
	})

	runs := collector.Runs()
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if len(runs[0].Iterations) != 2 {
		t.Errorf("Expected pending iterations to attach to the run, got %d", len(runs[0].Iterations))
	}

	agg := collector.GetAggregateMetrics()
	if agg.TotalRuns != 1 || agg.GatePassed != 1 || agg.BudgetExhausted != 0 {
		t.Errorf("Unexpected counts: %+v", agg)
	}
	if agg.GatePassRate != 1.0 {
		t.Errorf("Expected pass rate 1.0, got %f", agg.GatePassRate)
	}
	if agg.TotalReviews != 2 || agg.TotalOptimizations != 1 {
		t.Errorf("Expected 2 reviews / 1 optimization, got %d/%d", agg.TotalReviews, agg.TotalOptimizations)
	}
	if g := agg.ByLanguage["go"]; g == nil || g.Count != 1 || g.GatePassed != 1 {
		t.Errorf("Unexpected language breakdown: %+v", agg.ByLanguage)
	}
}

func TestInMemoryMetricsCollector_Empty(t *testing.T) {
	agg := NewInMemoryMetricsCollector().GetAggregateMetrics()
	if agg.TotalRuns != 0 || agg.GatePassRate != 0 {
		t.Errorf("Expected zero metrics, got %+v", agg)
	}
	if agg.ByLanguage == nil || agg.FailuresByStep == nil {
		t.Error("Maps should be initialized")
	}
}

func TestInMemoryMetricsCollector_Percentiles(t *testing.T) {
	collector := NewInMemoryMetricsCollector()

	reviewCounts := []int{1, 1, 2, 2, 2, 3, 3, 4, 5, 5}
	for i, n := range reviewCounts {
		collector.RecordRunComplete(nil, &RunMetrics{
			RunID:         string(rune('a' + i)),
			Reviews:       n,
			GateSatisfied: true,
		})
	}
	// Exhausted runs do not count toward percentiles
	collector.RecordRunComplete(nil, &RunMetrics{RunID: "z", Reviews: 10})

	agg := collector.GetAggregateMetrics()
	if agg.P50Reviews != 3 {
		t.Errorf("Expected P50=3, got %d", agg.P50Reviews)
	}
	if agg.P95Reviews != 5 {
		t.Errorf("Expected P95=5, got %d", agg.P95Reviews)
	}
	if agg.BudgetExhausted != 1 {
		t.Errorf("Expected 1 exhausted run, got %d", agg.BudgetExhausted)
	}
	wantMean := float64(1+1+2+2+2+3+3+4+5+5+10) / 11
	if agg.MeanReviews != wantMean {
		t.Errorf("Expected mean %f, got %f", wantMean, agg.MeanReviews)
	}
}

func TestInMemoryMetricsCollector_Failures(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	collector.RecordIteration("r", &IterationMetrics{Iteration: 1})
	collector.RecordRunFailed("r", &StepError{Step: StepOptimization, Iteration: 1})
	collector.RecordRunFailed("s", &StepError{Step: StepOptimization, Iteration: 2})
	collector.RecordRunFailed("t", &StepError{Step: StepGeneration})

	agg := collector.GetAggregateMetrics()
	if agg.FailedRuns != 3 {
		t.Errorf("Expected 3 failed runs, got %d", agg.FailedRuns)
	}
	if agg.FailuresByStep[StepOptimization] != 2 || agg.FailuresByStep[StepGeneration] != 1 {
		t.Errorf("Unexpected failures by step: %+v", agg.FailuresByStep)
	}
	if agg.TotalRuns != 0 {
		t.Error("Failed runs must not count as completed")
	}
}

func TestInMemoryMetricsCollector_Concurrent(t *testing.T) {
	collector := NewInMemoryMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := strings.Repeat("x", i+1)
			collector.RecordIteration(id, &IterationMetrics{Iteration: 1})
			collector.RecordRunComplete(nil, &RunMetrics{RunID: id, Reviews: 1})
		}(i)
	}
	wg.Wait()

	if got := collector.GetAggregateMetrics().TotalRuns; got != 50 {
		t.Errorf("Expected 50 runs, got %d", got)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []int
		p      int
		want   int
	}{
		{"empty", nil, 50, 0},
		{"single", []int{7}, 95, 7},
		{"median", []int{1, 2, 3, 4, 5}, 50, 3},
		{"p100 clamps", []int{1, 2, 3}, 100, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("percentile(%v, %d) = %d, want %d", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestIterationMetrics_MeanScore(t *testing.T) {
	m := &IterationMetrics{Functionality: 6, Quality: 7, Performance: 8}
	if m.MeanScore() != 7 {
		t.Errorf("Expected mean 7, got %f", m.MeanScore())
	}
}

func TestComputeDiffStats(t *testing.T) {
	tests := []struct {
		name          string
		before, after string
		ins, del      int
	}{
		{"identical", "a\nb\n", "a\nb\n", 0, 0},
		{"append", "a\nb", "a\nb\nc", 1, 0},
		{"delete", "a\nb\nc\n", "a\nc\n", 0, 1},
		{"replace", "a\nb\nc\n", "a\nB\nc\n", 1, 1},
		{"from empty", "", "x\ny\n", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiffStats(tt.before, tt.after)
			if got.Inserted != tt.ins || got.Deleted != tt.del {
				t.Errorf("Expected +%d -%d, got +%d -%d", tt.ins, tt.del, got.Inserted, got.Deleted)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	if d := Diff("a", "b", "same", "same"); d != "" {
		t.Errorf("Expected empty diff for equal input, got %q", d)
	}

	d := Diff("review-1", "optimized-1", "def f():\n    return 1\n", "def f():\n    return 2\n")
	for _, want := range []string{"--- review-1", "+++ optimized-1", "-    return 1", "+    return 2"} {
		if !strings.Contains(d, want) {
			t.Errorf("Diff missing %q:\n%s", want, d)
		}
	}
}

func TestCountLines(t *testing.T) {
	if countLines("") != 0 || countLines("a") != 1 || countLines("a\nb\n") != 2 {
		t.Error("countLines miscounted")
	}
}

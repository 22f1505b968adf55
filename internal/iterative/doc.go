// Package iterative implements the evaluator-optimizer refinement loop.
//
// # Overview
//
// A Controller drives three model-backed roles over one artifact:
//
//   - Generator produces the initial artifact from a task description.
//   - Reviewer scores the current artifact and decides whether it meets the
//     release bar (the gate).
//   - Optimizer rewrites the artifact using the reviewer's suggestions.
//
// The loop is bounded by an iteration budget. Each review consumes one unit
// of budget. The loop ends as soon as a review passes the gate, or when the
// budget is spent; the last review is never followed by an optimization.
//
// # Trace
//
// Every run produces a LoopResult whose Records form an ordered trace:
// exactly one generation record (index 0) followed by review records indexed
// 1..k, where k is the number of reviews performed. A review record carries
// the optimization that followed it, if any. The optimization attached to
// record i is the content reviewed by record i+1.
//
// # Failure
//
// Any failing call aborts the run. The error is a *StepError naming the step
// (generation, review or optimization) and the iteration it occurred in;
// no partial trace is returned and nothing is retried.
//
// # Usage
//
//	ctrl := iterative.NewController(gen, rev, opt, iterative.Options{Logger: logger})
//	result, err := ctrl.Run(ctx, "Write a function to calculate Fibonacci numbers up to n", 3)
//	if err != nil {
//	    var se *iterative.StepError
//	    if errors.As(err, &se) {
//	        // se.Step, se.Iteration
//	    }
//	    return err
//	}
//	fmt.Println(result.Final, result.GateSatisfied)
//
// # Metrics
//
// An optional MetricsCollector receives per-review IterationMetrics
// (scores, gate outcome, line diff between reviewed and optimized content)
// and a RunMetrics summary when a run completes.
// InMemoryMetricsCollector aggregates gate-pass rates and review counts
// across runs.
package iterative

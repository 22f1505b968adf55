// Package report renders workflow results as human-readable text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/chain"
	"github.com/steveyegge/agentflows/internal/classify"
	"github.com/steveyegge/agentflows/internal/iterative"
	"github.com/steveyegge/agentflows/internal/quorum"
	"github.com/steveyegge/agentflows/internal/routing"
)

const rule = "============================================================"

// Printer writes reports to w. Colors follow color.NoColor.
type Printer struct {
	w io.Writer

	header func(a ...interface{}) string
	label  func(a ...interface{}) string
	good   func(a ...interface{}) string
	bad    func(a ...interface{}) string
	muted  func(a ...interface{}) string
}

// New creates a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
		label:  color.New(color.FgYellow).SprintFunc(),
		good:   color.New(color.FgGreen).SprintFunc(),
		bad:    color.New(color.FgRed, color.Bold).SprintFunc(),
		muted:  color.New(color.FgHiBlack).SprintFunc(),
	}
}

// LoopOptions controls the loop report.
type LoopOptions struct {
	// ShowDiffs prints a unified diff for every optimization
	ShowDiffs bool
}

// Loop prints the full trace of a generate/review/optimize run.
func (p *Printer) Loop(r *iterative.LoopResult, opts LoopOptions) {
	fmt.Fprintln(p.w, rule)
	fmt.Fprintln(p.w, p.header("EVALUATOR & OPTIMIZER RESULTS"))
	fmt.Fprintln(p.w, rule)

	fmt.Fprintf(p.w, "\n%s %s\n", p.label("Task:"), r.Task)
	fmt.Fprintf(p.w, "%s\n", p.muted("run "+r.RunID))

	if initial := r.Initial(); initial != nil {
		fmt.Fprintf(p.w, "%s\n%s\n\n", p.label("Initial Code:"), initial.Content)
		fmt.Fprintf(p.w, "%s %s\n", p.label("Explanation:"), initial.Explanation)
		fmt.Fprintf(p.w, "%s %s\n", p.label("Language:"), initial.Language)
		fmt.Fprintf(p.w, "%s %s\n", p.label("Complexity:"), initial.Complexity)
	}

	for _, rec := range r.Reviews() {
		p.review(rec, opts)
	}

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, rule)
	status := p.good("release bar met")
	if !r.GateSatisfied {
		status = p.bad("budget exhausted")
	}
	fmt.Fprintf(p.w, "%s %s after %d of %d review(s) in %s\n",
		p.label("Outcome:"), status, r.ReviewCount(), r.MaxIterations, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(p.w, rule)
}

func (p *Printer) review(rec iterative.IterationRecord, opts LoopOptions) {
	rv := rec.Review
	fmt.Fprintf(p.w, "\n%s\n", p.header(fmt.Sprintf("Iteration %d - REVIEW", rec.Index)))

	fmt.Fprintf(p.w, "Functionality Score: %d/10\n", rv.Functionality)
	fmt.Fprintf(p.w, "Quality Score: %d/10\n", rv.Quality)
	fmt.Fprintf(p.w, "Performance Score: %d/10\n", rv.Performance)
	if !rv.InRange() {
		fmt.Fprintf(p.w, "%s\n", p.muted("(scores outside 1-10)"))
	}
	p.list("Issues Found:", rv.Issues)
	p.list("Suggestions:", rv.Suggestions)

	ready := p.bad("No")
	if rv.MeetsReleaseBar {
		ready = p.good("Yes")
	}
	fmt.Fprintf(p.w, "Production Ready: %s\n", ready)

	opt := rec.Optimization
	if opt == nil {
		return
	}
	fmt.Fprintf(p.w, "\n%s\n%s\n", p.label("Optimized Code:"), opt.Content)
	p.list("Improvements Made:", opt.Improvements)
	fmt.Fprintf(p.w, "Performance Impact: %s\n", opt.PerformanceImpact)

	stats := iterative.ComputeDiffStats(rec.ReviewedContent, opt.Content)
	fmt.Fprintf(p.w, "%s\n", p.muted(fmt.Sprintf("+%d -%d lines", stats.Inserted, stats.Deleted)))
	if opts.ShowDiffs && stats.Changed() > 0 {
		diff := iterative.Diff(
			fmt.Sprintf("iteration-%d", rec.Index),
			fmt.Sprintf("iteration-%d-optimized", rec.Index),
			rec.ReviewedContent, opt.Content)
		fmt.Fprint(p.w, p.colorDiff(diff))
	}
}

func (p *Printer) colorDiff(diff string) string {
	add := color.New(color.FgGreen).SprintFunc()
	del := color.New(color.FgRed).SprintFunc()
	var sb strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(p.muted(line))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(add(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(del(line))
		default:
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func (p *Printer) list(title string, items []string) {
	fmt.Fprintln(p.w, title)
	if len(items) == 0 {
		fmt.Fprintf(p.w, "  %s\n", p.muted("(none)"))
		return
	}
	for _, item := range items {
		fmt.Fprintf(p.w, "  - %s\n", item)
	}
}

// Route prints a routing decision and the handler's response.
func (p *Printer) Route(r *routing.Result) {
	cls := r.Classification
	category := string(cls.Category)
	if !cls.Recognized {
		category += " (unrecognized)"
	}
	fmt.Fprintf(p.w, "%s %s (confidence %.2f, complexity %s)\n",
		p.label("Classification:"), category, cls.Confidence, cls.Complexity)
	fmt.Fprintf(p.w, "%s %s\n", p.label("Handler:"), p.header(r.Handler))

	switch {
	case r.Technical != nil:
		fmt.Fprintf(p.w, "%s %s\n", p.label("Solution:"), r.Technical.Solution)
		for i, step := range r.Technical.Steps {
			fmt.Fprintf(p.w, "  %d. %s\n", i+1, step)
		}
	case r.Billing != nil:
		fmt.Fprintf(p.w, "%s %s\n", p.label("Explanation:"), r.Billing.Explanation)
		fmt.Fprintf(p.w, "%s %s\n", p.label("Next Action:"), r.Billing.NextAction)
	case r.General != nil:
		fmt.Fprintf(p.w, "%s %s\n", p.label("Answer:"), r.General.Answer)
		p.list("Helpful Links:", r.General.HelpfulLinks)
	case r.Refund != nil:
		fmt.Fprintf(p.w, "%s\n", r.Refund.Message)
		fmt.Fprintf(p.w, "%s %t, %s %s\n",
			p.label("Ticket Created:"), r.Refund.TicketCreated,
			p.label("Expected Response:"), r.Refund.EstimatedResponse)
	}
}

// Sentiment prints a single classification.
func (p *Printer) Sentiment(r *classify.Result) {
	var s string
	switch r.Sentiment {
	case classify.Positive:
		s = p.good(string(r.Sentiment))
	case classify.Negative:
		s = p.bad(string(r.Sentiment))
	default:
		s = string(r.Sentiment)
	}
	fmt.Fprintf(p.w, "%s %s\n", p.label("Sentiment:"), s)
}

// Vote prints every finding and the consensus.
func (p *Printer) Vote(v *quorum.Verdict) {
	fmt.Fprintf(p.w, "%s %d\n", p.label("Total Reviewers:"), v.N)
	fmt.Fprintf(p.w, "%s %d\n\n", p.label("Vulnerability Votes:"), v.Votes)
	for _, b := range v.Ballots {
		line := b.Finding()
		if b.Vulnerable {
			line = p.bad(line)
		}
		fmt.Fprintf(p.w, "  %s %s\n", line, p.muted(fmt.Sprintf("(confidence %.2f)", b.Confidence)))
	}

	consensus := p.good(v.Consensus())
	if v.Majority {
		consensus = p.bad(v.Consensus())
	}
	fmt.Fprintf(p.w, "\n%s %s (%d of %d vote vulnerable)\n", p.label("Consensus:"), consensus, v.Votes, v.N)
}

// Chain prints the approved marketing copy and its translation.
func (p *Printer) Chain(r *chain.Result) {
	fmt.Fprintf(p.w, "%s\n", p.label("Marketing Copy (passed gate):"))
	fmt.Fprintf(p.w, "  Headline: %s\n  Body: %s\n  Call to Action: %s\n\n",
		r.Copy.Headline, r.Copy.Body, r.Copy.CallToAction)
	fmt.Fprintf(p.w, "%s\n", p.header("Translation ("+r.Request.Language+"):"))
	fmt.Fprintf(p.w, "  Headline: %s\n  Body: %s\n  Call to Action: %s\n",
		r.Translation.Headline, r.Translation.Body, r.Translation.CallToAction)
}

// GateFailure prints the violations of rejected marketing copy.
func (p *Printer) GateFailure(err *chain.GateValidationError) {
	fmt.Fprintf(p.w, "%s\n", p.bad("Marketing copy rejected by gate:"))
	for _, v := range err.Violations {
		fmt.Fprintf(p.w, "  - %s\n", v)
	}
}

// Usage prints token totals per operation.
func (p *Printer) Usage(s ai.UsageSnapshot) {
	fmt.Fprintf(p.w, "%s\n", p.label("Model Usage:"))
	if s.Calls == 0 {
		fmt.Fprintf(p.w, "  %s\n", p.muted("no calls"))
		return
	}
	for _, op := range s.Operations {
		fmt.Fprintf(p.w, "  %-20s %3d call(s)  %s in / %s out\n",
			op.Operation, op.Calls, FormatTokens(op.InputTokens), FormatTokens(op.OutputTokens))
	}
	fmt.Fprintf(p.w, "  %-20s %3d call(s)  %s tokens", "total", s.Calls, FormatTokens(s.TotalTokens()))
	if s.EstimatedCost > 0 {
		fmt.Fprintf(p.w, "  ~$%.4f", s.EstimatedCost)
	}
	fmt.Fprintln(p.w)
}

// LoopStats prints aggregate refinement outcomes. Nothing is printed
// before the first run.
func (p *Printer) LoopStats(agg *iterative.AggregateMetrics) {
	if agg == nil || agg.TotalRuns+agg.FailedRuns == 0 {
		return
	}
	fmt.Fprintf(p.w, "%s\n", p.label("Refinement Runs:"))
	fmt.Fprintf(p.w, "  completed %d, failed %d, release bar met %d (%.0f%%)\n",
		agg.TotalRuns, agg.FailedRuns, agg.GatePassed, agg.GatePassRate*100)
	if agg.TotalRuns > 0 {
		fmt.Fprintf(p.w, "  mean reviews %.1f, mean score change %+.1f\n", agg.MeanReviews, agg.MeanScoreDelta)
	}
	for step, n := range agg.FailuresByStep {
		fmt.Fprintf(p.w, "  %s failures: %d\n", step, n)
	}
}

// FormatTokens formats a token count with commas for readability.
func FormatTokens(tokens int64) string {
	if tokens < 0 {
		return "-" + FormatTokens(-tokens)
	}
	s := fmt.Sprintf("%d", tokens)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

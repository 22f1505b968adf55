package ai

import (
	"sort"
	"sync"
	"time"
)

// Pricing is the USD cost per 1M tokens used for estimates.
// Zero rates (the Ollama default) make every estimate zero.
type Pricing struct {
	InputPerMillion  float64 `yaml:"input_per_million" json:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million" json:"output_per_million"`
}

// OperationUsage aggregates calls for one operation name.
type OperationUsage struct {
	Operation     string
	Calls         int
	InputTokens   int64
	OutputTokens  int64
	TotalDuration time.Duration
	EstimatedCost float64
}

// UsageSnapshot is a point-in-time copy of the tracker totals.
type UsageSnapshot struct {
	Calls         int
	InputTokens   int64
	OutputTokens  int64
	EstimatedCost float64
	Operations    []OperationUsage // sorted by operation name
}

// TotalTokens returns input plus output tokens.
func (s UsageSnapshot) TotalTokens() int64 {
	return s.InputTokens + s.OutputTokens
}

// UsageTracker accumulates token usage per operation for the life of the
// process. It is safe for concurrent use (quorum reviewers record in parallel).
type UsageTracker struct {
	mu      sync.Mutex
	pricing Pricing
	ops     map[string]*OperationUsage
}

// NewUsageTracker creates a tracker with the given pricing.
func NewUsageTracker(pricing Pricing) *UsageTracker {
	return &UsageTracker{
		pricing: pricing,
		ops:     make(map[string]*OperationUsage),
	}
}

// Record adds one completed call.
func (t *UsageTracker) Record(operation string, inputTokens, outputTokens int64, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[operation]
	if !ok {
		op = &OperationUsage{Operation: operation}
		t.ops[operation] = op
	}
	op.Calls++
	op.InputTokens += inputTokens
	op.OutputTokens += outputTokens
	op.TotalDuration += duration
	op.EstimatedCost += t.calculateCost(inputTokens, outputTokens)
}

// Snapshot returns a copy of the current totals.
func (t *UsageTracker) Snapshot() UsageSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := UsageSnapshot{Operations: make([]OperationUsage, 0, len(t.ops))}
	for _, op := range t.ops {
		snap.Calls += op.Calls
		snap.InputTokens += op.InputTokens
		snap.OutputTokens += op.OutputTokens
		snap.EstimatedCost += op.EstimatedCost
		snap.Operations = append(snap.Operations, *op)
	}
	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Operation < snap.Operations[j].Operation
	})
	return snap
}

// Reset clears all totals.
func (t *UsageTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = make(map[string]*OperationUsage)
}

func (t *UsageTracker) calculateCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000.0 * t.pricing.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000.0 * t.pricing.OutputPerMillion
	return inputCost + outputCost
}

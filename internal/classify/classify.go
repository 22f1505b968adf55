// Package classify implements single-step sentiment classification: one
// structured model call, no retries.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/prompts"
)

// DefaultTemperature matches the reference sentiment workflow.
const DefaultTemperature = 0.7

// Sentiment is a review's overall polarity.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Negative, Neutral:
		return true
	default:
		return false
	}
}

type reviewSentiment struct {
	Sentiment string `json:"sentiment" jsonschema:"enum=positive,enum=negative,enum=neutral,description=The sentiment of the review"`
}

// Result is one classification.
type Result struct {
	Review    string
	Sentiment Sentiment
}

// Classifier labels product reviews.
type Classifier struct {
	inv         ai.Invoker
	temperature float64
	logger      *slog.Logger
}

// New creates a classifier.
func New(inv ai.Invoker, temperature float64, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{inv: inv, temperature: temperature, logger: logger}
}

// Classify returns the sentiment of review. A label outside the known set is
// a schema violation.
func (c *Classifier) Classify(ctx context.Context, review string) (*Result, error) {
	if strings.TrimSpace(review) == "" {
		return nil, fmt.Errorf("review text cannot be empty")
	}

	prompt, err := prompts.Render(prompts.SentimentClassify, map[string]string{"review": review})
	if err != nil {
		return nil, err
	}

	out, err := ai.Invoke[reviewSentiment](ctx, c.inv, ai.Call{
		Operation:   prompts.SentimentClassify,
		Prompt:      prompt,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, err
	}

	label := Sentiment(strings.ToLower(strings.TrimSpace(out.Sentiment)))
	if !label.Valid() {
		return nil, &ai.SchemaValidationError{
			Operation: prompts.SentimentClassify,
			Reason:    fmt.Sprintf("sentiment %q is not one of positive, negative, neutral", out.Sentiment),
		}
	}

	c.logger.Debug("review classified", "sentiment", label)
	return &Result{Review: review, Sentiment: label}, nil
}

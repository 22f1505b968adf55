package chain

import (
	"fmt"
	"strings"
)

const (
	MinHeadlineWords = 3
	MinBodyWords     = 10
)

// ActionWords are the phrases a call to action must contain one of.
var ActionWords = []string{"buy", "get", "try", "order", "download", "sign up", "learn more"}

// GateValidationError lists every check the marketing copy failed.
type GateValidationError struct {
	Violations []string
}

func (e *GateValidationError) Error() string {
	return fmt.Sprintf("marketing copy failed %d gate check(s): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// Check is one deterministic gate rule. It returns "" when the copy passes.
type Check struct {
	Name string
	Fn   func(c *MarketingCopy) string
}

// DefaultChecks returns the gate rules in evaluation order.
func DefaultChecks() []Check {
	return []Check{
		{Name: "headline", Fn: checkHeadline},
		{Name: "call_to_action", Fn: checkCallToAction},
		{Name: "body", Fn: checkBody},
	}
}

// Validate runs every check and collects violations in check order.
// Returns nil when the copy passes all of them.
func Validate(c *MarketingCopy, checks []Check) error {
	var violations []string
	for _, chk := range checks {
		if msg := chk.Fn(c); msg != "" {
			violations = append(violations, chk.Name+": "+msg)
		}
	}
	if len(violations) > 0 {
		return &GateValidationError{Violations: violations}
	}
	return nil
}

func checkHeadline(c *MarketingCopy) string {
	if n := len(strings.Fields(c.Headline)); n < MinHeadlineWords {
		return fmt.Sprintf("headline too short (%d words, want at least %d)", n, MinHeadlineWords)
	}
	return ""
}

// Matching is a case-insensitive substring test, so "Get started" and
// "Order today" both pass.
func checkCallToAction(c *MarketingCopy) string {
	cta := strings.ToLower(c.CallToAction)
	for _, w := range ActionWords {
		if strings.Contains(cta, w) {
			return ""
		}
	}
	return "call to action not compelling enough (no action word)"
}

func checkBody(c *MarketingCopy) string {
	if n := len(strings.Fields(c.Body)); n < MinBodyWords {
		return fmt.Sprintf("body text too short (%d words, want at least %d)", n, MinBodyWords)
	}
	return ""
}

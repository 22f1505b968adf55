package iterative

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBudget is returned when maxIterations < 1.
	ErrInvalidBudget = errors.New("max iterations must be at least 1")

	// ErrEmptyTask is returned for a blank task description.
	ErrEmptyTask = errors.New("task cannot be empty")
)

// Step names the loop stage that failed.
type Step string

const (
	StepGeneration   Step = "generation"
	StepReview       Step = "review"
	StepOptimization Step = "optimization"
)

// StepError wraps a failure with the step and iteration it occurred in.
// Generation failures report iteration 0.
type StepError struct {
	Step      Step
	Iteration int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed at iteration %d: %v", e.Step, e.Iteration, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

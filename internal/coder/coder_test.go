package coder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/ai/aitest"
	"github.com/steveyegge/agentflows/internal/iterative"
	"github.com/steveyegge/agentflows/internal/prompts"
)

func generation(code string) aitest.Reply {
	return aitest.JSON(map[string]any{
		"code":        code,
		"explanation": "iterative loop",
		"language":    "python",
		"complexity":  "low",
	})
}

func review(ready bool, suggestions ...string) aitest.Reply {
	if suggestions == nil {
		suggestions = []string{}
	}
	return aitest.JSON(map[string]any{
		"functionality_score": 7,
		"quality_score":       6,
		"performance_score":   5,
		"issues":              []string{"no input validation"},
		"suggestions":         suggestions,
		"is_production_ready": ready,
	})
}

func optimization(code string) aitest.Reply {
	return aitest.JSON(map[string]any{
		"optimized_code":     code,
		"improvements_made":  []string{"validated input"},
		"performance_impact": "none",
	})
}

func defaultRoles(inv ai.Invoker) Roles {
	return NewRoles(inv,
		Settings{Temperature: DefaultGeneratorTemperature},
		Settings{Temperature: DefaultReviewerTemperature},
		Settings{Temperature: DefaultOptimizerTemperature},
		nil)
}

func TestGenerator_Generate(t *testing.T) {
	inv := aitest.NewScriptedInvoker().On(prompts.CodeGenerate, generation("def fib(n): ..."))

	got, err := NewGenerator(inv, Settings{Temperature: 0.3, MaxTokens: 512}, nil).Generate(context.Background(), "fibonacci")
	require.NoError(t, err)

	assert.Equal(t, "def fib(n): ...", got.Content)
	assert.Equal(t, "iterative loop", got.Explanation)
	assert.Equal(t, "python", got.Language)
	assert.Equal(t, "low", got.Complexity)

	reqs := inv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.3, reqs[0].Temperature)
	assert.Equal(t, 512, reqs[0].MaxTokens)
	assert.Contains(t, reqs[0].Prompt, "Task: fibonacci")
}

func TestReviewer_MapsFields(t *testing.T) {
	inv := aitest.NewScriptedInvoker().On(prompts.CodeReview, review(true, "add tests"))

	got, err := NewReviewer(inv, Settings{Temperature: 0.1}, nil).Review(context.Background(), "fibonacci", "code-under-review")
	require.NoError(t, err)

	assert.Equal(t, 7, got.Functionality)
	assert.Equal(t, 6, got.Quality)
	assert.Equal(t, 5, got.Performance)
	assert.Equal(t, []string{"no input validation"}, got.Issues)
	assert.Equal(t, []string{"add tests"}, got.Suggestions)
	assert.True(t, got.MeetsReleaseBar)

	req := inv.Requests()[0]
	assert.Equal(t, 0.1, req.Temperature)
	assert.Contains(t, req.Prompt, "code-under-review")
}

func TestReviewer_MissingFieldIsSchemaError(t *testing.T) {
	inv := aitest.NewScriptedInvoker().On(prompts.CodeReview, aitest.JSON(map[string]any{
		"functionality_score": 7,
		"quality_score":       6,
		"performance_score":   5,
		"issues":              []string{},
		"suggestions":         []string{},
	}))

	_, err := NewReviewer(inv, Settings{}, nil).Review(context.Background(), "t", "c")
	require.Error(t, err)

	var se *ai.SchemaValidationError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Reason, "is_production_ready")
}

func TestOptimizer_PassesFeedback(t *testing.T) {
	inv := aitest.NewScriptedInvoker().On(prompts.CodeOptimize, optimization("better"))

	got, err := NewOptimizer(inv, Settings{Temperature: 0.3}, nil).Optimize(context.Background(), "t", "old", "a | b")
	require.NoError(t, err)

	assert.Equal(t, "better", got.Content)
	assert.Equal(t, []string{"validated input"}, got.Improvements)
	assert.Equal(t, "none", got.PerformanceImpact)
	assert.Contains(t, inv.Requests()[0].Prompt, "Review Feedback: a | b")
	assert.Contains(t, inv.Requests()[0].Prompt, "old")
}

func TestLoop_ScriptedGateOnThirdReview(t *testing.T) {
	inv := aitest.NewScriptedInvoker().
		On(prompts.CodeGenerate, generation("v0")).
		On(prompts.CodeReview, review(false, "s1a", "s1b"), review(false, "s2"), review(true)).
		On(prompts.CodeOptimize, optimization("v1"), optimization("v2"))

	result, err := defaultRoles(inv).NewController(iterative.Options{}).Run(context.Background(), "fibonacci", 3)
	require.NoError(t, err)

	assert.Len(t, result.Records, 4)
	assert.True(t, result.GateSatisfied)
	assert.Equal(t, "v2", result.Final)
	assert.Equal(t, 2, inv.CallCount(prompts.CodeOptimize))

	assert.Equal(t, []string{
		prompts.CodeGenerate,
		prompts.CodeReview, prompts.CodeOptimize,
		prompts.CodeReview, prompts.CodeOptimize,
		prompts.CodeReview,
	}, inv.Operations(), "calls must be strictly sequential in loop order")

	reqs := inv.Requests()
	assert.Contains(t, reqs[2].Prompt, "Review Feedback: s1a | s1b")
	assert.Contains(t, reqs[3].Prompt, "v1", "second review must see the first optimization")
	assert.Contains(t, reqs[5].Prompt, "v2")

	for _, r := range reqs {
		switch r.Operation {
		case prompts.CodeReview:
			assert.Equal(t, DefaultReviewerTemperature, r.Temperature)
		default:
			assert.Equal(t, 0.3, r.Temperature)
		}
	}
}

func TestLoop_SchemaFailureOnSecondReviewStops(t *testing.T) {
	inv := aitest.NewScriptedInvoker().
		On(prompts.CodeGenerate, generation("v0")).
		On(prompts.CodeReview, review(false, "s"), aitest.Text(`{"functionality_score": 3}`), review(true)).
		On(prompts.CodeOptimize, optimization("v1"), optimization("v2"))

	result, err := defaultRoles(inv).NewController(iterative.Options{}).Run(context.Background(), "fibonacci", 3)
	require.Error(t, err)
	assert.Nil(t, result)

	var stepErr *iterative.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, iterative.StepReview, stepErr.Step)
	assert.Equal(t, 2, stepErr.Iteration)
	assert.True(t, ai.IsSchemaError(err))

	assert.Equal(t, 2, inv.CallCount(prompts.CodeReview), "no third review")
	assert.Equal(t, 1, inv.Remaining(prompts.CodeReview))
	assert.Equal(t, 1, inv.CallCount(prompts.CodeOptimize))
}

func TestLoop_TransportFailureIsNotRetried(t *testing.T) {
	inv := aitest.NewScriptedInvoker().
		On(prompts.CodeGenerate, aitest.Fail(&ai.TransportError{Operation: prompts.CodeGenerate, Provider: "ollama", Err: errors.New("connection refused")}), generation("v0"))

	_, err := defaultRoles(inv).NewController(iterative.Options{}).Run(context.Background(), "fibonacci", 3)
	require.Error(t, err)
	assert.True(t, ai.IsTransportError(err))
	assert.Equal(t, 1, inv.CallCount(prompts.CodeGenerate))
	assert.Equal(t, 0, inv.CallCount(prompts.CodeReview))
}

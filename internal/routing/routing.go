// Package routing classifies a customer query and dispatches it to exactly
// one specialized handler.
package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/steveyegge/agentflows/internal/ai"
	"github.com/steveyegge/agentflows/internal/prompts"
)

// DefaultTemperature matches the reference routing workflow.
const DefaultTemperature = 0.1

// Category is the closed set of routing targets.
type Category string

const (
	Technical Category = "technical"
	Billing   Category = "billing"
	General   Category = "general"
	Refund    Category = "refund"
)

// Categories lists every known category.
var Categories = []Category{Technical, Billing, General, Refund}

// ParseCategory normalizes a model label, ignoring case and surrounding
// space. Unknown labels are returned lowercased with ok=false; Route still
// dispatches them through the fallback.
func ParseCategory(label string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(label)))
	switch c {
	case Technical, Billing, General, Refund:
		return c, true
	default:
		return c, false
	}
}

// Handler names reported in Result.Handler.
const (
	HandlerTechnical = "Technical Support"
	HandlerBilling   = "Billing Department"
	HandlerGeneral   = "General Support"
	HandlerRefund    = "Refund Department"
)

// Classification is the router's first-stage verdict.
type Classification struct {
	Category   Category
	Recognized bool
	Confidence float64
	Complexity string
}

type queryClassification struct {
	Category   string  `json:"category" jsonschema:"enum=technical,enum=billing,enum=general,enum=refund,description=Query category"`
	Confidence float64 `json:"confidence" jsonschema:"description=Classification confidence 0-1"`
	Complexity string  `json:"complexity" jsonschema:"enum=simple,enum=medium,enum=complex"`
}

// TechnicalResponse is the technical handler's answer.
type TechnicalResponse struct {
	Solution string   `json:"solution" jsonschema:"description=Technical solution"`
	Steps    []string `json:"steps" jsonschema:"description=Step-by-step instructions"`
}

// BillingResponse is the billing handler's answer.
type BillingResponse struct {
	Explanation string `json:"explanation" jsonschema:"description=Billing explanation"`
	NextAction  string `json:"next_action" jsonschema:"description=What customer should do next"`
}

// GeneralResponse is the general handler's answer.
type GeneralResponse struct {
	Answer       string   `json:"answer" jsonschema:"description=General answer"`
	HelpfulLinks []string `json:"helpful_links" jsonschema:"description=Helpful resources"`
}

// RefundResponse is the static escalation notice; no model call is made.
type RefundResponse struct {
	Message           string
	TicketCreated     bool
	EstimatedResponse string
}

// Result carries the classification and exactly one populated response.
type Result struct {
	Query          string
	Classification Classification
	Handler        string

	Technical *TechnicalResponse
	Billing   *BillingResponse
	General   *GeneralResponse
	Refund    *RefundResponse
}

// Router runs classification then dispatch.
type Router struct {
	inv         ai.Invoker
	temperature float64
	logger      *slog.Logger
}

// New creates a router.
func New(inv ai.Invoker, temperature float64, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{inv: inv, temperature: temperature, logger: logger}
}

// Classify runs only the classification stage.
func (r *Router) Classify(ctx context.Context, query string) (*Classification, error) {
	prompt, err := prompts.Render(prompts.RouteClassify, map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	out, err := ai.Invoke[queryClassification](ctx, r.inv, ai.Call{
		Operation:   prompts.RouteClassify,
		Prompt:      prompt,
		Temperature: r.temperature,
	})
	if err != nil {
		return nil, err
	}

	category, ok := ParseCategory(out.Category)
	return &Classification{
		Category:   category,
		Recognized: ok,
		Confidence: out.Confidence,
		Complexity: out.Complexity,
	}, nil
}

// Route classifies query and dispatches it.
func (r *Router) Route(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	cls, err := r.Classify(ctx, query)
	if err != nil {
		return nil, err
	}

	result, err := r.Dispatch(ctx, query, cls.Category)
	if err != nil {
		return nil, err
	}
	result.Classification = *cls

	r.logger.Info("query routed",
		"category", string(cls.Category),
		"recognized", cls.Recognized,
		"confidence", cls.Confidence,
		"handler", result.Handler)

	return result, nil
}

// Dispatch sends query to the handler for category. Unrecognized categories
// fall through to the general handler.
func (r *Router) Dispatch(ctx context.Context, query string, category Category) (*Result, error) {
	result := &Result{Query: query}

	switch category {
	case Technical:
		resp, err := invokeHandler[TechnicalResponse](ctx, r, prompts.RouteTechnical, query)
		if err != nil {
			return nil, err
		}
		result.Handler = HandlerTechnical
		result.Technical = resp

	case Billing:
		resp, err := invokeHandler[BillingResponse](ctx, r, prompts.RouteBilling, query)
		if err != nil {
			return nil, err
		}
		result.Handler = HandlerBilling
		result.Billing = resp

	case Refund:
		result.Handler = HandlerRefund
		result.Refund = &RefundResponse{
			Message:           "Your refund request has been escalated to our specialized refund team. You'll receive a response within 24 hours with next steps.",
			TicketCreated:     true,
			EstimatedResponse: "24 hours",
		}

	case General:
		fallthrough
	default:
		if category != General {
			r.logger.Warn("unrecognized category, using general handler", "category", string(category))
		}
		resp, err := invokeHandler[GeneralResponse](ctx, r, prompts.RouteGeneral, query)
		if err != nil {
			return nil, err
		}
		result.Handler = HandlerGeneral
		result.General = resp
	}

	return result, nil
}

func invokeHandler[T any](ctx context.Context, r *Router, template, query string) (*T, error) {
	prompt, err := prompts.Render(template, map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	return ai.Invoke[T](ctx, r.inv, ai.Call{
		Operation:   template,
		Prompt:      prompt,
		Temperature: r.temperature,
	})
}

package ai

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Call describes one structured-output invocation.
type Call struct {
	Operation   string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Invoke sends call to inv and decodes the reply into a fully populated T.
//
// Any response that cannot be decoded, or that omits a required field, fails
// with *SchemaValidationError. Transport failures come back from inv as-is
// (a *Client already wraps them in *TransportError). Nothing is retried.
func Invoke[T any](ctx context.Context, inv Invoker, call Call) (*T, error) {
	schema := SchemaFor[T]()

	req := &Request{
		Operation:   call.Operation,
		Prompt:      call.Prompt + schemaInstruction(schema),
		SchemaName:  schemaName[T](),
		Schema:      schema,
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
	}

	resp, err := inv.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed := Parse[T](resp.Text, ParseOptions{Operation: call.Operation})
	if !parsed.Success {
		return nil, &SchemaValidationError{
			Operation: call.Operation,
			Reason:    parsed.Error,
			Response:  truncate(resp.Text, 500),
		}
	}

	missing, err := missingRequired(schema, parsed.JSON)
	if err != nil {
		return nil, &SchemaValidationError{
			Operation: call.Operation,
			Reason:    err.Error(),
			Response:  truncate(resp.Text, 500),
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaValidationError{
			Operation: call.Operation,
			Reason:    fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
			Response:  truncate(resp.Text, 500),
		}
	}

	out := parsed.Data
	return &out, nil
}

func schemaName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Name() != "" {
		return t.Name()
	}
	return "response"
}

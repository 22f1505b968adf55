package ai

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// SchemaValidationError reports that a model response could not be coerced
// into the schema the caller declared. It is never retried.
type SchemaValidationError struct {
	Operation string
	Reason    string
	// Response is the (truncated) raw model output, kept for diagnosis
	Response string
}

func (e *SchemaValidationError) Error() string {
	msg := fmt.Sprintf("%s: response does not match schema: %s", e.Operation, e.Reason)
	if e.Response != "" {
		msg += fmt.Sprintf(" (response: %s)", e.Response)
	}
	return msg
}

// TransportError reports that the model could not be reached or the call
// could not be completed.
type TransportError struct {
	Operation string
	Provider  string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s call failed: %v", e.Operation, e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err (or anything it wraps) is a
// SchemaValidationError.
func IsSchemaError(err error) bool {
	var se *SchemaValidationError
	return errors.As(err, &se)
}

// IsTransportError reports whether err (or anything it wraps) is a
// TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

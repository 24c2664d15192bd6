package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvelope matches any *EnvelopeError.
	ErrEnvelope = errors.New("gateway returned an error envelope")

	// ErrAuthRequired means the provider answered with its invalid-token
	// signature. It is a provider-level denial, not a transport failure.
	ErrAuthRequired = errors.New("provider requires authentication")

	// ErrNotArray means the payload held no list where one was expected.
	ErrNotArray = errors.New("payload is not an array")
)

// EnvelopeError carries the error and message fields of a gateway envelope.
type EnvelopeError struct {
	Message string
	Detail  string
}

// Error implements the error interface.
func (e *EnvelopeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Message, e.Detail)
	}
	return "gateway: " + e.Message
}

// Is reports whether target is ErrEnvelope.
func (e *EnvelopeError) Is(target error) bool {
	return target == ErrEnvelope
}

// OperationError records which client operation failed and on what target.
type OperationError struct {
	Op     string
	Target string
	Err    error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error for error chain support.
func (e *OperationError) Unwrap() error {
	return e.Err
}

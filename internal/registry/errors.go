package registry

import (
	"errors"
	"strings"
)

// ErrInvalidUpdateMask is returned when an update mask names anything other
// than the single mutable field.
var ErrInvalidUpdateMask = errors.New("only `is_paused` field can be updated through the API")

// ValidationError carries the field-level messages produced when a patch
// document fails validation. The messages are preserved verbatim for caller
// diagnostics.
type ValidationError struct {
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid DAG patch: " + strings.Join(e.Messages, "; ")
}

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

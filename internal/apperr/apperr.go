// Package apperr defines the error kinds surfaced by the progress core.
// Callers match kinds with errors.Is; the HTTP layer maps them to statuses.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrConcurrency = errors.New("concurrent modification")
)

// Error carries an operation name and a kind alongside the message
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

// New creates an error of the given kind
func New(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// Wrap attaches kind and operation context to err
func Wrap(op string, kind error, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error, or the kind when there is none
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the wrapped error
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// KindOf returns the kind of err, or nil when err carries none
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrConcurrency} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Validation is a shorthand for a validation error with a formatted message
func Validation(op, format string, args ...interface{}) *Error {
	return New(op, ErrValidation, fmt.Sprintf(format, args...))
}

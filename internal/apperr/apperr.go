// Package apperr classifies client-side failures so callers can choose between
// an error panel, an inline validation message and a sign-in warning.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Transport covers rejected requests and non-2xx responses.
	Transport Kind = iota + 1
	// Validation failures are blocked locally and never reach a backend.
	Validation
	// Unauthorized covers missing sessions and actions the user may not take.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TransportError wraps a failed request. status is 0 when no response arrived.
func TransportError(message string, status int, err error) *Error {
	return &Error{
		Kind:    Transport,
		Code:    "REQUEST_FAILED",
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func ValidationError(code, message string) *Error {
	return &Error{
		Kind:    Validation,
		Code:    code,
		Message: message,
	}
}

func UnauthorizedError(code, message string) *Error {
	return &Error{
		Kind:    Unauthorized,
		Code:    code,
		Message: message,
	}
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Is reports whether err wraps an *Error with the given code.
func Is(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// UserMessage returns the message meant for display, falling back to err.Error().
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

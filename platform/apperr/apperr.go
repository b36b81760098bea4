// Package apperr provides standardized domain error types for the application.
// Adapters translate upstream error codes into these typed errors, the
// identity-sync orchestrator branches on the Kind, and the HTTP layer maps
// them to appropriate status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	// It always carries the original cause for logging.
	KindUnknown Kind = iota
	// KindInvalidCredentials indicates a bad email/password combination.
	KindInvalidCredentials
	// KindNotRegistered indicates a federated identity with no business record.
	KindNotRegistered
	// KindUnavailable indicates a transport failure to an upstream system.
	KindUnavailable
	// KindConflict indicates a conflict with existing state (e.g., email already in use).
	KindConflict
	// KindValidation indicates invalid input data (weak password, malformed email).
	KindValidation
	// KindRollback indicates a registration was compensated after a downstream failure.
	KindRollback
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindUnauthorized indicates authentication is required or failed.
	KindUnauthorized
	// KindForbidden indicates the action is not allowed for the user.
	KindForbidden
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// String returns the stable identifier for the kind, used in audit records
// and API error payloads.
func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotRegistered:
		return "not_registered"
	case KindUnavailable:
		return "unavailable"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindRollback:
		return "rollback"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a domain error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotRegistered, KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindRollback:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Convenience constructors for common error types.

// InvalidCredentials creates a bad-credentials error.
func InvalidCredentials(message string) *Error {
	return New(KindInvalidCredentials, message)
}

// NotRegistered creates an error for identities without a business record.
func NotRegistered(message string) *Error {
	return New(KindNotRegistered, message)
}

// Unavailable creates an upstream-unreachable error.
func Unavailable(message string, err error) *Error {
	return Wrap(KindUnavailable, message, err)
}

// Conflict creates a conflict error (e.g., duplicate email).
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Rollback creates an error reporting a compensated registration.
// The cause is preserved for logging and audit.
func Rollback(message string, cause error) *Error {
	return Wrap(KindRollback, message, cause)
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// Internal creates an internal error.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// GetKind extracts the error kind from an error, unwrapping as needed.
// Returns KindUnknown if no *Error is found in the chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

package rpcerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an RPC failure. The set mirrors the error types a client is
// expected to switch on; anything unclassified is reported as Internal.
type Kind string

const (
	InvalidArgument    Kind = "invalid_argument"
	Unauthenticated    Kind = "unauthenticated"
	NotFound           Kind = "not_found"
	FailedPrecondition Kind = "failed_precondition"
	Unavailable        Kind = "unavailable"
	Internal           Kind = "internal"
)

// Error is a typed RPC error. Message is safe to send to clients; the wrapped
// cause (if any) stays server-side.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New returns a typed error with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a server-side cause to a typed error. The cause is never
// serialized to clients.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the Kind from err, walking wrapped errors. Unclassified
// errors report as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a kind to the HTTP status code it travels under.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// kindFromWire maps a wire kind string back to a Kind, defaulting to Internal
// for anything a newer server might send.
func kindFromWire(s string) Kind {
	switch Kind(s) {
	case InvalidArgument, Unauthenticated, NotFound, FailedPrecondition, Unavailable, Internal:
		return Kind(s)
	default:
		return Internal
	}
}

// Package common defines the error taxonomy shared by the repository, service
// and API layers. Callers should use errors.Is against the sentinel kinds.
package common

import (
	"errors"
	"net/http"
)

var (
	ErrorBadRequest   = errors.New("bad request")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorNotFound     = errors.New("not found")
	ErrorInternal     = errors.New("internal error")
)

var kinds = []error{ErrorBadRequest, ErrorUnauthorized, ErrorForbidden, ErrorNotFound, ErrorInternal}

// Error is a classified failure with a message that is safe to show callers.
// Err, when set, is the underlying cause and is never rendered to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindOf returns the sentinel kind err belongs to. Unclassified errors are
// reported as ErrorInternal.
func KindOf(err error) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind != nil {
		return ce.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrorInternal
}

// Message returns the client-facing text for err. The wrapped cause of an
// *Error is never included.
func Message(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return KindOf(err).Error()
}

// HTTPStatus maps err onto a response code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrorBadRequest:
		return http.StatusBadRequest
	case ErrorUnauthorized:
		return http.StatusUnauthorized
	case ErrorForbidden:
		return http.StatusForbidden
	case ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// KindName is the short machine-readable name used in error bodies.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrorBadRequest:
		return "bad_request"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorForbidden:
		return "forbidden"
	case ErrorNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

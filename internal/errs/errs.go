// Package errs defines the domain error kinds shared by the engine, the
// lifecycle manager and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error
type Kind string

const (
	KindInvalidState Kind = "invalid_state"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a domain error carrying its kind and the operation that raised it
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidState reports an operation the game's current state forbids
func InvalidState(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown game, player or VIP id
func NotFound(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input
func Validation(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a concurrent progression of the same game
func Conflict(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure (storage, encoding)
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is a domain error of the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps a kind to the status code used by the API layer
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

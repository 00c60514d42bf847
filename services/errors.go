package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindInvalidState     ErrorKind = "invalid_state"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindUnavailable      ErrorKind = "unavailable"
)

// AppError is the failure type every service operation returns. Code is a
// stable machine-readable identifier, Details carries context (which player,
// which song) so clients can react without parsing Message.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

func (e *AppError) With(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState, KindInsufficientData:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *AppError {
	return newError(KindNotFound, code, message)
}

func Conflict(code, message string) *AppError {
	return newError(KindConflict, code, message)
}

func InvalidState(code, message string) *AppError {
	return newError(KindInvalidState, code, message)
}

func InsufficientData(code, message string) *AppError {
	return newError(KindInsufficientData, code, message)
}

// Unavailable wraps a store or catalog I/O failure.
func Unavailable(code, message string, cause error) *AppError {
	e := newError(KindUnavailable, code, message)
	e.cause = cause
	return e
}

// AsAppError unwraps err into an *AppError, or wraps unknown errors as an
// internal unavailability so handlers always have a kind to map.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unavailable("INTERNAL_ERROR", "unexpected error", err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

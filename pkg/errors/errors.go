// Package errors defines the sentinel errors shared by the engine and the
// request layer, and maps them onto HTTP status codes and the response
// envelope's soft status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrCorpusIO     = errors.New("corpus io")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")

	ErrDocumentExists = errors.New("document already indexed")
)

// Soft status codes carried in the response envelope.
const (
	StatusOK    = 0
	StatusError = -1
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// InvalidInput builds an AppError for a rejected word, prefix or pattern.
func InvalidInput(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

// Is reports whether err matches target. It saves callers from importing both
// this package and the standard errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDocumentExists):
		return http.StatusConflict
	case errors.Is(err, ErrCorpusIO):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// EnvelopeStatus maps an error onto the envelope status code. Not-found is a
// soft condition and still reports success.
func EnvelopeStatus(err error) int {
	if err == nil || errors.Is(err, ErrNotFound) {
		return StatusOK
	}
	return StatusError
}

// Package apperror provides structured, coded errors shared across contexts.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

// AppError implements the error interface and carries a stable code so
// callers can branch on failure class without string matching.
type AppError struct {
	Code      Code
	Message   string
	Context   string
	Timestamp time.Time
	cause     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches two AppErrors by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Option is a functional option for AppError.
type Option func(*AppError)

// WithMessage overrides the default message for the code.
func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

// WithContext attaches call-site context (token id, vault id, url).
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

// WithCause wraps an underlying error.
func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New creates an AppError for code with the given options.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// Wrap converts err into an AppError with the given code, preserving an
// existing AppError's code and enriching its context when empty.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from err, CodeUnknownError if absent.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

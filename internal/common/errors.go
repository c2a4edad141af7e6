package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors. ErrResource and ErrModel are the only two
// failure classes the extraction pipeline propagates; reply-quality
// problems degrade to empty results instead.
var (
	ErrResource     = errors.New("resource unavailable")
	ErrModel        = errors.New("model invocation failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ResourceError wraps a fetch failure so callers can match it with
// errors.Is(err, ErrResource).
func ResourceError(message string, cause error) error {
	return &AppError{Code: "RESOURCE_ERROR", Message: message, Cause: chain(ErrResource, cause)}
}

// ModelError wraps a model invocation failure so callers can match it with
// errors.Is(err, ErrModel).
func ModelError(message string, cause error) error {
	return &AppError{Code: "MODEL_ERROR", Message: message, Cause: chain(ErrModel, cause)}
}

func chain(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

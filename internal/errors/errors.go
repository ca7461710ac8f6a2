package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorelia/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidMode      = "INVALID_MODE"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeFitConvergence   = "FIT_CONVERGENCE"
	CodeEmptyBootstrap   = "EMPTY_BOOTSTRAP"
	CodeTimeout          = "TIMEOUT"
	CodeCancelled        = "CANCELLED"
)

// FromDomain classifies err by the domain sentinel it wraps. AppErrors pass
// through untouched. The order matters: a degenerate fit wraps both
// ErrFitConvergence and ErrInsufficientData and reports as insufficient data.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	code := CodeInternalError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		code = CodeTimeout
	case stderrors.Is(err, context.Canceled):
		code = CodeCancelled
	case stderrors.Is(err, core.ErrInvalidMode):
		code = CodeInvalidMode
	case stderrors.Is(err, core.ErrInvalidInput):
		code = CodeInvalidInput
	case stderrors.Is(err, core.ErrEmptyBootstrap):
		code = CodeEmptyBootstrap
	case stderrors.Is(err, core.ErrInsufficientData):
		code = CodeInsufficientData
	case stderrors.Is(err, core.ErrFitConvergence):
		code = CodeFitConvergence
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: message,
		Cause:   cause,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

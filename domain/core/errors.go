package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidMode  = fmt.Errorf("%w: collapse mode", ErrInvalidInput)

	// Fitting errors
	ErrFitConvergence   = errors.New("distribution fit did not converge")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Bootstrap errors
	ErrEmptyBootstrap = errors.New("no valid bootstrap samples")
)

// Error constructors with context
func NewInvalidModeError(mode string) error {
	return fmt.Errorf("%w %q: expected one of start, mid, end", ErrInvalidMode, mode)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: validation failed for %s: %s", ErrInvalidInput, field, reason)
}

// NewDegenerateFitError reports input no likelihood can be maximised on. It matches
// both ErrFitConvergence and ErrInsufficientData.
func NewDegenerateFitError(family string, reason string) error {
	return fmt.Errorf("%w: %w: %s: %s", ErrFitConvergence, ErrInsufficientData, family, reason)
}

func NewConvergenceError(family string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrFitConvergence, family, err)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrFitConvergence) ||
		errors.Is(err, ErrInsufficientData)
}

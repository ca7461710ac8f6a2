package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AnalysisID identifies one goodness-of-fit or parameter bootstrap run
type AnalysisID string

// NewAnalysisID returns a time-ordered UUIDv7, or a v4 when v7 generation fails
func NewAnalysisID() AnalysisID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return AnalysisID(id.String())
}

func (id AnalysisID) String() string { return string(id) }

func (id AnalysisID) IsEmpty() bool { return id == "" }

// FailureTypeCode names a failure type in the maintenance records
type FailureTypeCode string

func (c FailureTypeCode) String() string { return string(c) }

// ParseFailureTypeCode trims and upper-cases s. Codes match case-insensitively
// in the record store.
func ParseFailureTypeCode(s string) (FailureTypeCode, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: failure type code cannot be empty", ErrInvalidInput)
	}
	return FailureTypeCode(strings.ToUpper(trimmed)), nil
}

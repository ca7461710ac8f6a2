package excel

import (
	"fmt"
	"strings"

	"gorelia/domain/core"
)

// ReaderConfig names the sheet and columns observations are read from
type ReaderConfig struct {
	Sheet           string `json:"sheet"` // first sheet when empty
	LifetimeColumn  string `json:"lifetime_column"`
	UpperColumn     string `json:"upper_column"`
	CensoringColumn string `json:"censoring_column"`
}

// DefaultReaderConfig returns the column names used by exported maintenance sheets
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		LifetimeColumn:  "lifetime",
		UpperColumn:     "upper",
		CensoringColumn: "censoring",
	}
}

// resolve matches header names case-insensitively. The upper column is optional.
func (c ReaderConfig) resolve(header []string) (columnIndex, error) {
	idx := columnIndex{lifetime: -1, upper: -1, censoring: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(c.LifetimeColumn):
			idx.lifetime = i
		case strings.ToLower(c.UpperColumn):
			idx.upper = i
		case strings.ToLower(c.CensoringColumn):
			idx.censoring = i
		}
	}
	if idx.lifetime < 0 {
		return idx, core.NewValidationError("header", fmt.Sprintf("missing %q column", c.LifetimeColumn))
	}
	if idx.censoring < 0 {
		return idx, core.NewValidationError("header", fmt.Sprintf("missing %q column", c.CensoringColumn))
	}
	return idx, nil
}

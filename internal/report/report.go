// Package report holds the analysis reports returned to API and CLI callers
// and renders them as markdown or HTML.
package report

import (
	"time"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal/inference"
)

// FamilyResult is the goodness-of-fit verdict for one parametric family.
// ZPValue and ConfidenceInterval are nil when the bootstrap collected a single sample.
type FamilyResult struct {
	KSStatistic        float64             `json:"ks_statistic"`
	PValue             float64             `json:"p_value"`
	ZPValue            *float64            `json:"z_p_value,omitempty"`
	ConfidenceInterval *inference.Interval `json:"confidence_interval,omitempty"`
	BootstrapSamples   int                 `json:"bootstrap_samples"`
}

// FromSummary lifts an inference summary into a family result
func FromSummary(s inference.Summary) FamilyResult {
	return FamilyResult{
		KSStatistic:        s.Observed,
		PValue:             s.PValue,
		ZPValue:            s.ZPValue,
		ConfidenceInterval: s.ConfidenceInterval,
		BootstrapSamples:   s.Samples,
	}
}

// GoodnessOfFit reports how well Weibull and Exponential describe one dataset.
// Requested and Collected expose any bootstrap shortfall.
type GoodnessOfFit struct {
	AnalysisID   core.AnalysisID           `json:"analysis_id"`
	Dataset      core.Fingerprint          `json:"dataset"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Observations int                       `json:"observations"`
	CollapseMode lifetime.CollapseMode     `json:"collapse_mode"`
	Requested    int                       `json:"requested"`
	Collected    int                       `json:"collected"`
	Weibull      FamilyResult              `json:"weibull"`
	Exponential  FamilyResult              `json:"exponential"`
	Models       []reliability.FittedModel `json:"models"`
	Curves       []reliability.CurvePoint  `json:"curves,omitempty"`
}

// Preferred names the family with the smaller KS statistic
func (r *GoodnessOfFit) Preferred() reliability.Family {
	if r.Exponential.KSStatistic < r.Weibull.KSStatistic {
		return reliability.Exponential
	}
	return reliability.Weibull
}

// ParameterEstimate is one fitted parameter and its bootstrap interval, nil
// when fewer than two bootstrap fits were collected
type ParameterEstimate struct {
	Family             reliability.Family  `json:"family"`
	Name               string              `json:"name"`
	Observed           float64             `json:"observed"`
	ConfidenceInterval *inference.Interval `json:"confidence_interval,omitempty"`
}

// ParameterBootstrap reports bootstrap intervals for alpha, beta and lambda
type ParameterBootstrap struct {
	AnalysisID   core.AnalysisID     `json:"analysis_id"`
	Dataset      core.Fingerprint    `json:"dataset"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Observations int                 `json:"observations"`
	Requested    int                 `json:"requested"`
	Collected    int                 `json:"collected"`
	Parameters   []ParameterEstimate `json:"parameters"`
}

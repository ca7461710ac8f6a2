package reliability

import (
	"fmt"
	"math"

	"gorelia/domain/core"
)

// Family names a lifetime model
type Family string

const (
	Weibull     Family = "weibull"
	Exponential Family = "exponential"
	NelsonAalen Family = "nelson_aalen"
	KaplanMeier Family = "kaplan_meier"
)

// ParametricFamilies lists the families fitted by maximum likelihood, in report order
var ParametricFamilies = []Family{Weibull, Exponential}

// ParamCount returns the number of free parameters k used by AIC
func (f Family) ParamCount() int {
	switch f {
	case Weibull:
		return 2
	case Exponential:
		return 1
	default:
		return 0
	}
}

// ParamNames returns the parameter labels in the order of FittedModel.Params
func (f Family) ParamNames() []string {
	switch f {
	case Weibull:
		return []string{"alpha", "beta"}
	case Exponential:
		return []string{"lambda"}
	default:
		return nil
	}
}

// FittedModel is a maximum-likelihood fit.
// Weibull params are (alpha scale, beta shape); Exponential is (lambda rate).
type FittedModel struct {
	Family        Family    `json:"family"`
	Params        []float64 `json:"params"`
	LogLikelihood float64   `json:"log_likelihood"`
	AIC           float64   `json:"aic"`
}

// Param returns the named parameter, or NaN when the family has no such parameter
func (m FittedModel) Param(name string) float64 {
	for i, n := range m.Family.ParamNames() {
		if n == name && i < len(m.Params) {
			return m.Params[i]
		}
	}
	return math.NaN()
}

// NonParametricEstimate holds a step-function estimator evaluated at the
// sorted distinct lifetimes. Values are cumulative hazard for Nelson-Aalen
// and survival probability for Kaplan-Meier.
type NonParametricEstimate struct {
	Family Family    `json:"family"`
	Points []float64 `json:"points"`
	Values []float64 `json:"values"`
}

// KSStatistic is the pair of discrepancies between each parametric survival
// curve and the Nelson-Aalen survival curve
type KSStatistic struct {
	Weibull     float64 `json:"weibull"`
	Exponential float64 `json:"exponential"`
}

// For returns the statistic of the given family
func (k KSStatistic) For(f Family) float64 {
	if f == Exponential {
		return k.Exponential
	}
	return k.Weibull
}

// Evaluation is one goodness-of-fit pass: the models fitted once, their KS
// distances from the baseline and the curves those distances are taken over
type Evaluation struct {
	Weibull     FittedModel
	Exponential FittedModel
	Baseline    NonParametricEstimate
	KS          KSStatistic
	Curves      []CurvePoint
}

// CurvePoint compares the baseline and model survival at one time
type CurvePoint struct {
	Time        float64 `json:"time"`
	Empirical   float64 `json:"empirical"`
	Weibull     float64 `json:"weibull"`
	Exponential float64 `json:"exponential"`
}

// InitialGuess seeds the Weibull optimizer at (Alpha, Beta)
type InitialGuess struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// Validate requires both components to be positive and finite
func (g InitialGuess) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{{"initial_guess.alpha", g.Alpha}, {"initial_guess.beta", g.Beta}} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			return core.NewValidationError(p.name, fmt.Sprintf("must be positive and finite, got %g", p.v))
		}
	}
	return nil
}

// BootstrapResult maps each family to its collected trials. Statistics holds
// one KS value per trial; Parameters holds one parameter tuple per trial.
// Only one of the two maps is populated, depending on the run. Order is not meaningful.
type BootstrapResult struct {
	Requested  int                    `json:"requested"`
	Statistics map[Family][]float64   `json:"statistics,omitempty"`
	Parameters map[Family][][]float64 `json:"parameters,omitempty"`
}

// Len returns the number of collected trials for the family
func (r *BootstrapResult) Len(f Family) int {
	if r == nil {
		return 0
	}
	if r.Statistics != nil {
		return len(r.Statistics[f])
	}
	return len(r.Parameters[f])
}

// Shortfall returns how many trials are missing for the family
func (r *BootstrapResult) Shortfall(f Family) int {
	if r == nil {
		return 0
	}
	if s := r.Requested - r.Len(f); s > 0 {
		return s
	}
	return 0
}

// ParameterColumn extracts the i-th parameter of every collected tuple
func (r *BootstrapResult) ParameterColumn(f Family, i int) []float64 {
	if r == nil {
		return nil
	}
	out := make([]float64, 0, len(r.Parameters[f]))
	for _, tuple := range r.Parameters[f] {
		if i < len(tuple) {
			out = append(out, tuple[i])
		}
	}
	return out
}

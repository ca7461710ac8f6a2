// Package inference turns bootstrap distributions into p-values and intervals.
package inference

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/core"
)

// DefaultAlpha is the significance level used when none is supplied
const DefaultAlpha = 0.05

// Interval is a normal-approximation confidence interval reported next to
// the observed point estimate
type Interval struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Observed float64 `json:"observed"`
	Alpha    float64 `json:"alpha"`
	Samples  int     `json:"samples"`
}

// Contains reports whether x lies inside the closed interval
func (i Interval) Contains(x float64) bool {
	return x >= i.Lower && x <= i.Upper
}

// Summary bundles every inference for one bootstrap sequence. ZPValue and
// ConfidenceInterval need a sample standard deviation and stay nil when fewer
// than MinSpreadSamples values were collected.
type Summary struct {
	Observed           float64   `json:"observed"`
	PValue             float64   `json:"p_value"`
	ZPValue            *float64  `json:"z_p_value,omitempty"`
	ConfidenceInterval *Interval `json:"confidence_interval,omitempty"`
	Samples            int       `json:"bootstrap_samples"`
}

// MinSpreadSamples is the smallest sequence with a sample standard deviation
const MinSpreadSamples = 2

// EmpiricalPValue is the share of bootstrap values at or above observed
func EmpiricalPValue(values []float64, observed float64) (float64, error) {
	if len(values) == 0 {
		return 0, core.ErrEmptyBootstrap
	}
	count := 0
	for _, v := range values {
		if v >= observed {
			count++
		}
	}
	return float64(count) / float64(len(values)), nil
}

// ZScorePValue is the two-tailed normal p-value of observed's z-score under
// the bootstrap mean and sample standard deviation. With zero spread it is 1
// when observed equals the mean and 0 otherwise.
func ZScorePValue(values []float64, observed float64) (float64, error) {
	mean, sd, err := moments(values)
	if err != nil {
		return 0, err
	}
	if sd == 0 {
		if observed == mean {
			return 1, nil
		}
		return 0, nil
	}
	z := (observed - mean) / sd
	return 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z))), nil
}

// ConfidenceInterval returns mean ± z(1-alpha/2)·sd/√m over the bootstrap values
func ConfidenceInterval(values []float64, observed, alpha float64) (Interval, error) {
	if err := checkAlpha(alpha); err != nil {
		return Interval{}, err
	}
	mean, sd, err := moments(values)
	if err != nil {
		return Interval{}, err
	}
	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	half := z * sd / math.Sqrt(float64(len(values)))
	return Interval{
		Lower:    mean - half,
		Upper:    mean + half,
		Mean:     mean,
		StdDev:   sd,
		Observed: observed,
		Alpha:    alpha,
		Samples:  len(values),
	}, nil
}

// Summarize computes every inference for one sequence. A single value still
// gets its empirical p-value; the spread-based results are left out.
func Summarize(values []float64, observed, alpha float64) (Summary, error) {
	if err := checkAlpha(alpha); err != nil {
		return Summary{}, err
	}
	p, err := EmpiricalPValue(values, observed)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Observed: observed, PValue: p, Samples: len(values)}
	if len(values) < MinSpreadSamples {
		return summary, nil
	}

	zp, err := ZScorePValue(values, observed)
	if err != nil {
		return Summary{}, err
	}
	ci, err := ConfidenceInterval(values, observed, alpha)
	if err != nil {
		return Summary{}, err
	}
	summary.ZPValue = &zp
	summary.ConfidenceInterval = &ci
	return summary, nil
}

func checkAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return core.NewValidationError("alpha", fmt.Sprintf("must be in (0, 1), got %g", alpha))
	}
	return nil
}

// moments needs two values for a sample standard deviation
func moments(values []float64) (mean, sd float64, err error) {
	switch len(values) {
	case 0:
		return 0, 0, core.ErrEmptyBootstrap
	case 1:
		return 0, 0, fmt.Errorf("%w: one bootstrap value has no spread", core.ErrInsufficientData)
	}
	mean, err = stats.Mean(values)
	if err != nil {
		return 0, 0, err
	}
	sd, err = stats.StandardDeviationSample(values)
	if err != nil {
		return 0, 0, err
	}
	return mean, sd, nil
}

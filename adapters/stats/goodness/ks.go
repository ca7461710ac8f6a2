// Package goodness measures how far parametric survival curves sit from the
// Nelson-Aalen baseline.
package goodness

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/ports"
)

// Scorer computes the KS-type statistic on top of a fitter
type Scorer struct {
	fitter ports.DistributionFitterPort
}

// NewScorer creates a scorer
func NewScorer(fitter ports.DistributionFitterPort) *Scorer {
	return &Scorer{fitter: fitter}
}

// KSStatistic fits Weibull, Exponential and Nelson-Aalen to ds and returns, per
// parametric family, the largest absolute gap between its survival function and
// exp(-H(t)) over the sorted distinct lifetimes.
func (s *Scorer) KSStatistic(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.KSStatistic, error) {
	ev, err := s.fit(ds, guess)
	if err != nil {
		return reliability.KSStatistic{}, err
	}
	return Score(ev.Baseline, ev.Weibull, ev.Exponential), nil
}

// Evaluate fits each model once and returns them with their statistic and curves
func (s *Scorer) Evaluate(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.Evaluation, error) {
	ev, err := s.fit(ds, guess)
	if err != nil {
		return reliability.Evaluation{}, err
	}
	ev.KS = Score(ev.Baseline, ev.Weibull, ev.Exponential)
	ev.Curves = SurvivalCurves(ev.Baseline, ev.Weibull, ev.Exponential)
	return ev, nil
}

func (s *Scorer) fit(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.Evaluation, error) {
	var (
		ev  reliability.Evaluation
		err error
	)
	if ev.Weibull, err = s.fitter.FitWeibull(ds, guess); err != nil {
		return ev, err
	}
	if ev.Exponential, err = s.fitter.FitExponential(ds); err != nil {
		return ev, err
	}
	if ev.Baseline, err = s.fitter.FitNelsonAalen(ds); err != nil {
		return ev, err
	}
	return ev, nil
}

// Score evaluates already fitted models against the Nelson-Aalen estimate
func Score(baseline reliability.NonParametricEstimate, weibull, exponential reliability.FittedModel) reliability.KSStatistic {
	w := distuv.Weibull{Lambda: weibull.Params[0], K: weibull.Params[1]}
	e := distuv.Exponential{Rate: exponential.Params[0]}

	var ks reliability.KSStatistic
	for i, t := range baseline.Points {
		empirical := math.Exp(-baseline.Values[i])
		ks.Weibull = math.Max(ks.Weibull, math.Abs(empirical-w.Survival(t)))
		ks.Exponential = math.Max(ks.Exponential, math.Abs(empirical-e.Survival(t)))
	}
	return ks
}

// SurvivalCurves returns the baseline and model survival at each baseline point
func SurvivalCurves(baseline reliability.NonParametricEstimate, weibull, exponential reliability.FittedModel) []reliability.CurvePoint {
	w := distuv.Weibull{Lambda: weibull.Params[0], K: weibull.Params[1]}
	e := distuv.Exponential{Rate: exponential.Params[0]}
	points := make([]reliability.CurvePoint, len(baseline.Points))
	for i, t := range baseline.Points {
		points[i] = reliability.CurvePoint{
			Time:        t,
			Empirical:   math.Exp(-baseline.Values[i]),
			Weibull:     w.Survival(t),
			Exponential: e.Survival(t),
		}
	}
	return points
}

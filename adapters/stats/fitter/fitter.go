// Package fitter implements censored maximum-likelihood fitting of Weibull and
// Exponential lifetime models plus the Nelson-Aalen and Kaplan-Meier estimators.
package fitter

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
)

const (
	defaultMaxIterations = 5000
	defaultTolerance     = 1e-10
	convergenceWindow    = 100
)

// Fitter holds optimizer settings only and is safe for concurrent use
type Fitter struct {
	maxIterations int
	tolerance     float64
}

// Option configures a Fitter
type Option func(*Fitter)

// WithMaxIterations bounds the Nelder-Mead major iterations
func WithMaxIterations(n int) Option {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// WithTolerance sets the absolute function-change tolerance
func WithTolerance(tol float64) Option {
	return func(f *Fitter) {
		if tol > 0 {
			f.tolerance = tol
		}
	}
}

// New creates a fitter
func New(opts ...Option) *Fitter {
	f := &Fitter{maxIterations: defaultMaxIterations, tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParametricFit is the pair of parametric models fitted to one dataset
type ParametricFit struct {
	Weibull     reliability.FittedModel `json:"weibull"`
	Exponential reliability.FittedModel `json:"exponential"`
}

// FitParametric fits both parametric families
func (f *Fitter) FitParametric(ds *lifetime.Dataset, guess *reliability.InitialGuess) (ParametricFit, error) {
	w, err := f.FitWeibull(ds, guess)
	if err != nil {
		return ParametricFit{}, err
	}
	e, err := f.FitExponential(ds)
	if err != nil {
		return ParametricFit{}, err
	}
	return ParametricFit{Weibull: w, Exponential: e}, nil
}

// FitWeibull maximises the censored Weibull likelihood over (alpha, beta).
// The optimizer starts at guess when given, otherwise at (mean lifetime, 1).
func (f *Fitter) FitWeibull(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.FittedModel, error) {
	if err := checkParametric(ds, reliability.Weibull); err != nil {
		return reliability.FittedModel{}, err
	}
	if err := checkPositiveFailures(ds, reliability.Weibull); err != nil {
		return reliability.FittedModel{}, err
	}
	start, err := weibullStart(ds, guess)
	if err != nil {
		return reliability.FittedModel{}, err
	}

	obs := ds.Observations()
	nll := func(x []float64) float64 {
		return negate(weibullLogLikelihood(obs, math.Exp(x[0]), math.Exp(x[1])))
	}

	x, negLL, err := f.minimize(nll, []float64{math.Log(start.Alpha), math.Log(start.Beta)})
	if err != nil {
		return reliability.FittedModel{}, core.NewConvergenceError(string(reliability.Weibull), err)
	}
	alpha, beta := math.Exp(x[0]), math.Exp(x[1])
	if !positiveFinite(alpha) || !positiveFinite(beta) {
		return reliability.FittedModel{}, core.NewConvergenceError(string(reliability.Weibull),
			fmt.Errorf("parameters left the valid range (alpha=%g, beta=%g)", alpha, beta))
	}
	return model(reliability.Weibull, []float64{alpha, beta}, -negLL), nil
}

// FitExponential uses the closed form events/exposure when no entry is
// interval-censored and a one-dimensional likelihood search otherwise.
func (f *Fitter) FitExponential(ds *lifetime.Dataset) (reliability.FittedModel, error) {
	if err := checkParametric(ds, reliability.Exponential); err != nil {
		return reliability.FittedModel{}, err
	}

	obs := ds.Observations()
	events, exposure, intervals := 0, 0.0, 0
	for _, o := range obs {
		switch {
		case isBounded(o):
			intervals++
		case o.Censoring == lifetime.Right:
			exposure += o.Value.Start
		default:
			events++
			exposure += o.Value.Start
		}
	}

	if intervals == 0 {
		if exposure <= 0 {
			return reliability.FittedModel{}, core.NewDegenerateFitError(string(reliability.Exponential), "total exposure is zero")
		}
		rate := float64(events) / exposure
		ll := float64(events)*math.Log(rate) - rate*exposure
		return model(reliability.Exponential, []float64{rate}, ll), nil
	}

	start := float64(events+intervals) / floats.Sum(ds.Lifetimes())
	nll := func(x []float64) float64 {
		return negate(exponentialLogLikelihood(obs, math.Exp(x[0])))
	}
	x, negLL, err := f.minimize(nll, []float64{math.Log(start)})
	if err != nil {
		return reliability.FittedModel{}, core.NewConvergenceError(string(reliability.Exponential), err)
	}
	rate := math.Exp(x[0])
	if !positiveFinite(rate) {
		return reliability.FittedModel{}, core.NewConvergenceError(string(reliability.Exponential),
			fmt.Errorf("rate left the valid range (lambda=%g)", rate))
	}
	return model(reliability.Exponential, []float64{rate}, -negLL), nil
}

// AIC returns 2k - 2 log L for the model's family
func AIC(m reliability.FittedModel) float64 {
	return 2*float64(m.Family.ParamCount()) - 2*m.LogLikelihood
}

func model(family reliability.Family, params []float64, ll float64) reliability.FittedModel {
	m := reliability.FittedModel{Family: family, Params: params, LogLikelihood: ll}
	m.AIC = AIC(m)
	return m
}

// minimize runs Nelder-Mead; anything other than a converged finite optimum is an error
func (f *Fitter) minimize(fn func([]float64) float64, x0 []float64) ([]float64, float64, error) {
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   f.tolerance,
			Iterations: convergenceWindow,
		},
		MajorIterations: f.maxIterations,
	}
	res, err := optimize.Minimize(optimize.Problem{Func: fn}, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, 0, err
	}
	if res == nil {
		return nil, 0, errors.New("optimizer returned no result")
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return nil, 0, fmt.Errorf("likelihood is not finite at the optimum (status %v)", res.Status)
	}
	return res.X, res.F, nil
}

func weibullLogLikelihood(obs []lifetime.Observation, alpha, beta float64) float64 {
	dist := distuv.Weibull{K: beta, Lambda: alpha}
	ll := 0.0
	for _, o := range obs {
		switch {
		case o.Censoring == lifetime.Right:
			ll += dist.LogSurvival(o.Value.Start)
		case isBounded(o):
			ll += intervalLogMass(dist.Survival(o.Value.Start), dist.Survival(o.Value.End))
		default:
			ll += dist.LogProb(o.Value.Start)
		}
	}
	return ll
}

func exponentialLogLikelihood(obs []lifetime.Observation, rate float64) float64 {
	dist := distuv.Exponential{Rate: rate}
	ll := 0.0
	for _, o := range obs {
		switch {
		case o.Censoring == lifetime.Right:
			ll += -rate * o.Value.Start
		case isBounded(o):
			ll += intervalLogMass(dist.Survival(o.Value.Start), dist.Survival(o.Value.End))
		default:
			ll += dist.LogProb(o.Value.Start)
		}
	}
	return ll
}

func intervalLogMass(sLower, sUpper float64) float64 {
	mass := sLower - sUpper
	if mass <= 0 {
		return math.Inf(-1)
	}
	return math.Log(mass)
}

// negate turns a log-likelihood into an objective; non-finite values become +Inf
func negate(ll float64) float64 {
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		return math.Inf(1)
	}
	return -ll
}

func weibullStart(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.InitialGuess, error) {
	if guess != nil {
		if err := guess.Validate(); err != nil {
			return reliability.InitialGuess{}, err
		}
		return *guess, nil
	}
	lifetimes := ds.Lifetimes()
	mean := floats.Sum(lifetimes) / float64(len(lifetimes))
	return reliability.InitialGuess{Alpha: mean, Beta: 1}, nil
}

// isBounded reports whether o contributes an interval mass rather than a density
func isBounded(o lifetime.Observation) bool {
	return o.Censoring == lifetime.Interval && !o.Value.IsScalar()
}

// checkPositiveFailures rejects failures at zero hours. The Weibull density
// there is 0 or +Inf unless beta is 1, and the likelihood grows without bound
// as beta approaches 0, so no maximum exists.
func checkPositiveFailures(ds *lifetime.Dataset, family reliability.Family) error {
	for _, o := range ds.Observations() {
		if o.Censoring != lifetime.Right && !isBounded(o) && o.Value.Start <= 0 {
			return core.NewDegenerateFitError(string(family), "failure recorded at zero hours")
		}
	}
	return nil
}

// checkParametric rejects inputs on which no likelihood can be maximised
func checkParametric(ds *lifetime.Dataset, family reliability.Family) error {
	switch {
	case ds.Len() == 0:
		return core.NewDegenerateFitError(string(family), "dataset is empty")
	case ds.DistinctLifetimes() < 2:
		return core.NewDegenerateFitError(string(family), "fewer than 2 distinct lifetimes")
	case ds.Count(lifetime.Exact) == 0:
		return core.NewDegenerateFitError(string(family), "no exact observations")
	}
	return nil
}

func positiveFinite(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}

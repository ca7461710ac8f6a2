package ports

import (
	"context"
	"time"

	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
)

// DistributionFitterPort fits lifetime models to a censored dataset
type DistributionFitterPort interface {
	// FitWeibull runs maximum likelihood from guess, or from a data-derived start when guess is nil
	FitWeibull(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.FittedModel, error)
	FitExponential(ds *lifetime.Dataset) (reliability.FittedModel, error)
	FitNelsonAalen(ds *lifetime.Dataset) (reliability.NonParametricEstimate, error)
	FitKaplanMeier(ds *lifetime.Dataset) (reliability.NonParametricEstimate, error)
}

// GoodnessOfFitPort scores parametric fits against the non-parametric baseline
type GoodnessOfFitPort interface {
	KSStatistic(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.KSStatistic, error)
}

// FitEvaluatorPort also returns the fitted models and survival curves behind a statistic
type FitEvaluatorPort interface {
	GoodnessOfFitPort
	Evaluate(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.Evaluation, error)
}

// BootstrapPort builds empirical distributions by resampling whole records.
// Returned results may hold fewer trials than requested; cancellation yields no result.
type BootstrapPort interface {
	Statistics(ctx context.Context, ds *lifetime.Dataset, samples int, guess *reliability.InitialGuess) (*reliability.BootstrapResult, error)
	Parameters(ctx context.Context, ds *lifetime.Dataset, samples int, guess *reliability.InitialGuess) (*reliability.BootstrapResult, error)
}

// LifetimeRecordPort reads object lifetime records for a failure type
type LifetimeRecordPort interface {
	ListObjectLifetimes(ctx context.Context, failureTypeCode string) ([]lifetime.ObjectLifetime, error)
	// EarliestStart is the first start date over every lifetime record of any
	// failure type; zero when the store is empty
	EarliestStart(ctx context.Context) (time.Time, error)
}

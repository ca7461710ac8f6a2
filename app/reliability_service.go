package app

import (
	"context"
	"fmt"
	"time"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal"
	"gorelia/internal/censoring"
	"gorelia/internal/derivation"
	"gorelia/internal/errors"
	"gorelia/internal/inference"
	"gorelia/internal/report"
	"gorelia/ports"
)

// ServiceConfig holds defaults applied to requests that leave them out
type ServiceConfig struct {
	Samples        int
	Timeout        time.Duration
	CollapseMode   lifetime.CollapseMode
	Alpha          float64
	EndObservation time.Time
}

// ReliabilityService orchestrates fitting, goodness of fit and parameter bootstrap
type ReliabilityService struct {
	fitter    ports.DistributionFitterPort
	scorer    ports.FitEvaluatorPort
	bootstrap ports.BootstrapPort
	records   ports.LifetimeRecordPort
	config    ServiceConfig
	logger    *internal.Logger
	now       func() time.Time
}

// ServiceOption customises a ReliabilityService
type ServiceOption func(*ReliabilityService)

// WithRecords enables record-backed datasets
func WithRecords(records ports.LifetimeRecordPort) ServiceOption {
	return func(s *ReliabilityService) { s.records = records }
}

// WithServiceLogger sets the logger
func WithServiceLogger(l *internal.Logger) ServiceOption {
	return func(s *ReliabilityService) { s.logger = l.With("ReliabilityService") }
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ReliabilityService) { s.now = now }
}

func NewReliabilityService(fitter ports.DistributionFitterPort, scorer ports.FitEvaluatorPort, bootstrap ports.BootstrapPort, config ServiceConfig, opts ...ServiceOption) *ReliabilityService {
	if config.Samples <= 0 {
		config.Samples = 100
	}
	if config.CollapseMode == "" {
		config.CollapseMode = lifetime.CollapseMid
	}
	if config.Alpha == 0 {
		config.Alpha = inference.DefaultAlpha
	}
	s := &ReliabilityService{
		fitter:    fitter,
		scorer:    scorer,
		bootstrap: bootstrap,
		config:    config,
		logger:    internal.DefaultLogger.With("ReliabilityService"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source describes where a dataset comes from. Exactly one of Lifetimes,
// Records or Query.FailureTypeCode (with a record store) is used, in that order.
type Source struct {
	Lifetimes []lifetime.Observation    `json:"lifetimes"`
	Records   []lifetime.ObjectLifetime `json:"records"`
	Query     lifetime.Query            `json:"query"`
}

// AnalysisOptions tune one analysis. Zero values fall back to the service config.
type AnalysisOptions struct {
	Samples int                       `json:"number_of_bootstrap_samples"`
	Guess   *reliability.InitialGuess `json:"initial_guess,omitempty"`
	Mode    lifetime.CollapseMode     `json:"mode"`
	Alpha   float64                   `json:"alpha"`
}

func (s *ReliabilityService) resolve(opts AnalysisOptions) (AnalysisOptions, error) {
	if opts.Samples == 0 {
		opts.Samples = s.config.Samples
	}
	if opts.Samples < 0 {
		return opts, core.NewValidationError("number_of_bootstrap_samples", "must be positive")
	}
	if opts.Mode == "" {
		opts.Mode = s.config.CollapseMode
	}
	if _, err := lifetime.ParseCollapseMode(string(opts.Mode)); err != nil {
		return opts, err
	}
	if opts.Alpha == 0 {
		opts.Alpha = s.config.Alpha
	}
	if opts.Guess != nil {
		if err := opts.Guess.Validate(); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// CalculateLifetimes derives observations from maintenance records
func (s *ReliabilityService) CalculateLifetimes(ctx context.Context, src Source) (derivation.Result, error) {
	q := src.Query
	if q.EndObservation.IsZero() {
		q.EndObservation = s.config.EndObservation
	}

	records := src.Records
	if len(records) == 0 {
		if q.FailureTypeCode == "" {
			return derivation.Result{}, core.NewValidationError("source", "records or a failure type code are required")
		}
		if s.records == nil {
			return derivation.Result{}, errors.New(errors.CodeNotFound, "no lifetime record store is configured")
		}
		var err error
		if records, err = s.records.ListObjectLifetimes(ctx, q.FailureTypeCode); err != nil {
			return derivation.Result{}, err
		}
		// unobserved objects are counted from the start of the whole record set
		if q.ObservationStart.IsZero() && q.NumObjects > 0 {
			if q.ObservationStart, err = s.records.EarliestStart(ctx); err != nil {
				return derivation.Result{}, err
			}
		}
	}

	res, err := derivation.Calculate(records, q)
	if err != nil {
		return derivation.Result{}, err
	}
	s.logger.Info("derived %d lifetimes for %q (%d unobserved objects, observable=%t)",
		len(res.Observations), q.FailureTypeCode, res.Unobserved, res.Observable)
	return res, nil
}

// Dataset turns a source into a validated dataset
func (s *ReliabilityService) Dataset(ctx context.Context, src Source) (*lifetime.Dataset, error) {
	if len(src.Lifetimes) > 0 {
		return lifetime.NewDataset(src.Lifetimes)
	}
	res, err := s.CalculateLifetimes(ctx, src)
	if err != nil {
		return nil, err
	}
	return res.Dataset()
}

// DistributionFits holds every model fitted to one dataset
type DistributionFits struct {
	Weibull     reliability.FittedModel           `json:"weibull"`
	Exponential reliability.FittedModel           `json:"exponential"`
	NelsonAalen reliability.NonParametricEstimate `json:"nelson_aalen"`
	KaplanMeier reliability.NonParametricEstimate `json:"kaplan_meier"`
}

// FitDistributions fits both parametric families and both non-parametric estimators
func (s *ReliabilityService) FitDistributions(ds *lifetime.Dataset, guess *reliability.InitialGuess) (*DistributionFits, error) {
	weibull, err := s.FitWeibull(ds, guess)
	if err != nil {
		return nil, err
	}
	exponential, err := s.FitExponential(ds)
	if err != nil {
		return nil, err
	}
	na, km, err := s.EstimateNonParametric(ds)
	if err != nil {
		return nil, err
	}
	return &DistributionFits{Weibull: weibull, Exponential: exponential, NelsonAalen: na, KaplanMeier: km}, nil
}

func (s *ReliabilityService) FitWeibull(ds *lifetime.Dataset, guess *reliability.InitialGuess) (reliability.FittedModel, error) {
	if guess != nil {
		if err := guess.Validate(); err != nil {
			return reliability.FittedModel{}, err
		}
	}
	return s.fitter.FitWeibull(ds, guess)
}

func (s *ReliabilityService) FitExponential(ds *lifetime.Dataset) (reliability.FittedModel, error) {
	return s.fitter.FitExponential(ds)
}

// EstimateNonParametric returns the Nelson-Aalen and Kaplan-Meier estimates
func (s *ReliabilityService) EstimateNonParametric(ds *lifetime.Dataset) (na, km reliability.NonParametricEstimate, err error) {
	if na, err = s.fitter.FitNelsonAalen(ds); err != nil {
		return na, km, err
	}
	km, err = s.fitter.FitKaplanMeier(ds)
	return na, km, err
}

// TestStatistic collapses intervals and returns the observed KS statistics
func (s *ReliabilityService) TestStatistic(ds *lifetime.Dataset, opts AnalysisOptions) (reliability.KSStatistic, error) {
	opts, err := s.resolve(opts)
	if err != nil {
		return reliability.KSStatistic{}, err
	}
	collapsed, err := censoring.Collapse(ds, opts.Mode)
	if err != nil {
		return reliability.KSStatistic{}, err
	}
	return s.scorer.KSStatistic(collapsed, opts.Guess)
}

// GoodnessOfFit compares the observed KS statistics with their bootstrap
// distribution on the interval-collapsed data
func (s *ReliabilityService) GoodnessOfFit(ctx context.Context, ds *lifetime.Dataset, opts AnalysisOptions) (*report.GoodnessOfFit, error) {
	opts, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}
	collapsed, err := censoring.Collapse(ds, opts.Mode)
	if err != nil {
		return nil, err
	}

	observed, err := s.scorer.Evaluate(collapsed, opts.Guess)
	if err != nil {
		return nil, fmt.Errorf("observed statistic: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	boot, err := s.bootstrap.Statistics(ctx, collapsed, opts.Samples, opts.Guess)
	if err != nil {
		return nil, err
	}

	rep := &report.GoodnessOfFit{
		AnalysisID:   core.NewAnalysisID(),
		Dataset:      ds.Fingerprint(),
		GeneratedAt:  s.now().UTC(),
		Observations: ds.Len(),
		CollapseMode: opts.Mode,
		Requested:    boot.Requested,
		Collected:    boot.Len(reliability.Weibull),
		Models:       []reliability.FittedModel{observed.Weibull, observed.Exponential},
		Curves:       observed.Curves,
	}
	if rep.Collected < rep.Requested {
		s.logger.Warn("analysis %s: %d of %d bootstrap samples collected", rep.AnalysisID, rep.Collected, rep.Requested)
	}

	for _, family := range reliability.ParametricFamilies {
		summary, err := inference.Summarize(boot.Statistics[family], observed.KS.For(family), opts.Alpha)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", family, err)
		}
		if family == reliability.Weibull {
			rep.Weibull = report.FromSummary(summary)
		} else {
			rep.Exponential = report.FromSummary(summary)
		}
	}

	s.logger.Info("analysis %s: KS weibull=%.4f (p=%.3f) exponential=%.4f (p=%.3f)",
		rep.AnalysisID, rep.Weibull.KSStatistic, rep.Weibull.PValue, rep.Exponential.KSStatistic, rep.Exponential.PValue)
	return rep, nil
}

// BootstrapParameters reports bootstrap confidence intervals for alpha, beta and lambda
func (s *ReliabilityService) BootstrapParameters(ctx context.Context, ds *lifetime.Dataset, opts AnalysisOptions) (*report.ParameterBootstrap, error) {
	opts, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	fits := map[reliability.Family]reliability.FittedModel{}
	if fits[reliability.Weibull], err = s.fitter.FitWeibull(ds, opts.Guess); err != nil {
		return nil, err
	}
	if fits[reliability.Exponential], err = s.fitter.FitExponential(ds); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	boot, err := s.bootstrap.Parameters(ctx, ds, opts.Samples, opts.Guess)
	if err != nil {
		return nil, err
	}

	rep := &report.ParameterBootstrap{
		AnalysisID:   core.NewAnalysisID(),
		Dataset:      ds.Fingerprint(),
		GeneratedAt:  s.now().UTC(),
		Observations: ds.Len(),
		Requested:    boot.Requested,
		Collected:    boot.Len(reliability.Weibull),
	}
	if rep.Collected == 0 {
		return nil, core.ErrEmptyBootstrap
	}
	if rep.Collected < inference.MinSpreadSamples {
		s.logger.Warn("analysis %s: %d bootstrap refits, confidence intervals unavailable", rep.AnalysisID, rep.Collected)
	}
	for _, family := range reliability.ParametricFamilies {
		for i, name := range family.ParamNames() {
			estimate := report.ParameterEstimate{
				Family:   family,
				Name:     name,
				Observed: fits[family].Params[i],
			}
			if column := boot.ParameterColumn(family, i); len(column) >= inference.MinSpreadSamples {
				ci, err := inference.ConfidenceInterval(column, estimate.Observed, opts.Alpha)
				if err != nil {
					return nil, fmt.Errorf("%s %s: %w", family, name, err)
				}
				estimate.ConfidenceInterval = &ci
			}
			rep.Parameters = append(rep.Parameters, estimate)
		}
	}
	return rep, nil
}

func (s *ReliabilityService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Timeout)
	}
	return context.WithCancel(ctx)
}

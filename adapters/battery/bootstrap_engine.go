// Package battery runs the resampling batteries behind goodness-of-fit and
// parameter uncertainty estimates.
package battery

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal"
	"gorelia/internal/metrics"
	"gorelia/ports"
)

const (
	// DefaultMaxAttempts caps the draws spent on one resample slot
	DefaultMaxAttempts = 1000

	// maxPasses is the initial pass plus one backfill pass
	maxPasses = 2

	kindStatistics = "statistics"
	kindParameters = "parameters"
)

// Config tunes the engine
type Config struct {
	Workers     int   // concurrent tasks; defaults to runtime.NumCPU()
	MaxAttempts int   // draw attempts per slot; defaults to DefaultMaxAttempts
	Seed        int64 // base seed; 0 derives one from the clock on every call
}

// Engine draws whole-record resamples in parallel and re-fits or re-scores each one.
// It keeps no state between calls.
type Engine struct {
	fitter  ports.DistributionFitterPort
	scorer  ports.GoodnessOfFitPort
	rngPort ports.RNGPort
	config  Config
	metrics *metrics.BootstrapMetrics
	logger  *internal.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithMetrics attaches Prometheus collectors
func WithMetrics(m *metrics.BootstrapMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger replaces the default logger
func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) { e.logger = l.With("BootstrapEngine") }
}

// NewEngine creates a bootstrap engine
func NewEngine(fitter ports.DistributionFitterPort, scorer ports.GoodnessOfFitPort, rngPort ports.RNGPort, config Config, opts ...Option) *Engine {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	e := &Engine{
		fitter:  fitter,
		scorer:  scorer,
		rngPort: rngPort,
		config:  config,
		logger:  internal.DefaultLogger.With("BootstrapEngine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Statistics collects (D_weibull, D_exponential) pairs over resamples of ds.
// The result may hold fewer pairs than requested; cancellation returns no result.
func (e *Engine) Statistics(ctx context.Context, ds *lifetime.Dataset, samples int, guess *reliability.InitialGuess) (*reliability.BootstrapResult, error) {
	trials, err := runTrials(ctx, e, ds, samples, kindStatistics, func(sample *lifetime.Dataset) (reliability.KSStatistic, error) {
		return e.scorer.KSStatistic(sample, guess)
	})
	if err != nil {
		return nil, err
	}

	result := &reliability.BootstrapResult{
		Requested: samples,
		Statistics: map[reliability.Family][]float64{
			reliability.Weibull:     make([]float64, 0, len(trials)),
			reliability.Exponential: make([]float64, 0, len(trials)),
		},
	}
	for _, ks := range trials {
		result.Statistics[reliability.Weibull] = append(result.Statistics[reliability.Weibull], ks.Weibull)
		result.Statistics[reliability.Exponential] = append(result.Statistics[reliability.Exponential], ks.Exponential)
	}
	return result, nil
}

type parameterTrial struct {
	weibull     []float64
	exponential []float64
}

// Parameters collects fitted (alpha, beta) Weibull and (lambda) Exponential
// parameters over resamples of ds. A trial where either fit fails is discarded whole.
func (e *Engine) Parameters(ctx context.Context, ds *lifetime.Dataset, samples int, guess *reliability.InitialGuess) (*reliability.BootstrapResult, error) {
	trials, err := runTrials(ctx, e, ds, samples, kindParameters, func(sample *lifetime.Dataset) (parameterTrial, error) {
		w, err := e.fitter.FitWeibull(sample, guess)
		if err != nil {
			return parameterTrial{}, err
		}
		x, err := e.fitter.FitExponential(sample)
		if err != nil {
			return parameterTrial{}, err
		}
		return parameterTrial{weibull: w.Params, exponential: x.Params}, nil
	})
	if err != nil {
		return nil, err
	}

	result := &reliability.BootstrapResult{
		Requested: samples,
		Parameters: map[reliability.Family][][]float64{
			reliability.Weibull:     make([][]float64, 0, len(trials)),
			reliability.Exponential: make([][]float64, 0, len(trials)),
		},
	}
	for _, tr := range trials {
		result.Parameters[reliability.Weibull] = append(result.Parameters[reliability.Weibull], tr.weibull)
		result.Parameters[reliability.Exponential] = append(result.Parameters[reliability.Exponential], tr.exponential)
	}
	return result, nil
}

// runTrials performs the draw and fit passes: one full pass, then at most one
// backfill pass for whatever the first pass could not deliver.
func runTrials[T any](ctx context.Context, e *Engine, ds *lifetime.Dataset, samples int, kind string, trial func(*lifetime.Dataset) (T, error)) ([]T, error) {
	if samples <= 0 {
		return nil, core.NewValidationError("samples", fmt.Sprintf("must be positive, got %d", samples))
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: cannot resample an empty dataset", core.ErrInsufficientData)
	}

	seed := e.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := kind + ":" + ds.Fingerprint().Short()

	collected := make([]T, 0, samples)
	for pass := 0; pass < maxPasses && len(collected) < samples; pass++ {
		want := samples - len(collected)
		started := time.Now()

		draws, err := e.drawPass(ctx, ds, runID, pass, want, seed)
		if err != nil {
			return nil, fmt.Errorf("bootstrap %s aborted: %w", kind, err)
		}

		var failed atomic.Int64
		out, err := runPool(ctx, e.config.Workers, len(draws), func(ctx context.Context, slot int) (T, bool) {
			v, err := trial(draws[slot])
			if err != nil {
				failed.Add(1)
				e.logger.Debug("%s pass %d: discarding trial %d: %v", kind, pass, slot, err)
				return v, false
			}
			return v, true
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap %s aborted: %w", kind, err)
		}
		collected = append(collected, out...)

		e.metrics.RecordTasks(kind, len(out), int(failed.Load()))
		e.metrics.ObservePass(kind, time.Since(started))
		e.logger.Info("%s pass %d collected %d/%d (%d drawn, %d failed)",
			kind, pass+1, len(collected), samples, len(draws), failed.Load())
	}

	if missing := samples - len(collected); missing > 0 {
		e.metrics.RecordShortfall(kind, missing)
		e.logger.Warn("%s returned %d of %d requested samples after backfill", kind, len(collected), samples)
	}
	return collected, nil
}

// drawPass fills want slots in parallel; abandoned slots are dropped
func (e *Engine) drawPass(ctx context.Context, ds *lifetime.Dataset, runID string, pass, want int, seed int64) ([]*lifetime.Dataset, error) {
	var accepted, retried, abandoned atomic.Int64
	draws, err := runPool(ctx, e.config.Workers, want, func(ctx context.Context, slot int) (*lifetime.Dataset, bool) {
		rng, err := e.rngPort.Stream(ctx, runID, pass, slot, seed)
		if err != nil {
			return nil, false
		}
		sample, attempts, ok := drawSlot(ctx, rng, ds, e.config.MaxAttempts)
		if !ok {
			retried.Add(int64(attempts))
			if ctx.Err() == nil {
				abandoned.Add(1)
				e.logger.Trace("%s pass %d: slot %d abandoned after %d draws", runID, pass, slot, attempts)
			}
			return nil, false
		}
		accepted.Add(1)
		retried.Add(int64(attempts - 1))
		return sample, true
	})
	e.metrics.RecordDraws(int(accepted.Load()), int(retried.Load()), int(abandoned.Load()))
	return draws, err
}

// drawSlot retries until a draw validates or the attempt budget is spent
func drawSlot(ctx context.Context, rng *rand.Rand, ds *lifetime.Dataset, maxAttempts int) (*lifetime.Dataset, int, bool) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, attempt - 1, false
		}
		sample, _ := Resample(rng, ds)
		if ValidResample(sample) {
			return sample, attempt, true
		}
	}
	return nil, maxAttempts, false
}

// Resample draws ds.Len() whole records with replacement and returns the
// sample with the source index of every drawn record.
func Resample(rng *rand.Rand, ds *lifetime.Dataset) (*lifetime.Dataset, []int) {
	n := ds.Len()
	indices := make([]int, n)
	obs := make([]lifetime.Observation, n)
	for i := range obs {
		indices[i] = rng.Intn(n)
		obs[i] = ds.At(indices[i])
	}
	// records come from a validated dataset, so this cannot fail
	sample, _ := lifetime.NewDataset(obs)
	return sample, indices
}

// ValidResample accepts a draw with at least one exact observation and at
// least two distinct lifetimes.
func ValidResample(ds *lifetime.Dataset) bool {
	return ds != nil && ds.Count(lifetime.Exact) > 0 && ds.DistinctLifetimes() >= 2
}

// runPool executes task for every slot in [0, n) on at most workers goroutines.
// A task discards its slot by returning false. Only cancellation fails the pool,
// and then no partial output is returned.
func runPool[T any](ctx context.Context, workers, n int, task func(ctx context.Context, slot int) (T, bool)) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]T, n)
	keep := make([]bool, n)
	for slot := 0; slot < n; slot++ {
		if gctx.Err() != nil {
			break
		}
		slot := slot
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[slot], keep[slot] = task(gctx, slot)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, n)
	for slot, ok := range keep {
		if ok {
			out = append(out, results[slot])
		}
	}
	return out, nil
}

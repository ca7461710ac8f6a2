// Package testkit provides deterministic lifetime fixtures and test doubles.
package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/adapters/rng"
	"gorelia/domain/lifetime"
	"gorelia/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng *rng.SeededAdapter
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{rng: rng.NewSeededAdapter()}
}

// RNGAdapter returns the seeded RNG adapter used by production code
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// ScenarioObservations returns the four-record mixed-censoring scenario:
// two failures, one survivor and one inspection-found failure in (2, 8).
func ScenarioObservations() []lifetime.Observation {
	return []lifetime.Observation{
		{Value: lifetime.Scalar(5), Censoring: lifetime.Exact},
		{Value: lifetime.Scalar(10), Censoring: lifetime.Exact},
		{Value: lifetime.Scalar(15), Censoring: lifetime.Right},
		{Value: lifetime.Bounds(2, 8), Censoring: lifetime.Interval},
	}
}

// ScenarioDataset wraps ScenarioObservations
func ScenarioDataset() *lifetime.Dataset {
	return MustDataset(ScenarioObservations())
}

// MustDataset builds a dataset and panics on invalid fixtures
func MustDataset(obs []lifetime.Observation) *lifetime.Dataset {
	ds, err := lifetime.NewDataset(obs)
	if err != nil {
		panic(fmt.Sprintf("testkit: invalid fixture: %v", err))
	}
	return ds
}

// WeibullObservations draws n lifetimes from Weibull(shape, scale) and right-censors
// everything beyond censorAt. A non-positive censorAt disables censoring.
func WeibullObservations(seed int64, n int, shape, scale, censorAt float64) []lifetime.Observation {
	r := rand.New(rand.NewSource(seed))
	dist := distuv.Weibull{K: shape, Lambda: scale}
	obs := make([]lifetime.Observation, n)
	for i := range obs {
		t := dist.Quantile(r.Float64())
		if censorAt > 0 && t > censorAt {
			obs[i] = lifetime.Observation{Value: lifetime.Scalar(censorAt), Censoring: lifetime.Right}
			continue
		}
		obs[i] = lifetime.Observation{Value: lifetime.Scalar(round(t)), Censoring: lifetime.Exact}
	}
	return obs
}

// round keeps fixtures readable in failure output
func round(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// CancelledContext returns a context that is already cancelled
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

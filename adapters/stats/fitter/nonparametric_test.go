package fitter

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal/testkit"
)

func TestFitNelsonAalen(t *testing.T) {
	est, err := New().FitNelsonAalen(testkit.ScenarioDataset())
	require.NoError(t, err)

	// sorted: 5 (exact), 5 (interval midpoint), 10 (exact), 15 (right)
	assert.Equal(t, reliability.NelsonAalen, est.Family)
	assert.Equal(t, []float64{5, 10, 15}, est.Points)
	assert.InDeltaSlice(t, []float64{0.5, 1.0, 1.0}, est.Values, 1e-12)
}

func TestFitKaplanMeier(t *testing.T) {
	est, err := New().FitKaplanMeier(testkit.ScenarioDataset())
	require.NoError(t, err)

	assert.Equal(t, reliability.KaplanMeier, est.Family)
	assert.Equal(t, []float64{5, 10, 15}, est.Points)
	assert.InDeltaSlice(t, []float64{0.5, 0.25, 0.25}, est.Values, 1e-12)
}

func TestKaplanMeierWithoutCensoringIsEmpirical(t *testing.T) {
	ds := testkit.MustDataset([]lifetime.Observation{
		{Value: lifetime.Scalar(1), Censoring: lifetime.Exact},
		{Value: lifetime.Scalar(2), Censoring: lifetime.Exact},
		{Value: lifetime.Scalar(3), Censoring: lifetime.Exact},
		{Value: lifetime.Scalar(4), Censoring: lifetime.Exact},
	})
	est, err := New().FitKaplanMeier(ds)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.75, 0.5, 0.25, 0}, est.Values, 1e-12)
}

func TestNonParametricIgnoresOrder(t *testing.T) {
	obs := testkit.WeibullObservations(5, 60, 1.3, 40, 55)
	shuffled := make([]lifetime.Observation, len(obs))
	copy(shuffled, obs)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	f := New()
	a, err := f.FitNelsonAalen(testkit.MustDataset(obs))
	require.NoError(t, err)
	b, err := f.FitNelsonAalen(testkit.MustDataset(shuffled))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNelsonAalenIsNonDecreasing(t *testing.T) {
	est, err := New().FitNelsonAalen(testkit.MustDataset(testkit.WeibullObservations(9, 100, 2, 10, 12)))
	require.NoError(t, err)
	for i := 1; i < len(est.Values); i++ {
		assert.GreaterOrEqual(t, est.Values[i], est.Values[i-1])
		assert.Greater(t, est.Points[i], est.Points[i-1])
	}
}

func TestNonParametricRejectsEmpty(t *testing.T) {
	ds := testkit.MustDataset(nil)

	_, err := New().FitNelsonAalen(ds)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
	_, err = New().FitKaplanMeier(ds)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
}

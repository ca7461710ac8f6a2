package lifetime

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorelia/domain/core"
)

func TestNewDatasetValidation(t *testing.T) {
	tests := []struct {
		name    string
		obs     []Observation
		wantErr bool
	}{
		{"exact scalar", []Observation{{Scalar(5), Exact}}, false},
		{"right scalar", []Observation{{Scalar(5), Right}}, false},
		{"interval ordered", []Observation{{Bounds(2, 8), Interval}}, false},
		{"interval degenerate", []Observation{{Bounds(4, 4), Interval}}, false},
		{"interval reversed", []Observation{{Bounds(8, 2), Interval}}, true},
		{"exact with bounds", []Observation{{Bounds(2, 8), Exact}}, true},
		{"negative lifetime", []Observation{{Scalar(-1), Exact}}, true},
		{"nan lifetime", []Observation{{Scalar(math.NaN()), Right}}, true},
		{"unknown censoring", []Observation{{Scalar(1), Censoring(7)}}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDataset(tt.obs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, core.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.obs), ds.Len())
		})
	}
}

func TestDatasetIsImmutable(t *testing.T) {
	obs := []Observation{{Scalar(5), Exact}, {Scalar(10), Right}}
	ds, err := NewDataset(obs)
	require.NoError(t, err)

	obs[0].Value = Scalar(99)
	lifetimes := ds.Lifetimes()
	lifetimes[1] = 42

	assert.Equal(t, []float64{5, 10}, ds.Lifetimes())
}

func TestDatasetProjections(t *testing.T) {
	ds, err := FromArrays(
		[]Value{Scalar(5), Scalar(10), Scalar(15), Bounds(2, 8)},
		[]Censoring{Exact, Exact, Right, Interval},
	)
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 10, 15, 5}, ds.Lifetimes())
	assert.Equal(t, []Censoring{Exact, Exact, Right, Interval}, ds.Censorings())
	assert.Equal(t, 2, ds.Count(Exact))
	assert.Equal(t, 3, ds.DistinctLifetimes())

	_, err = FromArrays([]Value{Scalar(1)}, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestFingerprintIgnoresOrder(t *testing.T) {
	a, _ := NewDataset([]Observation{{Scalar(5), Exact}, {Bounds(2, 8), Interval}})
	b, _ := NewDataset([]Observation{{Bounds(2, 8), Interval}, {Scalar(5), Exact}})
	c, _ := NewDataset([]Observation{{Scalar(5), Right}, {Bounds(2, 8), Interval}})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestParseCollapseMode(t *testing.T) {
	for _, s := range []string{"start", "mid", "end"} {
		m, err := ParseCollapseMode(s)
		require.NoError(t, err)
		assert.Equal(t, CollapseMode(s), m)
	}

	for _, s := range []string{"", "middle", "MID", "begin"} {
		_, err := ParseCollapseMode(s)
		assert.True(t, errors.Is(err, core.ErrInvalidMode), "mode %q", s)
	}
}

func TestParseCensoring(t *testing.T) {
	tests := map[string]Censoring{"0": Exact, "exact": Exact, "1": Right, " Right ": Right, "2": Interval, "interval": Interval}
	for in, want := range tests {
		got, err := ParseCensoring(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCensoring("3")
	assert.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	var obs []Observation
	err := json.Unmarshal([]byte(`[{"lifetime":5,"censoring":0},{"lifetime":[2,8],"censoring":2}]`), &obs)
	require.NoError(t, err)
	assert.Equal(t, Scalar(5), obs[0].Value)
	assert.Equal(t, Bounds(2, 8), obs[1].Value)

	out, err := json.Marshal(obs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"lifetime":5,"censoring":0},{"lifetime":[2,8],"censoring":2}]`, string(out))

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &v))
}

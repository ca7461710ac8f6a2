// Package censoring normalises mixed exact, right- and interval-censored
// lifetimes into the shapes the fitters consume.
package censoring

import (
	"gorelia/domain/lifetime"
)

// Collapse rewrites every interval entry to a scalar chosen by mode and
// reclassifies it as exact. Exact and right entries pass through, so
// collapsing an already-collapsed dataset returns an equal dataset.
func Collapse(ds *lifetime.Dataset, mode lifetime.CollapseMode) (*lifetime.Dataset, error) {
	if _, err := lifetime.ParseCollapseMode(string(mode)); err != nil {
		return nil, err
	}
	obs := ds.Observations()
	for i, o := range obs {
		if o.Censoring != lifetime.Interval {
			continue
		}
		v, err := mode.Pick(o.Value)
		if err != nil {
			return nil, err
		}
		obs[i] = lifetime.Observation{Value: lifetime.Scalar(v), Censoring: lifetime.Exact}
	}
	return lifetime.NewDataset(obs)
}

// Split returns the parallel (values, censorings) projection without
// touching interval entries.
func Split(ds *lifetime.Dataset) ([]lifetime.Value, []lifetime.Censoring) {
	return ds.Values(), ds.Censorings()
}

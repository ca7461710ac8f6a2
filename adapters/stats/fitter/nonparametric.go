package fitter

import (
	"fmt"
	"sort"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
)

// riskRow is one distinct time of the risk table
type riskRow struct {
	t      float64
	events int
	atRisk int
}

// riskTable groups the representative lifetimes into distinct sorted times.
// Right-censored entries count as at risk at their own time but never as events.
func riskTable(obs []lifetime.Observation) []riskRow {
	type point struct {
		t     float64
		event bool
	}
	pts := make([]point, len(obs))
	for i, o := range obs {
		pts[i] = point{t: o.Representative(), event: o.Censoring != lifetime.Right}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t < pts[j].t })

	rows := make([]riskRow, 0, len(pts))
	for i := 0; i < len(pts); {
		j, d := i, 0
		for j < len(pts) && pts[j].t == pts[i].t {
			if pts[j].event {
				d++
			}
			j++
		}
		rows = append(rows, riskRow{t: pts[i].t, events: d, atRisk: len(pts) - i})
		i = j
	}
	return rows
}

// FitNelsonAalen returns the cumulative hazard H(t) = sum d_i/n_i at every distinct lifetime
func (f *Fitter) FitNelsonAalen(ds *lifetime.Dataset) (reliability.NonParametricEstimate, error) {
	rows, err := nonParametricRows(ds, reliability.NelsonAalen)
	if err != nil {
		return reliability.NonParametricEstimate{}, err
	}
	est := reliability.NonParametricEstimate{
		Family: reliability.NelsonAalen,
		Points: make([]float64, len(rows)),
		Values: make([]float64, len(rows)),
	}
	h := 0.0
	for i, r := range rows {
		h += float64(r.events) / float64(r.atRisk)
		est.Points[i] = r.t
		est.Values[i] = h
	}
	return est, nil
}

// FitKaplanMeier returns the product-limit survival at every distinct lifetime
func (f *Fitter) FitKaplanMeier(ds *lifetime.Dataset) (reliability.NonParametricEstimate, error) {
	rows, err := nonParametricRows(ds, reliability.KaplanMeier)
	if err != nil {
		return reliability.NonParametricEstimate{}, err
	}
	est := reliability.NonParametricEstimate{
		Family: reliability.KaplanMeier,
		Points: make([]float64, len(rows)),
		Values: make([]float64, len(rows)),
	}
	s := 1.0
	for i, r := range rows {
		s *= 1 - float64(r.events)/float64(r.atRisk)
		est.Points[i] = r.t
		est.Values[i] = s
	}
	return est, nil
}

func nonParametricRows(ds *lifetime.Dataset, family reliability.Family) ([]riskRow, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: dataset is empty", core.ErrInsufficientData, family)
	}
	return riskTable(ds.Observations()), nil
}

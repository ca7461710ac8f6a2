// Package derivation turns maintenance object-lifetime records into censored
// lifetime observations measured in hours.
package derivation

import (
	"fmt"
	"time"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
)

// Result holds the derived observations and how they were produced
type Result struct {
	Observations []lifetime.Observation `json:"observations"`
	Observable   bool                   `json:"observable"`
	Unobserved   int                    `json:"unobserved_objects"`
}

// Dataset wraps the observations in a validated dataset
func (r Result) Dataset() (*lifetime.Dataset, error) {
	return lifetime.NewDataset(r.Observations)
}

// Calculate derives one observation per record plus one right-censored
// observation for every object that never appears in the records.
//
// Observable failures yield exact lifetimes (end - start). Failures only found at
// inspection yield intervals (intervalStart - start, intervalEnd - start). Objects
// still in service are right-censored at the end of observation. Objects missing
// from the records are right-censored at (end of observation - q.ObservationStart),
// falling back to the earliest start among records when it is zero.
func Calculate(records []lifetime.ObjectLifetime, q lifetime.Query) (Result, error) {
	if len(records) == 0 {
		return Result{}, fmt.Errorf("%w: no object lifetimes recorded for failure type %q", core.ErrInsufficientData, q.FailureTypeCode)
	}
	if q.EndObservation.IsZero() {
		return Result{}, core.NewValidationError("end_observation_period", "is required")
	}
	if q.NumObjects < 0 {
		return Result{}, core.NewValidationError("num_objects", "must not be negative")
	}

	observable := anyObservable(records)
	if q.Observable != nil {
		observable = *q.Observable
	}

	res := Result{Observable: observable, Observations: make([]lifetime.Observation, 0, len(records))}
	objects := make(map[string]struct{}, len(records))
	earliest := records[0].StartDate

	for i, rec := range records {
		objects[rec.ObjectCode] = struct{}{}
		if rec.StartDate.Before(earliest) {
			earliest = rec.StartDate
		}

		obs, err := observe(rec, q.EndObservation, observable)
		if err != nil {
			return Result{}, fmt.Errorf("record %d (object %s): %w", i, rec.ObjectCode, err)
		}
		res.Observations = append(res.Observations, obs)
	}

	res.Unobserved = q.NumObjects - len(objects)
	if res.Unobserved < 0 {
		res.Unobserved = 0
	}
	if !q.ObservationStart.IsZero() {
		earliest = q.ObservationStart
	}
	if res.Unobserved > 0 {
		h, err := hoursBetween(earliest, q.EndObservation)
		if err != nil {
			return Result{}, fmt.Errorf("unobserved objects: %w", err)
		}
		for i := 0; i < res.Unobserved; i++ {
			res.Observations = append(res.Observations, lifetime.Observation{Value: lifetime.Scalar(h), Censoring: lifetime.Right})
		}
	}
	return res, nil
}

func observe(rec lifetime.ObjectLifetime, endObservation time.Time, observable bool) (lifetime.Observation, error) {
	if rec.EndDate == nil {
		h, err := hoursBetween(rec.StartDate, endObservation)
		if err != nil {
			return lifetime.Observation{}, err
		}
		return lifetime.Observation{Value: lifetime.Scalar(h), Censoring: lifetime.Right}, nil
	}

	if observable {
		h, err := hoursBetween(rec.StartDate, *rec.EndDate)
		if err != nil {
			return lifetime.Observation{}, err
		}
		return lifetime.Observation{Value: lifetime.Scalar(h), Censoring: lifetime.Exact}, nil
	}

	if rec.IntervalStart == nil || rec.IntervalEnd == nil {
		return lifetime.Observation{}, core.NewValidationError("interval", "unobservable failure without inspection interval")
	}
	lower, err := hoursBetween(rec.StartDate, *rec.IntervalStart)
	if err != nil {
		return lifetime.Observation{}, err
	}
	upper, err := hoursBetween(rec.StartDate, *rec.IntervalEnd)
	if err != nil {
		return lifetime.Observation{}, err
	}
	if lower > upper {
		return lifetime.Observation{}, core.NewValidationError("interval", "inspection interval ends before it starts")
	}
	return lifetime.Observation{Value: lifetime.Bounds(lower, upper), Censoring: lifetime.Interval}, nil
}

func hoursBetween(from, to time.Time) (float64, error) {
	h := to.Sub(from).Hours()
	if h < 0 {
		return 0, core.NewValidationError("dates", fmt.Sprintf("%s is before %s", to.Format(time.DateOnly), from.Format(time.DateOnly)))
	}
	return h, nil
}

func anyObservable(records []lifetime.ObjectLifetime) bool {
	for _, r := range records {
		if r.Observable {
			return true
		}
	}
	return false
}

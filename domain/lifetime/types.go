package lifetime

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gorelia/domain/core"
)

// Censoring describes how much is known about a single lifetime
type Censoring int

const (
	Exact    Censoring = 0 // failure time observed
	Right    Censoring = 1 // survived past the end of observation
	Interval Censoring = 2 // failed somewhere between two inspections
)

func (c Censoring) String() string {
	switch c {
	case Exact:
		return "exact"
	case Right:
		return "right"
	case Interval:
		return "interval"
	default:
		return fmt.Sprintf("censoring(%d)", int(c))
	}
}

// Valid reports whether c is one of the three known codes
func (c Censoring) Valid() bool {
	return c == Exact || c == Right || c == Interval
}

// ParseCensoring accepts the numeric codes 0/1/2 or the names exact/right/interval.
func ParseCensoring(s string) (Censoring, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "exact", "failure", "observed":
		return Exact, nil
	case "1", "right", "censored", "suspended":
		return Right, nil
	case "2", "interval":
		return Interval, nil
	default:
		return 0, core.NewValidationError("censoring", fmt.Sprintf("unknown code %q", s))
	}
}

// Value is a lifetime in hours. Exact and right-censored lifetimes are scalars
// (Start == End); interval-censored lifetimes carry their bounds.
type Value struct {
	Start float64
	End   float64
}

// Scalar builds a single-valued lifetime
func Scalar(hours float64) Value {
	return Value{Start: hours, End: hours}
}

// Bounds builds an interval lifetime
func Bounds(start, end float64) Value {
	return Value{Start: start, End: end}
}

// IsScalar reports whether both bounds coincide
func (v Value) IsScalar() bool {
	return v.Start == v.End
}

// Mid returns the midpoint of the bounds
func (v Value) Mid() float64 {
	return (v.Start + v.End) / 2
}

// Observation is one lifetime tagged with its censoring kind
type Observation struct {
	Value     Value     `json:"lifetime"`
	Censoring Censoring `json:"censoring"`
}

// Representative returns the scalar used wherever a single time is needed:
// the value itself for exact/right entries and the midpoint for intervals.
func (o Observation) Representative() float64 {
	if o.Censoring == Interval {
		return o.Value.Mid()
	}
	return o.Value.Start
}

func (o Observation) validate(i int) error {
	if !o.Censoring.Valid() {
		return core.NewValidationError(fmt.Sprintf("observations[%d].censoring", i), fmt.Sprintf("unknown code %d", int(o.Censoring)))
	}
	if isBad(o.Value.Start) || isBad(o.Value.End) {
		return core.NewValidationError(fmt.Sprintf("observations[%d].value", i), "lifetime must be a finite non-negative number")
	}
	switch o.Censoring {
	case Interval:
		if o.Value.Start > o.Value.End {
			return core.NewValidationError(fmt.Sprintf("observations[%d].value", i), "interval start exceeds end")
		}
	default:
		if !o.Value.IsScalar() {
			return core.NewValidationError(fmt.Sprintf("observations[%d].value", i), fmt.Sprintf("%s lifetime must be a scalar", o.Censoring))
		}
	}
	return nil
}

func isBad(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0) || x < 0
}

// Dataset is an immutable, index-aligned collection of observations.
// All accessors hand out copies.
type Dataset struct {
	obs []Observation
}

// NewDataset validates and copies the observations
func NewDataset(obs []Observation) (*Dataset, error) {
	cp := make([]Observation, len(obs))
	for i, o := range obs {
		if err := o.validate(i); err != nil {
			return nil, err
		}
		cp[i] = o
	}
	return &Dataset{obs: cp}, nil
}

// FromArrays builds a dataset from the parallel (values, censorings) projection
func FromArrays(values []Value, censorings []Censoring) (*Dataset, error) {
	if len(values) != len(censorings) {
		return nil, core.NewValidationError("censorings", fmt.Sprintf("length %d does not match %d lifetimes", len(censorings), len(values)))
	}
	obs := make([]Observation, len(values))
	for i := range values {
		obs[i] = Observation{Value: values[i], Censoring: censorings[i]}
	}
	return NewDataset(obs)
}

// Len returns the number of observations
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.obs)
}

// At returns the i-th observation
func (d *Dataset) At(i int) Observation {
	return d.obs[i]
}

// Observations returns a copy of all observations
func (d *Dataset) Observations() []Observation {
	out := make([]Observation, len(d.obs))
	copy(out, d.obs)
	return out
}

// Values returns a copy of the raw lifetime values
func (d *Dataset) Values() []Value {
	out := make([]Value, len(d.obs))
	for i, o := range d.obs {
		out[i] = o.Value
	}
	return out
}

// Lifetimes returns the representative scalar of every observation
func (d *Dataset) Lifetimes() []float64 {
	out := make([]float64, len(d.obs))
	for i, o := range d.obs {
		out[i] = o.Representative()
	}
	return out
}

// Censorings returns a copy of the censoring codes
func (d *Dataset) Censorings() []Censoring {
	out := make([]Censoring, len(d.obs))
	for i, o := range d.obs {
		out[i] = o.Censoring
	}
	return out
}

// Count returns how many observations carry censoring c
func (d *Dataset) Count(c Censoring) int {
	n := 0
	for _, o := range d.obs {
		if o.Censoring == c {
			n++
		}
	}
	return n
}

// DistinctLifetimes returns the number of distinct representative lifetimes
func (d *Dataset) DistinctLifetimes() int {
	seen := make(map[float64]struct{}, len(d.obs))
	for _, o := range d.obs {
		seen[o.Representative()] = struct{}{}
	}
	return len(seen)
}

// Fingerprint hashes the observations, independent of their order
func (d *Dataset) Fingerprint() core.Fingerprint {
	lines := make([]string, len(d.obs))
	for i, o := range d.obs {
		lines[i] = fmt.Sprintf("%d:%g:%g", o.Censoring, o.Value.Start, o.Value.End)
	}
	sort.Strings(lines)
	return core.NewFingerprint([]byte(strings.Join(lines, "|")))
}

// CollapseMode picks the representative value of an interval
type CollapseMode string

const (
	CollapseStart CollapseMode = "start"
	CollapseMid   CollapseMode = "mid"
	CollapseEnd   CollapseMode = "end"
)

// ParseCollapseMode accepts exactly the literals start, mid and end
func ParseCollapseMode(s string) (CollapseMode, error) {
	switch CollapseMode(s) {
	case CollapseStart, CollapseMid, CollapseEnd:
		return CollapseMode(s), nil
	default:
		return "", core.NewInvalidModeError(s)
	}
}

// Pick returns the representative point of v under the mode
func (m CollapseMode) Pick(v Value) (float64, error) {
	switch m {
	case CollapseStart:
		return v.Start, nil
	case CollapseMid:
		return v.Mid(), nil
	case CollapseEnd:
		return v.End, nil
	default:
		return 0, core.NewInvalidModeError(string(m))
	}
}

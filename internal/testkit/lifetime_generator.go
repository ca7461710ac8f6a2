package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/lifetime"
)

// LifetimeGeneratorConfig configures the maintenance record generator
type LifetimeGeneratorConfig struct {
	ObjectCount     int           `json:"object_count"`
	FailingObjects  int           `json:"failing_objects"`
	Shape           float64       `json:"shape"`
	ScaleHours      float64       `json:"scale_hours"`
	StartDate       time.Time     `json:"start_date"`
	EndObservation  time.Time     `json:"end_observation"`
	Observable      bool          `json:"observable"`
	InspectionEvery time.Duration `json:"inspection_every"`
	Seed            int64         `json:"seed"`
}

// DefaultLifetimeConfig returns sensible defaults for record generation
func DefaultLifetimeConfig() LifetimeGeneratorConfig {
	return LifetimeGeneratorConfig{
		ObjectCount:     40,
		FailingObjects:  30,
		Shape:           1.8,
		ScaleHours:      6000,
		StartDate:       time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		EndObservation:  time.Date(2016, 6, 30, 0, 0, 0, 0, time.UTC),
		Observable:      true,
		InspectionEvery: 30 * 24 * time.Hour,
		Seed:            42,
	}
}

// LifetimeRecordGenerator generates object lifetime records as a maintenance system would store them
type LifetimeRecordGenerator struct {
	config LifetimeGeneratorConfig
	rng    *rand.Rand
}

// NewLifetimeRecordGenerator creates a new generator
func NewLifetimeRecordGenerator(config LifetimeGeneratorConfig) *LifetimeRecordGenerator {
	return &LifetimeRecordGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords generates one record per failing object. The remaining
// ObjectCount-FailingObjects objects never appear in maintenance data.
func (g *LifetimeRecordGenerator) GenerateRecords() ([]lifetime.ObjectLifetime, error) {
	if g.config.FailingObjects > g.config.ObjectCount {
		return nil, fmt.Errorf("failing objects (%d) exceed object count (%d)", g.config.FailingObjects, g.config.ObjectCount)
	}
	if !g.config.EndObservation.After(g.config.StartDate) {
		return nil, fmt.Errorf("observation end %s is not after start %s", g.config.EndObservation, g.config.StartDate)
	}

	dist := distuv.Weibull{K: g.config.Shape, Lambda: g.config.ScaleHours}
	records := make([]lifetime.ObjectLifetime, 0, g.config.FailingObjects)
	for i := 0; i < g.config.FailingObjects; i++ {
		records = append(records, g.generateObject(fmt.Sprintf("OBJ-%04d", i+1), dist))
	}
	return records, nil
}

func (g *LifetimeRecordGenerator) generateObject(code string, dist distuv.Weibull) lifetime.ObjectLifetime {
	// Installations spread over the first 30 days, truncated to the hour
	start := g.config.StartDate.Add(time.Duration(g.rng.Intn(30*24)) * time.Hour)
	failure := start.Add(hours(dist.Quantile(g.rng.Float64())))

	rec := lifetime.ObjectLifetime{
		ObjectCode: code,
		StartDate:  start,
		Observable: g.config.Observable,
	}
	if !failure.Before(g.config.EndObservation) {
		return rec
	}

	if g.config.Observable || g.config.InspectionEvery <= 0 {
		rec.EndDate = &failure
		return rec
	}

	// Unobservable failures are only found at the next inspection
	elapsed := failure.Sub(start)
	k := elapsed / g.config.InspectionEvery
	lower := start.Add(k * g.config.InspectionEvery)
	upper := lower.Add(g.config.InspectionEvery)
	rec.IntervalStart = &lower
	rec.IntervalEnd = &upper
	rec.EndDate = &upper
	return rec
}

func hours(h float64) time.Duration {
	return time.Duration(math.Round(h)) * time.Hour
}

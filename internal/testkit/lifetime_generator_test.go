package testkit

import (
	"testing"
	"time"
)

func TestLifetimeRecordGenerator_Basic(t *testing.T) {
	config := DefaultLifetimeConfig()
	config.FailingObjects = 10

	records, err := NewLifetimeRecordGenerator(config).GenerateRecords()
	if err != nil {
		t.Fatalf("Failed to generate records: %v", err)
	}

	if len(records) != 10 {
		t.Fatalf("Expected 10 records, got %d", len(records))
	}

	for i, rec := range records {
		if rec.ObjectCode == "" {
			t.Errorf("Record %d has empty object code", i)
		}
		if rec.StartDate.Before(config.StartDate) {
			t.Errorf("Record %d starts before the configured start date", i)
		}
		if rec.EndDate != nil && rec.EndDate.Before(rec.StartDate) {
			t.Errorf("Record %d ends before it starts", i)
		}
		if rec.IntervalStart != nil {
			t.Errorf("Record %d is observable but carries interval bounds", i)
		}
	}
}

func TestLifetimeRecordGenerator_Deterministic(t *testing.T) {
	config := DefaultLifetimeConfig()

	a, err := NewLifetimeRecordGenerator(config).GenerateRecords()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewLifetimeRecordGenerator(config).GenerateRecords()
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if !a[i].StartDate.Equal(b[i].StartDate) {
			t.Errorf("Record %d differs between runs with the same seed", i)
		}
	}
}

func TestLifetimeRecordGenerator_Unobservable(t *testing.T) {
	config := DefaultLifetimeConfig()
	config.Observable = false
	config.InspectionEvery = 7 * 24 * time.Hour

	records, err := NewLifetimeRecordGenerator(config).GenerateRecords()
	if err != nil {
		t.Fatal(err)
	}

	inspected := 0
	for i, rec := range records {
		if rec.EndDate == nil {
			continue
		}
		inspected++
		if rec.IntervalStart == nil || rec.IntervalEnd == nil {
			t.Fatalf("Record %d failed without interval bounds", i)
		}
		if rec.IntervalEnd.Sub(*rec.IntervalStart) != config.InspectionEvery {
			t.Errorf("Record %d interval width %s, expected %s", i, rec.IntervalEnd.Sub(*rec.IntervalStart), config.InspectionEvery)
		}
	}
	if inspected == 0 {
		t.Error("Expected at least one failure found at inspection")
	}
}

func TestLifetimeRecordGenerator_RejectsBadConfig(t *testing.T) {
	config := DefaultLifetimeConfig()
	config.FailingObjects = config.ObjectCount + 1
	if _, err := NewLifetimeRecordGenerator(config).GenerateRecords(); err == nil {
		t.Error("Expected error when failing objects exceed object count")
	}
}

func TestWeibullObservationsCensoring(t *testing.T) {
	obs := WeibullObservations(7, 200, 1.5, 100, 120)
	if len(obs) != 200 {
		t.Fatalf("Expected 200 observations, got %d", len(obs))
	}
	for i, o := range obs {
		if o.Value.Start > 120 {
			t.Errorf("Observation %d exceeds the censoring time: %v", i, o.Value.Start)
		}
	}
	if ds := MustDataset(obs); ds.Count(0) == 0 || ds.Count(1) == 0 {
		t.Errorf("Expected both exact and right-censored observations, got %d exact / %d right", ds.Count(0), ds.Count(1))
	}
}

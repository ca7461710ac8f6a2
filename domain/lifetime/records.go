package lifetime

import "time"

// ObjectLifetime is one installation period of a monitored object as
// recorded by maintenance. EndDate is nil while the object is still in
// service; the interval bounds are only set for failures found at inspection.
type ObjectLifetime struct {
	ObjectCode    string     `json:"object_code" db:"object_code"`
	StartDate     time.Time  `json:"start_date" db:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty" db:"end_date"`
	IntervalStart *time.Time `json:"interval_start,omitempty" db:"interval_start"`
	IntervalEnd   *time.Time `json:"interval_end,omitempty" db:"interval_end"`
	Observable    bool       `json:"observable" db:"observable"`
}

// Query selects how records are turned into lifetimes
type Query struct {
	FailureTypeCode string    `json:"failure_type_code"`
	NumObjects      int       `json:"num_objects"`
	EndObservation  time.Time `json:"end_observation_period"`
	// ObservationStart is where unobserved objects begin; the earliest record start when zero
	ObservationStart time.Time `json:"observation_start,omitempty"`
	// Observable overrides the flag carried by the records when set
	Observable *bool `json:"observable,omitempty"`
}

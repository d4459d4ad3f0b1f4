package model

import (
	"time"

	"github.com/google/uuid"
)

// MetricKind identifies a daily physiological series.
type MetricKind string

const (
	MetricHRV       MetricKind = "hrv"
	MetricRestingHR MetricKind = "resting_hr"
	MetricSleep     MetricKind = "sleep"
	MetricSteps     MetricKind = "steps"
	MetricWeight    MetricKind = "weight"
)

// MetricKinds lists every supported metric kind.
var MetricKinds = []MetricKind{
	MetricHRV,
	MetricRestingHR,
	MetricSleep,
	MetricSteps,
	MetricWeight,
}

// MetricUnits maps metric kinds to their units.
var MetricUnits = map[MetricKind]string{
	MetricHRV:       "ms",
	MetricRestingHR: "bpm",
	MetricSleep:     "hours",
	MetricSteps:     "steps",
	MetricWeight:    "lbs",
}

// Valid reports whether the kind is one of the supported metric kinds.
func (k MetricKind) Valid() bool {
	_, ok := MetricUnits[k]
	return ok
}

// ActivityKind identifies the type of a workout.
type ActivityKind string

const (
	ActivityRun      ActivityKind = "run"
	ActivityRide     ActivityKind = "ride"
	ActivitySwim     ActivityKind = "swim"
	ActivityWalk     ActivityKind = "walk"
	ActivityHike     ActivityKind = "hike"
	ActivityStrength ActivityKind = "strength"
	ActivityOther    ActivityKind = "other"
)

// ActivityKinds lists every supported activity kind.
var ActivityKinds = []ActivityKind{
	ActivityRun,
	ActivityRide,
	ActivitySwim,
	ActivityWalk,
	ActivityHike,
	ActivityStrength,
	ActivityOther,
}

// Valid reports whether the kind is one of the supported activity kinds.
func (k ActivityKind) Valid() bool {
	for _, known := range ActivityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// MetricPoint is one physiological reading collapsed to a day.
// There is at most one point per (day, kind); a later point for the
// same day overwrites the earlier one.
type MetricPoint struct {
	Date  time.Time  `json:"date"`
	Kind  MetricKind `json:"kind"`
	Value float64    `json:"value"`
}

// Workout is a discrete exercise session.
type Workout struct {
	ID              string       `json:"id"`
	Kind            ActivityKind `json:"kind"`
	StartTime       time.Time    `json:"startTime"`
	DurationSeconds int          `json:"durationSeconds"`
	DistanceMeters  *float64     `json:"distanceMeters,omitempty"`
	AvgPowerWatts   *float64     `json:"avgPowerWatts,omitempty"`
	AvgHeartRateBpm *float64     `json:"avgHeartRateBpm,omitempty"`
	SufferScore     *float64     `json:"sufferScore,omitempty"`
}

// EnsureID fills in a generated ID when the feed omitted one.
func (w *Workout) EnsureID() {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
}

// NutritionLog is one day of logged nutrition totals.
type NutritionLog struct {
	Date              time.Time `json:"date"`
	TotalCarbsGrams   float64   `json:"totalCarbsGrams"`
	TotalProteinGrams float64   `json:"totalProteinGrams"`
	IsComplete        bool      `json:"isComplete"`
}

// Snapshot is the immutable batch of inputs for one analysis pass.
type Snapshot struct {
	Metrics   []MetricPoint  `json:"metrics"`
	Workouts  []Workout      `json:"workouts"`
	Nutrition []NutritionLog `json:"nutrition"`
}

// ConfidenceTier qualifies how much history backs a derived result.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// DayLayout is the canonical date key format for daily series.
const DayLayout = "2006-01-02"

// DayKey collapses a timestamp to its calendar-day key.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

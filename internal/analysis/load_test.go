package analysis

import (
	"math"
	"testing"
	"time"

	"trainpulse/internal/model"
)

func day(offset int) time.Time {
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func floatPtr(f float64) *float64 { return &f }

func TestWorkoutLoad(t *testing.T) {
	tests := []struct {
		name     string
		workout  model.Workout
		expected float64
	}{
		{
			name: "one hour run at base rate",
			workout: model.Workout{
				Kind:            model.ActivityRun,
				DurationSeconds: 3600,
			},
			expected: 65,
		},
		{
			name: "ninety minute ride",
			workout: model.Workout{
				Kind:            model.ActivityRide,
				DurationSeconds: 5400,
			},
			expected: 112.5,
		},
		{
			name: "half hour strength session",
			workout: model.Workout{
				Kind:            model.ActivityStrength,
				DurationSeconds: 1800,
			},
			expected: 25,
		},
		{
			name: "suffer score overrides the rate estimate",
			workout: model.Workout{
				Kind:            model.ActivityRun,
				DurationSeconds: 3600,
				SufferScore:     floatPtr(120),
			},
			expected: 120,
		},
		{
			name: "zero suffer score falls back to the rate",
			workout: model.Workout{
				Kind:            model.ActivitySwim,
				DurationSeconds: 3600,
				SufferScore:     floatPtr(0),
			},
			expected: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkoutLoad(tt.workout)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("WorkoutLoad() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDailyLoads(t *testing.T) {
	workouts := []model.Workout{
		{Kind: model.ActivityRun, StartTime: day(0), DurationSeconds: 3600},
		{Kind: model.ActivityStrength, StartTime: day(0).Add(8 * time.Hour), DurationSeconds: 1800},
		{Kind: model.ActivityRide, StartTime: day(-1), DurationSeconds: 3600},
	}
	metrics := []model.MetricPoint{
		// workout day: step bonus must not apply
		{Date: day(0), Kind: model.MetricSteps, Value: 15000},
		// rest day with high steps: bonus load
		{Date: day(-2), Kind: model.MetricSteps, Value: 15000},
		// rest day below the threshold: no load
		{Date: day(-3), Kind: model.MetricSteps, Value: 9500},
	}

	loads := DailyLoads(workouts, metrics)

	if got := loads[model.DayKey(day(0))]; math.Abs(got-90) > 0.001 {
		t.Errorf("same-day workouts should sum: got %v, want 90", got)
	}
	if got := loads[model.DayKey(day(-1))]; math.Abs(got-75) > 0.001 {
		t.Errorf("ride day load = %v, want 75", got)
	}
	if got := loads[model.DayKey(day(-2))]; math.Abs(got-1) > 0.001 {
		t.Errorf("step bonus = %v, want (15000-10000)/5000 = 1", got)
	}
	if _, ok := loads[model.DayKey(day(-3))]; ok {
		t.Error("steps below 10k should not produce a load entry")
	}
}

func TestDailyLoadsSparse(t *testing.T) {
	loads := DailyLoads(nil, nil)
	if len(loads) != 0 {
		t.Errorf("expected empty load map, got %d entries", len(loads))
	}
	// Absent days read as zero load.
	if loads[model.DayKey(day(0))] != 0 {
		t.Error("absent day should read as zero load")
	}
}

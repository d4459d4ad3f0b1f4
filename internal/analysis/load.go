package analysis

import (
	"time"

	"trainpulse/internal/model"
)

// hourlyLoadRates gives the base training load per hour for each activity kind.
// A provider-supplied suffer score overrides the rate-based estimate.
var hourlyLoadRates = map[model.ActivityKind]float64{
	model.ActivityRun:      65,
	model.ActivityRide:     75,
	model.ActivitySwim:     70,
	model.ActivityWalk:     30,
	model.ActivityHike:     30,
	model.ActivityStrength: 50,
	model.ActivityOther:    40,
}

const (
	stepBonusThreshold = 10000
	stepBonusDivisor   = 5000
)

// WorkoutLoad estimates the training load of a single workout.
func WorkoutLoad(w model.Workout) float64 {
	if w.SufferScore != nil && *w.SufferScore > 0 {
		return *w.SufferScore
	}
	hours := float64(w.DurationSeconds) / 3600.0
	return hours * hourlyLoadRates[w.Kind]
}

// DailyLoads collapses workouts into one load value per calendar day.
// Multiple workouts on the same day sum. Days with no workout but a step
// count of at least 10k get a light bonus load. The result is sparse:
// days absent from the map carry zero load.
func DailyLoads(workouts []model.Workout, metrics []model.MetricPoint) map[string]float64 {
	loads := make(map[string]float64, len(workouts))
	for _, w := range workouts {
		loads[model.DayKey(w.StartTime)] += WorkoutLoad(w)
	}
	for _, m := range metrics {
		if m.Kind != model.MetricSteps || m.Value < stepBonusThreshold {
			continue
		}
		day := model.DayKey(m.Date)
		if _, hasWorkout := loads[day]; hasWorkout {
			continue
		}
		loads[day] = (m.Value - stepBonusThreshold) / stepBonusDivisor
	}
	return loads
}

// windowSum sums loads over the trailing window [asOf-(days-1), asOf].
func windowSum(loads map[string]float64, asOf time.Time, days int) float64 {
	var sum float64
	for i := 0; i < days; i++ {
		sum += loads[model.DayKey(asOf.AddDate(0, 0, -i))]
	}
	return sum
}

// windowMean averages loads over the trailing window, counting absent
// days as zero load.
func windowMean(loads map[string]float64, asOf time.Time, days int) float64 {
	if days <= 0 {
		return 0
	}
	return windowSum(loads, asOf, days) / float64(days)
}

package predict

import (
	"trainpulse/internal/analysis"
	"trainpulse/internal/model"
)

// MetersPerMile converts workout distances to miles for speed targets.
const MetersPerMile = 1609.34

// featureNames orders the five model features. Feature vectors and
// importance weights follow this order.
var featureNames = []string{"sleepHours", "hrv", "restingHR", "acwr", "carbs"}

// Features are the inputs to one prediction.
type Features struct {
	SleepHours float64 `json:"sleepHours"`
	HRV        float64 `json:"hrv"`
	RestingHR  float64 `json:"restingHR"`
	ACWR       float64 `json:"acwr"`
	Carbs      float64 `json:"carbs"`
}

func (f Features) vector() []float64 {
	return []float64{f.SleepHours, f.HRV, f.RestingHR, f.ACWR, f.Carbs}
}

// TrainingRow is one supervised-learning example: the features known on
// the morning of a workout and the performance actually realized.
type TrainingRow struct {
	Features
	Performance float64
	Kind        model.ActivityKind
}

// PerformanceUnit returns the realized-performance unit for an activity
// kind: power for cycling, speed otherwise.
func PerformanceUnit(kind model.ActivityKind) string {
	if kind == model.ActivityRide {
		return "watts"
	}
	return "mph"
}

// BuildTrainingRows joins the daily series onto each workout. A row is
// produced only when the previous night's sleep, same-day HRV and
// resting HR, the prior day's carbs, and the ACWR as of the day before
// are all present; workouts missing any feature are discarded.
func BuildTrainingRows(snap *model.Snapshot) []TrainingRow {
	type dayKind struct {
		day  string
		kind model.MetricKind
	}
	metricByDay := make(map[dayKind]float64, len(snap.Metrics))
	for _, m := range snap.Metrics {
		metricByDay[dayKind{model.DayKey(m.Date), m.Kind}] = m.Value
	}
	carbsByDay := make(map[string]float64, len(snap.Nutrition))
	for _, n := range snap.Nutrition {
		carbsByDay[model.DayKey(n.Date)] = n.TotalCarbsGrams
	}

	loads := analysis.DailyLoads(snap.Workouts, snap.Metrics)

	var rows []TrainingRow
	for _, w := range snap.Workouts {
		performance, ok := realizedPerformance(w)
		if !ok {
			continue
		}

		day := model.DayKey(w.StartTime)
		prevDay := model.DayKey(w.StartTime.AddDate(0, 0, -1))

		sleep, haveSleep := metricByDay[dayKind{day, model.MetricSleep}]
		hrv, haveHRV := metricByDay[dayKind{day, model.MetricHRV}]
		rhr, haveRHR := metricByDay[dayKind{day, model.MetricRestingHR}]
		carbs, haveCarbs := carbsByDay[prevDay]
		if !haveSleep || !haveHRV || !haveRHR || !haveCarbs {
			continue
		}

		summary := analysis.ComputeLoadSummary(loads, w.StartTime.AddDate(0, 0, -1))
		if summary == nil {
			continue
		}

		rows = append(rows, TrainingRow{
			Features: Features{
				SleepHours: sleep,
				HRV:        hrv,
				RestingHR:  rhr,
				ACWR:       summary.Ratio,
				Carbs:      carbs,
			},
			Performance: performance,
			Kind:        w.Kind,
		})
	}
	return rows
}

// realizedPerformance extracts the training target: average power for
// rides, average speed in mph for everything else.
func realizedPerformance(w model.Workout) (float64, bool) {
	if w.Kind == model.ActivityRide {
		if w.AvgPowerWatts == nil || *w.AvgPowerWatts <= 0 {
			return 0, false
		}
		return *w.AvgPowerWatts, true
	}
	if w.DistanceMeters == nil || *w.DistanceMeters <= 0 || w.DurationSeconds <= 0 {
		return 0, false
	}
	miles := *w.DistanceMeters / MetersPerMile
	hours := float64(w.DurationSeconds) / 3600
	return miles / hours, true
}

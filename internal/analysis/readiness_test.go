package analysis

import (
	"math"
	"testing"

	"trainpulse/internal/model"
)

func TestHRVSubScore(t *testing.T) {
	tests := []struct {
		name     string
		recent   float64
		baseline float64
		expected float64
	}{
		{"well above baseline", 55, 50, 15},
		{"at baseline", 50, 50, 12},
		{"slightly below", 48, 50, 8},
		{"well below", 44, 50, 3},
		{"no recent data", 0, 50, 0},
		{"no baseline", 55, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hrvSubScore(tt.recent, tt.baseline); got != tt.expected {
				t.Errorf("hrvSubScore(%v, %v) = %v, want %v", tt.recent, tt.baseline, got, tt.expected)
			}
		})
	}
}

func TestRHRSubScore(t *testing.T) {
	tests := []struct {
		recent   float64
		baseline float64
		expected float64
	}{
		{55, 58, 15}, // dropped by 3
		{58, 58, 12}, // flat
		{60, 58, 7},  // up 2
		{63, 58, 2},  // up 5
	}
	for _, tt := range tests {
		if got := rhrSubScore(tt.recent, tt.baseline); got != tt.expected {
			t.Errorf("rhrSubScore(%v, %v) = %v, want %v", tt.recent, tt.baseline, got, tt.expected)
		}
	}
}

func TestSleepSubScore(t *testing.T) {
	tests := []struct {
		hours    float64
		expected float64
	}{
		{8.2, 10},
		{7.5, 7},
		{6.3, 4},
		{5, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := sleepSubScore(tt.hours); got != tt.expected {
			t.Errorf("sleepSubScore(%v) = %v, want %v", tt.hours, got, tt.expected)
		}
	}
}

func TestFitnessSubScore(t *testing.T) {
	session := func(offset, minutes int) model.Workout {
		return model.Workout{
			Kind:            model.ActivityRun,
			StartTime:       day(offset),
			DurationSeconds: minutes * 60,
		}
	}

	t.Run("frequent long sessions max out", func(t *testing.T) {
		var workouts []model.Workout
		for i := 0; i < 8; i++ {
			workouts = append(workouts, session(-i, 65))
		}
		if got := fitnessSubScore(workouts, day(0)); got != 30 {
			t.Errorf("fitnessSubScore = %v, want 30", got)
		}
	})

	t.Run("moderate week", func(t *testing.T) {
		workouts := []model.Workout{
			session(0, 45), session(-2, 45), session(-4, 45),
		}
		// 3 sessions -> 5, avg 45 min -> 10.
		if got := fitnessSubScore(workouts, day(0)); got != 15 {
			t.Errorf("fitnessSubScore = %v, want 15", got)
		}
	})

	t.Run("no sessions in window", func(t *testing.T) {
		workouts := []model.Workout{session(-20, 60)}
		if got := fitnessSubScore(workouts, day(0)); got != 0 {
			t.Errorf("fitnessSubScore = %v, want 0", got)
		}
	})
}

func TestFatigueSubScore(t *testing.T) {
	tests := []struct {
		name     string
		summary  *LoadSummary
		recovery float64
		expected float64
	}{
		{"no load history, strong recovery", nil, 36, 30},
		{"no load history, weak recovery", nil, 10, 25},
		{"fresh", &LoadSummary{EWMARatio: 0.7, EWMAChronic: 1}, 25, 30},
		{"optimal", &LoadSummary{EWMARatio: 1.2, EWMAChronic: 1}, 25, 23},
		{"heavy", &LoadSummary{EWMARatio: 1.45, EWMAChronic: 1}, 25, 15},
		{"overreaching", &LoadSummary{EWMARatio: 1.8, EWMAChronic: 1}, 25, 5},
		{"overreaching with weak recovery", &LoadSummary{EWMARatio: 1.8, EWMAChronic: 1}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fatigueSubScore(tt.summary, tt.recovery); got != tt.expected {
				t.Errorf("fatigueSubScore = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestComputeReadiness(t *testing.T) {
	var metrics []model.MetricPoint
	// 35 days of HRV climbing slightly in the last week, resting HR and
	// sleep steady.
	for i := 0; i < 35; i++ {
		hrv := 50.0
		if i < 7 {
			hrv = 54
		}
		metrics = append(metrics,
			model.MetricPoint{Date: day(-i), Kind: model.MetricHRV, Value: hrv},
			model.MetricPoint{Date: day(-i), Kind: model.MetricRestingHR, Value: 58},
			model.MetricPoint{Date: day(-i), Kind: model.MetricSleep, Value: 7.8},
		)
	}
	var workouts []model.Workout
	loads := map[string]float64{}
	for i := 0; i < 28; i += 2 {
		w := model.Workout{Kind: model.ActivityRun, StartTime: day(-i), DurationSeconds: 3600}
		workouts = append(workouts, w)
		loads[model.DayKey(day(-i))] = WorkoutLoad(w)
	}

	r := ComputeReadiness(metrics, workouts, loads, day(0))
	if r.Score < 0 || r.Score > 100 {
		t.Fatalf("score %v out of [0,100]", r.Score)
	}
	if r.Score != r.Breakdown.Recovery+r.Breakdown.Fitness+r.Breakdown.Fatigue {
		t.Errorf("score %v is not the sum of its breakdown %+v", r.Score, r.Breakdown)
	}
	if r.Breakdown.Recovery > readinessRecoveryCap ||
		r.Breakdown.Fitness > readinessFitnessCap ||
		r.Breakdown.Fatigue > readinessFatigueCap {
		t.Errorf("breakdown exceeds caps: %+v", r.Breakdown)
	}
	if r.Confidence != model.ConfidenceHigh {
		t.Errorf("confidence = %q, want high with 35 days of 3 metrics", r.Confidence)
	}
	if len(r.Trajectory) != 7 {
		t.Fatalf("trajectory has %d points, want 7", len(r.Trajectory))
	}
	for i, p := range r.Trajectory {
		if p.DayOffset != i+1 {
			t.Errorf("trajectory[%d].DayOffset = %d, want %d", i, p.DayOffset, i+1)
		}
		if p.Score < 0 || p.Score > 100 {
			t.Errorf("trajectory[%d].Score = %v out of [0,100]", i, p.Score)
		}
		want := 1.0 - 0.1*float64(i+1)
		if math.Abs(p.Confidence-want) > 1e-9 {
			t.Errorf("trajectory[%d].Confidence = %v, want %v", i, p.Confidence, want)
		}
	}
}

func TestForecastTrajectoryClamping(t *testing.T) {
	// A near-max score on an improving trend must not project past 100.
	for _, p := range forecastTrajectory(99, ReadinessImproving) {
		if p.Score > 100 {
			t.Errorf("day %d projected to %v, above 100", p.DayOffset, p.Score)
		}
	}
	// Peaking rises then falls back.
	points := forecastTrajectory(80, ReadinessPeaking)
	if points[2].Score <= 80 {
		t.Errorf("peaking day 3 = %v, want above the starting score", points[2].Score)
	}
	if points[6].Score >= points[2].Score {
		t.Errorf("peaking day 7 = %v, want below the day-3 peak %v", points[6].Score, points[2].Score)
	}
}

func TestClassifyReadinessTrend(t *testing.T) {
	hrvSeries := func(recent, previous float64) []model.MetricPoint {
		var points []model.MetricPoint
		for i := 0; i < 3; i++ {
			points = append(points, model.MetricPoint{Date: day(-i), Kind: model.MetricHRV, Value: recent})
		}
		for i := 3; i < 7; i++ {
			points = append(points, model.MetricPoint{Date: day(-i), Kind: model.MetricHRV, Value: previous})
		}
		return points
	}
	someLoad := map[string]float64{model.DayKey(day(0)): 50}

	tests := []struct {
		name     string
		score    float64
		hrv      []model.MetricPoint
		loads    map[string]float64
		summary  *LoadSummary
		expected ReadinessTrend
	}{
		{"improving", 60, hrvSeries(55, 50), someLoad, nil, ReadinessImproving},
		{"declining", 60, hrvSeries(45, 50), someLoad, nil, ReadinessDeclining},
		{"maintaining", 60, hrvSeries(51, 50), someLoad, nil, ReadinessMaintaining},
		{"peaking", 80, hrvSeries(55, 50), someLoad, &LoadSummary{Ratio: 1.2}, ReadinessPeaking},
		{"recovering on rest days", 60, hrvSeries(52, 50), map[string]float64{}, nil, ReadinessRecovering},
		{"no hrv data", 60, nil, someLoad, nil, ReadinessMaintaining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyReadinessTrend(tt.score, tt.hrv, tt.loads, tt.summary, day(0))
			if got != tt.expected {
				t.Errorf("classifyReadinessTrend = %q, want %q", got, tt.expected)
			}
		})
	}
}

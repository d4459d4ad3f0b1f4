package analysis

import (
	"time"

	"trainpulse/internal/model"
)

// Component caps for the readiness score.
const (
	readinessRecoveryCap = 40
	readinessFitnessCap  = 30
	readinessFatigueCap  = 30
)

// ReadinessTrend classifies where the readiness score is heading.
type ReadinessTrend string

const (
	ReadinessImproving   ReadinessTrend = "improving"
	ReadinessDeclining   ReadinessTrend = "declining"
	ReadinessMaintaining ReadinessTrend = "maintaining"
	ReadinessPeaking     ReadinessTrend = "peaking"
	ReadinessRecovering  ReadinessTrend = "recovering"
)

// TrajectoryPoint is one step of the 7-day forward readiness forecast.
type TrajectoryPoint struct {
	DayOffset  int     `json:"dayOffset"` // 1-7
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// ReadinessBreakdown splits the score into its capped sub-scores.
type ReadinessBreakdown struct {
	Recovery float64 `json:"recovery"` // max 40
	Fitness  float64 `json:"fitness"`  // max 30
	Fatigue  float64 `json:"fatigue"`  // max 30
}

// ReadinessScore answers "how ready am I today" on a 0-100 scale.
type ReadinessScore struct {
	Score      float64              `json:"score"`
	Trend      ReadinessTrend       `json:"trend"`
	Confidence model.ConfidenceTier `json:"confidence"`
	Breakdown  ReadinessBreakdown   `json:"breakdown"`
	Trajectory []TrajectoryPoint    `json:"trajectory"`
}

// ComputeReadiness derives today's readiness from recent physiological
// series, workout history, and the daily-load series.
func ComputeReadiness(metrics []model.MetricPoint, workouts []model.Workout, loads map[string]float64, asOf time.Time) *ReadinessScore {
	byKind := make(map[model.MetricKind][]model.MetricPoint)
	for _, p := range metrics {
		if !p.Date.After(asOf) {
			byKind[p.Kind] = append(byKind[p.Kind], p)
		}
	}

	summary := ComputeLoadSummary(loads, asOf)

	recovery := recoverySubScore(byKind, asOf)
	fitness := fitnessSubScore(workouts, asOf)
	fatigue := fatigueSubScore(summary, recovery)

	score := clamp(recovery+fitness+fatigue, 0, 100)
	trend := classifyReadinessTrend(score, byKind[model.MetricHRV], loads, summary, asOf)

	return &ReadinessScore{
		Score:      score,
		Trend:      trend,
		Confidence: readinessConfidence(byKind),
		Breakdown: ReadinessBreakdown{
			Recovery: recovery,
			Fitness:  fitness,
			Fatigue:  fatigue,
		},
		Trajectory: forecastTrajectory(score, trend),
	}
}

// recoverySubScore combines HRV, resting HR, and sleep contributions,
// comparing the last 7 days to the preceding 28-day baseline.
func recoverySubScore(byKind map[model.MetricKind][]model.MetricPoint, asOf time.Time) float64 {
	var score float64

	hrvRecent := metricWindowMean(byKind[model.MetricHRV], asOf, 7)
	hrvBaseline := metricWindowMean(byKind[model.MetricHRV], asOf.AddDate(0, 0, -7), 28)
	score += hrvSubScore(hrvRecent, hrvBaseline)

	rhrRecent := metricWindowMean(byKind[model.MetricRestingHR], asOf, 7)
	rhrBaseline := metricWindowMean(byKind[model.MetricRestingHR], asOf.AddDate(0, 0, -7), 28)
	score += rhrSubScore(rhrRecent, rhrBaseline)

	score += sleepSubScore(metricWindowMean(byKind[model.MetricSleep], asOf, 7))

	return clamp(score, 0, readinessRecoveryCap)
}

// hrvSubScore rewards HRV holding at or above baseline (max 15).
func hrvSubScore(recentAvg, baselineAvg float64) float64 {
	if recentAvg == 0 || baselineAvg == 0 {
		return 0
	}
	pct := (recentAvg - baselineAvg) / baselineAvg * 100
	switch {
	case pct >= 5:
		return 15
	case pct >= 0:
		return 12
	case pct >= -5:
		return 8
	default:
		return 3
	}
}

// rhrSubScore rewards resting HR dropping below baseline (max 15).
func rhrSubScore(recentAvg, baselineAvg float64) float64 {
	if recentAvg == 0 || baselineAvg == 0 {
		return 0
	}
	delta := recentAvg - baselineAvg
	switch {
	case delta <= -2:
		return 15
	case delta <= 0:
		return 12
	case delta <= 3:
		return 7
	default:
		return 2
	}
}

// sleepSubScore bands the 7-day average sleep duration (max 10).
func sleepSubScore(avgHours float64) float64 {
	switch {
	case avgHours == 0:
		return 0
	case avgHours >= 8:
		return 10
	case avgHours >= 7:
		return 7
	case avgHours >= 6:
		return 4
	default:
		return 1
	}
}

// fitnessSubScore bands session count and average duration over the
// trailing 14 days.
func fitnessSubScore(workouts []model.Workout, asOf time.Time) float64 {
	first := model.DayKey(asOf.AddDate(0, 0, -13))
	last := model.DayKey(asOf)
	sessions := 0
	totalSeconds := 0
	for _, w := range workouts {
		day := model.DayKey(w.StartTime)
		if day < first || day > last {
			continue
		}
		sessions++
		totalSeconds += w.DurationSeconds
	}
	if sessions == 0 {
		return 0
	}

	var consistency float64
	switch {
	case sessions >= 8:
		consistency = 15
	case sessions >= 5:
		consistency = 10
	case sessions >= 3:
		consistency = 5
	}

	avgMinutes := float64(totalSeconds) / float64(sessions) / 60
	var volume float64
	switch {
	case avgMinutes >= 60:
		volume = 15
	case avgMinutes >= 40:
		volume = 10
	case avgMinutes >= 30:
		volume = 5
	}

	return clamp(consistency+volume, 0, readinessFitnessCap)
}

// fatigueSubScore starts full and subtracts by the EWMA acute:chronic
// ratio, then nudges by the strength of the recovery sub-score.
func fatigueSubScore(summary *LoadSummary, recovery float64) float64 {
	score := float64(readinessFatigueCap)
	if summary != nil {
		ratio := summary.EWMARatio
		if summary.EWMAChronic == 0 {
			ratio = summary.Ratio
		}
		switch {
		case ratio < 0.8:
			// fresh, no penalty
		case ratio <= 1.0:
			score -= 3
		case ratio <= 1.3:
			score -= 7
		case ratio <= 1.5:
			score -= 15
		default:
			score -= 25
		}
	}

	if recovery < 20 {
		score -= 5
	} else if recovery >= 35 {
		score += 5
	}

	return clamp(score, 0, readinessFatigueCap)
}

// classifyReadinessTrend compares the last 3 days of the primary
// recovery series (HRV) against the previous 4.
func classifyReadinessTrend(score float64, hrv []model.MetricPoint, loads map[string]float64, summary *LoadSummary, asOf time.Time) ReadinessTrend {
	recent := metricWindowMean(hrv, asOf, 3)
	previous := metricWindowMean(hrv, asOf.AddDate(0, 0, -3), 4)
	if recent == 0 || previous == 0 {
		return ReadinessMaintaining
	}

	pct := (recent - previous) / previous * 100
	improving := pct >= trendStableBandPct

	recentWorkload := windowSum(loads, asOf, 3)
	hardWork := summary != nil && summary.Ratio > 1.0

	switch {
	case score >= 75 && improving && hardWork:
		return ReadinessPeaking
	case recentWorkload == 0 && pct > 0:
		return ReadinessRecovering
	case improving:
		return ReadinessImproving
	case pct <= -trendStableBandPct:
		return ReadinessDeclining
	default:
		return ReadinessMaintaining
	}
}

// forecastTrajectory projects the score over the next 7 days with a
// trend-specific per-day delta and linearly decaying confidence.
func forecastTrajectory(score float64, trend ReadinessTrend) []TrajectoryPoint {
	trajectory := make([]TrajectoryPoint, 0, 7)
	projected := score
	for day := 1; day <= 7; day++ {
		var delta float64
		switch trend {
		case ReadinessImproving:
			delta = 2
		case ReadinessDeclining:
			delta = -2
		case ReadinessPeaking:
			if day <= 3 {
				delta = float64(day)
			} else {
				delta = -float64(day)
			}
		case ReadinessRecovering:
			delta = 3
		}
		projected = clamp(projected+delta, 0, 100)
		trajectory = append(trajectory, TrajectoryPoint{
			DayOffset:  day,
			Score:      projected,
			Confidence: 1.0 - 0.1*float64(day),
		})
	}
	return trajectory
}

// readinessConfidence tiers the assessment by how many days and distinct
// metric kinds back it.
func readinessConfidence(byKind map[model.MetricKind][]model.MetricPoint) model.ConfidenceTier {
	days := make(map[string]struct{})
	kinds := 0
	for _, points := range byKind {
		if len(points) == 0 {
			continue
		}
		kinds++
		for _, p := range points {
			days[model.DayKey(p.Date)] = struct{}{}
		}
	}
	switch {
	case len(days) >= 14 && kinds >= 3:
		return model.ConfidenceHigh
	case len(days) >= 7 && kinds >= 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// metricWindowMean averages metric values over the trailing window
// [asOf-(days-1), asOf], ignoring days with no reading. Day keys sort
// lexicographically, so the window check is a string comparison.
func metricWindowMean(points []model.MetricPoint, asOf time.Time, days int) float64 {
	first := model.DayKey(asOf.AddDate(0, 0, -(days - 1)))
	last := model.DayKey(asOf)
	var sum float64
	var count int
	for _, p := range points {
		day := model.DayKey(p.Date)
		if day < first || day > last {
			continue
		}
		sum += p.Value
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

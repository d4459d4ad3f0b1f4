package analysis

import (
	"fmt"

	"trainpulse/internal/model"
)

// Component caps for the injury risk score.
const (
	riskLoadCap     = 40
	riskRecoveryCap = 30
	riskTrendCap    = 20
	riskMonotonyCap = 10
)

// RiskLevel bands the composite injury risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "veryHigh"
)

// RiskFactor is one human-readable contributor to the risk score.
type RiskFactor struct {
	Description string `json:"description"`
	Severity    int    `json:"severity"` // 1-10
	Category    string `json:"category"` // load, recovery, trend, monotony
}

// InjuryRiskAssessment is the composite overtraining risk picture.
type InjuryRiskAssessment struct {
	Score          float64      `json:"score"` // 0-100
	Level          RiskLevel    `json:"level"`
	LoadScore      float64      `json:"loadScore"`
	RecoveryScore  float64      `json:"recoveryScore"`
	TrendScore     float64      `json:"trendScore"`
	MonotonyScore  float64      `json:"monotonyScore"`
	Factors        []RiskFactor `json:"factors"`
	Recommendation string       `json:"recommendation"`
}

// RiskInputs carries everything the scorer considers. Any field may be
// nil or empty; absent inputs simply contribute zero to their component.
type RiskInputs struct {
	Load     *LoadSummary
	Trends   []MetricTrend
	Recovery []RecoveryState
}

// AssessInjuryRisk combines load, recovery, trend, and monotony signals
// into a bounded 0-100 risk score. It never fails: the worst case for a
// missing input is a zero contribution from its component.
func AssessInjuryRisk(in RiskInputs) *InjuryRiskAssessment {
	a := &InjuryRiskAssessment{}

	a.LoadScore, a.Factors = scoreLoad(in.Load, a.Factors)
	a.RecoveryScore, a.Factors = scoreRecovery(in.Recovery, a.Factors)
	a.TrendScore, a.Factors = scoreTrends(in.Trends, a.Factors)
	a.MonotonyScore, a.Factors = scoreMonotony(in.Load, a.Factors)

	a.Score = clamp(a.LoadScore+a.RecoveryScore+a.TrendScore+a.MonotonyScore, 0, 100)

	switch {
	case a.Score < 25:
		a.Level = RiskLow
	case a.Score < 45:
		a.Level = RiskModerate
	case a.Score < 65:
		a.Level = RiskHigh
	default:
		a.Level = RiskVeryHigh
	}
	a.Recommendation = riskRecommendation(a.Level, a.Factors)

	return a
}

func scoreLoad(load *LoadSummary, factors []RiskFactor) (float64, []RiskFactor) {
	if load == nil {
		return 0, factors
	}

	var score float64
	ratio := load.EWMARatio
	switch {
	case ratio > 1.5:
		score += 25
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("acute:chronic ratio %.2f is in the danger zone", ratio),
			Severity:    9,
			Category:    "load",
		})
	case ratio > 1.3:
		score += 18
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("acute:chronic ratio %.2f shows heavy recent loading", ratio),
			Severity:    7,
			Category:    "load",
		})
	case ratio > 1.15:
		score += 10
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("acute:chronic ratio %.2f is elevated", ratio),
			Severity:    4,
			Category:    "load",
		})
	}

	if load.Strain > 1500 {
		score += 5
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("weekly strain %.0f is very high", load.Strain),
			Severity:    4,
			Category:    "load",
		})
	}

	change := load.WeeklyLoadChangePct
	switch {
	case change > 30:
		score += 10
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("weekly load jumped %.0f%%", change),
			Severity:    6,
			Category:    "load",
		})
	case change > 20:
		score += 5
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("weekly load rose %.0f%%", change),
			Severity:    3,
			Category:    "load",
		})
	}

	return clamp(score, 0, riskLoadCap), factors
}

func scoreRecovery(states []RecoveryState, factors []RiskFactor) (float64, []RiskFactor) {
	var score float64
	fatigued := 0
	notRecovered := 0
	for _, s := range states {
		if s == RecoveryFatigued {
			fatigued++
		}
		if s == RecoveryFatigued || s == RecoveryRecovering {
			notRecovered++
		}
	}

	if fatigued > 0 {
		score += 20
		factors = append(factors, RiskFactor{
			Description: "recent training left at least one day in a fatigued state",
			Severity:    7,
			Category:    "recovery",
		})
	}
	if notRecovered >= 2 {
		score += 10
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("%d of the last 7 days were fatigued or still recovering", notRecovered),
			Severity:    5,
			Category:    "recovery",
		})
	}

	return clamp(score, 0, riskRecoveryCap), factors
}

// trendRiskPoints maps (metric, status) to risk contributions. Each
// metric contributes independently and additively.
var trendRiskPoints = map[model.MetricKind]map[TrendStatus]float64{
	model.MetricRestingHR: {TrendStatusWarning: 7, TrendStatusDeclining: 4},
	model.MetricHRV:       {TrendStatusWarning: 8, TrendStatusDeclining: 4},
	model.MetricSleep:     {TrendStatusWarning: 5, TrendStatusDeclining: 2},
}

func scoreTrends(trends []MetricTrend, factors []RiskFactor) (float64, []RiskFactor) {
	var score float64
	for _, t := range trends {
		points, ok := trendRiskPoints[t.Metric][t.Status]
		if !ok {
			continue
		}
		score += points
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("%s trend is %s (%s)", t.Metric, t.Status, t.Context),
			Severity:    int(points),
			Category:    "trend",
		})
	}
	return clamp(score, 0, riskTrendCap), factors
}

func scoreMonotony(load *LoadSummary, factors []RiskFactor) (float64, []RiskFactor) {
	if load == nil {
		return 0, factors
	}

	var score float64
	switch {
	case load.Monotony > VeryHighMonotony:
		score = 10
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("training monotony %.1f is very high; vary the daily load", load.Monotony),
			Severity:    6,
			Category:    "monotony",
		})
	case load.Monotony > HighMonotony:
		score = 6
		factors = append(factors, RiskFactor{
			Description: fmt.Sprintf("training monotony %.1f is high", load.Monotony),
			Severity:    4,
			Category:    "monotony",
		})
	}
	return clamp(score, 0, riskMonotonyCap), factors
}

func riskRecommendation(level RiskLevel, factors []RiskFactor) string {
	switch level {
	case RiskLow:
		return "Risk is low. Keep training as planned."
	case RiskModerate:
		return "Risk is moderate. Watch recovery and avoid sharp load increases."
	case RiskHigh:
		if len(factors) > 0 {
			return fmt.Sprintf("Risk is high (%s). Plan an easy day or two.", factors[0].Description)
		}
		return "Risk is high. Plan an easy day or two."
	default:
		return "Risk is very high. Back off training and prioritize sleep and recovery."
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

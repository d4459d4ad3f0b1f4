package analysis

import (
	"fmt"
	"sort"
	"time"

	"trainpulse/internal/model"
)

// MinTrendPoints is the minimum series length for trend detection.
const MinTrendPoints = 14

// Percentage-change thresholds for direction and status classification.
const (
	trendStableBandPct  = 5
	trendWarningBandPct = 10
)

// TrendDirection describes the raw movement of a metric.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendStatus interprets the movement against the metric's policy.
// A warning is a decline twice as deep as the stable band.
type TrendStatus string

const (
	TrendStatusImproving TrendStatus = "improving"
	TrendStatusDeclining TrendStatus = "declining"
	TrendStatusWarning   TrendStatus = "warning"
	TrendStatusStable    TrendStatus = "stable"
)

// TrendOptions parameterizes the two-window comparator for one metric.
type TrendOptions struct {
	// LowerIsBetter flips which direction counts as improvement.
	LowerIsBetter bool
	// MaxWindowDays caps the analysis window; zero means uncapped.
	MaxWindowDays int
	// TargetLow/TargetHigh optionally define a healthy range. A recent
	// average inside the range is reported stable regardless of movement.
	TargetLow  *float64
	TargetHigh *float64
}

// trendConfigs holds the per-metric comparator settings.
var trendConfigs = map[model.MetricKind]TrendOptions{
	model.MetricHRV:       {LowerIsBetter: false, MaxWindowDays: 14},
	model.MetricRestingHR: {LowerIsBetter: true, MaxWindowDays: 30},
	model.MetricSleep:     {LowerIsBetter: false, MaxWindowDays: 30},
	model.MetricSteps:     {LowerIsBetter: false, MaxWindowDays: 30},
	model.MetricWeight:    {LowerIsBetter: true, MaxWindowDays: 90},
}

// MetricTrend is the change in one physiological metric over time.
type MetricTrend struct {
	Metric        model.MetricKind `json:"metric"`
	CurrentAvg    float64          `json:"currentAvg"`
	BaselineAvg   float64          `json:"baselineAvg"`
	Direction     TrendDirection   `json:"direction"`
	PctChange     float64          `json:"pctChange"`
	Status        TrendStatus      `json:"status"`
	LowerIsBetter bool             `json:"lowerIsBetter"`
	Context       string           `json:"context"`
}

// DetectTrend splits a metric series at its midpoint and compares the
// halves' means. It returns nil when fewer than 14 points are available:
// the baseline is still building.
func DetectTrend(kind model.MetricKind, points []model.MetricPoint, asOf time.Time, opts TrendOptions) *MetricTrend {
	series := make([]model.MetricPoint, 0, len(points))
	if opts.MaxWindowDays > 0 {
		cutoff := asOf.AddDate(0, 0, -opts.MaxWindowDays)
		for _, p := range points {
			if !p.Date.Before(cutoff) && !p.Date.After(asOf) {
				series = append(series, p)
			}
		}
	} else {
		series = append(series, points...)
	}
	if len(series) < MinTrendPoints {
		return nil
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	mid := len(series) / 2
	earlierAvg := meanOfPoints(series[:mid])
	recentAvg := meanOfPoints(series[mid:])
	if earlierAvg == 0 {
		return nil
	}

	diff := recentAvg - earlierAvg
	pctChange := diff / earlierAvg * 100

	trend := &MetricTrend{
		Metric:        kind,
		CurrentAvg:    recentAvg,
		BaselineAvg:   earlierAvg,
		PctChange:     pctChange,
		LowerIsBetter: opts.LowerIsBetter,
		Context:       fmt.Sprintf("%+.1f%% vs baseline", pctChange),
	}

	if pctChange > -trendStableBandPct && pctChange < trendStableBandPct {
		trend.Direction = TrendStable
		trend.Status = TrendStatusStable
		return trend
	}
	if diff > 0 {
		trend.Direction = TrendIncreasing
	} else {
		trend.Direction = TrendDecreasing
	}

	if withinTarget(recentAvg, opts) {
		trend.Status = TrendStatusStable
		return trend
	}

	favorable := (diff < 0) == opts.LowerIsBetter
	switch {
	case favorable:
		trend.Status = TrendStatusImproving
	case pctChange >= trendWarningBandPct || pctChange <= -trendWarningBandPct:
		trend.Status = TrendStatusWarning
	default:
		trend.Status = TrendStatusDeclining
	}

	return trend
}

func withinTarget(value float64, opts TrendOptions) bool {
	if opts.TargetLow == nil || opts.TargetHigh == nil {
		return false
	}
	return value >= *opts.TargetLow && value <= *opts.TargetHigh
}

// AnalyzeTrends runs the comparator independently over each metric kind,
// skipping kinds whose series is still building a baseline.
func AnalyzeTrends(metrics []model.MetricPoint, asOf time.Time) []MetricTrend {
	byKind := make(map[model.MetricKind][]model.MetricPoint)
	for _, p := range metrics {
		byKind[p.Kind] = append(byKind[p.Kind], p)
	}

	var trends []MetricTrend
	for _, kind := range model.MetricKinds {
		points, ok := byKind[kind]
		if !ok {
			continue
		}
		if t := DetectTrend(kind, points, asOf, trendConfigs[kind]); t != nil {
			trends = append(trends, *t)
		}
	}
	return trends
}

func meanOfPoints(points []model.MetricPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum / float64(len(points))
}

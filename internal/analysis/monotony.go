package analysis

import (
	"math"
	"time"

	"trainpulse/internal/model"
)

// Monotony thresholds consumed by the injury risk scorer.
const (
	HighMonotony     = 2.0
	VeryHighMonotony = 2.5
)

// Monotony computes the load-variety statistic and composite strain over
// a trailing window. Monotony is mean/stddev of daily load (population
// standard deviation, absent days counting as zero); when every day in
// the window carries the identical load the stddev is zero and monotony
// falls back to 1.0. Strain is the window's mean load times monotony.
func Monotony(loads map[string]float64, asOf time.Time, windowDays int) (monotony, strain float64) {
	if windowDays <= 0 {
		return 0, 0
	}
	window := make([]float64, windowDays)
	for i := 0; i < windowDays; i++ {
		window[i] = loads[model.DayKey(asOf.AddDate(0, 0, -i))]
	}

	mean := meanOf(window)
	stddev := populationStdDev(window, mean)
	if stddev == 0 {
		monotony = 1.0
	} else {
		monotony = mean / stddev
	}
	return monotony, mean * monotony
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

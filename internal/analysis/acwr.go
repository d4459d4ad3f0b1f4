package analysis

import (
	"time"

	"trainpulse/internal/model"
)

// Window sizes for acute and chronic load tracking (days).
const (
	AcuteWindowDays   = 7
	ChronicWindowDays = 28
	EWMAWindowDays    = 42
)

// LoadStatus bands the acute:chronic ratio.
type LoadStatus string

const (
	LoadStatusFresh        LoadStatus = "fresh"
	LoadStatusOptimal      LoadStatus = "optimal"
	LoadStatusFatigued     LoadStatus = "fatigued"
	LoadStatusOverreaching LoadStatus = "overreaching"
)

// LoadSummary is a point-in-time fatigue/freshness snapshot.
type LoadSummary struct {
	AcuteLoad           float64    `json:"acuteLoad"`
	ChronicLoad         float64    `json:"chronicLoad"`
	Ratio               float64    `json:"ratio"`
	EWMAAcute           float64    `json:"ewmaAcute"`
	EWMAChronic         float64    `json:"ewmaChronic"`
	EWMARatio           float64    `json:"ewmaRatio"`
	Monotony            float64    `json:"monotony"`
	Strain              float64    `json:"strain"`
	WeeklyLoadChangePct float64    `json:"weeklyLoadChangePct"`
	Status              LoadStatus `json:"status"`
}

// loadStatus maps a ratio to its band. Band edges are half-open so the
// four bands cover the line with no gaps or overlaps.
func loadStatus(ratio float64) LoadStatus {
	switch {
	case ratio < 0.8:
		return LoadStatusFresh
	case ratio <= 1.3:
		return LoadStatusOptimal
	case ratio <= 1.5:
		return LoadStatusFatigued
	default:
		return LoadStatusOverreaching
	}
}

// ComputeLoadSummary derives the full acute/chronic picture from a sparse
// daily-load series as of the given day. It returns nil when the chronic
// load is zero: with no history in the last 28 days the ratio is
// undefined and downstream consumers treat the summary as absent.
func ComputeLoadSummary(loads map[string]float64, asOf time.Time) *LoadSummary {
	chronic := windowMean(loads, asOf, ChronicWindowDays)
	if chronic == 0 {
		return nil
	}
	acute := windowMean(loads, asOf, AcuteWindowDays)

	// EWMA accumulators over the trailing 42 days, oldest first. The
	// chronic accumulator sees every day; the acute one only the most
	// recent seven.
	acuteDecay := 2.0 / (float64(AcuteWindowDays) + 1.0)
	chronicDecay := 2.0 / (float64(EWMAWindowDays) + 1.0)
	var ewmaAcute, ewmaChronic float64
	for i := EWMAWindowDays - 1; i >= 0; i-- {
		load := loads[model.DayKey(asOf.AddDate(0, 0, -i))]
		ewmaChronic = load*chronicDecay + ewmaChronic*(1-chronicDecay)
		if i < AcuteWindowDays {
			ewmaAcute = load*acuteDecay + ewmaAcute*(1-acuteDecay)
		}
	}
	var ewmaRatio float64
	if ewmaChronic > 0 {
		ewmaRatio = ewmaAcute / ewmaChronic
	}

	monotony, strain := Monotony(loads, asOf, AcuteWindowDays)

	return &LoadSummary{
		AcuteLoad:           acute,
		ChronicLoad:         chronic,
		Ratio:               acute / chronic,
		EWMAAcute:           ewmaAcute,
		EWMAChronic:         ewmaChronic,
		EWMARatio:           ewmaRatio,
		Monotony:            monotony,
		Strain:              strain,
		WeeklyLoadChangePct: weeklyLoadChangePct(loads, asOf),
		Status:              loadStatus(acute / chronic),
	}
}

// weeklyLoadChangePct compares the last 7 days against days 8-14.
// Returns 0 when the prior week carried no load.
func weeklyLoadChangePct(loads map[string]float64, asOf time.Time) float64 {
	thisWeek := windowSum(loads, asOf, AcuteWindowDays)
	lastWeek := windowSum(loads, asOf.AddDate(0, 0, -AcuteWindowDays), AcuteWindowDays)
	if lastWeek == 0 {
		return 0
	}
	return (thisWeek - lastWeek) / lastWeek * 100
}

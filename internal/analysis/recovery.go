package analysis

import (
	"time"

	"trainpulse/internal/model"
)

// RecoveryState classifies one recent day's recovery status.
type RecoveryState string

const (
	RecoveryRecovered  RecoveryState = "recovered"
	RecoveryRecovering RecoveryState = "recovering"
	RecoveryFatigued   RecoveryState = "fatigued"
)

// fatiguedLoadFactor flags a day as fatigued when its load exceeds this
// multiple of the chronic daily mean.
const fatiguedLoadFactor = 1.5

// RecoveryStates classifies each of the last 7 days against the chronic
// daily load. A day well above the chronic mean is fatigued, any loaded
// day is recovering, and rest days are recovered. With no chronic history
// the result is empty: nothing to recover from.
func RecoveryStates(loads map[string]float64, asOf time.Time) []RecoveryState {
	chronicMean := windowMean(loads, asOf, ChronicWindowDays)
	if chronicMean == 0 {
		return nil
	}

	states := make([]RecoveryState, 0, AcuteWindowDays)
	for i := 0; i < AcuteWindowDays; i++ {
		load := loads[model.DayKey(asOf.AddDate(0, 0, -i))]
		switch {
		case load >= chronicMean*fatiguedLoadFactor:
			states = append(states, RecoveryFatigued)
		case load > 0:
			states = append(states, RecoveryRecovering)
		default:
			states = append(states, RecoveryRecovered)
		}
	}
	return states
}

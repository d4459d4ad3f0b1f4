package predict

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"trainpulse/internal/model"
)

var (
	// ErrInsufficientData means too few training rows exist for a kind.
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrNoTrainedModel means no model matches the requested activity
	// kind and no combined fallback exists.
	ErrNoTrainedModel = errors.New("no trained model")
	// ErrTrainingFailed means a model fit errored or inference produced
	// no usable value.
	ErrTrainingFailed = errors.New("training failed")
)

const (
	// MinTrainingRows is the production per-kind training threshold.
	MinTrainingRows = 5
	// DocumentedMinRows is the conservative threshold quoted to users
	// while their baseline is still building.
	DocumentedMinRows = 10

	// rmseSelectionFactor decides when the linear fit is poor enough to
	// also try the non-linear family: RMSE above this fraction of the
	// target's standard deviation.
	rmseSelectionFactor = 0.6
)

// CombinedKind keys the cross-activity fallback model.
const CombinedKind model.ActivityKind = "all"

// TrainedModel is a fitted regression for one activity kind.
type TrainedModel struct {
	Kind           model.ActivityKind `json:"kind"`
	ModelName      string             `json:"modelName"`
	SampleCount    int                `json:"sampleCount"`
	RMSE           float64            `json:"rmse"`
	FeatureWeights map[string]float64 `json:"featureWeights"`
	Unit           string             `json:"unit"`
	TrainedAt      time.Time          `json:"trainedAt"`

	model Model
}

// ModelSet is the immutable result of one training pass.
type ModelSet struct {
	models    map[model.ActivityKind]*TrainedModel
	trainedAt time.Time
}

// TrainedAt reports when the set was built.
func (s *ModelSet) TrainedAt() time.Time { return s.trainedAt }

// Len reports how many models the set holds.
func (s *ModelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.models)
}

// Models lists trained-model metadata sorted by kind.
func (s *ModelSet) Models() []*TrainedModel {
	if s == nil {
		return nil
	}
	out := make([]*TrainedModel, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Train fits one model per activity kind with enough rows, plus a
// combined fallback across all kinds. Kinds below the minimum are
// skipped; they surface later as "building baseline," not as errors.
func Train(rows []TrainingRow, now time.Time) (*ModelSet, error) {
	byKind := make(map[model.ActivityKind][]TrainingRow)
	for _, row := range rows {
		byKind[row.Kind] = append(byKind[row.Kind], row)
	}
	if len(rows) >= MinTrainingRows {
		byKind[CombinedKind] = rows
	}

	set := &ModelSet{
		models:    make(map[model.ActivityKind]*TrainedModel),
		trainedAt: now,
	}

	for kind, kindRows := range byKind {
		if len(kindRows) < MinTrainingRows {
			log.Debugf("skipping %q model: %d of %d required rows", kind, len(kindRows), MinTrainingRows)
			continue
		}
		trained, err := trainOne(kind, kindRows, now)
		if err != nil {
			return nil, fmt.Errorf("training %q model: %w", kind, err)
		}
		set.models[kind] = trained
	}

	return set, nil
}

// trainOne fits the linear family and, when its residual error is a
// large fraction of the target's spread, also the boosted family,
// keeping whichever achieves the lower RMSE. When there are too few
// rows to solve the linear system at all, the boosted family carries
// the kind alone.
func trainOne(kind model.ActivityKind, rows []TrainingRow, now time.Time) (*TrainedModel, error) {
	fitted, fitRMSE, err := LinearFamily{}.Fit(rows)
	if err != nil {
		log.Debugf("linear fit for %q unavailable (%s), trying boosted", kind, err)
		fitted, fitRMSE, err = DefaultBoostedFamily().Fit(rows)
		if err != nil {
			return nil, err
		}
	} else {
		targetStdDev := performanceStdDev(rows)
		if targetStdDev > 0 && fitRMSE > rmseSelectionFactor*targetStdDev {
			boosted, boostedRMSE, boostErr := DefaultBoostedFamily().Fit(rows)
			if boostErr != nil {
				log.Warnf("boosted fit for %q failed, keeping linear: %s", kind, boostErr)
			} else if boostedRMSE < fitRMSE {
				fitted, fitRMSE = boosted, boostedRMSE
			}
		}
	}

	unit := PerformanceUnit(kind)
	if kind == CombinedKind {
		unit = "mixed"
	}

	return &TrainedModel{
		Kind:           kind,
		ModelName:      fitted.Name(),
		SampleCount:    len(rows),
		RMSE:           fitRMSE,
		FeatureWeights: featureWeights(rows),
		Unit:           unit,
		TrainedAt:      now,
		model:          fitted,
	}, nil
}

// featureWeights computes each feature's squared Pearson correlation
// against the target, normalized so the weights sum to 1. The weights
// describe the data, not the chosen model family.
func featureWeights(rows []TrainingRow) map[string]float64 {
	weights := make(map[string]float64, len(featureNames))
	var total float64
	for i, name := range featureNames {
		xs := make([]float64, len(rows))
		ys := make([]float64, len(rows))
		for j, row := range rows {
			xs[j] = row.vector()[i]
			ys[j] = row.Performance
		}
		r := pearson(xs, ys)
		weights[name] = r * r
		total += r * r
	}

	if total == 0 {
		// No feature correlates at all; report equal weights rather
		// than dividing by zero.
		for _, name := range featureNames {
			weights[name] = 1.0 / float64(len(featureNames))
		}
		return weights
	}
	for _, name := range featureNames {
		weights[name] /= total
	}
	return weights
}

// pearson computes the correlation coefficient, returning 0 when either
// series has zero variance.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func performanceStdDev(rows []TrainingRow) float64 {
	n := float64(len(rows))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += row.Performance
	}
	mean := sum / n

	var sumSq float64
	for _, row := range rows {
		d := row.Performance - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / n)
}

package predict

import (
	"fmt"
	"math"

	"trainpulse/internal/model"
)

// intervalZ is the two-sided z value for a 95% interval.
const intervalZ = 1.96

// Prediction is one inference from a trained model.
type Prediction struct {
	Value      float64              `json:"value"`
	Unit       string               `json:"unit"`
	Confidence model.ConfidenceTier `json:"confidence"`
	Lower      *float64             `json:"lower,omitempty"`
	Upper      *float64             `json:"upper,omitempty"`
	ModelName  string               `json:"modelName"`
	Kind       model.ActivityKind   `json:"kind"`
	Inputs     Features             `json:"inputs"`
}

// Predict serves a point prediction for the requested activity kind,
// falling back to the combined model when no kind-specific one exists.
func (s *ModelSet) Predict(kind model.ActivityKind, f Features) (*Prediction, error) {
	trained, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}

	value := trained.model.Predict(f)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: model %q produced no value", ErrTrainingFailed, trained.ModelName)
	}

	unit := trained.Unit
	if trained.Kind == CombinedKind {
		unit = PerformanceUnit(kind)
	}

	return &Prediction{
		Value:      value,
		Unit:       unit,
		Confidence: sampleConfidence(trained.SampleCount),
		ModelName:  trained.ModelName,
		Kind:       trained.Kind,
		Inputs:     f,
	}, nil
}

// PredictWithInterval additionally attaches a 95% interval of
// point +/- 1.96*RMSE, with the lower bound clamped at zero.
func (s *ModelSet) PredictWithInterval(kind model.ActivityKind, f Features) (*Prediction, error) {
	p, err := s.Predict(kind, f)
	if err != nil {
		return nil, err
	}

	trained, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}

	margin := intervalZ * trained.RMSE
	lower := p.Value - margin
	if lower < 0 {
		lower = 0
	}
	upper := p.Value + margin
	p.Lower = &lower
	p.Upper = &upper
	return p, nil
}

func (s *ModelSet) lookup(kind model.ActivityKind) (*TrainedModel, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: no models trained yet", ErrNoTrainedModel)
	}
	if trained, ok := s.models[kind]; ok {
		return trained, nil
	}
	if trained, ok := s.models[CombinedKind]; ok {
		return trained, nil
	}
	return nil, fmt.Errorf("%w for activity kind %q", ErrNoTrainedModel, kind)
}

// sampleConfidence tiers a prediction by how many rows trained its model.
func sampleConfidence(samples int) model.ConfidenceTier {
	switch {
	case samples >= 20:
		return model.ConfidenceHigh
	case samples >= 15:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

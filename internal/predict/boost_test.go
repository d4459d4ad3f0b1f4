package predict

import (
	"errors"
	"math"
	"testing"

	"trainpulse/internal/model"
)

func TestBoostedStumpsFitStepFunction(t *testing.T) {
	// Performance depends on sleep through a hard threshold the linear
	// family cannot express. The booster should drive the residuals to
	// nearly zero.
	var rows []TrainingRow
	for _, sleep := range []float64{5.5, 6.0, 6.4, 6.8, 7.1, 7.5, 8.0, 8.5} {
		performance := 5.0
		if sleep >= 7 {
			performance = 9.0
		}
		rows = append(rows, TrainingRow{
			Features:    Features{SleepHours: sleep, HRV: 50, RestingHR: 58, ACWR: 1.0, Carbs: 280},
			Performance: performance,
			Kind:        model.ActivityRun,
		})
	}

	fitted, fitRMSE, err := DefaultBoostedFamily().Fit(rows)
	if err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if fitRMSE > 0.01 {
		t.Errorf("rmse = %v, want near zero on a clean step function", fitRMSE)
	}

	if got := fitted.Predict(Features{SleepHours: 6.2, HRV: 50, RestingHR: 58, ACWR: 1.0, Carbs: 280}); math.Abs(got-5) > 0.05 {
		t.Errorf("short-sleep prediction = %v, want ~5", got)
	}
	if got := fitted.Predict(Features{SleepHours: 8.2, HRV: 50, RestingHR: 58, ACWR: 1.0, Carbs: 280}); math.Abs(got-9) > 0.05 {
		t.Errorf("long-sleep prediction = %v, want ~9", got)
	}
}

func TestBoostedStumpsFitConstantTarget(t *testing.T) {
	// With zero initial residuals no stump clears the gain threshold;
	// the model is just the base mean.
	rows := syntheticRows(6, func(Features) float64 { return 7 })
	fitted, fitRMSE, err := DefaultBoostedFamily().Fit(rows)
	if err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if fitRMSE != 0 {
		t.Errorf("rmse = %v, want 0", fitRMSE)
	}
	if got := fitted.Predict(Features{SleepHours: 7}); got != 7 {
		t.Errorf("Predict() = %v, want the base mean 7", got)
	}
}

func TestBoostedStumpsFitTooFewRows(t *testing.T) {
	rows := syntheticRows(1, linearTarget)
	_, _, err := DefaultBoostedFamily().Fit(rows)
	if !errors.Is(err, ErrTrainingFailed) {
		t.Errorf("expected ErrTrainingFailed with a single row, got %v", err)
	}
}

func TestBoostedStumpsDeterminism(t *testing.T) {
	rows := syntheticRows(10, linearTarget)
	a, rmseA, err := DefaultBoostedFamily().Fit(rows)
	if err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	b, rmseB, err := DefaultBoostedFamily().Fit(rows)
	if err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if rmseA != rmseB {
		t.Errorf("rmse differs across identical fits: %v vs %v", rmseA, rmseB)
	}
	probe := Features{SleepHours: 7.4, HRV: 57, RestingHR: 56, ACWR: 1.05, Carbs: 290}
	if a.Predict(probe) != b.Predict(probe) {
		t.Error("identical fits disagree on a prediction")
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpulse/internal/metrics"
	"trainpulse/internal/model"
	"trainpulse/internal/predict"
	"trainpulse/internal/store"
)

var asOf = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return asOf.AddDate(0, 0, offset)
}

func newTestService(t *testing.T) *AnalysisService {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.NewTestStore(db)
	require.NoError(t, err)

	svc := New(st, metrics.NewTestManager(), 7*24*time.Hour)
	svc.now = func() time.Time { return asOf }
	return svc
}

func floatPtr(f float64) *float64 { return &f }

// fullSnapshot builds six weeks of metrics, every-other-day runs, and
// nutrition logs: enough history for every derived entity and for
// model training.
func fullSnapshot() *model.Snapshot {
	snap := &model.Snapshot{}
	for i := 0; i < 42; i++ {
		snap.Metrics = append(snap.Metrics,
			model.MetricPoint{Date: day(-i), Kind: model.MetricHRV, Value: 50 + float64(i%5)},
			model.MetricPoint{Date: day(-i), Kind: model.MetricRestingHR, Value: 58 - float64(i%3)},
			model.MetricPoint{Date: day(-i), Kind: model.MetricSleep, Value: 7 + float64(i%4)*0.3},
		)
		snap.Nutrition = append(snap.Nutrition, model.NutritionLog{
			Date:            day(-i),
			TotalCarbsGrams: 250 + float64(i%6)*15,
			IsComplete:      true,
		})
		if i%2 == 0 {
			snap.Workouts = append(snap.Workouts, model.Workout{
				Kind:            model.ActivityRun,
				StartTime:       day(-i).Add(-2 * time.Hour),
				DurationSeconds: 3600 + i*30,
				DistanceMeters:  floatPtr((6 + float64(i%4)*0.4) * 1609.34),
			})
		}
	}
	return snap
}

func TestAnalyze(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, fullSnapshot()))

	results, err := svc.Analyze(ctx)
	require.NoError(t, err)

	require.NotNil(t, results.LoadSummary)
	require.NotNil(t, results.InjuryRisk)
	require.NotNil(t, results.Readiness)
	assert.NotEmpty(t, results.Trends)
	assert.True(t, results.ComputedAt.Equal(asOf))

	assert.GreaterOrEqual(t, results.InjuryRisk.Score, 0.0)
	assert.LessOrEqual(t, results.InjuryRisk.Score, 100.0)
	assert.GreaterOrEqual(t, results.Readiness.Score, 0.0)
	assert.LessOrEqual(t, results.Readiness.Score, 100.0)
}

func TestAnalyzeEmptyStore(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Analyze(context.Background())
	assert.ErrorIs(t, err, store.ErrEmptyStore)
}

func TestAnalyzeFingerprintCache(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, fullSnapshot()))

	first, err := svc.Analyze(ctx)
	require.NoError(t, err)

	// Unchanged inputs: the cached set comes back, not a recomputation.
	second, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// Overwriting an existing day changes no counts, so the
	// fingerprint, and therefore the cache, still holds.
	require.NoError(t, svc.Ingest(ctx, &model.Snapshot{
		Metrics: []model.MetricPoint{{Date: day(0), Kind: model.MetricHRV, Value: 61}},
	}))
	third, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Same(t, first, third)

	// A genuinely new day invalidates it.
	require.NoError(t, svc.Ingest(ctx, &model.Snapshot{
		Metrics: []model.MetricPoint{{Date: day(1), Kind: model.MetricHRV, Value: 57}},
	}))
	fourth, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, fourth)
}

func TestResults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, ok := svc.Results()
	assert.False(t, ok)

	require.NoError(t, svc.Ingest(ctx, fullSnapshot()))
	computed, err := svc.Analyze(ctx)
	require.NoError(t, err)

	published, ok := svc.Results()
	require.True(t, ok)
	assert.Same(t, computed, published)
}

func TestPredictBeforeTraining(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Predict(model.ActivityRun, predict.Features{SleepHours: 7}, false)
	assert.ErrorIs(t, err, predict.ErrNoTrainedModel)
}

func TestTrainBlockingAndPredict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, fullSnapshot()))
	require.NoError(t, svc.TrainBlocking(ctx))

	models := svc.Models()
	require.NotEmpty(t, models)
	for _, m := range models {
		assert.GreaterOrEqual(t, m.SampleCount, predict.MinTrainingRows)
		assert.NotEmpty(t, m.ModelName)
	}

	f := predict.Features{SleepHours: 7.5, HRV: 52, RestingHR: 57, ACWR: 1.1, Carbs: 280}
	p, err := svc.Predict(model.ActivityRun, f, false)
	require.NoError(t, err)
	assert.Equal(t, "mph", p.Unit)
	assert.Greater(t, p.Value, 0.0)
	assert.Nil(t, p.Lower)

	withInterval, err := svc.Predict(model.ActivityRun, f, true)
	require.NoError(t, err)
	require.NotNil(t, withInterval.Lower)
	require.NotNil(t, withInterval.Upper)
	assert.GreaterOrEqual(t, *withInterval.Lower, 0.0)
	assert.LessOrEqual(t, *withInterval.Lower, withInterval.Value)
	assert.GreaterOrEqual(t, *withInterval.Upper, withInterval.Value)
}

func TestTrainBlockingTooLittleData(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// One workout with nothing to join against trains zero models but
	// does not error: the baseline is still building.
	require.NoError(t, svc.Ingest(ctx, &model.Snapshot{
		Workouts: []model.Workout{{
			Kind:            model.ActivityRun,
			StartTime:       day(0),
			DurationSeconds: 3600,
			DistanceMeters:  floatPtr(9656),
		}},
	}))
	require.NoError(t, svc.TrainBlocking(ctx))
	assert.Empty(t, svc.Models())

	_, err := svc.Predict(model.ActivityRun, predict.Features{}, false)
	assert.ErrorIs(t, err, predict.ErrNoTrainedModel)
}

func TestIngestInvalidKind(t *testing.T) {
	svc := newTestService(t)
	err := svc.Ingest(context.Background(), &model.Snapshot{
		Metrics: []model.MetricPoint{{Date: day(0), Kind: "vo2max", Value: 50}},
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrEmptyStore))
}

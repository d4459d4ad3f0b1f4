package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"trainpulse/internal/analysis"
	"trainpulse/internal/metrics"
	"trainpulse/internal/model"
	"trainpulse/internal/predict"
	"trainpulse/internal/store"
)

// Fingerprint cheaply summarizes the input collections. Two snapshots
// with equal fingerprints are treated as the same data, so cached
// derived results remain valid.
type Fingerprint struct {
	Metrics   int
	Workouts  int
	Nutrition int
}

// ResultSet is the full derived output of one analysis pass. The load
// summary is nil while the chronic baseline is still building; every
// other field computes independently.
type ResultSet struct {
	LoadSummary *analysis.LoadSummary          `json:"loadSummary,omitempty"`
	InjuryRisk  *analysis.InjuryRiskAssessment `json:"injuryRisk"`
	Readiness   *analysis.ReadinessScore       `json:"readiness"`
	Trends      []analysis.MetricTrend         `json:"trends"`
	ComputedAt  time.Time                      `json:"computedAt"`

	fingerprint Fingerprint
}

// AnalysisService owns the derivation pipeline: it ingests input
// batches, recomputes the derived result set wholesale when the data
// fingerprint changes, and serves predictions from the trained model
// set. Results and models are published atomically; readers never see a
// half-updated set.
type AnalysisService struct {
	store           *store.Store
	metrics         *metrics.Manager
	retrainInterval time.Duration
	now             func() time.Time

	mu      sync.RWMutex
	results *ResultSet

	modelMu     sync.RWMutex
	models      *predict.ModelSet
	lastTrained time.Time
	trainedFor  Fingerprint

	trainingInFlight atomic.Bool
}

// New creates an analysis service around the input store.
func New(st *store.Store, m *metrics.Manager, retrainInterval time.Duration) *AnalysisService {
	return &AnalysisService{
		store:           st,
		metrics:         m,
		retrainInterval: retrainInterval,
		now:             time.Now,
	}
}

// Ingest persists one input batch. Metric points dedupe per (day, kind)
// with later values winning; workouts upsert by ID.
func (s *AnalysisService) Ingest(ctx context.Context, snap *model.Snapshot) error {
	if err := s.store.UpsertMetrics(ctx, snap.Metrics); err != nil {
		return fmt.Errorf("storing metrics: %w", err)
	}
	if err := s.store.UpsertWorkouts(ctx, snap.Workouts); err != nil {
		return fmt.Errorf("storing workouts: %w", err)
	}
	if err := s.store.UpsertNutrition(ctx, snap.Nutrition); err != nil {
		return fmt.Errorf("storing nutrition: %w", err)
	}
	return nil
}

// Analyze runs a full analysis pass over the stored inputs. An
// unchanged fingerprint returns the previous result set without
// recomputation; otherwise every derived entity is recomputed from the
// snapshot and the whole set replaces the old one atomically.
func (s *AnalysisService) Analyze(ctx context.Context) (*ResultSet, error) {
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached := s.results
	s.mu.RUnlock()
	if cached != nil && cached.fingerprint == fp {
		s.metrics.CounterCacheHits.Inc()
		return cached, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	started := s.now()
	results := s.compute(snap, started)
	results.fingerprint = fp
	s.metrics.CounterAnalysisRuns.Inc()
	s.metrics.HistAnalysisDuration.Observe(time.Since(started).Seconds())

	s.mu.Lock()
	// Last write wins: a newer pass simply supersedes an older one.
	s.results = results
	s.mu.Unlock()

	s.maybeTrain(snap, fp)

	return results, nil
}

// Results returns the last published result set, if any.
func (s *AnalysisService) Results() (*ResultSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results, s.results != nil
}

// compute derives every output from one immutable snapshot. It is a
// pure function of its inputs apart from the timestamp.
func (s *AnalysisService) compute(snap *model.Snapshot, asOf time.Time) *ResultSet {
	loads := analysis.DailyLoads(snap.Workouts, snap.Metrics)
	summary := analysis.ComputeLoadSummary(loads, asOf)
	trends := analysis.AnalyzeTrends(snap.Metrics, asOf)

	risk := analysis.AssessInjuryRisk(analysis.RiskInputs{
		Load:     summary,
		Trends:   trends,
		Recovery: analysis.RecoveryStates(loads, asOf),
	})
	readiness := analysis.ComputeReadiness(snap.Metrics, snap.Workouts, loads, asOf)

	return &ResultSet{
		LoadSummary: summary,
		InjuryRisk:  risk,
		Readiness:   readiness,
		Trends:      trends,
		ComputedAt:  asOf,
	}
}

// Predict serves one inference from the current model set.
func (s *AnalysisService) Predict(kind model.ActivityKind, f predict.Features, withInterval bool) (*predict.Prediction, error) {
	s.modelMu.RLock()
	set := s.models
	s.modelMu.RUnlock()

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: train on new data first", predict.ErrNoTrainedModel)
	}

	var p *predict.Prediction
	var err error
	if withInterval {
		p, err = set.PredictWithInterval(kind, f)
	} else {
		p, err = set.Predict(kind, f)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.CounterPredictions.Inc()
	return p, nil
}

// Models lists the current trained-model metadata.
func (s *AnalysisService) Models() []*predict.TrainedModel {
	s.modelMu.RLock()
	defer s.modelMu.RUnlock()
	return s.models.Models()
}

// maybeTrain kicks off a background training pass when warranted: the
// first time data arrives, or when the fingerprint changed and the
// retrain interval has elapsed. Training is CPU-bound and never runs on
// a request-serving goroutine; at most one pass runs at a time.
func (s *AnalysisService) maybeTrain(snap *model.Snapshot, fp Fingerprint) {
	s.modelMu.RLock()
	first := s.models == nil
	stale := fp != s.trainedFor && s.now().Sub(s.lastTrained) >= s.retrainInterval
	s.modelMu.RUnlock()

	if !first && !stale {
		return
	}
	if !s.trainingInFlight.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer s.trainingInFlight.Store(false)
		s.train(snap, fp)
	}()
}

func (s *AnalysisService) train(snap *model.Snapshot, fp Fingerprint) {
	rows := predict.BuildTrainingRows(snap)
	set, err := predict.Train(rows, s.now())
	if err != nil {
		// Not retried automatically; the next data change re-triggers.
		log.Errorf("model training failed: %s", err)
		return
	}

	s.metrics.CounterTrainingRuns.Inc()
	s.metrics.GaugeTrainedModels.Set(float64(set.Len()))
	log.Infof("trained %d models from %d rows", set.Len(), len(rows))

	s.modelMu.Lock()
	s.models = set
	s.lastTrained = s.now()
	s.trainedFor = fp
	s.modelMu.Unlock()
}

// TrainBlocking runs one synchronous training pass over the stored
// inputs. Intended for startup warm-up and tests.
func (s *AnalysisService) TrainBlocking(ctx context.Context) error {
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	s.train(snap, fp)
	return nil
}

func (s *AnalysisService) fingerprint(ctx context.Context) (Fingerprint, error) {
	m, w, n, err := s.store.Counts(ctx)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{Metrics: m, Workouts: w, Nutrition: n}, nil
}

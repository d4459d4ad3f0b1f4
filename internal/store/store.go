package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"trainpulse/internal/model"
)

// ErrEmptyStore is returned when a snapshot is requested before any
// inputs have been ingested.
var ErrEmptyStore = errors.New("no input data stored")

const timestampLayout = "2006-01-02T15:04:05Z"

// Store persists the raw input collections that every analysis pass is
// recomputed from. Derived results are never written here.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating it and running
// migrations if necessary. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would get its own in-memory database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertMetrics writes a batch of metric points. At most one value per
// (day, kind) is kept; a later point for the same day overwrites the
// earlier one.
func (s *Store) UpsertMetrics(ctx context.Context, points []model.MetricPoint) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO metrics (date, kind, value) VALUES (?, ?, ?)
			ON CONFLICT (date, kind) DO UPDATE SET value = excluded.value`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range points {
			if !p.Kind.Valid() {
				return fmt.Errorf("unknown metric kind %q", p.Kind)
			}
			if _, err := stmt.ExecContext(ctx, model.DayKey(p.Date), string(p.Kind), p.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertWorkouts writes a batch of workouts keyed by their IDs,
// generating an ID for any workout the feed left without one.
func (s *Store) UpsertWorkouts(ctx context.Context, workouts []model.Workout) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO workouts (
				id, kind, start_time, duration_seconds,
				distance_meters, avg_power_watts, avg_heart_rate_bpm, suffer_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				kind = excluded.kind,
				start_time = excluded.start_time,
				duration_seconds = excluded.duration_seconds,
				distance_meters = excluded.distance_meters,
				avg_power_watts = excluded.avg_power_watts,
				avg_heart_rate_bpm = excluded.avg_heart_rate_bpm,
				suffer_score = excluded.suffer_score`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, w := range workouts {
			if !w.Kind.Valid() {
				return fmt.Errorf("unknown activity kind %q", w.Kind)
			}
			w.EnsureID()
			if _, err := stmt.ExecContext(ctx,
				w.ID, string(w.Kind), w.StartTime.UTC().Format(timestampLayout),
				w.DurationSeconds, w.DistanceMeters, w.AvgPowerWatts,
				w.AvgHeartRateBpm, w.SufferScore,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertNutrition writes a batch of daily nutrition logs, one per day.
func (s *Store) UpsertNutrition(ctx context.Context, logs []model.NutritionLog) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nutrition (date, total_carbs_grams, total_protein_grams, is_complete)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (date) DO UPDATE SET
				total_carbs_grams = excluded.total_carbs_grams,
				total_protein_grams = excluded.total_protein_grams,
				is_complete = excluded.is_complete`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, n := range logs {
			if _, err := stmt.ExecContext(ctx,
				model.DayKey(n.Date), n.TotalCarbsGrams, n.TotalProteinGrams, n.IsComplete,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot loads the full stored input set as one immutable batch.
func (s *Store) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{}

	metrics, err := s.loadMetrics(ctx)
	if err != nil {
		return nil, err
	}
	snap.Metrics = metrics

	workouts, err := s.loadWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	snap.Workouts = workouts

	nutrition, err := s.loadNutrition(ctx)
	if err != nil {
		return nil, err
	}
	snap.Nutrition = nutrition

	if len(snap.Metrics) == 0 && len(snap.Workouts) == 0 && len(snap.Nutrition) == 0 {
		return nil, ErrEmptyStore
	}
	return snap, nil
}

// Counts returns the size of each input collection; the analysis cache
// uses them as its data fingerprint.
func (s *Store) Counts(ctx context.Context) (metrics, workouts, nutrition int, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM metrics),
			(SELECT COUNT(*) FROM workouts),
			(SELECT COUNT(*) FROM nutrition)`)
	if err := row.Scan(&metrics, &workouts, &nutrition); err != nil {
		return 0, 0, 0, fmt.Errorf("counting inputs: %w", err)
	}
	return metrics, workouts, nutrition, nil
}

func (s *Store) loadMetrics(ctx context.Context) ([]model.MetricPoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, kind, value FROM metrics ORDER BY date, kind`)
	if err != nil {
		return nil, fmt.Errorf("loading metrics: %w", err)
	}
	defer rows.Close()

	var points []model.MetricPoint
	for rows.Next() {
		var day, kind string
		var value float64
		if err := rows.Scan(&day, &kind, &value); err != nil {
			return nil, err
		}
		date, err := time.Parse(model.DayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parsing metric date %q: %w", day, err)
		}
		points = append(points, model.MetricPoint{
			Date:  date,
			Kind:  model.MetricKind(kind),
			Value: value,
		})
	}
	return points, rows.Err()
}

func (s *Store) loadWorkouts(ctx context.Context) ([]model.Workout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, start_time, duration_seconds,
			distance_meters, avg_power_watts, avg_heart_rate_bpm, suffer_score
		FROM workouts ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("loading workouts: %w", err)
	}
	defer rows.Close()

	var workouts []model.Workout
	for rows.Next() {
		var w model.Workout
		var kind, start string
		if err := rows.Scan(&w.ID, &kind, &start, &w.DurationSeconds,
			&w.DistanceMeters, &w.AvgPowerWatts, &w.AvgHeartRateBpm, &w.SufferScore,
		); err != nil {
			return nil, err
		}
		w.Kind = model.ActivityKind(kind)
		startTime, err := time.Parse(timestampLayout, start)
		if err != nil {
			return nil, fmt.Errorf("parsing workout start %q: %w", start, err)
		}
		w.StartTime = startTime
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func (s *Store) loadNutrition(ctx context.Context) ([]model.NutritionLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, total_carbs_grams, total_protein_grams, is_complete
		FROM nutrition ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("loading nutrition: %w", err)
	}
	defer rows.Close()

	var logs []model.NutritionLog
	for rows.Next() {
		var n model.NutritionLog
		var day string
		if err := rows.Scan(&day, &n.TotalCarbsGrams, &n.TotalProteinGrams, &n.IsComplete); err != nil {
			return nil, err
		}
		date, err := time.Parse(model.DayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parsing nutrition date %q: %w", day, err)
		}
		n.Date = date
		logs = append(logs, n)
	}
	return logs, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

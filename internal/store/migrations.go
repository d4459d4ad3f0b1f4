package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Daily physiological readings, one per (day, kind)
		`CREATE TABLE IF NOT EXISTS metrics (
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			value REAL NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (date, kind)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_metrics_kind ON metrics(kind)`,

		// Discrete workout sessions
		`CREATE TABLE IF NOT EXISTS workouts (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			start_time TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			distance_meters REAL,
			avg_power_watts REAL,
			avg_heart_rate_bpm REAL,
			suffer_score REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_workouts_start_time ON workouts(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_kind ON workouts(kind)`,

		// Daily nutrition totals
		`CREATE TABLE IF NOT EXISTS nutrition (
			date TEXT PRIMARY KEY,
			total_carbs_grams REAL NOT NULL,
			total_protein_grams REAL NOT NULL,
			is_complete INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

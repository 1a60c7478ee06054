package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - key-value pairs, timing durations and the gesture toggle
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gesture events table - fired mode gestures and applied timing changes
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('gesture', 'timing')),
			label TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL DEFAULT '',
			value INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			commands TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL
		)`,

		// Status reports table - decoded status lines from the controller
		`CREATE TABLE IF NOT EXISTS status_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			line TEXT NOT NULL,
			mode TEXT NOT NULL,
			brightness INTEGER NOT NULL,
			red INTEGER NOT NULL,
			yellow INTEGER NOT NULL,
			green INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Indexes for history queries
		`CREATE INDEX IF NOT EXISTS idx_gesture_events_created_at ON gesture_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_status_reports_created_at ON status_reports(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

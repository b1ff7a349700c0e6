package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Actions table - binds a gesture label to a plugin action
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			gesture TEXT NOT NULL UNIQUE,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gesture events table - log of stable gesture changes
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_gesture TEXT NOT NULL DEFAULT '',
			to_gesture TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT '',
			occurred_at DATETIME NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_events_occurred_at ON gesture_events(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_events_to_gesture ON gesture_events(to_gesture)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

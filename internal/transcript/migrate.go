package transcript

import (
	"database/sql"
	"fmt"
	"log/slog"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations are applied in order, each exactly once, tracked in schema_version.
var migrations = []migration{
	{
		Version:     1,
		Description: "exchanges",
		SQL: `
		CREATE TABLE IF NOT EXISTS exchanges (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			widget_id   TEXT NOT NULL,
			message     TEXT NOT NULL,
			reply       TEXT,
			ok          INTEGER NOT NULL DEFAULT 0,
			error       TEXT,
			duration_ms INTEGER DEFAULT 0,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_exchanges_time ON exchanges(created_at);
		`,
	},
	{
		Version:     2,
		Description: "per-widget lookup",
		SQL: `
		CREATE INDEX IF NOT EXISTS idx_exchanges_widget ON exchanges(widget_id, created_at);
		`,
	},
}

// runMigrations applies pending migrations inside one transaction each.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version     INTEGER PRIMARY KEY,
			description TEXT,
			applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	current := 0
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("query schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		logger.Info("applying migration", "version", m.Version, "description", m.Description)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_version (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

// schemaVersion returns the highest applied migration.
func schemaVersion(db *sql.DB) (int, error) {
	v := 0
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

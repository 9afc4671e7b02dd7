package database

import (
	"database/sql"
	"fmt"

	"github.com/go-pkgz/lgr"
)

func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// setSchemaVersion runs outside any transaction; modernc sqlite ignores
// user_version changes made inside one.
func setSchemaVersion(conn *sql.DB, v int) error {
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("setting schema version %d: %w", v, err)
	}
	return nil
}

// isLegacyDB reports whether the entries table exists in an unversioned database.
func isLegacyDB(conn *sql.DB) (bool, error) {
	var count int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'entries'",
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for legacy tables: %w", err)
	}
	return count > 0, nil
}

// baseVersion is the version the schema is known to be at. An unversioned
// log created before migrations existed already has the version 1 tables.
func baseVersion(conn *sql.DB) (int, error) {
	current, err := getSchemaVersion(conn)
	if err != nil || current > 0 {
		return current, err
	}
	legacy, err := isLegacyDB(conn)
	if err != nil || !legacy {
		return 0, err
	}
	lgr.Printf("[INFO] unversioned content log found, treating it as schema 1")
	return 1, setSchemaVersion(conn, 1)
}

// pending returns the migrations newer than current, oldest first.
func pending(current int) []Migration {
	var out []Migration
	for _, m := range migrations {
		if m.Version > current {
			out = append(out, m)
		}
	}
	return out
}

func apply(conn *sql.DB, m Migration) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	// a crash before the stamp re-runs the step, which every Up tolerates
	return setSchemaVersion(conn, m.Version)
}

// migrate brings the content log schema up to latestVersion.
func migrate(conn *sql.DB) error {
	current, err := baseVersion(conn)
	if err != nil {
		return err
	}
	for _, m := range pending(current) {
		lgr.Printf("[INFO] applying migration %d: %s", m.Version, m.Description)
		if err := apply(conn, m); err != nil {
			return err
		}
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "content log",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    generated_at TEXT NOT NULL,
    day TEXT NOT NULL,
    content_type TEXT NOT NULL,
    mode TEXT NOT NULL,
    style TEXT NOT NULL,
    script TEXT NOT NULL,
    social_post TEXT NOT NULL DEFAULT '',
    motion_script TEXT NOT NULL DEFAULT '',
    video_caption TEXT NOT NULL DEFAULT '',
    episode_title TEXT NOT NULL DEFAULT '',
    script_length INTEGER DEFAULT 0,
    word_count INTEGER DEFAULT 0,
    news_count INTEGER DEFAULT 0,
    fallback INTEGER DEFAULT 0,
    market_data TEXT NOT NULL DEFAULT '',
    quality_score TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entry_sources (
    entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    title TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    sentiment TEXT NOT NULL DEFAULT '',
    sentiment_score REAL DEFAULT 0,
    tickers TEXT NOT NULL DEFAULT '',
    time_published TEXT NOT NULL DEFAULT '',
    score REAL DEFAULT 0,
    PRIMARY KEY (entry_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_entries_generated ON entries(generated_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "record generation provider",
		Up: func(tx *sql.Tx) error {
			for _, col := range []string{"provider", "fallback_reason"} {
				if err := addColumn(tx, "entries", col, "TEXT NOT NULL DEFAULT ''"); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// addColumn adds a column unless it already exists, so the step can re-run.
func addColumn(tx *sql.Tx, table, column, decl string) error {
	var n int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

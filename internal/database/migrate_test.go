package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestMigrateNewDB(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), version)
}

func TestMigrateLegacyDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// an unversioned log with only part of the version 1 columns
	raw, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		generated_at TEXT NOT NULL,
		script TEXT NOT NULL
	)`)
	require.NoError(t, err)
	raw.Close()

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := getSchemaVersion(db.conn)
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), version)

	var n int
	require.NoError(t, db.conn.QueryRow("SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'provider'").Scan(&n))
	assert.Equal(t, 1, n, "provider column added to the legacy table")
}

func TestAddColumnIdempotent(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 2; i++ {
		tx, err := db.conn.Begin()
		require.NoError(t, err)
		if err := addColumn(tx, "entries", "provider", "TEXT NOT NULL DEFAULT ''"); err != nil {
			_ = tx.Rollback()
			t.Fatalf("addColumn run %d: %v", i, err)
		}
		require.NoError(t, tx.Commit())
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := Open(dbPath)
	require.NoError(t, err)
	db1.Close()

	db2, err := Open(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	version, err := getSchemaVersion(db2.conn)
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), version)
}

func TestPendingMigrations(t *testing.T) {
	assert.Len(t, pending(0), len(migrations))
	assert.Empty(t, pending(latestVersion()))
	rest := pending(1)
	require.NotEmpty(t, rest)
	assert.Equal(t, 2, rest[0].Version)
}

func TestBaseVersionFreshDB(t *testing.T) {
	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer conn.Close()

	legacy, err := isLegacyDB(conn)
	require.NoError(t, err)
	assert.False(t, legacy)

	version, err := baseVersion(conn)
	require.NoError(t, err)
	assert.Zero(t, version)
}

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T, profile DatabaseProfile, name string) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestMigrate_CreatesJournalSchema(t *testing.T) {
	db := setupDB(t, ProfileJournal, "journal")
	require.NoError(t, db.Migrate())

	_, err := db.Exec("INSERT INTO trades (id, account_number, instrument, side, quantity, entry_price, close_price, entry_date, close_date, pnl, commission, time_in_position, created_at) VALUES ('t1', 'ACC-1', 'ES', 'long', 1, 100, 101, 1709560200, 1709562000, 50, 2, 1800, 1709562000)")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_CreatesCacheSchema(t *testing.T) {
	db := setupDB(t, ProfileCache, "cache")
	require.NoError(t, db.Migrate())

	_, err := db.Exec("INSERT INTO shared_snapshots (slug, title, payload, created_at, expires_at) VALUES ('s1', 'title', X'00', 1, 2)")
	require.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupDB(t, ProfileJournal, "journal")
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := setupDB(t, ProfileJournal, "unknown")
	require.NoError(t, db.Migrate())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count)
	assert.Error(t, err)
}

func TestSideCheckConstraint(t *testing.T) {
	db := setupDB(t, ProfileJournal, "journal")
	require.NoError(t, db.Migrate())

	_, err := db.Exec("INSERT INTO trades (id, account_number, instrument, side, quantity, entry_price, close_price, entry_date, close_date, pnl, commission, time_in_position, created_at) VALUES ('t1', 'ACC-1', 'ES', 'sideways', 1, 100, 101, 1, 2, 0, 0, 1, 1)")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := setupDB(t, ProfileJournal, "journal")
	require.NoError(t, db.Migrate())
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestBackupTo(t *testing.T) {
	db := setupDB(t, ProfileJournal, "journal")
	require.NoError(t, db.Migrate())

	_, err := db.Exec("INSERT INTO trades (id, account_number, instrument, side, quantity, entry_price, close_price, entry_date, close_date, pnl, commission, time_in_position, created_at) VALUES ('t1', 'ACC-1', 'ES', 'long', 1, 100, 101, 1, 2, 50, 2, 1, 1)")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, db.BackupTo(dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	// The backup is a standalone, readable database
	restored, err := New(Config{Path: dest, Profile: ProfileJournal, Name: "journal"})
	require.NoError(t, err)
	defer restored.Close()

	var count int
	require.NoError(t, restored.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWALCheckpoint(t *testing.T) {
	db := setupDB(t, ProfileJournal, "journal")
	require.NoError(t, db.Migrate())
	require.NoError(t, db.WALCheckpoint("TRUNCATE"))
}

func TestGetStats(t *testing.T) {
	db := setupDB(t, ProfileCache, "cache")
	require.NoError(t, db.Migrate())

	stats, err := db.GetStats()
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Positive(t, stats.PageSize)
	assert.Positive(t, stats.PageCount)
}

package share

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/daybook/internal/database"
	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/pkg/logger"
)

func setupRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), logger.Discard()), db
}

func sampleSnapshot() Snapshot {
	entry := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	return Snapshot{
		Title:    "March week one",
		DateFrom: "2024-03-04",
		DateTo:   "2024-03-08",
		Timezone: "America/New_York",
		Trades: []domain.Trade{{
			ID:            "t1",
			AccountNumber: "ACC-1",
			Instrument:    "ES",
			Side:          domain.SideLong,
			Quantity:      2,
			EntryPrice:    5100.25,
			ClosePrice:    5105.50,
			EntryDate:     entry,
			CloseDate:     entry.Add(30 * time.Minute),
			PnL:           52.5,
			Commission:    4.2,
			Tags:          []string{"breakout"},
		}},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo, _ := setupRepo(t)

	slug, err := repo.Create(sampleSnapshot())
	require.NoError(t, err)
	require.NotEmpty(t, slug)

	got, err := repo.Get(slug)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, slug, got.Slug)
	assert.Equal(t, "March week one", got.Title)
	assert.Equal(t, "2024-03-04", got.DateFrom)
	assert.Equal(t, "America/New_York", got.Timezone)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, "t1", got.Trades[0].ID)
	assert.InDelta(t, 52.5, got.Trades[0].PnL, 1e-9)
	assert.Equal(t, []string{"breakout"}, got.Trades[0].Tags)
	assert.True(t, got.ExpiresAt.After(got.CreatedAt))
}

func TestGet_UnknownSlug(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_ExpiredSnapshot(t *testing.T) {
	repo, db := setupRepo(t)

	slug, err := repo.Create(sampleSnapshot())
	require.NoError(t, err)

	// Push the expiry into the past
	_, err = db.Exec("UPDATE shared_snapshots SET expires_at = ? WHERE slug = ?", time.Now().Add(-time.Hour).Unix(), slug)
	require.NoError(t, err)

	_, err = repo.Get(slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeExpired(t *testing.T) {
	repo, db := setupRepo(t)

	expired, err := repo.Create(sampleSnapshot())
	require.NoError(t, err)
	live, err := repo.Create(sampleSnapshot())
	require.NoError(t, err)

	_, err = db.Exec("UPDATE shared_snapshots SET expires_at = ? WHERE slug = ?", time.Now().Add(-time.Hour).Unix(), expired)
	require.NoError(t, err)

	purged, err := repo.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.Get(expired)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.Get(live)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCreate_UniqueSlugs(t *testing.T) {
	repo, _ := setupRepo(t)

	a, err := repo.Create(sampleSnapshot())
	require.NoError(t, err)
	b, err := repo.Create(sampleSnapshot())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

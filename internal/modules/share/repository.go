// Package share provides read-only shared snapshots of a filtered trade
// view, exposed at a public slug with a fixed expiry.
package share

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/daybook/internal/domain"
)

// TTL is how long a shared snapshot stays reachable
const TTL = 7 * 24 * time.Hour

// ErrNotFound is returned for unknown or expired slugs
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the read-only export behind a share link: the filtered trades,
// the date range they cover and a display title.
type Snapshot struct {
	Slug      string         `json:"slug" msgpack:"-"`
	Title     string         `json:"title" msgpack:"title"`
	DateFrom  string         `json:"date_from" msgpack:"date_from"`
	DateTo    string         `json:"date_to" msgpack:"date_to"`
	Timezone  string         `json:"timezone" msgpack:"timezone"`
	Trades    []domain.Trade `json:"trades" msgpack:"trades"`
	CreatedAt time.Time      `json:"created_at" msgpack:"-"`
	ExpiresAt time.Time      `json:"expires_at" msgpack:"-"`
}

// Repository stores shared snapshots in cache.db. Payloads are msgpack
// encoded: snapshots can hold thousands of trades and are written once,
// read rarely and purged on expiry.
type Repository struct {
	cacheDB *sql.DB
	log     zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(cacheDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		cacheDB: cacheDB,
		log:     log.With().Str("repo", "share").Logger(),
	}
}

// Create stores a snapshot and returns its public slug
func (r *Repository) Create(snapshot Snapshot) (string, error) {
	payload, err := msgpack.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	slug := uuid.NewString()
	now := time.Now()

	_, err = r.cacheDB.Exec(`
		INSERT INTO shared_snapshots (slug, title, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, slug, snapshot.Title, payload, now.Unix(), now.Add(TTL).Unix())
	if err != nil {
		return "", fmt.Errorf("failed to store snapshot: %w", err)
	}

	r.log.Info().
		Str("slug", slug).
		Int("trades", len(snapshot.Trades)).
		Msg("Shared snapshot created")

	return slug, nil
}

// Get retrieves a snapshot by slug. Expired snapshots report ErrNotFound
// even before the purge job removes the row.
func (r *Repository) Get(slug string) (*Snapshot, error) {
	var payload []byte
	var title string
	var createdAt, expiresAt int64

	err := r.cacheDB.QueryRow(`
		SELECT title, payload, created_at, expires_at
		FROM shared_snapshots
		WHERE slug = ?
	`, slug).Scan(&title, &payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if time.Now().Unix() >= expiresAt {
		return nil, ErrNotFound
	}

	var snapshot Snapshot
	if err := msgpack.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	snapshot.Slug = slug
	snapshot.Title = title
	snapshot.CreatedAt = time.Unix(createdAt, 0).UTC()
	snapshot.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	return &snapshot, nil
}

// PurgeExpired deletes snapshots past their expiry and returns how many
// rows were removed
func (r *Repository) PurgeExpired() (int64, error) {
	res, err := r.cacheDB.Exec("DELETE FROM shared_snapshots WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired snapshots: %w", err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}

	if purged > 0 {
		r.log.Info().Int64("purged", purged).Msg("Expired snapshots purged")
	}

	return purged, nil
}

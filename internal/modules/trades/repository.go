package trades

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/domain"
)

// tradesColumns is the list of columns for the trades table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match the scanTrade() helpers.
const tradesColumns = `id, account_number, instrument, side, quantity, entry_price, close_price, entry_date, close_date, pnl, commission, time_in_position, tags, comment, video_url, image_base64, created_at`

// Filter narrows List queries. Zero values mean "no constraint".
type Filter struct {
	AccountNumber string
	Instrument    string
	From          time.Time // Inclusive lower bound on entry_date
	To            time.Time // Inclusive upper bound on entry_date
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"` // Duplicates (same id already stored)
	Dropped  int `json:"dropped"` // Records rejected by normalization
}

// Repository handles trade database operations against journal.db
type Repository struct {
	journalDB *sql.DB
	log       zerolog.Logger
}

// NewRepository creates a new trade repository
func NewRepository(journalDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		journalDB: journalDB,
		log:       log.With().Str("repo", "trades").Logger(),
	}
}

// Import normalizes raw records and inserts the survivors in one
// transaction. Records whose id already exists are skipped, so re-importing
// the same broker export is harmless.
func (r *Repository) Import(raw []RawTrade) (ImportResult, error) {
	normalized := Normalize(raw)
	result := ImportResult{Dropped: len(raw) - len(normalized)}

	tx, err := r.journalDB.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO trades
		(` + tradesColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return result, fmt.Errorf("failed to prepare import statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, trade := range normalized {
		if trade.ID == "" {
			trade.ID = uuid.NewString()
		}
		if err := trade.Validate(); err != nil {
			result.Dropped++
			continue
		}

		tagsJSON, err := json.Marshal(trade.Tags)
		if err != nil {
			return result, fmt.Errorf("failed to encode tags: %w", err)
		}

		res, err := stmt.Exec(
			trade.ID,
			trade.AccountNumber,
			trade.Instrument,
			string(trade.Side),
			trade.Quantity,
			trade.EntryPrice,
			trade.ClosePrice,
			trade.EntryDate.Unix(),
			trade.CloseDate.Unix(),
			trade.PnL,
			trade.Commission,
			trade.TimeInPosition,
			string(tagsJSON),
			nullString(trade.Comment),
			nullString(trade.VideoURL),
			nullString(trade.ImageBase64),
			now,
		)
		if err != nil {
			return result, fmt.Errorf("failed to insert trade %s: %w", trade.ID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("failed to read insert result: %w", err)
		}
		if affected == 0 {
			result.Skipped++
		} else {
			result.Imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit import: %w", err)
	}

	r.log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("dropped", result.Dropped).
		Msg("Trade import completed")

	return result, nil
}

// List retrieves trades matching the filter, ordered by entry_date ascending.
// Insertion order breaks ties so repeated queries return identical sequences.
func (r *Repository) List(filter Filter) ([]domain.Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE 1=1"
	var args []interface{}

	if filter.AccountNumber != "" {
		query += " AND account_number = ?"
		args = append(args, filter.AccountNumber)
	}
	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if !filter.From.IsZero() {
		query += " AND entry_date >= ?"
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		query += " AND entry_date <= ?"
		args = append(args, filter.To.Unix())
	}

	query += " ORDER BY entry_date ASC, created_at ASC, id ASC"

	rows, err := r.journalDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// ListAll retrieves every trade in the journal, ordered by entry_date
func (r *Repository) ListAll() ([]domain.Trade, error) {
	return r.List(Filter{})
}

// Get retrieves a single trade by id. Returns nil when not found.
func (r *Repository) Get(id string) (*domain.Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ?"

	rows, err := r.journalDB.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get trade: %w", err)
		}
		return nil, nil
	}

	trade, err := scanTrade(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan trade: %w", err)
	}

	return &trade, nil
}

// ErrNotFound is returned by update operations targeting a missing trade
var ErrNotFound = errors.New("trade not found")

// UpdateTags replaces the tag set of a trade
func (r *Repository) UpdateTags(id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	res, err := r.journalDB.Exec("UPDATE trades SET tags = ? WHERE id = ?", string(tagsJSON), id)
	if err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateAnnotations sets the free-form annotation fields of a trade
func (r *Repository) UpdateAnnotations(id, comment, videoURL string) error {
	res, err := r.journalDB.Exec(
		"UPDATE trades SET comment = ?, video_url = ? WHERE id = ?",
		nullString(comment), nullString(videoURL), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update annotations: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a trade from the journal
func (r *Repository) Delete(id string) error {
	res, err := r.journalDB.Exec("DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Accounts returns the distinct account numbers present in the journal,
// sorted alphabetically
func (r *Repository) Accounts() ([]string, error) {
	rows, err := r.journalDB.Query("SELECT DISTINCT account_number FROM trades ORDER BY account_number ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Count returns the number of trades in the journal
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.journalDB.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// scanTrade reads one trade from the current row.
// Column order must match tradesColumns.
func scanTrade(rows *sql.Rows) (domain.Trade, error) {
	var trade domain.Trade
	var side, tagsJSON string
	var entryDate, closeDate, createdAt int64
	var comment, videoURL, imageBase64 sql.NullString

	err := rows.Scan(
		&trade.ID,
		&trade.AccountNumber,
		&trade.Instrument,
		&side,
		&trade.Quantity,
		&trade.EntryPrice,
		&trade.ClosePrice,
		&entryDate,
		&closeDate,
		&trade.PnL,
		&trade.Commission,
		&trade.TimeInPosition,
		&tagsJSON,
		&comment,
		&videoURL,
		&imageBase64,
		&createdAt,
	)
	if err != nil {
		return trade, err
	}

	trade.Side = domain.Side(side)
	trade.EntryDate = time.Unix(entryDate, 0).UTC()
	trade.CloseDate = time.Unix(closeDate, 0).UTC()

	if err := json.Unmarshal([]byte(tagsJSON), &trade.Tags); err != nil {
		trade.Tags = []string{}
	}
	if comment.Valid {
		trade.Comment = comment.String
	}
	if videoURL.Valid {
		trade.VideoURL = videoURL.String
	}
	if imageBase64.Valid {
		trade.ImageBase64 = imageBase64.String
	}

	return trade, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

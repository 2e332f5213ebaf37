// Package trades provides trade ingestion, normalization and persistence.
package trades

import (
	"strings"
	"time"

	"github.com/aristath/daybook/internal/domain"
)

// RawTrade is a trade-like record as it arrives from an import source
// (broker export, API client, shared snapshot). Fields are loose on purpose;
// Normalize turns them into canonical domain.Trade values or drops them.
type RawTrade struct {
	ID             string   `json:"id"`
	AccountNumber  string   `json:"account_number"`
	Instrument     string   `json:"instrument"`
	Side           string   `json:"side"`
	EntryDate      string   `json:"entry_date"`
	CloseDate      string   `json:"close_date"`
	Comment        string   `json:"comment"`
	VideoURL       string   `json:"video_url"`
	ImageBase64    string   `json:"image_base64"`
	Tags           []string `json:"tags"`
	Quantity       float64  `json:"quantity"`
	EntryPrice     float64  `json:"entry_price"`
	ClosePrice     float64  `json:"close_price"`
	PnL            float64  `json:"pnl"`
	Commission     float64  `json:"commission"`
	TimeInPosition int64    `json:"time_in_position"`
}

// dateLayouts are the timestamp formats accepted from import sources,
// tried in order. All are interpreted as UTC unless the value carries
// an explicit offset.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize validates and coerces raw trade records into canonical trades.
// Records that fail required-field validation, or whose close date precedes
// their entry date, are dropped, never reported: malformed rows in a broker
// export must not block the rest of the import. The relative order of
// surviving records is preserved.
//
// Coercions applied:
//   - side is lowercased ("LONG" -> "long"),
//   - negative or missing commission becomes 0,
//   - timeInPosition is always recomputed from the two dates; an externally
//     supplied value is never trusted.
func Normalize(raw []RawTrade) []domain.Trade {
	trades := make([]domain.Trade, 0, len(raw))

	for _, r := range raw {
		if r.Instrument == "" || r.Quantity <= 0 || r.EntryPrice <= 0 || r.ClosePrice <= 0 {
			continue
		}

		side := domain.Side(strings.ToLower(strings.TrimSpace(r.Side)))
		if side != domain.SideLong && side != domain.SideShort {
			continue
		}

		entryDate, ok := parseDate(r.EntryDate)
		if !ok {
			continue
		}
		closeDate, ok := parseDate(r.CloseDate)
		if !ok {
			continue
		}
		// A close before the entry would yield a negative position time
		if closeDate.Before(entryDate) {
			continue
		}

		commission := r.Commission
		if commission < 0 {
			commission = 0
		}

		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}

		trades = append(trades, domain.Trade{
			ID:             strings.TrimSpace(r.ID),
			AccountNumber:  strings.TrimSpace(r.AccountNumber),
			Instrument:     strings.TrimSpace(r.Instrument),
			Side:           side,
			Quantity:       r.Quantity,
			EntryPrice:     r.EntryPrice,
			ClosePrice:     r.ClosePrice,
			EntryDate:      entryDate,
			CloseDate:      closeDate,
			PnL:            r.PnL,
			Commission:     commission,
			TimeInPosition: int64(closeDate.Sub(entryDate).Seconds()),
			Tags:           tags,
			Comment:        r.Comment,
			VideoURL:       r.VideoURL,
			ImageBase64:    r.ImageBase64,
		})
	}

	return trades
}

// parseDate tries the accepted layouts in order
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

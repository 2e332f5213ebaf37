// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"time"
)

// Side represents the direction of a trade
type Side string

const (
	// SideLong represents a long trade (buy to open, sell to close)
	SideLong Side = "long"
	// SideShort represents a short trade (sell to open, buy to close)
	SideShort Side = "short"
)

// Trade represents a single executed round-trip trade in the journal.
// Once normalized, a Trade is immutable for aggregation purposes; only
// the annotation fields (Tags, Comment, VideoURL, ImageBase64) change
// through user actions, and those never affect derived metrics.
type Trade struct {
	EntryDate      time.Time `json:"entry_date"`
	CloseDate      time.Time `json:"close_date"`
	ID             string    `json:"id"`
	AccountNumber  string    `json:"account_number"`
	Instrument     string    `json:"instrument"`
	Side           Side      `json:"side"`
	Comment        string    `json:"comment,omitempty"`
	VideoURL       string    `json:"video_url,omitempty"`
	ImageBase64    string    `json:"image_base64,omitempty"`
	Tags           []string  `json:"tags"`
	Quantity       float64   `json:"quantity"`
	EntryPrice     float64   `json:"entry_price"`
	ClosePrice     float64   `json:"close_price"`
	PnL            float64   `json:"pnl"`
	Commission     float64   `json:"commission"`
	TimeInPosition int64     `json:"time_in_position"` // Seconds between entry and close
}

// NetPnL returns the trade's profit or loss after commission
func (t Trade) NetPnL() float64 {
	return t.PnL - t.Commission
}

// Validate checks that a trade satisfies the journal invariants.
// Repositories call this before persisting.
func (t Trade) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade id is required")
	}
	if t.Instrument == "" {
		return fmt.Errorf("trade instrument is required")
	}
	if t.Side != SideLong && t.Side != SideShort {
		return fmt.Errorf("invalid trade side: %q", t.Side)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("trade quantity must be positive, got %v", t.Quantity)
	}
	if t.EntryPrice <= 0 || t.ClosePrice <= 0 {
		return fmt.Errorf("trade prices must be positive")
	}
	if t.EntryDate.IsZero() || t.CloseDate.IsZero() {
		return fmt.Errorf("trade dates are required")
	}
	if t.Commission < 0 {
		return fmt.Errorf("trade commission must not be negative, got %v", t.Commission)
	}
	return nil
}

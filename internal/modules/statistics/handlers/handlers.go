// Package handlers provides HTTP handlers for statistical summaries.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/internal/modules/statistics"
	"github.com/aristath/daybook/internal/modules/trades"
)

// TradeSource supplies the trades to summarize
type TradeSource interface {
	List(filter trades.Filter) ([]domain.Trade, error)
}

// Handler provides HTTP handlers for statistics endpoints
type Handler struct {
	source          TradeSource
	defaultTimezone string
	log             zerolog.Logger
}

// NewHandler creates a new statistics handler
func NewHandler(source TradeSource, defaultTimezone string, log zerolog.Logger) *Handler {
	return &Handler{
		source:          source,
		defaultTimezone: defaultTimezone,
		log:             log.With().Str("handler", "statistics").Logger(),
	}
}

// HandleSummary handles GET /api/statistics?tz=&account=&instrument=
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	tzName := r.URL.Query().Get("tz")
	if tzName == "" {
		tzName = h.defaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}

	list, err := h.source.List(trades.Filter{
		AccountNumber: r.URL.Query().Get("account"),
		Instrument:    r.URL.Query().Get("instrument"),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades")
		http.Error(w, "Failed to load trades", http.StatusInternalServerError)
		return
	}

	summary := statistics.Summarize(list, loc)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

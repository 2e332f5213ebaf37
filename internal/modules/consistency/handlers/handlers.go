// Package handlers provides HTTP handlers for consistency evaluation.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/internal/modules/consistency"
	"github.com/aristath/daybook/internal/modules/trades"
)

// TradeSource supplies the trades to evaluate
type TradeSource interface {
	List(filter trades.Filter) ([]domain.Trade, error)
}

// Defaults carries the configured fallbacks for optional query parameters
type Defaults struct {
	Timezone     string
	ThresholdPct float64
}

// Handler provides HTTP handlers for consistency endpoints
type Handler struct {
	source   TradeSource
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new consistency handler
func NewHandler(source TradeSource, defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		source:   source,
		defaults: defaults,
		log:      log.With().Str("handler", "consistency").Logger(),
	}
}

// HandleEvaluate handles GET /api/consistency?threshold=30&tz=
// threshold is a percent in (0,100], typically driven by a UI slider.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	tzName := r.URL.Query().Get("tz")
	if tzName == "" {
		tzName = h.defaults.Timezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}

	threshold := h.defaults.ThresholdPct
	if value := r.URL.Query().Get("threshold"); value != "" {
		threshold, err = strconv.ParseFloat(value, 64)
		if err != nil || threshold <= 0 || threshold > 100 {
			http.Error(w, "Invalid threshold (expected a percent in (0,100])", http.StatusBadRequest)
			return
		}
	}

	list, err := h.source.List(trades.Filter{})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades")
		http.Error(w, "Failed to load trades", http.StatusInternalServerError)
		return
	}

	metrics := consistency.Evaluate(list, threshold, loc)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"threshold": threshold,
		"timezone":  tzName,
		"accounts":  metrics,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

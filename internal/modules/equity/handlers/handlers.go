// Package handlers provides HTTP handlers for equity-curve charts.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/internal/modules/equity"
	"github.com/aristath/daybook/internal/modules/trades"
)

// TradeSource supplies the trades to chart
type TradeSource interface {
	List(filter trades.Filter) ([]domain.Trade, error)
}

// Handler provides HTTP handlers for equity endpoints
type Handler struct {
	source          TradeSource
	defaultTimezone string
	log             zerolog.Logger
}

// NewHandler creates a new equity handler
func NewHandler(source TradeSource, defaultTimezone string, log zerolog.Logger) *Handler {
	return &Handler{
		source:          source,
		defaultTimezone: defaultTimezone,
		log:             log.With().Str("handler", "equity").Logger(),
	}
}

// HandleCurve handles GET /api/equity?group=account|total&tz=&smooth=N&account=
func (h *Handler) HandleCurve(w http.ResponseWriter, r *http.Request) {
	tzName := r.URL.Query().Get("tz")
	if tzName == "" {
		tzName = h.defaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}

	list, err := h.source.List(trades.Filter{AccountNumber: r.URL.Query().Get("account")})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades")
		http.Error(w, "Failed to load trades", http.StatusInternalServerError)
		return
	}

	group := r.URL.Query().Get("group")
	if group == "" {
		group = "total"
	}

	switch group {
	case "total":
		points := equity.BuildTotalCurve(list, loc)
		resp := map[string]interface{}{
			"group":  "total",
			"points": points,
		}
		if smooth := smoothPeriod(r); smooth > 0 {
			resp["smoothed"] = equity.Smooth(points, smooth)
		}
		writeJSON(w, h.log, resp)

	case "account":
		writeJSON(w, h.log, equity.BuildAccountCurves(list, loc))

	default:
		http.Error(w, "Invalid group (expected account or total)", http.StatusBadRequest)
	}
}

// smoothPeriod parses the optional smooth query parameter; 0 disables the
// overlay
func smoothPeriod(r *http.Request) int {
	value := r.URL.Query().Get("smooth")
	if value == "" {
		return 0
	}
	period, err := strconv.Atoi(value)
	if err != nil || period < 0 {
		return 0
	}
	return period
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

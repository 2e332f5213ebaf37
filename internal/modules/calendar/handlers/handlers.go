// Package handlers provides HTTP handlers for calendar P&L views.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/internal/modules/calendar"
	"github.com/aristath/daybook/internal/modules/trades"
)

// TradeSource supplies the trades to aggregate
type TradeSource interface {
	List(filter trades.Filter) ([]domain.Trade, error)
}

// Defaults carries the configured fallbacks for optional query parameters
type Defaults struct {
	Timezone         string
	WeekStartsMonday bool
}

// Handler provides HTTP handlers for calendar endpoints
type Handler struct {
	source   TradeSource
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new calendar handler
func NewHandler(source TradeSource, defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		source:   source,
		defaults: defaults,
		log:      log.With().Str("handler", "calendar").Logger(),
	}
}

// monthResponse is the payload of the month view
type monthResponse struct {
	Month        string                     `json:"month"`
	Timezone     string                     `json:"timezone"`
	Days         []*calendar.DailyAggregate `json:"days"` // Sorted by date
	Grid         []calendar.GridCell        `json:"grid"` // Fixed 42 cells
	MonthlyTotal float64                    `json:"monthly_total"`
	YearlyTotal  float64                    `json:"yearly_total"`
}

// HandleMonth handles GET /api/calendar?tz=&month=2006-01&account=&monday=
func (h *Handler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	loc, tzName, ok := h.location(w, r)
	if !ok {
		return
	}

	monthParam := r.URL.Query().Get("month")
	if monthParam == "" {
		monthParam = time.Now().In(loc).Format("2006-01")
	}
	monthStart, err := time.ParseInLocation("2006-01", monthParam, loc)
	if err != nil {
		http.Error(w, "Invalid month (expected yyyy-MM)", http.StatusBadRequest)
		return
	}

	list, err := h.source.List(trades.Filter{AccountNumber: r.URL.Query().Get("account")})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades")
		http.Error(w, "Failed to load trades", http.StatusInternalServerError)
		return
	}

	data := calendar.Aggregate(list, loc)

	days := make([]*calendar.DailyAggregate, 0, len(data))
	for _, key := range calendar.SortedKeys(data) {
		days = append(days, data[key])
	}

	resp := monthResponse{
		Month:        monthParam,
		Timezone:     tzName,
		Days:         days,
		Grid:         calendar.MonthGrid(data, monthStart.Year(), monthStart.Month(), loc, h.weekStartsMonday(r)),
		MonthlyTotal: calendar.MonthlyTotal(data, monthParam),
		YearlyTotal:  calendar.YearlyTotal(data, monthParam[:4]),
	}

	writeJSON(w, h.log, resp)
}

// HandleWeekly handles GET /api/calendar/weekly?tz=&anchor=2006-01-02&monday=
func (h *Handler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	loc, tzName, ok := h.location(w, r)
	if !ok {
		return
	}

	anchorParam := r.URL.Query().Get("anchor")
	if anchorParam == "" {
		anchorParam = time.Now().In(loc).Format("2006-01-02")
	}
	anchor, err := time.ParseInLocation("2006-01-02", anchorParam, loc)
	if err != nil {
		http.Error(w, "Invalid anchor date (expected yyyy-MM-dd)", http.StatusBadRequest)
		return
	}

	list, err := h.source.List(trades.Filter{AccountNumber: r.URL.Query().Get("account")})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades")
		http.Error(w, "Failed to load trades", http.StatusInternalServerError)
		return
	}

	data := calendar.Aggregate(list, loc)

	writeJSON(w, h.log, map[string]interface{}{
		"anchor":       anchorParam,
		"timezone":     tzName,
		"weekly_total": calendar.WeeklyTotal(data, anchor, loc, h.weekStartsMonday(r)),
	})
}

// HandleDayExtremes handles GET /api/calendar/extremes?tz=&date=2006-01-02
func (h *Handler) HandleDayExtremes(w http.ResponseWriter, r *http.Request) {
	loc, _, ok := h.location(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date is required (yyyy-MM-dd)", http.StatusBadRequest)
		return
	}
	if _, err := time.ParseInLocation("2006-01-02", date, loc); err != nil {
		http.Error(w, "Invalid date (expected yyyy-MM-dd)", http.StatusBadRequest)
		return
	}

	list, err := h.source.List(trades.Filter{AccountNumber: r.URL.Query().Get("account")})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades")
		http.Error(w, "Failed to load trades", http.StatusInternalServerError)
		return
	}

	data := calendar.Aggregate(list, loc)

	var dayTrades []domain.Trade
	if day, ok := data[date]; ok {
		dayTrades = day.Trades
	}

	writeJSON(w, h.log, calendar.Extremes(dayTrades))
}

// location resolves the tz query parameter, falling back to the configured
// default timezone
func (h *Handler) location(w http.ResponseWriter, r *http.Request) (*time.Location, string, bool) {
	tzName := r.URL.Query().Get("tz")
	if tzName == "" {
		tzName = h.defaults.Timezone
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return nil, "", false
	}

	return loc, tzName, true
}

// weekStartsMonday resolves the monday query parameter, falling back to the
// configured locale default
func (h *Handler) weekStartsMonday(r *http.Request) bool {
	switch r.URL.Query().Get("monday") {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return h.defaults.WeekStartsMonday
	}
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/internal/modules/trades"
	"github.com/aristath/daybook/pkg/logger"
)

type stubSource struct {
	trades []domain.Trade
	filter trades.Filter
	err    error
}

func (s *stubSource) List(filter trades.Filter) ([]domain.Trade, error) {
	s.filter = filter
	return s.trades, s.err
}

func sampleTrades() []domain.Trade {
	day1 := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	return []domain.Trade{
		{
			ID: "t1", AccountNumber: "ACC-1", Instrument: "ES", Side: domain.SideLong,
			Quantity: 1, EntryPrice: 100, ClosePrice: 101,
			EntryDate: day1, CloseDate: day1.Add(time.Hour), PnL: 50, Commission: 2,
		},
		{
			ID: "t2", AccountNumber: "ACC-1", Instrument: "ES", Side: domain.SideShort,
			Quantity: 1, EntryPrice: 100, ClosePrice: 99,
			EntryDate: day1.Add(2 * time.Hour), CloseDate: day1.Add(3 * time.Hour), PnL: 30, Commission: 5,
		},
		{
			ID: "t3", AccountNumber: "ACC-1", Instrument: "NQ", Side: domain.SideLong,
			Quantity: 1, EntryPrice: 100, ClosePrice: 102,
			EntryDate: day2, CloseDate: day2.Add(time.Hour), PnL: 52, Commission: 2,
		},
	}
}

func newTestHandler(source TradeSource) *Handler {
	return NewHandler(source, Defaults{Timezone: "UTC"}, logger.Discard())
}

func TestHandleMonth(t *testing.T) {
	h := newTestHandler(&stubSource{trades: sampleTrades()})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?month=2024-03", nil)
	rec := httptest.NewRecorder()
	h.HandleMonth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Month        string  `json:"month"`
		Timezone     string  `json:"timezone"`
		MonthlyTotal float64 `json:"monthly_total"`
		YearlyTotal  float64 `json:"yearly_total"`
		Days         []struct {
			Date        string  `json:"date"`
			PnL         float64 `json:"pnl"`
			TradeNumber int     `json:"trade_number"`
		} `json:"days"`
		Grid []struct {
			Date    string `json:"date"`
			InMonth bool   `json:"in_month"`
		} `json:"grid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2024-03", resp.Month)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.InDelta(t, 123.0, resp.MonthlyTotal, 1e-9)
	assert.InDelta(t, 123.0, resp.YearlyTotal, 1e-9)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2024-03-04", resp.Days[0].Date)
	assert.InDelta(t, 73.0, resp.Days[0].PnL, 1e-9)
	assert.Equal(t, 2, resp.Days[0].TradeNumber)
	assert.Len(t, resp.Grid, 42)
}

func TestHandleMonth_AccountFilterIsForwarded(t *testing.T) {
	source := &stubSource{}
	h := newTestHandler(source)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?month=2024-03&account=ACC-2", nil)
	h.HandleMonth(httptest.NewRecorder(), req)

	assert.Equal(t, "ACC-2", source.filter.AccountNumber)
}

func TestHandleMonth_InvalidMonth(t *testing.T) {
	h := newTestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?month=March2024", nil)
	rec := httptest.NewRecorder()
	h.HandleMonth(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMonth_InvalidTimezone(t *testing.T) {
	h := newTestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?month=2024-03&tz=Mars/Olympus", nil)
	rec := httptest.NewRecorder()
	h.HandleMonth(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWeekly(t *testing.T) {
	h := newTestHandler(&stubSource{trades: sampleTrades()})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/weekly?anchor=2024-03-06&monday=true", nil)
	rec := httptest.NewRecorder()
	h.HandleWeekly(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 123.0, resp["weekly_total"].(float64), 1e-9)
}

func TestHandleDayExtremes(t *testing.T) {
	h := newTestHandler(&stubSource{trades: sampleTrades()})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/extremes?date=2024-03-04", nil)
	rec := httptest.NewRecorder()
	h.HandleDayExtremes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		MaxDrawdown float64 `json:"max_drawdown"`
		MaxRunup    float64 `json:"max_runup"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Day equity: 48, 73. No decline, run-up to 73.
	assert.Zero(t, resp.MaxDrawdown)
	assert.InDelta(t, 73.0, resp.MaxRunup, 1e-9)
}

func TestHandleDayExtremes_MissingDate(t *testing.T) {
	h := newTestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/extremes", nil)
	rec := httptest.NewRecorder()
	h.HandleDayExtremes(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

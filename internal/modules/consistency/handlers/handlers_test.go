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
}

func (s *stubSource) List(trades.Filter) ([]domain.Trade, error) {
	return s.trades, nil
}

func dayTrade(day int, pnl float64) domain.Trade {
	entry := time.Date(2024, 3, day, 14, 0, 0, 0, time.UTC)
	return domain.Trade{
		ID: entry.Format("0102"), AccountNumber: "ACC-1", Instrument: "ES",
		Side: domain.SideLong, Quantity: 1, EntryPrice: 100, ClosePrice: 101,
		EntryDate: entry, CloseDate: entry.Add(time.Hour), PnL: pnl,
	}
}

func TestHandleEvaluate(t *testing.T) {
	source := &stubSource{trades: []domain.Trade{
		dayTrade(4, 10), dayTrade(5, 20), dayTrade(6, 30), dayTrade(7, 40), dayTrade(8, 50),
	}}
	h := NewHandler(source, Defaults{Timezone: "UTC", ThresholdPct: 30}, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/consistency", nil)
	rec := httptest.NewRecorder()
	h.HandleEvaluate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Threshold float64 `json:"threshold"`
		Timezone  string  `json:"timezone"`
		Accounts  []struct {
			AccountNumber    string  `json:"account_number"`
			TotalProfit      float64 `json:"total_profit"`
			HighestProfitDay float64 `json:"highest_profit_day"`
			IsConsistent     bool    `json:"is_consistent"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 30.0, resp.Threshold, 1e-9)
	require.Len(t, resp.Accounts, 1)
	assert.InDelta(t, 150.0, resp.Accounts[0].TotalProfit, 1e-9)
	assert.InDelta(t, 50.0, resp.Accounts[0].HighestProfitDay, 1e-9)
	assert.False(t, resp.Accounts[0].IsConsistent)
}

func TestHandleEvaluate_ThresholdOverride(t *testing.T) {
	source := &stubSource{trades: []domain.Trade{
		dayTrade(4, 10), dayTrade(5, 20), dayTrade(6, 30), dayTrade(7, 40), dayTrade(8, 50),
	}}
	h := NewHandler(source, Defaults{Timezone: "UTC", ThresholdPct: 30}, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/consistency?threshold=40", nil)
	rec := httptest.NewRecorder()
	h.HandleEvaluate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Accounts []struct {
			IsConsistent bool `json:"is_consistent"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.True(t, resp.Accounts[0].IsConsistent)
}

func TestHandleEvaluate_InvalidThreshold(t *testing.T) {
	h := NewHandler(&stubSource{}, Defaults{Timezone: "UTC", ThresholdPct: 30}, logger.Discard())

	for _, threshold := range []string{"0", "-5", "101", "lots"} {
		req := httptest.NewRequest(http.MethodGet, "/api/consistency?threshold="+threshold, nil)
		rec := httptest.NewRecorder()
		h.HandleEvaluate(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "threshold %q", threshold)
	}
}

func TestHandleEvaluate_InvalidTimezone(t *testing.T) {
	h := NewHandler(&stubSource{}, Defaults{Timezone: "UTC", ThresholdPct: 30}, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/consistency?tz=Nowhere/Town", nil)
	rec := httptest.NewRecorder()
	h.HandleEvaluate(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package consistency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/daybook/internal/domain"
)

func dayTrade(account string, day int, pnl float64) domain.Trade {
	entry := time.Date(2024, 3, day, 14, 0, 0, 0, time.UTC)
	return domain.Trade{
		ID:            account + "-" + entry.Format("02"),
		AccountNumber: account,
		Instrument:    "ES",
		Side:          domain.SideLong,
		Quantity:      1,
		EntryPrice:    100,
		ClosePrice:    101,
		EntryDate:     entry,
		CloseDate:     entry.Add(time.Hour),
		PnL:           pnl,
		Commission:    3, // gross evaluation must ignore this
	}
}

func TestEvaluate_EqualDaysConsistentAtThreshold(t *testing.T) {
	trades := []domain.Trade{
		dayTrade("A", 4, 100),
		dayTrade("A", 5, 100),
		dayTrade("A", 6, 100),
		dayTrade("A", 7, 100),
		dayTrade("A", 8, 100),
	}

	// Five equal days: each day is exactly 20% of the total
	results := Evaluate(trades, 20, time.UTC)
	require.Len(t, results, 1)

	m := results[0]
	assert.Equal(t, "A", m.AccountNumber)
	assert.InDelta(t, 500.0, m.TotalProfit, 1e-9)
	assert.InDelta(t, 100.0, m.HighestProfitDay, 1e-9)
	assert.Equal(t, 5, m.TotalProfitableDays)
	assert.True(t, m.HasEnoughData)
	assert.True(t, m.HasProfitableData)
	require.NotNil(t, m.MaxAllowedDailyProfit)
	assert.InDelta(t, 100.0, *m.MaxAllowedDailyProfit, 1e-9)
	assert.True(t, m.IsConsistent)

	// Below 20% the same profile fails
	tight := Evaluate(trades, 19, time.UTC)
	assert.False(t, tight[0].IsConsistent)
}

func TestEvaluate_ConcentratedProfitFails(t *testing.T) {
	trades := []domain.Trade{
		dayTrade("A", 4, 10),
		dayTrade("A", 5, 20),
		dayTrade("A", 6, 30),
		dayTrade("A", 7, 40),
		dayTrade("A", 8, 50),
	}

	results := Evaluate(trades, 30, time.UTC)
	require.Len(t, results, 1)

	m := results[0]
	assert.InDelta(t, 150.0, m.TotalProfit, 1e-9)
	assert.InDelta(t, 50.0, m.HighestProfitDay, 1e-9)
	require.NotNil(t, m.MaxAllowedDailyProfit)
	assert.InDelta(t, 45.0, *m.MaxAllowedDailyProfit, 1e-9)
	assert.True(t, m.HasEnoughData)
	assert.False(t, m.IsConsistent)
}

func TestEvaluate_UsesGrossPnL(t *testing.T) {
	// One day at exactly the allowed limit on gross PnL. Netting commission
	// would push it under and change the verdict.
	trades := []domain.Trade{
		dayTrade("A", 4, 60),
		dayTrade("A", 5, 60),
		dayTrade("A", 6, 60),
		dayTrade("A", 7, 60),
		dayTrade("A", 8, 60),
	}

	results := Evaluate(trades, 20, time.UTC)
	require.Len(t, results, 1)
	assert.InDelta(t, 300.0, results[0].TotalProfit, 1e-9)
	assert.True(t, results[0].IsConsistent)
}

func TestEvaluate_LosingDaysExcluded(t *testing.T) {
	trades := []domain.Trade{
		dayTrade("A", 4, 100),
		dayTrade("A", 5, -80),
		dayTrade("A", 6, 50),
	}

	results := Evaluate(trades, 50, time.UTC)
	require.Len(t, results, 1)

	m := results[0]
	assert.InDelta(t, 150.0, m.TotalProfit, 1e-9)
	assert.Equal(t, 2, m.TotalProfitableDays)
	assert.False(t, m.HasEnoughData)
	assert.False(t, m.IsConsistent)
}

func TestEvaluate_NoProfitableDays(t *testing.T) {
	trades := []domain.Trade{
		dayTrade("A", 4, -10),
		dayTrade("A", 5, -20),
	}

	results := Evaluate(trades, 30, time.UTC)
	require.Len(t, results, 1)

	m := results[0]
	assert.False(t, m.HasProfitableData)
	assert.False(t, m.HasEnoughData)
	assert.False(t, m.IsConsistent)
	assert.Nil(t, m.MaxAllowedDailyProfit)
	assert.Zero(t, m.TotalProfit)
}

func TestEvaluate_MultipleAccountsSorted(t *testing.T) {
	trades := []domain.Trade{
		dayTrade("B", 4, 10),
		dayTrade("A", 4, 10),
		dayTrade("C", 4, 10),
	}

	results := Evaluate(trades, 30, time.UTC)
	require.Len(t, results, 3)
	assert.Equal(t, "A", results[0].AccountNumber)
	assert.Equal(t, "B", results[1].AccountNumber)
	assert.Equal(t, "C", results[2].AccountNumber)
}

func TestEvaluate_SameDayTradesBucketTogether(t *testing.T) {
	trades := []domain.Trade{
		dayTrade("A", 4, 30),
		dayTrade("A", 4, 40),
		dayTrade("A", 5, 10),
	}

	results := Evaluate(trades, 95, time.UTC)
	require.Len(t, results, 1)
	assert.InDelta(t, 70.0, results[0].HighestProfitDay, 1e-9)
	assert.Equal(t, 2, results[0].TotalProfitableDays)
}

func TestEvaluate_Empty(t *testing.T) {
	assert.Empty(t, Evaluate(nil, 30, time.UTC))
}

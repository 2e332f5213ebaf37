// Package consistency evaluates per-account profit concentration: whether a
// single trading day accounts for too large a share of an account's total
// profit, per the funded-account consistency rules.
package consistency

import (
	"sort"
	"time"

	"github.com/aristath/daybook/internal/domain"
)

// minProfitableDays is the number of profitable days required before an
// account has enough history to be evaluated
const minProfitableDays = 5

// Metrics holds the consistency evaluation result for one account
type Metrics struct {
	MaxAllowedDailyProfit *float64 `json:"max_allowed_daily_profit"` // nil when no profitable data
	AccountNumber         string   `json:"account_number"`
	TotalProfit           float64  `json:"total_profit"`       // Sum of positive-PnL days only
	HighestProfitDay      float64  `json:"highest_profit_day"` // Max single positive day
	TotalProfitableDays   int      `json:"total_profitable_days"`
	IsConsistent          bool     `json:"is_consistent"`
	HasEnoughData         bool     `json:"has_enough_data"`
	HasProfitableData     bool     `json:"has_profitable_data"`
}

// Evaluate computes consistency metrics for every account in the trade list.
// thresholdPct is the maximum share (in percent) of total profit a single
// day may contribute.
//
// Daily buckets sum gross PnL, not netted of commission. The daily calendar
// aggregation nets commission; this evaluator deliberately does not, because
// the profit-concentration rules it models are defined on gross profit.
//
// An account with zero profitable days is a reporting state, not an error:
// it comes back with HasProfitableData=false, a nil MaxAllowedDailyProfit
// and IsConsistent=false.
func Evaluate(trades []domain.Trade, thresholdPct float64, loc *time.Location) []Metrics {
	// Gross PnL per (account, calendar day in loc)
	perAccount := make(map[string]map[string]float64)
	for _, trade := range trades {
		day := trade.EntryDate.In(loc).Format("2006-01-02")
		byDay, ok := perAccount[trade.AccountNumber]
		if !ok {
			byDay = make(map[string]float64)
			perAccount[trade.AccountNumber] = byDay
		}
		byDay[day] += trade.PnL
	}

	accounts := make([]string, 0, len(perAccount))
	for account := range perAccount {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	results := make([]Metrics, 0, len(accounts))
	for _, account := range accounts {
		m := Metrics{AccountNumber: account}

		for _, dayPnL := range perAccount[account] {
			if dayPnL <= 0 {
				continue
			}
			m.TotalProfit += dayPnL
			m.TotalProfitableDays++
			if dayPnL > m.HighestProfitDay {
				m.HighestProfitDay = dayPnL
			}
		}

		m.HasEnoughData = m.TotalProfitableDays >= minProfitableDays
		m.HasProfitableData = m.TotalProfit > 0

		if m.HasProfitableData {
			maxAllowed := m.TotalProfit * thresholdPct / 100
			m.MaxAllowedDailyProfit = &maxAllowed
			m.IsConsistent = m.HasEnoughData && m.HighestProfitDay <= maxAllowed
		}

		results = append(results, m)
	}

	return results
}

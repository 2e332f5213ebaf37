// Package calendar groups trades into timezone-aware calendar-day buckets
// and rolls them up into week, month and year totals for calendar views.
package calendar

import (
	"sort"
	"time"

	"github.com/aristath/daybook/internal/domain"
)

// dayKeyLayout is the bucket key format: the trade's entry date rendered
// in the target timezone
const dayKeyLayout = "2006-01-02"

// DailyAggregate holds the per-day roll-up of a calendar-day bucket
type DailyAggregate struct {
	Date        string         `json:"date"` // yyyy-MM-dd in the target timezone
	PnL         float64        `json:"pnl"`  // Net of commission
	TradeNumber int            `json:"trade_number"`
	LongNumber  int            `json:"long_number"`
	ShortNumber int            `json:"short_number"`
	Trades      []domain.Trade `json:"trades"` // Ordered by entry date
}

// CalendarData maps yyyy-MM-dd bucket keys to their daily aggregates
type CalendarData map[string]*DailyAggregate

// Aggregate groups trades by the calendar day of their entry date in loc.
// The day boundary follows the target timezone, never the raw UTC day:
// a trade entered 23:30 New York time on the 3rd belongs to the 3rd even
// though its UTC timestamp is already on the 4th.
//
// The reduction is associative and commutative over the trade list, and
// each bucket's trade list is sorted afterwards, so any permutation of the
// input produces identical output.
func Aggregate(trades []domain.Trade, loc *time.Location) CalendarData {
	data := make(CalendarData)

	for _, trade := range trades {
		key := trade.EntryDate.In(loc).Format(dayKeyLayout)

		day, ok := data[key]
		if !ok {
			day = &DailyAggregate{Date: key}
			data[key] = day
		}

		day.PnL += trade.NetPnL()
		day.TradeNumber++
		switch trade.Side {
		case domain.SideLong:
			day.LongNumber++
		case domain.SideShort:
			day.ShortNumber++
		}
		day.Trades = append(day.Trades, trade)
	}

	for _, day := range data {
		sortTradesByEntry(day.Trades)
	}

	return data
}

// MonthlyTotal sums the net PnL of every bucket in the given month.
// month is "2006-01" in the same timezone the data was aggregated with.
func MonthlyTotal(data CalendarData, month string) float64 {
	var total float64
	for key, day := range data {
		if len(key) >= 7 && key[:7] == month {
			total += day.PnL
		}
	}
	return total
}

// YearlyTotal sums the net PnL of every bucket in the given year ("2006")
func YearlyTotal(data CalendarData, year string) float64 {
	var total float64
	for key, day := range data {
		if len(key) >= 4 && key[:4] == year {
			total += day.PnL
		}
	}
	return total
}

// WeeklyTotal sums the net PnL of the week containing anchor. The week runs
// Monday-Sunday or Sunday-Saturday depending on weekStartsMonday.
func WeeklyTotal(data CalendarData, anchor time.Time, loc *time.Location, weekStartsMonday bool) float64 {
	start := startOfWeek(anchor.In(loc), weekStartsMonday)

	var total float64
	for i := 0; i < 7; i++ {
		key := start.AddDate(0, 0, i).Format(dayKeyLayout)
		if day, ok := data[key]; ok {
			total += day.PnL
		}
	}
	return total
}

// GridCell is one cell of the 6x7 month grid
type GridCell struct {
	Date      string          `json:"date"`
	InMonth   bool            `json:"in_month"` // False for padding days from adjacent months
	Aggregate *DailyAggregate `json:"aggregate,omitempty"`
}

// MonthGrid builds the fixed 42-cell grid (6 rows x 7 columns) for a month
// view. The grid starts on the week containing the 1st and always tiles
// complete weeks, padding with days from the adjacent months.
func MonthGrid(data CalendarData, year int, month time.Month, loc *time.Location, weekStartsMonday bool) []GridCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := startOfWeek(first, weekStartsMonday)

	cells := make([]GridCell, 0, 42)
	for i := 0; i < 42; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(dayKeyLayout)

		cell := GridCell{
			Date:    key,
			InMonth: day.Month() == month && day.Year() == year,
		}
		if agg, ok := data[key]; ok {
			cell.Aggregate = agg
		}
		cells = append(cells, cell)
	}

	return cells
}

// DayExtremes holds the intraday equity extremes of a single trading day
type DayExtremes struct {
	MaxDrawdown float64 `json:"max_drawdown"` // Largest peak-to-point decline, >= 0
	MaxRunup    float64 `json:"max_runup"`    // Largest trough-to-point advance, >= 0
}

// Extremes computes the max drawdown and max run-up of the day's cumulative
// equity sequence. The sequence starts at 0 and adds each trade's net PnL in
// entry order; drawdown measures distance below the running peak, run-up
// distance above the running trough.
func Extremes(dayTrades []domain.Trade) DayExtremes {
	sorted := make([]domain.Trade, len(dayTrades))
	copy(sorted, dayTrades)
	sortTradesByEntry(sorted)

	var equity, peak, trough float64
	var extremes DayExtremes

	for _, trade := range sorted {
		equity += trade.NetPnL()
		if equity > peak {
			peak = equity
		}
		if equity < trough {
			trough = equity
		}
		if dd := peak - equity; dd > extremes.MaxDrawdown {
			extremes.MaxDrawdown = dd
		}
		if ru := equity - trough; ru > extremes.MaxRunup {
			extremes.MaxRunup = ru
		}
	}

	return extremes
}

// SortedKeys returns the bucket keys in ascending date order
func SortedKeys(data CalendarData) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// startOfWeek truncates t to midnight of the first day of its week
func startOfWeek(t time.Time, weekStartsMonday bool) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	weekday := int(day.Weekday()) // Sunday == 0
	if weekStartsMonday {
		// Shift so Monday == 0
		weekday = (weekday + 6) % 7
	}

	return day.AddDate(0, 0, -weekday)
}

// sortTradesByEntry sorts trades chronologically by entry date, preserving
// the relative order of equal timestamps
func sortTradesByEntry(trades []domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryDate.Before(trades[j].EntryDate)
	})
}

// Package equity builds running-balance sequences from ordered trades for
// equity-curve charts, per account or combined.
package equity

import (
	"sort"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/aristath/daybook/internal/domain"
)

// Point is a single point on an equity curve. Balance is the cumulative sum
// of net PnL over all prior points in chronological order within the curve's
// scope.
type Point struct {
	Time        time.Time `json:"time"`
	Date        string    `json:"date"` // yyyy-MM-dd in the curve's timezone
	Balance     float64   `json:"balance"`
	PnL         float64   `json:"pnl"` // Net PnL contributed at this point
	TradeNumber int       `json:"trade_number"`
}

// AccountCurves holds per-account equity series on a unified daily axis.
// Every account has one point per axis date; days without trades carry the
// last known balance forward (0 before the account's first trade).
//
// In account series TradeNumber is the number of the account's trades that
// fall on that axis day (zero on carried-forward days). This differs from
// BuildTotalCurve, whose points are per trade and number them cumulatively.
type AccountCurves struct {
	Dates  []string           `json:"dates"`
	Series map[string][]Point `json:"series"`
}

// BuildTotalCurve produces the combined running balance over all trades.
// Trades are sorted chronologically by entry date with a stable sort, so
// ties keep their original input order and identical inputs always produce
// identical point sequences.
func BuildTotalCurve(trades []domain.Trade, loc *time.Location) []Point {
	sorted := sortedByEntry(trades)

	points := make([]Point, 0, len(sorted))
	var balance float64
	for i, trade := range sorted {
		balance += trade.NetPnL()
		points = append(points, Point{
			Time:        trade.EntryDate,
			Date:        trade.EntryDate.In(loc).Format("2006-01-02"),
			Balance:     balance,
			PnL:         trade.NetPnL(),
			TradeNumber: i + 1,
		})
	}

	return points
}

// BuildAccountCurves produces one daily equity series per account, all
// sharing one date axis that spans the full range across every account.
func BuildAccountCurves(trades []domain.Trade, loc *time.Location) AccountCurves {
	curves := AccountCurves{
		Dates:  []string{},
		Series: make(map[string][]Point),
	}
	if len(trades) == 0 {
		return curves
	}

	sorted := sortedByEntry(trades)

	// Daily net PnL and trade counts per (account, day)
	type dayTotals struct {
		pnl   float64
		count int
	}
	perAccount := make(map[string]map[string]dayTotals)
	for _, trade := range sorted {
		day := trade.EntryDate.In(loc).Format("2006-01-02")
		byDay, ok := perAccount[trade.AccountNumber]
		if !ok {
			byDay = make(map[string]dayTotals)
			perAccount[trade.AccountNumber] = byDay
		}
		totals := byDay[day]
		totals.pnl += trade.NetPnL()
		totals.count++
		byDay[day] = totals
	}

	// Unified axis: every calendar day from the first to the last trade day
	first := startOfDay(sorted[0].EntryDate.In(loc))
	last := startOfDay(sorted[len(sorted)-1].EntryDate.In(loc))
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		curves.Dates = append(curves.Dates, day.Format("2006-01-02"))
	}

	accounts := make([]string, 0, len(perAccount))
	for account := range perAccount {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	for _, account := range accounts {
		byDay := perAccount[account]
		series := make([]Point, 0, len(curves.Dates))

		var balance float64
		day := first
		for _, date := range curves.Dates {
			totals := byDay[date]
			balance += totals.pnl
			series = append(series, Point{
				Time:        day,
				Date:        date,
				Balance:     balance,
				PnL:         totals.pnl,
				TradeNumber: totals.count,
			})
			day = day.AddDate(0, 0, 1)
		}

		curves.Series[account] = series
	}

	return curves
}

// Smooth returns a simple-moving-average overlay of the balance series,
// aligned with the input points. The first period-1 values repeat the raw
// balance because the window is not yet full. Inputs too short to smooth
// are returned unchanged.
func Smooth(points []Point, period int) []float64 {
	balances := make([]float64, len(points))
	for i, p := range points {
		balances[i] = p.Balance
	}

	if period <= 1 || len(balances) < period {
		return balances
	}

	sma := talib.Sma(balances, period)
	// talib leaves the warm-up window as zeros; show the raw balance there
	for i := 0; i < period-1 && i < len(sma); i++ {
		sma[i] = balances[i]
	}

	return sma
}

func sortedByEntry(trades []domain.Trade) []domain.Trade {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryDate.Before(sorted[j].EntryDate)
	})
	return sorted
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Package statistics computes scalar and grouped trade statistics: win
// rates, streaks, hold times and per-hour/weekday/side breakdowns.
package statistics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/daybook/internal/domain"
)

// BucketStat is one row of a grouped breakdown
type BucketStat struct {
	Key         string  `json:"key"`
	TradeNumber int     `json:"trade_number"`
	TotalPnL    float64 `json:"total_pnl"` // Net of commission
	AvgPnL      float64 `json:"avg_pnl"`
}

// Summary holds the full statistical summary of a trade list
type Summary struct {
	TradeNumber     int     `json:"trade_number"`
	WinNumber       int     `json:"win_number"`
	LossNumber      int     `json:"loss_number"`
	BreakevenNumber int     `json:"breakeven_number"`
	WinRate         float64 `json:"win_rate"`  // Fraction in [0,1]
	LossRate        float64 `json:"loss_rate"`
	BreakevenRate   float64 `json:"breakeven_rate"`
	WinningStreak   int     `json:"winning_streak"` // Longest run of consecutive wins
	LosingStreak    int     `json:"losing_streak"`
	TotalPnL        float64 `json:"total_pnl"` // Net of commission
	AvgPnL          float64 `json:"avg_pnl"`
	PnLStdDev       float64 `json:"pnl_std_dev"`
	AvgTimeInPos    float64 `json:"avg_time_in_position"` // Seconds
	TotalCommission float64 `json:"total_commission"`

	ByHour    []BucketStat `json:"by_hour"`    // Entry hour of day, 00-23 in the target timezone
	ByWeekday []BucketStat `json:"by_weekday"` // Entry weekday in the target timezone
	BySide    []BucketStat `json:"by_side"`
}

// Summarize computes the full statistical summary. Classification is by the
// sign of gross PnL, with breakeven meaning pnl == 0 exactly — no epsilon
// tolerance. Empty input yields a zeroed summary, never NaN.
func Summarize(trades []domain.Trade, loc *time.Location) Summary {
	s := Summary{
		TradeNumber: len(trades),
		ByHour:      []BucketStat{},
		ByWeekday:   []BucketStat{},
		BySide:      []BucketStat{},
	}
	if len(trades) == 0 {
		return s
	}

	netPnLs := make([]float64, 0, len(trades))
	var totalTimeInPos float64

	for _, trade := range trades {
		switch {
		case trade.PnL > 0:
			s.WinNumber++
		case trade.PnL < 0:
			s.LossNumber++
		default:
			s.BreakevenNumber++
		}

		net := trade.NetPnL()
		s.TotalPnL += net
		s.TotalCommission += trade.Commission
		netPnLs = append(netPnLs, net)
		totalTimeInPos += float64(trade.TimeInPosition)
	}

	n := float64(s.TradeNumber)
	s.WinRate = float64(s.WinNumber) / n
	s.LossRate = float64(s.LossNumber) / n
	s.BreakevenRate = float64(s.BreakevenNumber) / n
	s.AvgPnL = stat.Mean(netPnLs, nil)
	if len(netPnLs) > 1 {
		s.PnLStdDev = stat.StdDev(netPnLs, nil)
	}
	s.AvgTimeInPos = totalTimeInPos / n

	s.WinningStreak, s.LosingStreak = streaks(trades)

	s.ByHour = breakdown(trades, func(t domain.Trade) string {
		return t.EntryDate.In(loc).Format("15")
	})
	s.ByWeekday = weekdayBreakdown(trades, loc)
	s.BySide = breakdown(trades, func(t domain.Trade) string {
		return string(t.Side)
	})

	return s
}

// streaks scans trades in chronological order and returns the longest runs
// of consecutive wins and consecutive losses. Breakeven trades reset both
// counters: they are neither wins nor losses.
func streaks(trades []domain.Trade) (winning, losing int) {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryDate.Before(sorted[j].EntryDate)
	})

	var curWin, curLoss int
	for _, trade := range sorted {
		switch {
		case trade.PnL > 0:
			curWin++
			curLoss = 0
		case trade.PnL < 0:
			curLoss++
			curWin = 0
		default:
			curWin = 0
			curLoss = 0
		}
		if curWin > winning {
			winning = curWin
		}
		if curLoss > losing {
			losing = curLoss
		}
	}

	return winning, losing
}

// breakdown groups trades by key and aggregates count, total and average
// net PnL. Buckets come back sorted by key for deterministic output.
func breakdown(trades []domain.Trade, keyFn func(domain.Trade) string) []BucketStat {
	buckets := make(map[string]*BucketStat)
	for _, trade := range trades {
		key := keyFn(trade)
		b, ok := buckets[key]
		if !ok {
			b = &BucketStat{Key: key}
			buckets[key] = b
		}
		b.TradeNumber++
		b.TotalPnL += trade.NetPnL()
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]BucketStat, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		b.AvgPnL = b.TotalPnL / float64(b.TradeNumber)
		result = append(result, *b)
	}

	return result
}

// weekdayBreakdown groups by entry weekday, ordered Sunday through Saturday
// rather than alphabetically
func weekdayBreakdown(trades []domain.Trade, loc *time.Location) []BucketStat {
	buckets := make(map[time.Weekday]*BucketStat)
	for _, trade := range trades {
		weekday := trade.EntryDate.In(loc).Weekday()
		b, ok := buckets[weekday]
		if !ok {
			b = &BucketStat{Key: weekday.String()}
			buckets[weekday] = b
		}
		b.TradeNumber++
		b.TotalPnL += trade.NetPnL()
	}

	result := make([]BucketStat, 0, len(buckets))
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		b, ok := buckets[weekday]
		if !ok {
			continue
		}
		b.AvgPnL = b.TotalPnL / float64(b.TradeNumber)
		result = append(result, *b)
	}

	return result
}

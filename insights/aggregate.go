package insights

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeinsights/journal"
)

// Summary holds the month-scoped dashboard figures. GrossProfit and
// GrossLoss are both non-negative; Net is GrossProfit - GrossLoss.
type Summary struct {
	GrossProfit decimal.Decimal `json:"grossProfit"`
	GrossLoss   decimal.Decimal `json:"grossLoss"`
	Net         decimal.Decimal `json:"net"`
}

// amount converts a stored trade amount to an exact decimal magnitude.
func amount(t journal.Trade) decimal.Decimal {
	return decimal.NewFromFloat(t.Magnitude())
}

func signed(t journal.Trade) decimal.Decimal {
	return decimal.NewFromFloat(t.Signed())
}

// dayOf returns the calendar day of t. Undated trades (a stored date that
// could not be read) belong to no day.
func dayOf(t journal.Trade) (DayKey, bool) {
	if t.Date.IsZero() {
		return DayKey{}, false
	}
	return DayOf(t.Date), true
}

// DailyNetTotals sums the signed amount of every trade per calendar day.
// Only days with at least one trade are present; trades from every month
// are included. Undated trades are left out.
func DailyNetTotals(trades []journal.Trade) map[DayKey]decimal.Decimal {
	totals := make(map[DayKey]decimal.Decimal)
	for _, t := range trades {
		k, ok := dayOf(t)
		if !ok {
			continue
		}
		totals[k] = totals[k].Add(signed(t))
	}
	return totals
}

// MonthSummary totals the trades whose calendar day falls in m. A month
// without trades yields an all-zero Summary.
func MonthSummary(trades []journal.Trade, m Month) Summary {
	var s Summary
	for _, t := range trades {
		if k, ok := dayOf(t); !ok || !m.Contains(k) {
			continue
		}
		if t.IsProfit {
			s.GrossProfit = s.GrossProfit.Add(amount(t))
		} else {
			s.GrossLoss = s.GrossLoss.Add(amount(t))
		}
	}
	s.Net = s.GrossProfit.Sub(s.GrossLoss)
	return s
}

// MonthlySeries yields (day of month, net) for every day of m in order,
// with zero for days without trades. The sequence may be ranged over any
// number of times; each pass re-derives from trades.
func MonthlySeries(trades []journal.Trade, m Month) iter.Seq2[int, decimal.Decimal] {
	return func(yield func(int, decimal.Decimal) bool) {
		daily := make(map[int]decimal.Decimal)
		for _, t := range trades {
			if k, ok := dayOf(t); ok && m.Contains(k) {
				daily[k.Day] = daily[k.Day].Add(signed(t))
			}
		}
		for day := 1; day <= m.Days(); day++ {
			if !yield(day, daily[day]) {
				return
			}
		}
	}
}

// DayNet is one point of a monthly series.
type DayNet struct {
	Day int             `json:"day"`
	Net decimal.Decimal `json:"net"`
}

// Collect drains a series into a slice.
func Collect(seq iter.Seq2[int, decimal.Decimal]) []DayNet {
	var out []DayNet
	for day, net := range seq {
		out = append(out, DayNet{Day: day, Net: net})
	}
	return out
}

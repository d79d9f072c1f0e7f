package report

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeinsights/insights"
	"github.com/rustyeddy/tradeinsights/journal"
)

const cellWidth = 9

// Calendar writes a Sunday-first month grid. Each day with a non-zero
// entry in totals carries its badge.
func Calendar(w io.Writer, m insights.Month, totals map[insights.DayKey]decimal.Decimal) error {
	var b strings.Builder

	title := m.Title()
	width := cellWidth * 7
	if pad := (width - len(title)) / 2; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(title)
	b.WriteString("\n")

	for d := time.Sunday; d <= time.Saturday; d++ {
		fmt.Fprintf(&b, "%-*s", cellWidth, d.String()[:3])
	}
	b.WriteString("\n")

	lead := int(m.First(time.UTC).Weekday())
	b.WriteString(strings.Repeat(" ", lead*cellWidth))

	col := lead
	for day := 1; day <= m.Days(); day++ {
		cell := fmt.Sprintf("%2d %s", day, Badge(totals[m.Day(day)]))
		fmt.Fprintf(&b, "%-*s", cellWidth, cell)
		col++
		if col == 7 && day < m.Days() {
			b.WriteString("\n")
			col = 0
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, strings.TrimRight(b.String(), " \n")+"\n")
	return err
}

// Cards writes the month's Total Profit, Total Loss and Net P/L.
func Cards(w io.Writer, m insights.Month, s insights.Summary) error {
	_, err := fmt.Fprintf(w, "%s\n%-14s%s\n%-14s%s\n%-14s%s\n",
		m.Title(),
		"Total Profit", Currency(s.GrossProfit),
		"Total Loss", Currency(s.GrossLoss),
		"Net P/L", SignedCurrency(s.Net),
	)
	return err
}

// Series writes one line per day of the month with that day's net.
func Series(w io.Writer, m insights.Month, seq iter.Seq2[int, decimal.Decimal]) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily net profit/loss for %s\n", m.Title())
	for day, net := range seq {
		fmt.Fprintf(&b, "%2d  %s\n", day, SignedCurrency(net))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// DayTrades writes the trades of one day, resolving broker names with
// names.
func DayTrades(w io.Writer, day time.Time, trades []journal.Trade, names func(string) string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Trades for %s\n", day.Format("January 2, 2006"))
	if len(trades) == 0 {
		b.WriteString("No trades recorded for this day.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, t := range trades {
		kind := "Loss"
		if t.IsProfit {
			kind = "Profit"
		}
		fmt.Fprintf(&b, "\n%s %s  [%s]\n", TradeAmount(t.Magnitude(), t.IsProfit), kind, t.ID)
		fmt.Fprintf(&b, "  Broker: %s\n", names(t.BrokerID))
		if line := timesLine(t); line != "" {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		if t.Notes != "" {
			fmt.Fprintf(&b, "  %q\n", t.Notes)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func timesLine(t journal.Trade) string {
	var parts []string
	if t.ChartTime != "" {
		parts = append(parts, "Chart: "+t.ChartTime)
	}
	if t.TradeTime != "" {
		parts = append(parts, "Trade: "+t.TradeTime)
	}
	return strings.Join(parts, " / ")
}

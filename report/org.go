package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeinsights/insights"
	"github.com/rustyeddy/tradeinsights/journal"
)

// TradeOrg renders a trade as an Org-mode block for pasting into a
// journal. Facts go in a PROPERTIES drawer; the review heading is left for
// the trader to fill in.
func TradeOrg(t journal.Trade, broker string) string {
	kind := "LOSS"
	if t.IsProfit {
		kind = "PROFIT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Date.Format("2006-01-02"), TradeAmount(t.Magnitude(), t.IsProfit), shortID(t.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":DATE: %s\n", t.Date.Format(time.RFC3339))
	fmt.Fprintf(&b, ":AMOUNT: %.2f\n", t.Magnitude())
	fmt.Fprintf(&b, ":RESULT: %s\n", kind)
	fmt.Fprintf(&b, ":BROKER: %s\n", broker)
	fmt.Fprintf(&b, ":BROKER_ID: %s\n", t.BrokerID)
	if t.ChartTime != "" {
		fmt.Fprintf(&b, ":CHART_TIME: %s\n", t.ChartTime)
	}
	if t.TradeTime != "" {
		fmt.Fprintf(&b, ":TRADE_TIME: %s\n", t.TradeTime)
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	if t.Notes != "" {
		fmt.Fprintf(&b, "*** Notes\n- %s\n\n", t.Notes)
	}
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// TradesOrg renders multiple trades separated by blank lines.
func TradesOrg(trades []journal.Trade, names func(string) string) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(TradeOrg(t, names(t.BrokerID)))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

// MonthReport is the data behind a month's Org review.
type MonthReport struct {
	Month   insights.Month
	Summary insights.Summary
	Days    []insights.DayNet
	Trades  []journal.Trade
	Names   func(string) string
	Created time.Time
}

// NewMonthReport gathers the month's summary, active days and trades.
func NewMonthReport(trades []journal.Trade, m insights.Month, names func(string) string, now time.Time) MonthReport {
	r := MonthReport{
		Month:   m,
		Summary: insights.MonthSummary(trades, m),
		Names:   names,
		Created: now,
	}
	for day, net := range insights.MonthlySeries(trades, m) {
		if !net.IsZero() {
			r.Days = append(r.Days, insights.DayNet{Day: day, Net: net})
		}
	}
	for _, t := range trades {
		if m.Contains(insights.DayOf(t.Date)) {
			r.Trades = append(r.Trades, t)
		}
	}
	return r
}

// Wins counts profitable trades in the month.
func (r MonthReport) Wins() int {
	n := 0
	for _, t := range r.Trades {
		if t.IsProfit {
			n++
		}
	}
	return n
}

// Losses counts losing trades in the month.
func (r MonthReport) Losses() int {
	return len(r.Trades) - r.Wins()
}

var monthOrgFuncs = template.FuncMap{
	"money":  Currency,
	"signed": SignedCurrency,
	"badge":  Badge,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"tradeOrg": func(t journal.Trade, names func(string) string) string {
		return strings.TrimRight(TradeOrg(t, names(t.BrokerID)), "\n")
	},
	"dec": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

var monthOrgTemplate = template.Must(template.New("month").Funcs(monthOrgFuncs).Parse(MonthOrgTemplate))

// WriteOrg writes the month review as an Org document.
func (r MonthReport) WriteOrg(w io.Writer) error {
	if r.Names == nil {
		r.Names = func(string) string { return journal.UnknownBroker }
	}
	return monthOrgTemplate.Execute(w, r)
}

const MonthOrgTemplate = `* REVIEW: {{.Month.Title}}
:PROPERTIES:
:MONTH:        {{.Month}}
:GROSS_PROFIT: {{dec .Summary.GrossProfit}}
:GROSS_LOSS:   {{dec .Summary.GrossLoss}}
:NET_PL:       {{dec .Summary.Net}}
:TRADES:       {{len .Trades}}
:WINS:         {{.Wins}}
:LOSSES:       {{.Losses}}
:CREATED:      [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Total Profit: *{{money .Summary.GrossProfit}}*
- Total Loss:   *{{money .Summary.GrossLoss}}*
- Net P/L:      *{{signed .Summary.Net}}*

** Active Days
{{- if .Days }}
| Day | Net | Badge |
|-----+-----+-------|
{{- range .Days }}
| {{.Day}} | {{signed .Net}} | {{badge .Net}} |
{{- end }}
{{- else }}
# no trades this month
{{- end }}

** Trades
{{- $names := .Names }}
{{- range .Trades }}

{{ tradeOrg . $names }}
{{- end }}
`

// Package report renders journal data as text: calendar grids, summary
// cards, per-day trade lists and Org-mode blocks.
package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

var half = decimal.NewFromFloat(0.5)

// Badge is the calendar label for a day's net: the net rounded to a whole
// number with halves rounded up (-2.5 becomes -2), and a leading "+" when
// positive. A zero net has no badge.
func Badge(net decimal.Decimal) string {
	if net.IsZero() {
		return ""
	}
	r := net.Add(half).Floor()
	if net.IsPositive() {
		return "+" + r.String()
	}
	return r.String()
}

// Currency formats the magnitude of v as US dollars with grouping, e.g.
// "$1,234.56".
func Currency(v decimal.Decimal) string {
	return printer.Sprintf("$%.2f", v.Abs().Round(2).InexactFloat64())
}

// SignedCurrency is Currency with a leading "-" for negative values.
func SignedCurrency(v decimal.Decimal) string {
	if v.IsNegative() {
		return "-" + Currency(v)
	}
	return Currency(v)
}

// TradeAmount formats a trade amount with its direction, e.g. "+$150.75".
func TradeAmount(magnitude float64, profit bool) string {
	s := Currency(decimal.NewFromFloat(magnitude))
	if profit {
		return "+" + s
	}
	return "-" + s
}

// journal/journal.go
package journal

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

// UnknownBroker is the label shown for a trade whose broker id matches no
// known broker.
const UnknownBroker = "Unknown"

var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrBrokerName    = errors.New("broker name is required")
	ErrNoBroker      = errors.New("no broker selected")
)

// Broker is a platform or counterparty that trades are logged against.
// Names are display labels and need not be unique.
type Broker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Trade is a single logged profit or loss. Amount is a magnitude; the
// direction lives in IsProfit.
type Trade struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	IsProfit bool      `json:"isProfit"`
	BrokerID string    `json:"brokerId"`
	Notes    string    `json:"notes,omitempty"`

	// ChartTime is the chart timeframe label and TradeTime the entry time
	// or duration label. Both are carried as entered.
	ChartTime string `json:"chartTime,omitempty"`
	TradeTime string `json:"tradeTime,omitempty"`
}

// Magnitude returns the absolute amount, or zero when the stored amount is
// not a finite number.
func (t Trade) Magnitude() float64 {
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return 0
	}
	return math.Abs(t.Amount)
}

// Signed returns +Magnitude for a profit and -Magnitude for a loss.
func (t Trade) Signed() float64 {
	if t.IsProfit {
		return t.Magnitude()
	}
	return -t.Magnitude()
}

// SameDay reports whether the trade's calendar date equals day's. Each side
// is read in its own location.
func (t Trade) SameDay(day time.Time) bool {
	ty, tm, td := t.Date.Date()
	dy, dm, dd := day.Date()
	return ty == dy && tm == dm && td == dd
}

// TradeRequest carries the fields of a trade to be created; the store
// assigns the id.
type TradeRequest struct {
	Date      time.Time
	Amount    float64
	IsProfit  bool
	BrokerID  string
	Notes     string
	ChartTime string
	TradeTime string
}

// Trade builds the stored record for the request under id.
func (r TradeRequest) Trade(id string) Trade {
	return Trade{
		ID:        id,
		Date:      r.Date,
		Amount:    r.Amount,
		IsProfit:  r.IsProfit,
		BrokerID:  r.BrokerID,
		Notes:     r.Notes,
		ChartTime: r.ChartTime,
		TradeTime: r.TradeTime,
	}
}

// BrokerSelection is the broker part of a trade submission: either the id
// of an existing broker, or a new broker name.
type BrokerSelection struct {
	ID      string
	NewName string
}

// storedTrade is the persisted JSON shape. Dates are kept as strings so a
// single bad value does not discard the whole collection.
type storedTrade struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"`
	Amount    json.RawMessage `json:"amount"`
	IsProfit  bool            `json:"isProfit"`
	BrokerID  string          `json:"brokerId"`
	Notes     string          `json:"notes,omitempty"`
	ChartTime string          `json:"chartTime,omitempty"`
	TradeTime string          `json:"tradeTime,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts RFC3339 timestamps (including the millisecond form
// browsers emit), local timestamps without an offset, and bare dates.
// The latter two are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

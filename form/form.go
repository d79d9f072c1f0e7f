// Package form validates trade submissions before they reach the journal
// and turns valid ones into store mutations.
package form

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradeinsights/journal"
)

// OtherBroker is the broker selection meaning "create a broker named
// NewBrokerName".
const OtherBroker = "other"

const (
	KindProfit = "profit"
	KindLoss   = "loss"
)

// Field names, as used in FieldErrors.
const (
	FieldAmount        = "amount"
	FieldKind          = "isProfit"
	FieldDate          = "date"
	FieldBroker        = "brokerId"
	FieldNewBrokerName = "newBrokerName"
)

var earliest = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// TradeForm is a trade as entered. Amount is kept as text and coerced
// during validation.
type TradeForm struct {
	Amount        string    `json:"amount"`
	Kind          string    `json:"isProfit"`
	Date          time.Time `json:"date"`
	ChartTime     string    `json:"chartTime,omitempty"`
	TradeTime     string    `json:"tradeTime,omitempty"`
	BrokerID      string    `json:"brokerId"`
	NewBrokerName string    `json:"newBrokerName,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// New returns an empty form for a trade dated now.
func New(now time.Time) TradeForm {
	return TradeForm{Kind: KindProfit, Date: now}
}

// FromTrade prefills a form for editing t.
func FromTrade(t journal.Trade) TradeForm {
	kind := KindLoss
	if t.IsProfit {
		kind = KindProfit
	}
	return TradeForm{
		Amount:    strconv.FormatFloat(t.Magnitude(), 'f', -1, 64),
		Kind:      kind,
		Date:      t.Date,
		ChartTime: t.ChartTime,
		TradeTime: t.TradeTime,
		BrokerID:  t.BrokerID,
		Notes:     t.Notes,
	}
}

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(fe))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "invalid trade: " + strings.Join(parts, "; ")
}

// Validate checks the form as of now and returns FieldErrors when any field
// is invalid.
func (f TradeForm) Validate(now time.Time) error {
	errs := FieldErrors{}

	if a, err := f.amount(); err != nil || a <= 0 {
		errs[FieldAmount] = "Amount must be a positive number."
	}
	if f.Kind != KindProfit && f.Kind != KindLoss {
		errs[FieldKind] = "Type must be profit or loss."
	}
	switch {
	case f.Date.IsZero():
		errs[FieldDate] = "A date is required."
	case f.Date.After(now):
		errs[FieldDate] = "Date must not be in the future."
	case f.Date.Before(earliest):
		errs[FieldDate] = "Date must be on or after 1900-01-01."
	}
	if strings.TrimSpace(f.BrokerID) == "" {
		errs[FieldBroker] = "Please select a broker."
	}
	if f.BrokerID == OtherBroker && strings.TrimSpace(f.NewBrokerName) == "" {
		errs[FieldNewBrokerName] = "New broker name is required."
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// amount coerces the entered text to a finite number.
func (f TradeForm) amount() (float64, error) {
	a, err := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(a) || math.Abs(a) > maxAmount {
		return 0, fmt.Errorf("amount %q is not finite", f.Amount)
	}
	return a, nil
}

const maxAmount = 1e15

// Selection is the broker half of the submission.
func (f TradeForm) Selection() journal.BrokerSelection {
	if f.BrokerID == OtherBroker {
		return journal.BrokerSelection{NewName: strings.TrimSpace(f.NewBrokerName)}
	}
	return journal.BrokerSelection{ID: f.BrokerID}
}

// Request builds the trade request for brokerID. The form must be valid.
func (f TradeForm) Request(brokerID string) journal.TradeRequest {
	a, _ := f.amount()
	return journal.TradeRequest{
		Date:      f.Date,
		Amount:    a,
		IsProfit:  f.Kind == KindProfit,
		BrokerID:  brokerID,
		Notes:     strings.TrimSpace(f.Notes),
		ChartTime: strings.TrimSpace(f.ChartTime),
		TradeTime: strings.TrimSpace(f.TradeTime),
	}
}

// Journal is the part of *journal.Store a submission mutates.
type Journal interface {
	ResolveBroker(ctx context.Context, sel journal.BrokerSelection) (string, error)
	AddTrade(ctx context.Context, r journal.TradeRequest) (journal.Trade, error)
	UpdateTrade(ctx context.Context, t journal.Trade) (journal.Trade, error)
}

// Submit validates f and records it: first the broker is resolved (creating
// one for the "other" selection), then the trade is added, or replaces the
// trade editID when editID is set. Nothing is mutated when validation fails.
func Submit(ctx context.Context, j Journal, f TradeForm, editID string, now time.Time) (journal.Trade, error) {
	if err := f.Validate(now); err != nil {
		return journal.Trade{}, err
	}

	brokerID, err := j.ResolveBroker(ctx, f.Selection())
	if err != nil {
		return journal.Trade{}, fmt.Errorf("resolve broker: %w", err)
	}

	r := f.Request(brokerID)
	if editID != "" {
		return j.UpdateTrade(ctx, r.Trade(editID))
	}
	return j.AddTrade(ctx, r)
}

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rustyeddy/tradeinsights/form"
	"github.com/rustyeddy/tradeinsights/insights"
	"github.com/rustyeddy/tradeinsights/internal/logger"
	"github.com/rustyeddy/tradeinsights/journal"
	"github.com/rustyeddy/tradeinsights/report"
)

const maxBody = 1 << 20

// tradeView is a trade with its broker name resolved.
type tradeView struct {
	journal.Trade
	Broker string `json:"broker"`
}

func (s *Server) views(trades []journal.Trade) []tradeView {
	names := s.store.BrokerNames()
	out := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeView{Trade: t, Broker: names(t.BrokerID)})
	}
	return out
}

// GET /api/trades[?month=YYYY-MM]
func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.store.Trades()
	if q := r.URL.Query().Get("month"); q != "" {
		m, err := insights.ParseMonth(q)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		kept := trades[:0]
		for _, t := range trades {
			if m.Contains(insights.DayOf(t.Date)) {
				kept = append(kept, t)
			}
		}
		trades = kept
	}
	writeJSON(w, http.StatusOK, s.views(trades))
}

// tradeBody is the JSON shape of a trade submission. Dates may be bare
// ("2024-06-02") or RFC3339. amount may be a number or a numeric string and
// isProfit may be "profit"/"loss" or a boolean, so a trade read from
// GET /api/trades can be sent back as is.
type tradeBody struct {
	form.TradeForm
	Amount json.RawMessage `json:"amount"`
	Kind   json.RawMessage `json:"isProfit"`
	Date   string          `json:"date"`
}

func (s *Server) decodeForm(w http.ResponseWriter, r *http.Request) (form.TradeForm, bool) {
	var body tradeBody
	if !decode(w, r, &body) {
		return form.TradeForm{}, false
	}
	f := body.TradeForm
	fe := form.FieldErrors{}

	if amount, ok := amountText(body.Amount); ok {
		f.Amount = amount
	} else {
		fe[form.FieldAmount] = "Amount must be a positive number."
	}
	if kind, ok := kindText(body.Kind); ok {
		f.Kind = kind
	} else {
		fe[form.FieldKind] = "Type must be profit or loss."
	}
	if body.Date != "" {
		d, err := journal.ParseDate(strings.TrimSpace(body.Date), s.now().Location())
		if err != nil {
			fe[form.FieldDate] = "Date must be YYYY-MM-DD or an RFC3339 timestamp."
		} else {
			f.Date = d
		}
	}

	if len(fe) > 0 {
		writeFieldErrors(w, fe)
		return form.TradeForm{}, false
	}
	return f, true
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// amountText returns the amount as text for validation. It accepts a JSON
// string or number.
func amountText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// kindText accepts "profit"/"loss" or the stored boolean.
func kindText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var profit bool
	if err := json.Unmarshal(raw, &profit); err == nil {
		if profit {
			return form.KindProfit, true
		}
		return form.KindLoss, true
	}
	return "", false
}

// POST /api/trades
func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	f, ok := s.decodeForm(w, r)
	if !ok {
		return
	}
	t, err := form.Submit(r.Context(), s.store, f, "", s.now())
	if err != nil {
		s.submitError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.views([]journal.Trade{t})[0])
}

// PUT /api/trades/{id}
func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Trade(id); err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	f, ok := s.decodeForm(w, r)
	if !ok {
		return
	}
	t, err := form.Submit(r.Context(), s.store, f, id, s.now())
	if err != nil {
		s.submitError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.views([]journal.Trade{t})[0])
}

func (s *Server) submitError(w http.ResponseWriter, r *http.Request, err error) {
	var fe form.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeFieldErrors(w, fe)
	case errors.Is(err, journal.ErrTradeNotFound):
		httpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, journal.ErrBrokerName), errors.Is(err, journal.ErrNoBroker):
		httpError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.FromContext(r.Context()).Error("submit trade failed", "error", err)
		httpError(w, http.StatusInternalServerError, "internal error")
	}
}

// DELETE /api/trades/{id}
func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTrade(r.Context(), r.PathValue("id")); err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/brokers
func (s *Server) handleListBrokers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Brokers())
}

// POST /api/brokers {"name": "..."}
func (s *Server) handleCreateBroker(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	b, err := s.store.AddBroker(r.Context(), body.Name)
	if err != nil {
		writeFieldErrors(w, form.FieldErrors{"name": "Broker name is required."})
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GET /api/days/{day}
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := insights.ParseDayKey(r.PathValue("day"))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	trades := s.store.TradesOn(day.Time(s.now().Location()))
	writeJSON(w, http.StatusOK, map[string]any{
		"day":    day,
		"month":  day.CalendarMonth(),
		"title":  day.Time(s.now().Location()).Format("January 2, 2006"),
		"trades": s.views(trades),
	})
}

func (s *Server) month(w http.ResponseWriter, r *http.Request) (insights.Month, bool) {
	q := r.URL.Query().Get("month")
	if q == "" {
		return insights.MonthOf(s.now()), true
	}
	m, err := insights.ParseMonth(q)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return insights.Month{}, false
	}
	return m, true
}

// GET /api/calendar?month=YYYY-MM
//
// totals covers every day with trades, not only the requested month;
// badges covers the requested month's active days.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	m, ok := s.month(w, r)
	if !ok {
		return
	}
	totals := insights.DailyNetTotals(s.store.Trades())
	badges := map[insights.DayKey]string{}
	for k, net := range totals {
		if b := report.Badge(net); m.Contains(k) && b != "" {
			badges[k] = b
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":  m,
		"title":  m.Title(),
		"prev":   m.Prev(),
		"next":   m.Next(),
		"totals": totals,
		"badges": badges,
	})
}

// GET /api/summary?month=YYYY-MM
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	m, ok := s.month(w, r)
	if !ok {
		return
	}
	trades := s.store.Trades()
	sum := insights.MonthSummary(trades, m)
	writeJSON(w, http.StatusOK, struct {
		Month   insights.Month    `json:"month"`
		Title   string            `json:"title"`
		Prev    insights.Month    `json:"prev"`
		Next    insights.Month    `json:"next"`
		Summary insights.Summary  `json:"summary"`
		Series  []insights.DayNet `json:"series"`
		Cards   map[string]string `json:"cards"`
	}{
		Month:   m,
		Title:   m.Title(),
		Prev:    m.Prev(),
		Next:    m.Next(),
		Summary: sum,
		Series:  insights.Collect(insights.MonthlySeries(trades, m)),
		Cards:   cards(sum),
	})
}

func cards(s insights.Summary) map[string]string {
	return map[string]string{
		"totalProfit": report.Currency(s.GrossProfit),
		"totalLoss":   report.Currency(s.GrossLoss),
		"net":         report.SignedCurrency(s.Net),
	}
}

/* ======= small helpers ======= */

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error":  http.StatusText(status),
		"detail": msg,
	})
}

func writeFieldErrors(w http.ResponseWriter, fe form.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  http.StatusText(http.StatusUnprocessableEntity),
		"fields": fe,
	})
}

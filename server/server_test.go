package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeinsights/internal/logger"
	"github.com/rustyeddy/tradeinsights/journal"
)

var now = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) (*Server, *journal.Store) {
	t.Helper()
	log := logger.Discard()
	b := journal.NewBridge(journal.NewMemory(), log)
	b.Now = func() time.Time { return now }
	store := journal.Open(context.Background(), b, journal.WithLogger(log))

	opts = append([]Option{WithLogger(log), WithClock(func() time.Time { return now })}, opts...)
	return New(store, opts...), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListTrades(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	trades := decodeBody[[]map[string]any](t, rec)
	require.Len(t, trades, 5)
	assert.Equal(t, "1", trades[0]["id"])
	assert.Equal(t, "Qx", trades[0]["broker"])
	assert.Equal(t, 150.75, trades[0]["amount"])

	rec = do(t, s, http.MethodGet, "/api/trades?month=2024-05", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/trades?month=June", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTrade(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/trades",
		`{"amount":"75.5","isProfit":"loss","date":"2024-06-18","brokerId":"po","notes":"late entry"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 75.5, got["amount"])
	assert.Equal(t, false, got["isProfit"])
	assert.Equal(t, "Po", got["broker"])

	require.Len(t, store.Trades(), 6)
	added := store.Trades()[5]
	assert.Equal(t, time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC), added.Date)
	assert.Equal(t, "late entry", added.Notes)
}

func TestCreateTradeWithNewBroker(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/trades",
		`{"amount":"10","isProfit":"profit","date":"2024-06-19T09:30:00Z","brokerId":"other","newBrokerName":"Binomo"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Binomo", got["broker"])
	assert.Len(t, store.Brokers(), 3)
}

func TestCreateTradeValidation(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		code  int
		field string
	}{
		{"negative amount", `{"amount":"-1","isProfit":"profit","date":"2024-06-18","brokerId":"qx"}`, http.StatusUnprocessableEntity, "amount"},
		{"future date", `{"amount":"1","isProfit":"profit","date":"2024-07-01","brokerId":"qx"}`, http.StatusUnprocessableEntity, "date"},
		{"bad date", `{"amount":"1","isProfit":"profit","date":"June 1st","brokerId":"qx"}`, http.StatusUnprocessableEntity, "date"},
		{"other without name", `{"amount":"1","isProfit":"profit","date":"2024-06-18","brokerId":"other"}`, http.StatusUnprocessableEntity, "newBrokerName"},
		{"not json", `{amount`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/trades", tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.field != "" {
				got := decodeBody[struct {
					Fields map[string]string `json:"fields"`
				}](t, rec)
				assert.Contains(t, got.Fields, tt.field)
			}
		})
	}
	assert.Len(t, store.Trades(), 5)
	assert.Len(t, store.Brokers(), 2)
}

func TestUpdateTrade(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/trades/3",
		`{"amount":"260","isProfit":"profit","date":"2024-06-10","brokerId":"po"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tr, err := store.Trade("3")
	require.NoError(t, err)
	assert.Equal(t, 260.0, tr.Amount)
	assert.Equal(t, "po", tr.BrokerID)
	assert.Equal(t, "3", store.Trades()[2].ID)

	rec = do(t, s, http.MethodPut, "/api/trades/nope",
		`{"amount":"1","isProfit":"profit","date":"2024-06-10","brokerId":"po"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTradeNumericAmount(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/trades",
		`{"amount":75.5,"isProfit":false,"date":"2024-06-18","brokerId":"po"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	added := store.Trades()[5]
	assert.Equal(t, 75.5, added.Amount)
	assert.False(t, added.IsProfit)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero", `{"amount":0,"isProfit":true,"date":"2024-06-18","brokerId":"po"}`, "amount"},
		{"bool amount", `{"amount":true,"isProfit":true,"date":"2024-06-18","brokerId":"po"}`, "amount"},
		{"numeric kind", `{"amount":1,"isProfit":1,"date":"2024-06-18","brokerId":"po"}`, "isProfit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/trades", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			got := decodeBody[struct {
				Fields map[string]string `json:"fields"`
			}](t, rec)
			assert.Contains(t, got.Fields, tt.field)
		})
	}
	assert.Len(t, store.Trades(), 6)
}

func TestUpdateTradeFromListedTrade(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	trades := decodeBody[[]map[string]any](t, rec)

	listed := trades[2]
	listed["notes"] = "resized"
	body, err := json.Marshal(listed)
	require.NoError(t, err)

	rec = do(t, s, http.MethodPut, "/api/trades/3", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tr, err := store.Trade("3")
	require.NoError(t, err)
	assert.Equal(t, 250.0, tr.Amount)
	assert.True(t, tr.IsProfit)
	assert.Equal(t, "qx", tr.BrokerID)
	assert.Equal(t, "resized", tr.Notes)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), tr.Date)
}

func TestDeleteTrade(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	rec := do(t, s, http.MethodDelete, "/api/trades/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, store.Trades(), 4)

	rec = do(t, s, http.MethodDelete, "/api/trades/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrokers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/brokers", `{"name":"  Pocket Option "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	b := decodeBody[journal.Broker](t, rec)
	assert.Equal(t, "Pocket Option", b.Name)
	assert.True(t, strings.HasPrefix(b.ID, "pocket-option-"))

	rec = do(t, s, http.MethodPost, "/api/brokers", `{"name":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/brokers", "")
	brokers := decodeBody[[]journal.Broker](t, rec)
	assert.Len(t, brokers, 3)
}

func TestDay(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/days/2024-06-15", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody[struct {
		Day    string           `json:"day"`
		Month  string           `json:"month"`
		Title  string           `json:"title"`
		Trades []map[string]any `json:"trades"`
	}](t, rec)
	assert.Equal(t, "2024-06-15", got.Day)
	assert.Equal(t, "2024-06", got.Month)
	assert.Equal(t, "June 15, 2024", got.Title)
	require.Len(t, got.Trades, 2)
	assert.Equal(t, "4", got.Trades[0]["id"])

	rec = do(t, s, http.MethodGet, "/api/days/2024-06-03", "")
	assert.Contains(t, rec.Body.String(), `"trades":[]`)

	rec = do(t, s, http.MethodGet, "/api/days/tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendar(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	_, err := store.AddTrade(context.Background(), journal.TradeRequest{
		Date: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), Amount: 10, BrokerID: "qx",
	})
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/api/calendar?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody[struct {
		Month  string            `json:"month"`
		Prev   string            `json:"prev"`
		Next   string            `json:"next"`
		Totals map[string]string `json:"totals"`
		Badges map[string]string `json:"badges"`
	}](t, rec)
	assert.Equal(t, "2024-06", got.Month)
	assert.Equal(t, "2024-05", got.Prev)
	assert.Equal(t, "2024-07", got.Next)
	assert.Equal(t, "100.5", got.Totals["2024-06-02"])
	assert.Equal(t, "-10", got.Totals["2024-05-31"])
	assert.Equal(t, map[string]string{
		"2024-06-02": "+101",
		"2024-06-10": "+250",
		"2024-06-15": "+180",
	}, got.Badges)

	rec = do(t, s, http.MethodGet, "/api/calendar?month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryDefaultsToCurrentMonth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody[struct {
		Month   string            `json:"month"`
		Prev    string            `json:"prev"`
		Next    string            `json:"next"`
		Summary map[string]string `json:"summary"`
		Series  []struct {
			Day int    `json:"day"`
			Net string `json:"net"`
		} `json:"series"`
		Cards map[string]string `json:"cards"`
	}](t, rec)
	assert.Equal(t, "2024-06", got.Month)
	assert.Equal(t, "2024-05", got.Prev)
	assert.Equal(t, "2024-07", got.Next)
	assert.Equal(t, "700.75", got.Summary["grossProfit"])
	assert.Equal(t, "170.75", got.Summary["grossLoss"])
	assert.Equal(t, "530", got.Summary["net"])
	require.Len(t, got.Series, 30)
	assert.Equal(t, "179.5", got.Series[14].Net)
	assert.Equal(t, "$530.00", got.Cards["net"])
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPatch, "/api/trades", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/brokers", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, WithRateLimit(0.001, 2))
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/brokers", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/brokers", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, http.MethodGet, "/api/brokers", "").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/brokers")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

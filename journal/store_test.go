package journal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func newTestStore(t *testing.T) (*Store, *MemoryKV) {
	t.Helper()
	kv := NewMemory()
	s := Open(context.Background(), newTestBridge(kv), WithLogger(quietLogger()), WithIDs(sequentialIDs()))
	return s, kv
}

func TestOpenLoadsSeeds(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.Len(t, s.Trades(), 5)
	assert.Len(t, s.Brokers(), 2)
}

func TestOpenStoresSeedsOnFirstRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemory()
	Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))

	_, ok, err := kv.Get(ctx, TradesKey)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = kv.Get(ctx, BrokersKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// A month later the seeds keep the dates of the first run.
	b := newTestBridge(kv)
	b.Now = func() time.Time { return june20.AddDate(0, 1, 0) }
	again := Open(ctx, b, WithLogger(quietLogger()))

	trades := again.Trades()
	require.Len(t, trades, 5)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), trades[0].Date)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), trades[4].Date)
}

func TestOpenKeepsStoredDataOnReadFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := &flakyKV{KV: NewMemory()}
	require.NoError(t, kv.Set(ctx, TradesKey, `[{"id":"keep","date":"2024-05-01","amount":9,"isProfit":true,"brokerId":"qx"}]`))

	kv.sets = 0
	kv.failGets = true
	s := Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))
	assert.Len(t, s.Trades(), 5)
	assert.Zero(t, kv.sets)

	kv.failGets = false
	again := Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))
	require.Len(t, again.Trades(), 1)
	assert.Equal(t, "keep", again.Trades()[0].ID)
}

// flakyKV fails reads on demand and counts writes.
type flakyKV struct {
	KV
	failGets bool
	sets     int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGets {
		return "", false, errDisk
	}
	return f.KV.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.sets++
	return f.KV.Set(ctx, key, value)
}

func TestAddTradePersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, kv := newTestStore(t)

	got, err := s.AddTrade(ctx, TradeRequest{
		Date:     time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
		Amount:   75,
		IsProfit: true,
		BrokerID: "qx",
		Notes:    "breakout",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Len(t, s.Trades(), 6)

	// A fresh store over the same KV sees the new trade.
	again := Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))
	trades := again.Trades()
	require.Len(t, trades, 6)
	assert.Equal(t, "t1", trades[5].ID)
	assert.Equal(t, "breakout", trades[5].Notes)
}

func TestUpdateTradeKeepsPosition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t)

	orig, err := s.Trade("3")
	require.NoError(t, err)
	orig.Amount = 260
	orig.Notes = "resized"

	_, err = s.UpdateTrade(ctx, orig)
	require.NoError(t, err)

	trades := s.Trades()
	assert.Equal(t, "3", trades[2].ID)
	assert.Equal(t, 260.0, trades[2].Amount)
	assert.Equal(t, "resized", trades[2].Notes)

	_, err = s.UpdateTrade(ctx, Trade{ID: "missing"})
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestDeleteTrade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.DeleteTrade(ctx, "2"))
	assert.Len(t, s.Trades(), 4)
	_, err := s.Trade("2")
	assert.ErrorIs(t, err, ErrTradeNotFound)

	assert.ErrorIs(t, s.DeleteTrade(ctx, "2"), ErrTradeNotFound)
}

func TestDeleteAllDoesNotPersist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, kv := newTestStore(t)
	require.NoError(t, s.DeleteTrade(ctx, "1"))
	for _, tr := range s.Trades() {
		require.NoError(t, s.DeleteTrade(ctx, tr.ID))
	}
	assert.Empty(t, s.Trades())

	// The empty collection was never written, so the last stored set
	// (one trade) comes back on reload.
	again := Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))
	assert.Len(t, again.Trades(), 1)
}

func TestTradesOn(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	day := s.TradesOn(time.Date(2024, 6, 2, 18, 0, 0, 0, time.UTC))
	require.Len(t, day, 2)
	assert.Equal(t, "1", day[0].ID)
	assert.Equal(t, "2", day[1].ID)

	assert.Empty(t, s.TradesOn(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, s.TradesOn(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)))
}

func TestBrokerNameUnknown(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.Equal(t, "Qx", s.BrokerName("qx"))
	assert.Equal(t, UnknownBroker, s.BrokerName("deleted-broker"))
	assert.Equal(t, UnknownBroker, s.BrokerName(""))

	names := s.BrokerNames()
	assert.Equal(t, "Po", names("po"))
	assert.Equal(t, "Unknown", names("nope"))
}

func TestAddBroker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, kv := newTestStore(t)

	b, err := s.AddBroker(ctx, "  Pocket Option ")
	require.NoError(t, err)
	assert.Equal(t, "Pocket Option", b.Name)
	assert.Regexp(t, `^pocket-option-[0-9a-z]{26}$`, b.ID)

	again := Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))
	assert.Len(t, again.Brokers(), 3)
	assert.Equal(t, "Pocket Option", again.BrokerName(b.ID))

	_, err = s.AddBroker(ctx, "   ")
	assert.ErrorIs(t, err, ErrBrokerName)
}

func TestResolveBroker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t)

	got, err := s.ResolveBroker(ctx, BrokerSelection{ID: "qx"})
	require.NoError(t, err)
	assert.Equal(t, "qx", got)
	assert.Len(t, s.Brokers(), 2)

	got, err = s.ResolveBroker(ctx, BrokerSelection{ID: "other", NewName: "Binomo"})
	require.NoError(t, err)
	assert.Equal(t, "Binomo", s.BrokerName(got))
	assert.Len(t, s.Brokers(), 3)

	_, err = s.ResolveBroker(ctx, BrokerSelection{})
	assert.ErrorIs(t, err, ErrNoBroker)
}

func TestImport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t)

	added := s.Import(ctx, []Trade{
		{ID: "1", Amount: 999},
		{ID: "", Amount: 5, IsProfit: true},
		{ID: "x9", Amount: 6},
	})
	assert.Equal(t, 2, added)

	trades := s.Trades()
	require.Len(t, trades, 7)
	assert.Equal(t, 150.75, trades[0].Amount)
	assert.Equal(t, "t1", trades[5].ID)
	assert.Equal(t, "x9", trades[6].ID)
}

func TestSaveFailureKeepsChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Open(ctx, newTestBridge(failingKV{}), WithLogger(quietLogger()))

	_, err := s.AddTrade(ctx, TradeRequest{Amount: 1, IsProfit: true, BrokerID: "qx"})
	assert.NoError(t, err)
	assert.Len(t, s.Trades(), 6)
}

func TestTradesReturnsCopy(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	trades := s.Trades()
	trades[0].Amount = -1
	assert.Equal(t, 150.75, s.Trades()[0].Amount)
}

func TestConcurrentAdds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemory()
	s := Open(ctx, newTestBridge(kv), WithLogger(quietLogger()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddTrade(ctx, TradeRequest{Amount: 1, IsProfit: true, BrokerID: "qx"})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Trades(), 25)
}

func TestTradeSigned(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5.0, Trade{Amount: 5, IsProfit: true}.Signed())
	assert.Equal(t, -5.0, Trade{Amount: 5}.Signed())
	assert.Equal(t, -5.0, Trade{Amount: -5}.Signed())
	assert.Equal(t, 0.0, Trade{Amount: math.NaN(), IsProfit: true}.Signed())
}

package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Bridge moves the trade and broker collections in and out of a KV store.
//
// Loading never fails: missing or undecodable data falls back to the seed
// collections. Saving skips empty collections unless PersistEmpty is set,
// so clearing every trade leaves the previously stored set in place.
type Bridge struct {
	kv  KV
	log *slog.Logger

	// Now anchors the seed trades to the current month.
	Now func() time.Time

	// PersistEmpty writes empty collections instead of skipping them.
	PersistEmpty bool
}

func NewBridge(kv KV, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		kv:  kv,
		log: log.With("component", "bridge"),
		Now: time.Now,
	}
}

// LoadTrades returns the stored trades, or the seed trades when nothing
// usable is stored. seeded reports that the key was absent or corrupt, so
// the seeds should be written back. A failed read also yields the seeds but
// is not reported as seeded.
func (b *Bridge) LoadTrades(ctx context.Context) (trades []Trade, seeded bool) {
	raw, ok, err := b.kv.Get(ctx, TradesKey)
	if err != nil {
		b.log.Warn("read trades failed, using seed data", "error", err)
		return SeedTrades(b.Now()), false
	}
	if !ok {
		return SeedTrades(b.Now()), true
	}

	trades, err = b.decodeTrades([]byte(raw))
	if err != nil {
		b.log.Warn("stored trades are corrupt, using seed data", "error", err)
		return SeedTrades(b.Now()), true
	}
	return trades, false
}

// LoadBrokers returns the stored brokers, or the two default brokers when
// nothing usable is stored. seeded has the same meaning as in LoadTrades.
func (b *Bridge) LoadBrokers(ctx context.Context) (brokers []Broker, seeded bool) {
	raw, ok, err := b.kv.Get(ctx, BrokersKey)
	if err != nil {
		b.log.Warn("read brokers failed, using defaults", "error", err)
		return SeedBrokers(), false
	}
	if !ok {
		return SeedBrokers(), true
	}

	if err := json.Unmarshal([]byte(raw), &brokers); err != nil {
		b.log.Warn("stored brokers are corrupt, using defaults", "error", err)
		return SeedBrokers(), true
	}
	return brokers, false
}

// SaveTrades writes the full trade collection.
func (b *Bridge) SaveTrades(ctx context.Context, trades []Trade) error {
	if len(trades) == 0 && !b.PersistEmpty {
		b.log.Debug("skipping save of empty trade collection")
		return nil
	}
	if trades == nil {
		trades = []Trade{}
	}
	return b.save(ctx, TradesKey, trades)
}

// SaveBrokers writes the full broker collection.
func (b *Bridge) SaveBrokers(ctx context.Context, brokers []Broker) error {
	if len(brokers) == 0 && !b.PersistEmpty {
		b.log.Debug("skipping save of empty broker collection")
		return nil
	}
	if brokers == nil {
		brokers = []Broker{}
	}
	return b.save(ctx, BrokersKey, brokers)
}

func (b *Bridge) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := b.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (b *Bridge) decodeTrades(data []byte) ([]Trade, error) {
	var stored []storedTrade
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	loc := b.Now().Location()
	out := make([]Trade, 0, len(stored))
	for _, s := range stored {
		t := Trade{
			ID:        s.ID,
			Amount:    decodeAmount(s.Amount),
			IsProfit:  s.IsProfit,
			BrokerID:  s.BrokerID,
			Notes:     s.Notes,
			ChartTime: s.ChartTime,
			TradeTime: s.TradeTime,
		}
		if s.Date != "" {
			d, err := ParseDate(s.Date, loc)
			if err != nil {
				b.log.Warn("unreadable trade date", "trade", s.ID, "date", s.Date, "error", err)
			} else {
				t.Date = d
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// decodeAmount reads a JSON number or numeric string; anything else is
// zero.
func decodeAmount(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

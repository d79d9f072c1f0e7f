package journal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rustyeddy/tradeinsights/internal/id"
)

var tracer = otel.Tracer("github.com/rustyeddy/tradeinsights/journal")

// Persister is the storage side of a Store. *Bridge implements it.
type Persister interface {
	LoadTrades(ctx context.Context) (trades []Trade, seeded bool)
	LoadBrokers(ctx context.Context) (brokers []Broker, seeded bool)
	SaveTrades(ctx context.Context, trades []Trade) error
	SaveBrokers(ctx context.Context, brokers []Broker) error
}

// Store owns the trade and broker collections of one journal. It holds no
// derived data.
//
// Mutations are serialized and each one is followed by a best-effort save of
// the changed collection: a failed save is logged and the in-memory change
// stands.
type Store struct {
	mu      sync.RWMutex
	trades  []Trade
	brokers []Broker

	p     Persister
	log   *slog.Logger
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock stamps new trade ids with now instead of the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.newID = func() string { return id.At(now()) } }
}

// WithIDs overrides trade id generation.
func WithIDs(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// Open loads both collections through p. Collections that fell back to
// seed data are saved right away so the seeds keep their first-run dates.
func Open(ctx context.Context, p Persister, opts ...Option) *Store {
	s := &Store{
		p:     p,
		log:   slog.Default(),
		newID: id.New,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "store")

	var seededTrades, seededBrokers bool
	s.trades, seededTrades = p.LoadTrades(ctx)
	s.brokers, seededBrokers = p.LoadBrokers(ctx)
	if seededTrades {
		s.saveTrades(ctx)
	}
	if seededBrokers {
		s.saveBrokers(ctx)
	}
	s.log.Debug("journal loaded", "trades", len(s.trades), "brokers", len(s.brokers))
	return s
}

// Trades returns a copy of the trade collection in collection order.
func (s *Store) Trades() []Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.trades)
}

// Brokers returns a copy of the broker collection.
func (s *Store) Brokers() []Broker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.brokers)
}

// Trade returns the trade with the given id.
func (s *Store) Trade(tradeID string) (Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(tradeID)
	if i < 0 {
		return Trade{}, fmt.Errorf("trade %q: %w", tradeID, ErrTradeNotFound)
	}
	return s.trades[i], nil
}

// TradesOn returns the trades dated on day's calendar date, in collection
// order.
func (s *Store) TradesOn(day time.Time) []Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Trade
	for _, t := range s.trades {
		if t.SameDay(day) {
			out = append(out, t)
		}
	}
	return out
}

// BrokerName resolves a broker id to its name, or UnknownBroker.
func (s *Store) BrokerName(brokerID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return brokerName(s.brokers, brokerID)
}

func brokerName(brokers []Broker, brokerID string) string {
	for _, b := range brokers {
		if b.ID == brokerID {
			return b.Name
		}
	}
	return UnknownBroker
}

// BrokerNames returns a lookup bound to the current broker collection.
func (s *Store) BrokerNames() func(string) string {
	brokers := s.Brokers()
	return func(brokerID string) string { return brokerName(brokers, brokerID) }
}

// AddTrade assigns an id to r and appends it to the collection.
func (s *Store) AddTrade(ctx context.Context, r TradeRequest) (Trade, error) {
	ctx, span := tracer.Start(ctx, "journal.AddTrade")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	t := r.Trade(s.newID())
	s.trades = append(s.trades, t)
	span.SetAttributes(attribute.String("trade.id", t.ID))
	s.log.Info("trade added", "trade", t.ID, "amount", t.Amount, "profit", t.IsProfit, "broker", t.BrokerID)

	s.saveTrades(ctx)
	return t, nil
}

// UpdateTrade replaces the trade with t.ID, keeping its position.
func (s *Store) UpdateTrade(ctx context.Context, t Trade) (Trade, error) {
	ctx, span := tracer.Start(ctx, "journal.UpdateTrade")
	defer span.End()
	span.SetAttributes(attribute.String("trade.id", t.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(t.ID)
	if i < 0 {
		return Trade{}, fmt.Errorf("trade %q: %w", t.ID, ErrTradeNotFound)
	}
	s.trades[i] = t
	s.log.Info("trade updated", "trade", t.ID)

	s.saveTrades(ctx)
	return t, nil
}

// DeleteTrade removes the trade with the given id.
func (s *Store) DeleteTrade(ctx context.Context, tradeID string) error {
	ctx, span := tracer.Start(ctx, "journal.DeleteTrade")
	defer span.End()
	span.SetAttributes(attribute.String("trade.id", tradeID))

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(tradeID)
	if i < 0 {
		return fmt.Errorf("trade %q: %w", tradeID, ErrTradeNotFound)
	}
	s.trades = slices.Delete(s.trades, i, i+1)
	s.log.Info("trade deleted", "trade", tradeID, "remaining", len(s.trades))

	s.saveTrades(ctx)
	return nil
}

// AddBroker creates a broker named name. The id is derived from the name
// plus a unique suffix, so equal names still get distinct brokers.
func (s *Store) AddBroker(ctx context.Context, name string) (Broker, error) {
	ctx, span := tracer.Start(ctx, "journal.AddBroker")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return Broker{}, ErrBrokerName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := Broker{ID: id.Prefixed(name), Name: name}
	s.brokers = append(s.brokers, b)
	span.SetAttributes(attribute.String("broker.id", b.ID))
	s.log.Info("broker added", "broker", b.ID, "name", b.Name)

	s.saveBrokers(ctx)
	return b, nil
}

// ResolveBroker returns the broker id a trade should reference: the
// selected id, or the id of a broker newly created from sel.NewName.
func (s *Store) ResolveBroker(ctx context.Context, sel BrokerSelection) (string, error) {
	if strings.TrimSpace(sel.NewName) != "" {
		b, err := s.AddBroker(ctx, sel.NewName)
		if err != nil {
			return "", err
		}
		return b.ID, nil
	}
	if sel.ID == "" {
		return "", ErrNoBroker
	}
	return sel.ID, nil
}

// Import appends trades whose ids are not already present, assigning ids
// to those without one. It returns how many were added.
func (s *Store) Import(ctx context.Context, trades []Trade) int {
	ctx, span := tracer.Start(ctx, "journal.Import")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, t := range trades {
		if t.ID == "" {
			t.ID = s.newID()
		} else if s.indexOf(t.ID) >= 0 {
			continue
		}
		s.trades = append(s.trades, t)
		added++
	}
	span.SetAttributes(attribute.Int("trades.added", added))
	s.log.Info("trades imported", "added", added, "skipped", len(trades)-added)

	if added > 0 {
		s.saveTrades(ctx)
	}
	return added
}

func (s *Store) indexOf(tradeID string) int {
	return slices.IndexFunc(s.trades, func(t Trade) bool { return t.ID == tradeID })
}

// saveTrades must be called with s.mu held.
func (s *Store) saveTrades(ctx context.Context) {
	if err := s.p.SaveTrades(ctx, s.trades); err != nil {
		s.log.Warn("save trades failed", "error", err)
	}
}

// saveBrokers must be called with s.mu held.
func (s *Store) saveBrokers(ctx context.Context) {
	if err := s.p.SaveBrokers(ctx, s.brokers); err != nil {
		s.log.Warn("save brokers failed", "error", err)
	}
}

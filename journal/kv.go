package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// Keys under which the bridge stores its collections.
const (
	TradesKey  = "trades"
	BrokersKey = "brokers"
)

// KV is a string key-value store. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Stamped is implemented by KV stores that record when each key was last
// written.
type Stamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// Drivers accepted by OpenKV.
const (
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverMemory  = "memory"
)

// OpenKV opens the store for driver at path. The memory driver ignores path.
func OpenKV(driver, path string) (KV, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return NewSQLite(driver, path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// MemoryKV keeps values for the life of the process.
type MemoryKV struct {
	c *cache.Cache
}

func NewMemory() *MemoryKV {
	return &MemoryKV{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("key %q holds %T, not a string", key, v)
	}
	return s, true, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryKV) Close() error {
	m.c.Flush()
	return nil
}

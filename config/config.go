package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradeinsights/internal/logger"
	"github.com/rustyeddy/tradeinsights/journal"
)

// Config represents the complete insights configuration
type Config struct {
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     logger.Config `json:"log" yaml:"log"`
}

// StorageConfig selects the key-value backend behind the journal
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "sqlite3", "sqlite" or "memory"
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`

	// PersistEmpty writes empty collections instead of skipping the save.
	PersistEmpty bool `json:"persist_empty,omitempty" yaml:"persist_empty,omitempty"`
}

// ServerConfig contains the JSON API parameters
type ServerConfig struct {
	Addr          string  `json:"addr" yaml:"addr"`
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `json:"burst" yaml:"burst"`
	ReadTimeout   string  `json:"read_timeout" yaml:"read_timeout"`   // e.g. "10s"
	WriteTimeout  string  `json:"write_timeout" yaml:"write_timeout"` // e.g. "10s"
}

// Timeouts parses the read and write timeouts.
func (s ServerConfig) Timeouts() (read, write time.Duration, err error) {
	if read, err = parseDuration(s.ReadTimeout); err != nil {
		return 0, 0, fmt.Errorf("server.read_timeout: %w", err)
	}
	if write, err = parseDuration(s.WriteTimeout); err != nil {
		return 0, 0, fmt.Errorf("server.write_timeout: %w", err)
	}
	return read, write, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Environment variables that override file settings.
const (
	EnvDB        = "INSIGHTS_DB"
	EnvDriver    = "INSIGHTS_DRIVER"
	EnvAddr      = "INSIGHTS_ADDR"
	EnvLogLevel  = "INSIGHTS_LOG_LEVEL"
	EnvLogFormat = "INSIGHTS_LOG_FORMAT"
	EnvTracing   = "INSIGHTS_TRACING"
)

// Load reads the optional .env file, then path (or the defaults when path
// is empty), then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, or JSON)
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unset sections keep their defaults.
	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides settings from INSIGHTS_* environment variables.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvDB); ok {
		c.Storage.Path = v
	}
	if v, ok := os.LookupEnv(EnvDriver); ok {
		c.Storage.Driver = v
	}
	if v, ok := os.LookupEnv(EnvAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvTracing); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Tracing = b
		}
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case journal.DriverSQLite3, journal.DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path required for %s driver", c.Storage.Driver)
		}
	case journal.DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q, %q or %q", journal.DriverSQLite3, journal.DriverSQLite, journal.DriverMemory)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RatePerSecond < 0 {
		return fmt.Errorf("server.rate_per_second must not be negative")
	}
	if c.Server.RatePerSecond > 0 && c.Server.Burst <= 0 {
		return fmt.Errorf("server.burst must be positive when rate limiting")
	}
	if _, _, err := c.Server.Timeouts(); err != nil {
		return err
	}

	if c.Log.Level != "" && !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: journal.DriverSQLite3,
			Path:   "./insights.db",
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8080",
			RatePerSecond: 20,
			Burst:         40,
			ReadTimeout:   "10s",
			WriteTimeout:  "10s",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

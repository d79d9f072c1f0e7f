package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeinsights/config"
	"github.com/rustyeddy/tradeinsights/internal/logger"
	"github.com/rustyeddy/tradeinsights/journal"
)

// RootConfig carries the persistent flags and the state they resolve to.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	Driver     string
	LogLevel   string

	Config *config.Config
	Log    *slog.Logger

	// Now is the clock used for "today" and date validation.
	Now func() time.Time
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&RootConfig{Now: time.Now})
}

func newRootCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Trade Insights: a daily profit/loss journal",
		Long: `Insights records trades as profits or losses against a broker and
summarizes them per day and per month.

It provides tools for:
  - Logging, editing and deleting trades
  - Viewing a month calendar of daily net results
  - Monthly profit, loss and net summaries
  - Exporting to CSV, JSON and Org-mode
  - Serving the journal as a local JSON API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "Journal database path (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.Driver, "driver", "", "Storage driver: sqlite3|sqlite|memory (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rc.ConfigPath)
		if err != nil {
			return err
		}
		if rc.DBPath != "" {
			cfg.Storage.Path = rc.DBPath
		}
		if rc.Driver != "" {
			cfg.Storage.Driver = rc.Driver
		}
		if rc.LogLevel != "" {
			cfg.Log.Level = rc.LogLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		rc.Config = cfg
		rc.Log = logger.Init(cmd.ErrOrStderr(), cfg.Log)
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return logger.Shutdown(cmd.Context())
	}

	// Subcommands
	cmd.AddCommand(
		newAddCmd(rc),
		newEditCmd(rc),
		newDeleteCmd(rc),
		newDayCmd(rc),
		newCalendarCmd(rc),
		newSummaryCmd(rc),
		newReviewCmd(rc),
		newBrokersCmd(rc),
		newStatusCmd(rc),
		newExportCmd(rc),
		newImportCmd(rc),
		newServeCmd(rc),
		newConfigCmd(),
		newVersionCmd(),
	)

	return cmd
}

// openJournal opens the configured storage and loads the journal from it.
// The returned close func releases the storage.
func (rc *RootConfig) openJournal(ctx context.Context) (*journal.Store, func() error, error) {
	kv, err := rc.openKV()
	if err != nil {
		return nil, nil, err
	}
	return rc.load(ctx, kv), kv.Close, nil
}

func (rc *RootConfig) openKV() (journal.KV, error) {
	kv, err := journal.OpenKV(rc.Config.Storage.Driver, rc.Config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return kv, nil
}

func (rc *RootConfig) load(ctx context.Context, kv journal.KV) *journal.Store {
	bridge := journal.NewBridge(kv, rc.Log)
	bridge.Now = rc.Now
	bridge.PersistEmpty = rc.Config.Storage.PersistEmpty

	return journal.Open(ctx, bridge,
		journal.WithLogger(rc.Log),
		journal.WithClock(rc.Now),
	)
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

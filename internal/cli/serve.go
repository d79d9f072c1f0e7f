package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeinsights/server"
)

func newServeCmd(rc *RootConfig) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal as a local JSON API",
		Long: `Serve trades, brokers, day lists, the calendar and monthly summaries
over HTTP until interrupted.

Example:
  insights serve --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := rc.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}
			read, write, err := cfg.Timeouts()
			if err != nil {
				return err
			}

			store, closeDB, err := rc.openJournal(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			srv := server.New(store,
				server.WithLogger(rc.Log),
				server.WithRateLimit(cfg.RatePerSecond, cfg.Burst),
				server.WithTimeouts(read, write),
				server.WithClock(rc.Now),
			)
			return srv.ListenAndServe(ctx, cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

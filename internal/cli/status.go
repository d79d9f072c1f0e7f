package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeinsights/journal"
)

func newStatusCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the journal is stored and what it holds",
		Long: `Show the storage driver and path, the number of trades and brokers,
and when each collection was last saved (sqlite drivers only).

Example:
  insights status --db ./insights.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kv, err := rc.openKV()
			if err != nil {
				return err
			}
			defer kv.Close()

			store := rc.load(ctx, kv)
			out := cmd.OutOrStdout()

			st := rc.Config.Storage
			if st.Driver == journal.DriverMemory {
				fmt.Fprintf(out, "Storage:  %s\n", st.Driver)
			} else {
				fmt.Fprintf(out, "Storage:  %s %s\n", st.Driver, st.Path)
			}
			fmt.Fprintf(out, "Trades:   %d%s\n", len(store.Trades()), savedAt(ctx, kv, journal.TradesKey))
			fmt.Fprintf(out, "Brokers:  %d%s\n", len(store.Brokers()), savedAt(ctx, kv, journal.BrokersKey))
			return nil
		},
	}
}

func savedAt(ctx context.Context, kv journal.KV, key string) string {
	st, ok := kv.(journal.Stamped)
	if !ok {
		return ""
	}
	at, err := st.UpdatedAt(ctx, key)
	if err != nil {
		return " (not saved)"
	}
	return " (saved " + at.Local().Format("2006-01-02 15:04:05") + ")"
}

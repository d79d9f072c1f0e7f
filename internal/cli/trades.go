package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeinsights/form"
	"github.com/rustyeddy/tradeinsights/journal"
	"github.com/rustyeddy/tradeinsights/report"
)

// tradeFlags are the form fields shared by add and edit.
type tradeFlags struct {
	amount    string
	kind      string
	date      string
	broker    string
	newBroker string
	notes     string
	chartTime string
	tradeTime string
}

func (f *tradeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "trade amount (positive)")
	cmd.Flags().StringVarP(&f.kind, "type", "t", form.KindProfit, "profit or loss")
	cmd.Flags().StringVarP(&f.date, "date", "D", "", "trade date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&f.broker, "broker", "b", "", "broker id (see 'insights brokers list')")
	cmd.Flags().StringVar(&f.newBroker, "new-broker", "", "create a broker with this name and use it")
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "free-form notes")
	cmd.Flags().StringVar(&f.chartTime, "chart-time", "", "chart timeframe label, e.g. 5m")
	cmd.Flags().StringVar(&f.tradeTime, "trade-time", "", "entry time or duration label")
}

// apply copies the flags the user set onto tf.
func (f *tradeFlags) apply(cmd *cobra.Command, tf *form.TradeForm, loc *time.Location) error {
	changed := cmd.Flags().Changed
	if changed("amount") {
		tf.Amount = f.amount
	}
	if changed("type") {
		tf.Kind = strings.ToLower(f.kind)
	}
	if changed("date") {
		d, err := journal.ParseDate(f.date, loc)
		if err != nil {
			return fmt.Errorf("bad --date: %w", err)
		}
		tf.Date = d
	}
	if changed("broker") {
		tf.BrokerID = f.broker
	}
	if changed("new-broker") {
		tf.BrokerID = form.OtherBroker
		tf.NewBrokerName = f.newBroker
	}
	if changed("notes") {
		tf.Notes = f.notes
	}
	if changed("chart-time") {
		tf.ChartTime = f.chartTime
	}
	if changed("trade-time") {
		tf.TradeTime = f.tradeTime
	}
	return nil
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func newAddCmd(rc *RootConfig) *cobra.Command {
	var f tradeFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a trade",
		Long: `Log a profit or loss against a broker.

Examples:
  insights add --amount 150.75 --broker qx --notes "Good entry"
  insights add -a 50.25 -t loss -b po -D 2024-06-02
  insights add -a 80 --new-broker "Pocket Option"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := rc.Now()

			tf := form.New(today(now))
			if err := f.apply(cmd, &tf, now.Location()); err != nil {
				return err
			}

			store, closeDB, err := rc.openJournal(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			t, err := form.Submit(ctx, store, tf, "", now)
			if err != nil {
				return submitError(cmd.ErrOrStderr(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Added trade %s\n", t.ID)
			printTrade(out, t, store.BrokerName(t.BrokerID))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(rc *RootConfig) *cobra.Command {
	var f tradeFlags

	cmd := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Change a logged trade",
		Long: `Change fields of a logged trade. Only the flags given are changed;
the trade keeps its id and its place in the journal.

Example:
  insights edit 01j0... --amount 260 --type profit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := rc.Now()

			store, closeDB, err := rc.openJournal(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			existing, err := store.Trade(args[0])
			if err != nil {
				return err
			}
			tf := form.FromTrade(existing)
			if err := f.apply(cmd, &tf, now.Location()); err != nil {
				return err
			}

			t, err := form.Submit(ctx, store, tf, existing.ID, now)
			if err != nil {
				return submitError(cmd.ErrOrStderr(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Updated trade %s\n", t.ID)
			printTrade(out, t, store.BrokerName(t.BrokerID))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Remove a logged trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := store.DeleteTrade(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted trade %s\n", args[0])
			return nil
		},
	}
}

func printTrade(w io.Writer, t journal.Trade, broker string) {
	kind := "Loss"
	if t.IsProfit {
		kind = "Profit"
	}
	fmt.Fprintf(w, "  %s %s on %s (%s)\n",
		report.TradeAmount(t.Magnitude(), t.IsProfit), kind, t.Date.Format("2006-01-02"), broker)
}

// submitError prints field errors one per line and returns a short error.
func submitError(w io.Writer, err error) error {
	var fe form.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(fe)) {
		fmt.Fprintf(w, "  %s: %s\n", k, fe[k])
	}
	return fmt.Errorf("trade not saved: %d invalid field(s)", len(fe))
}

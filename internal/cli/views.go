package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeinsights/insights"
	"github.com/rustyeddy/tradeinsights/report"
)

func (rc *RootConfig) month(s string) (insights.Month, error) {
	if s == "" {
		return insights.MonthOf(rc.Now()), nil
	}
	m, err := insights.ParseMonth(s)
	if err != nil {
		return insights.Month{}, fmt.Errorf("bad --month: %w", err)
	}
	return m, nil
}

func newDayCmd(rc *RootConfig) *cobra.Command {
	var org bool

	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "List the trades of a day",
		Long: `List the trades logged on a day (default today).

Examples:
  insights day
  insights day 2024-06-02
  insights day 2024-06-02 --org`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := insights.DayOf(rc.Now())
			if len(args) == 1 {
				var err error
				if day, err = insights.ParseDayKey(args[0]); err != nil {
					return fmt.Errorf("date: %w", err)
				}
			}

			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			at := day.Time(rc.Now().Location())
			trades := store.TradesOn(at)
			if org {
				fmt.Fprintln(cmd.OutOrStdout(), report.TradesOrg(trades, store.BrokerNames()))
				return nil
			}
			return report.DayTrades(cmd.OutOrStdout(), at, trades, store.BrokerNames())
		},
	}
	cmd.Flags().BoolVar(&org, "org", false, "print Org-mode blocks")
	return cmd
}

func newCalendarCmd(rc *RootConfig) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month calendar with daily net badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rc.month(month)
			if err != nil {
				return err
			}

			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			return report.Calendar(cmd.OutOrStdout(), m, insights.DailyNetTotals(store.Trades()))
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	return cmd
}

func newSummaryCmd(rc *RootConfig) *cobra.Command {
	var (
		month string
		daily bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a month's total profit, total loss and net",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rc.month(month)
			if err != nil {
				return err
			}

			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			trades := store.Trades()
			out := cmd.OutOrStdout()
			if err := report.Cards(out, m, insights.MonthSummary(trades, m)); err != nil {
				return err
			}
			if daily {
				fmt.Fprintln(out)
				return report.Series(out, m, insights.MonthlySeries(trades, m))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	cmd.Flags().BoolVar(&daily, "daily", false, "also print the net of every day")
	return cmd
}

func newReviewCmd(rc *RootConfig) *cobra.Command {
	var (
		month  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Write a month review as an Org document",
		Long: `Write the month's summary, active days and trades as Org-mode.

Examples:
  insights review
  insights review --month 2024-06 -o reviews/2024-06.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rc.month(month)
			if err != nil {
				return err
			}

			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			r := report.NewMonthReport(store.Trades(), m, store.BrokerNames(), rc.Now())
			if output == "" {
				return r.WriteOrg(cmd.OutOrStdout())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := r.WriteOrg(f); err != nil {
				f.Close()
				return fmt.Errorf("write review: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s review: %s\n", m.Title(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

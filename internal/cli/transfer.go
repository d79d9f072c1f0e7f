package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeinsights/insights"
	"github.com/rustyeddy/tradeinsights/journal"
	"github.com/rustyeddy/tradeinsights/report"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
	formatOrg  = "org"
)

func newExportCmd(rc *RootConfig) *cobra.Command {
	var (
		format string
		output string
		month  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trades as CSV, JSON or Org-mode",
		Long: `Export trades in journal order.

Examples:
  insights export -f csv -o trades.csv
  insights export -f org --month 2024-06`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			trades := store.Trades()
			if month != "" {
				m, err := rc.month(month)
				if err != nil {
					return err
				}
				kept := trades[:0]
				for _, t := range trades {
					if m.Contains(insights.DayOf(t.Date)) {
						kept = append(kept, t)
					}
				}
				trades = kept
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := writeTrades(w, format, trades, store.BrokerNames()); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(trades), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatCSV, "csv, json or org")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&month, "month", "m", "", "only trades in month YYYY-MM")
	return cmd
}

func writeTrades(w io.Writer, format string, trades []journal.Trade, names func(string) string) error {
	switch format {
	case formatCSV:
		return journal.WriteCSV(w, trades, names)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if trades == nil {
			trades = []journal.Trade{}
		}
		return enc.Encode(trades)
	case formatOrg:
		_, err := fmt.Fprintln(w, report.TradesOrg(trades, names))
		return err
	default:
		return fmt.Errorf("unknown format %q (want csv, json or org)", format)
	}
}

func newImportCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import trades from CSV",
		Long: `Import trades from a CSV file written by 'insights export'.
Trades whose id is already in the journal are skipped; rows without an id
get a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			trades, err := journal.ReadCSV(f, rc.Now().Location())
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			added := store.Import(cmd.Context(), trades)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d of %d trades\n", added, len(trades))
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBrokersCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brokers",
		Short: "List or add brokers",
		Long: `Manage the brokers trades are logged against.

Subcommands:
  list - List brokers and their ids
  add  - Add a broker by name

Examples:
  insights brokers list
  insights brokers add "Pocket Option"`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List brokers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, b := range store.Brokers() {
				fmt.Fprintf(tw, "%s\t%s\n", b.ID, b.Name)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a broker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := rc.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			b, err := store.AddBroker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added broker %s (%s)\n", b.Name, b.ID)
			return nil
		},
	})

	return cmd
}

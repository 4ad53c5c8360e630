package cli

import (
	"fmt"

	"github.com/DomeLiquid/paylink/cmd"
	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the payment_links and transaction_records tables.",
	RunE: func(c *cobra.Command, args []string) error {
		s, err := cmd.OpenStore(c.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Migrate(c.Context()); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}

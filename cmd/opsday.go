package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/opsday"
)

// opsDayCmd prints the operations brief of one date
var opsDayCmd = &cobra.Command{
	Use:   "ops-day DATE",
	Short: "Simulate the campaign and print the operations brief for DATE (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, r, err := simulate(cmd.Flags(), sim.Options{})
		if err != nil {
			return err
		}
		b, err := opsday.Extract(r, p.Config, args[0])
		if err != nil {
			return err
		}
		if settings.JSON {
			return writeJSON(cmd.OutOrStdout(), b)
		}
		renderBrief(cmd.OutOrStdout(), b)
		return nil
	},
}

func init() {
	addFleetFlags(opsDayCmd.Flags())
}

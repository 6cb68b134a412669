package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hddwater/bargesim/internal/archive"
	"github.com/hddwater/bargesim/sim/optimize"
)

var sensMaxIterations int

// sensitivityCmd re-optimizes the fleet under varied cost and demand inputs
var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Rank cost and demand inputs by how far they move the optimal cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, routes, err := settings.load()
		if err != nil {
			return err
		}
		bounds, err := loadBounds(optBoundsFile)
		if err != nil {
			return err
		}
		start, err := fleetFromFlags(cmd.Flags(), p.Fleet)
		if err != nil {
			return err
		}
		ctx := contextOrBackground(cmd.Context())
		res, err := optimize.Sensitivity(ctx, p.Config, routes, optimize.SensitivityOptions{
			Start:         start,
			Bounds:        bounds,
			MaxIterations: sensMaxIterations,
			Workers:       settings.Workers,
			Progress: func(param, label string) {
				logrus.Infof("sensitivity: %s %s", param, label)
			},
		})
		if err != nil {
			return err
		}

		b := res.Baseline
		entry := archive.Entry{Kind: archive.KindSensitivity, Fleet: b.Fleet, Cost: b.Cost, Score: b.Cost, RanDryCount: b.RanDryCount, Tested: b.Tested}
		for _, pr := range res.Tests {
			for _, vr := range pr.Results {
				entry.Tested += vr.Tested
			}
		}
		if err := archiveResult(ctx, entry, res); err != nil {
			return err
		}
		if settings.JSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		renderSensitivity(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	addFleetFlags(sensitivityCmd.Flags())
	sensitivityCmd.Flags().StringVar(&optBoundsFile, "bounds", "", "YAML file with min/max per fleet dimension")
	sensitivityCmd.Flags().IntVar(&sensMaxIterations, "max-iterations", 50, "Maximum hill-climb moves per variation")
}

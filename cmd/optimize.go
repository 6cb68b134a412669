package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hddwater/bargesim/internal/archive"
	"github.com/hddwater/bargesim/sim/optimize"
)

var (
	optMethod        string  // brute, local or smart
	optBoundsFile    string  // YAML search bounds
	optPrescreen     bool    // mass-balance prescreen for brute force
	optSlack         float64 // prescreen slack
	optMaxIterations int     // hill-climb move cap
)

// loadBounds reads search bounds from path, starting from DefaultBounds.
func loadBounds(path string) (optimize.Bounds, error) {
	b := optimize.DefaultBounds()
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("reading bounds: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parsing bounds: %w", err)
	}
	return b, b.Validate()
}

// optimizeCmd searches fleet compositions
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for the cheapest fleet in which no rig runs dry",
	Long: `optimize searches fleet compositions with one of three methods:

  brute  simulate every fleet within the bounds and rank the top 15
  local  hill-climb from the project fleet (or --tugs etc.)
  smart  size a start fleet from the water mass balance, grow it until no rig
         runs dry, then hill-climb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, routes, err := settings.load()
		if err != nil {
			return err
		}
		bounds, err := loadBounds(optBoundsFile)
		if err != nil {
			return err
		}
		runner, err := optimize.NewRunner(p.Config, routes, settings.Workers)
		if err != nil {
			return err
		}
		ctx := contextOrBackground(cmd.Context())
		out := cmd.OutOrStdout()

		var (
			result any
			entry  archive.Entry
		)
		switch optMethod {
		case "brute":
			res, err := runner.BruteForce(ctx, optimize.BruteForceOptions{Bounds: bounds, Prescreen: optPrescreen, PrescreenSlack: optSlack})
			if err != nil {
				return err
			}
			result = res
			entry = archive.Entry{Kind: archive.KindBruteForce, Tested: res.Tested}
			best := res.BestZeroRanDry
			if best == nil && len(res.Top) > 0 {
				best = &res.Top[0]
			}
			if best != nil {
				entry.Fleet, entry.Cost, entry.Score, entry.RanDryCount = best.Fleet, best.Cost, best.Score, best.RanDryCount
			}
			if !settings.JSON {
				renderSearch(out, res)
			}
		case "local", "smart":
			var res *optimize.LocalResult
			if optMethod == "local" {
				start, err := fleetFromFlags(cmd.Flags(), p.Fleet)
				if err != nil {
					return err
				}
				res, err = runner.LocalOptimize(ctx, optimize.LocalOptions{Start: start, Bounds: bounds, MaxIterations: optMaxIterations})
				if err != nil {
					return err
				}
			} else {
				res, err = runner.SmartFleetFinder(ctx, optimize.SmartOptions{Bounds: bounds, MaxIterations: optMaxIterations})
				if err != nil {
					return err
				}
			}
			result = res
			kind := archive.KindLocal
			if optMethod == "smart" {
				kind = archive.KindSmart
			}
			o := res.Optimal
			entry = archive.Entry{Kind: kind, Fleet: o.Fleet, Cost: o.Cost, Score: o.Score, RanDryCount: o.RanDryCount, Tested: res.Tested}
			if !settings.JSON {
				renderLocal(out, res)
			}
		default:
			return fmt.Errorf("unknown method %q (want brute, local or smart)", optMethod)
		}
		logrus.Infof("%s search simulated %d fleets", optMethod, runner.Runs())

		if err := archiveResult(ctx, entry, result); err != nil {
			return err
		}
		if settings.JSON {
			return writeJSON(out, result)
		}
		return nil
	},
}

func archiveResult(ctx context.Context, e archive.Entry, result any) error {
	if settings.Archive == "" {
		return nil
	}
	detail, err := json.Marshal(result)
	if err != nil {
		return err
	}
	e.Detail = detail
	return archiveEntry(ctx, e)
}

func init() {
	addFleetFlags(optimizeCmd.Flags())
	optimizeCmd.Flags().StringVar(&optMethod, "method", "smart", "Search method: brute, local or smart")
	optimizeCmd.Flags().StringVar(&optBoundsFile, "bounds", "", "YAML file with min/max per fleet dimension")
	optimizeCmd.Flags().BoolVar(&optPrescreen, "prescreen", false, "Skip fleets the mass balance rules out (brute only)")
	optimizeCmd.Flags().Float64Var(&optSlack, "prescreen-slack", 1.25, "Delivery estimate multiplier used by --prescreen")
	optimizeCmd.Flags().IntVar(&optMaxIterations, "max-iterations", 50, "Maximum hill-climb moves")
}

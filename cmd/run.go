package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hddwater/bargesim/internal/archive"
	"github.com/hddwater/bargesim/sim"
)

var (
	runOut          string // Path to write the full JSON report to
	runOptimization bool   // Skip asset log, dispatches and timeline
)

// addFleetFlags registers one flag per fleet dimension. Unset flags keep the
// project's fleet.
func addFleetFlags(fs *pflag.FlagSet) {
	fs.Int("tugs", 0, "Number of tugs")
	fs.Int("small-transport", 0, "Number of small transport barges")
	fs.Int("small-storage", 0, "Number of small storage barges")
	fs.Int("large-transport", 0, "Number of large transport barges")
	fs.Int("large-storage", 0, "Number of large storage barges")
}

func fleetFromFlags(fs *pflag.FlagSet, base sim.Fleet) (sim.Fleet, error) {
	f := base
	for name, dst := range map[string]*int{
		"tugs":            &f.Tugs,
		"small-transport": &f.SmallTransport,
		"small-storage":   &f.SmallStorage,
		"large-transport": &f.LargeTransport,
		"large-storage":   &f.LargeStorage,
	} {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetInt(name)
		if err != nil {
			return sim.Fleet{}, err
		}
		*dst = v
	}
	return f, sim.ValidateFleet(f)
}

// simulate runs one campaign for the configured project.
func simulate(fs *pflag.FlagSet, opts sim.Options) (sim.Project, *sim.Report, error) {
	p, routes, err := settings.load()
	if err != nil {
		return sim.Project{}, nil, err
	}
	fleet, err := fleetFromFlags(fs, p.Fleet)
	if err != nil {
		return sim.Project{}, nil, err
	}
	s, err := sim.NewSimulator(p.Config, fleet, routes, opts)
	if err != nil {
		return sim.Project{}, nil, err
	}
	start := time.Now()
	r := s.Run()
	logrus.Infof("simulated %s in %s: score %.0f, %d ran dry", fleet, time.Since(start).Round(time.Millisecond), r.Score, r.RanDryCount)
	return p, r, nil
}

// runCmd simulates one fleet
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the campaign with one fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, r, err := simulate(cmd.Flags(), sim.Options{OptimizationMode: runOptimization})
		if err != nil {
			return err
		}
		if runOut != "" {
			if err := writeReportFile(runOut, r); err != nil {
				return err
			}
			logrus.Infof("report written to %s", runOut)
		}
		if err := archiveReport(cmd.Context(), r); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if settings.JSON {
			return r.WriteJSON(out)
		}
		renderReport(out, r)
		return nil
	},
}

// writeReportFile writes r as JSON to path. A failed close fails the write.
func writeReportFile(path string, r *sim.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	werr := r.WriteJSON(f)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("closing report file: %w", cerr)
	}
	return werr
}

func archiveReport(ctx context.Context, r *sim.Report) error {
	store, err := settings.openArchive()
	if err != nil || store == nil {
		return err
	}
	defer store.Close()
	e, err := store.RecordReport(contextOrBackground(ctx), settings.Project, r)
	if err != nil {
		return err
	}
	logrus.Infof("archived run %s", e.ID)
	return nil
}

// archiveEntry records a search result when an archive is configured.
func archiveEntry(ctx context.Context, e archive.Entry) error {
	store, err := settings.openArchive()
	if err != nil || store == nil {
		return err
	}
	defer store.Close()
	e.Project = settings.Project
	stored, err := store.Record(contextOrBackground(ctx), e)
	if err != nil {
		return err
	}
	logrus.Infof("archived %s %s", stored.Kind, stored.ID)
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func init() {
	addFleetFlags(runCmd.Flags())
	runCmd.Flags().StringVar(&runOut, "out", "", "Write the full JSON report to this file")
	runCmd.Flags().BoolVar(&runOptimization, "optimization-mode", false, "Skip the asset log, dispatch trace and storage timeline")
}

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// settings is filled by the root command before any subcommand runs.
var settings Settings

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "bargesim",
	Short: "Water supply simulator for HDD tug and barge fleets",
	Long: `bargesim simulates a horizontal directional drilling campaign supplied
with water by tugs pushing transport barges from pumping sources, and searches
for the cheapest fleet in which no rig runs dry.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd.Flags())
		if err != nil {
			return err
		}
		if err := s.applyLogLevel(); err != nil {
			return err
		}
		settings = s
		return nil
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("bargesim: %v", err)
	}
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	addSettingsFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(runCmd, optimizeCmd, sensitivityCmd, opsDayCmd, runsCmd)
}

func addSettingsFlags(pf *pflag.FlagSet) {
	pf.String("project", "project.yaml", "Project file (fleet, campaign and cost model)")
	pf.String("routes", "", "Route table; overrides the project's routes entry")
	pf.String("archive", "", "SQLite file to archive results in (off when empty)")
	pf.String("log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.Int("workers", 0, "Parallel simulations during searches (0 uses every CPU)")
	pf.Bool("json", false, "Print results as JSON")
}

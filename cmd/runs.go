package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hddwater/bargesim/internal/archive"
)

var (
	runsKind  string
	runsLimit int
)

// runsCmd lists or shows archived results
var runsCmd = &cobra.Command{
	Use:   "runs [ID]",
	Short: "List archived results, or print one in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.openArchive()
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("no archive configured; set --archive or " + envPrefix + "_ARCHIVE")
		}
		defer store.Close()
		ctx := contextOrBackground(cmd.Context())
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			e, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(out, e)
		}
		entries, err := store.List(ctx, archive.Kind(runsKind), runsLimit)
		if err != nil {
			return err
		}
		if settings.JSON {
			return writeJSON(out, entries)
		}
		renderEntries(out, entries)
		if runsLimit > 0 && len(entries) == runsLimit {
			fmt.Fprintf(out, "(showing the latest %d)\n", runsLimit)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsKind, "kind", "", "Only list this kind (run, brute-force, local, smart, sensitivity)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum entries to list (0 lists all)")
}

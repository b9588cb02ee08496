package cmd

import (
	"context"
	"fmt"
	"timetable-backend/cmd/timetable-cli/globals"
	"timetable-backend/internal/db"

	"github.com/spf13/cobra"
)

var syncTerm string

func init() {
	syncCmd.Flags().StringVarP(&syncTerm, "term", "t", "", "term identifier like 2025-2026-1, defaults to the current term")
	rootCmd.AddCommand(syncCmd)
}

// syncOnce runs the pipeline and replaces the stored occurrences with the result.
func syncOnce(ctx context.Context, value *globals.Value, store *db.Store, termId string) (db.Run, error) {
	result, err := value.Ingestor.Sync(ctx, value.Credentials, termId)
	if err != nil {
		return db.Run{}, userError(err)
	}
	run, err := store.ReplaceOccurrences(ctx, value.Credentials.Username, result.TermId, result.Occurrences)
	if err != nil {
		return db.Run{}, fmt.Errorf("store occurrences: %w", err)
	}
	return run, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the timetable and store its occurrences in the database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		if err := requireUsername(value); err != nil {
			return err
		}

		store, closeStore, err := value.OpenStore()
		if err != nil {
			return err
		}
		defer closeStore()

		run, err := syncOnce(cmd.Context(), value, store, syncTerm)
		if err != nil {
			return err
		}
		fmt.Printf(
			"stored %d occurrences of %s for %s (run %s)\n",
			run.Occurrences, run.TermId, run.Owner, run.Id,
		)
		return nil
	},
}

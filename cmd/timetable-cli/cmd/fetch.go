package cmd

import (
	"timetable-backend/cmd/timetable-cli/globals"
	"timetable-backend/cmd/timetable-cli/utils"

	"github.com/spf13/cobra"
)

var fetchTerm string

func init() {
	fetchCmd.Flags().StringVarP(&fetchTerm, "term", "t", "", "term identifier like 2025-2026-1, defaults to the current term")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the timetable and print its occurrences without storing them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		if err := requireUsername(value); err != nil {
			return err
		}

		result, err := value.Ingestor.Sync(cmd.Context(), value.Credentials, fetchTerm)
		if err != nil {
			return userError(err)
		}
		utils.RenderOccurrences(result.Occurrences)
		return nil
	},
}

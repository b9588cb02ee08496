package cmd

import (
	"encoding/json"
	"os"
	"timetable-backend/cmd/timetable-cli/globals"

	"github.com/spf13/cobra"
)

var (
	rawTerm   string
	rawStrict bool
)

func init() {
	rawCmd.Flags().StringVarP(&rawTerm, "term", "t", "", "term identifier like 2025-2026-1, defaults to the current term")
	rawCmd.Flags().BoolVar(&rawStrict, "strict", false, "drop entries that belong to other terms")
	rootCmd.AddCommand(rawCmd)
}

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Print the raw timetable entries as returned by the portal.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		if err := requireUsername(value); err != nil {
			return err
		}

		entries, err := value.Ingestor.FetchRaw(cmd.Context(), value.Credentials, rawTerm, rawStrict)
		if err != nil {
			return userError(err)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(entries)
	},
}

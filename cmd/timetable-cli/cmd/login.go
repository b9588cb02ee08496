package cmd

import (
	"fmt"
	"timetable-backend/cmd/timetable-cli/globals"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check the configured credentials against the identity provider.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		if err := requireUsername(value); err != nil {
			return err
		}

		err := value.Ingestor.Login(cmd.Context(), value.Credentials)
		if err != nil {
			return userError(err)
		}
		fmt.Printf("logged in as %s\n", value.Credentials.Username)
		return nil
	},
}

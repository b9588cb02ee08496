package cmd

import (
	"fmt"
	"log/slog"
	"time"
	"timetable-backend/cmd/timetable-cli/globals"
	"timetable-backend/internal/components/chrono"
	"timetable-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	watchTerm string
	watchCron string
)

func init() {
	watchCmd.Flags().StringVarP(&watchTerm, "term", "t", "", "term identifier like 2025-2026-1, defaults to the current term")
	watchCmd.Flags().StringVar(&watchCron, "cron", "0 7 * * *", "cron schedule the timetable is synced on")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync the timetable on a schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)
		if err := requireUsername(value); err != nil {
			return err
		}
		if value.Credentials.Password == "" {
			return fmt.Errorf("watch needs a password to renew the login, set credentials.password or ZJU_PASSWORD")
		}

		store, closeStore, err := value.OpenStore()
		if err != nil {
			return err
		}
		defer closeStore()

		sync := func() {
			run, err := syncOnce(ctx, value, store, watchTerm)
			if err != nil {
				slog.Error("scheduled sync failed", "err", err)
				return
			}
			slog.Info("synced", "term", run.TermId, "occurrences", run.Occurrences, "run", run.Id)
		}

		cron := chrono.NewStandardCron(value.Tel, value.Clock)
		defer cron.Stop()
		err = cron.Cron(watchCron, sync)
		if err != nil {
			return fmt.Errorf("--cron: %w", err)
		}

		telemetry.InstrumentPerfStats(ctx, value.Tel, time.Second*30)

		sync()
		slog.Info("watching", "cron", watchCron)
		<-ctx.Done()
		return nil
	},
}

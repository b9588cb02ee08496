package cmd

import (
	"fmt"
	"strings"
	"time"
	"timetable-backend/cmd/timetable-cli/globals"
	"timetable-backend/cmd/timetable-cli/utils"
	"timetable-backend/internal/db"
	"timetable-backend/internal/timetable"

	"github.com/spf13/cobra"
)

var (
	showTerm   string
	showSeason string
	showFrom   string
	showTo     string
	showLimit  int
)

func init() {
	showCmd.Flags().StringVarP(&showTerm, "term", "t", "", "only show this term, defaults to the current term")
	showCmd.Flags().StringVarP(&showSeason, "season", "s", "", "only show one season (autumn, winter, spring, summer or 秋, 冬, 春, 夏)")
	showCmd.Flags().StringVar(&showFrom, "from", "", "only show occurrences starting at or after this date (2006-01-02)")
	showCmd.Flags().StringVar(&showTo, "to", "", "only show occurrences ending on or before this date (2006-01-02)")
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "show at most this many occurrences")
	rootCmd.AddCommand(showCmd)
}

func parseDate(s string, location *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), location)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored occurrences.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		if err := requireUsername(value); err != nil {
			return err
		}

		filter := db.Filter{
			Owner:  value.Credentials.Username,
			TermId: value.Calendar.Resolve(showTerm),
			Limit:  showLimit,
		}
		if showSeason != "" {
			season, err := timetable.ParseSeason(showSeason)
			if err != nil {
				return err
			}
			filter.Season = season
		}

		location := value.Clock.Location()
		from, err := parseDate(showFrom, location)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		filter.From = from
		to, err := parseDate(showTo, location)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		if !to.IsZero() {
			// the whole day is included
			filter.To = to.AddDate(0, 0, 1).Add(-time.Second)
		}

		store, closeStore, err := value.OpenStore()
		if err != nil {
			return err
		}
		defer closeStore()

		occurrences, err := store.ListOccurrences(cmd.Context(), filter)
		if err != nil {
			return err
		}

		run, ok, err := store.LastRun(cmd.Context(), filter.Owner, filter.TermId)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("last synced %s\n", run.SyncedAt.Format(time.DateTime))
		} else {
			fmt.Printf("%s has never been synced, run sync first\n", filter.TermId)
		}
		utils.RenderOccurrences(occurrences)
		return nil
	},
}

package utils

import (
	"fmt"
	"os"
	"timetable-backend/internal/timetable"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var weekdays = []string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func weekday(n int) string {
	if n < 1 || n >= len(weekdays) {
		return fmt.Sprint(n)
	}
	return weekdays[n]
}

func parity(occ timetable.Occurrence) string {
	switch {
	case occ.SingleWeek:
		return "odd"
	case occ.DoubleWeek:
		return "even"
	default:
		return ""
	}
}

// RenderOccurrences prints occurrences as a table.
func RenderOccurrences(occurrences []timetable.Occurrence) {
	t := NewTable()
	t.AppendHeader(table.Row{
		"Date", "Time", "Day", "Week", "Periods", "Season",
		"Course", "Teacher", "Classroom", "Parity", "Note",
	})
	for _, occ := range occurrences {
		t.AppendRow(table.Row{
			occ.StartsAt.Format("2006-01-02"),
			fmt.Sprintf("%s-%s", occ.StartsAt.Format("15:04"), occ.EndsAt.Format("15:04")),
			weekday(occ.Weekday),
			occ.Week,
			fmt.Sprintf("%d+%d", occ.PeriodStart, occ.PeriodCount),
			occ.Season.Label(),
			fmt.Sprintf("%s (%s)", occ.Course.Name, occ.Course.Code),
			occ.Course.Teacher,
			occ.Classroom,
			parity(occ),
			occ.Note,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("%d occurrences", len(occurrences))})
	t.Render()
}

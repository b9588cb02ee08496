package timetable

import (
	"errors"
	"testing"
	"time"
	"timetable-backend/internal/components/chrono"

	"github.com/stretchr/testify/require"
)

func shanghai(t testing.TB) *time.Location {
	clock, err := chrono.NewStandardImpl(chrono.DefaultLocation)
	require.NoError(t, err)
	return clock.Location()
}

func defaultCalendar(t testing.TB) *Calendar {
	calendar, err := NewCalendar(DefaultCalendarConfig(), shanghai(t))
	require.NoError(t, err)
	return calendar
}

func TestDefaultCalendar(t *testing.T) {
	calendar := defaultCalendar(t)

	term, err := calendar.Lookup("2025-2026-1")
	require.NoError(t, err)
	require.Equal(t, "2025-2026-1", term.Id)
	require.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, shanghai(t)), term.StartMonday)
	require.Len(t, term.Periods, 13)
	require.Equal(t, Period{
		Start: TimeOfDay{Hour: 10, Minute: 0},
		End:   TimeOfDay{Hour: 10, Minute: 45},
	}, term.Periods[2])

	current, err := calendar.Lookup("")
	require.NoError(t, err)
	require.Equal(t, "2025-2026-1", current.Id)

	require.Equal(t, []string{
		"2023-2024-1",
		"2023-2024-2",
		"2024-2025-1",
		"2024-2025-2",
		"2025-2026-1",
		"2025-2026-2",
	}, calendar.TermIds())
}

func TestCalendarUnknownTerm(t *testing.T) {
	_, err := defaultCalendar(t).Lookup("2030-2031-1")
	var unknown *UnknownTermError
	require.True(t, errors.As(err, &unknown), "expected UnknownTermError, got %v", err)
	require.Equal(t, "2030-2031-1", unknown.TermId)
}

func TestCalendarTermPeriods(t *testing.T) {
	config := DefaultCalendarConfig()
	config.Terms = append(config.Terms, TermConfig{
		Id:          "2026-2027-1",
		StartMonday: "2026-09-14",
		Periods:     [][2]string{{"09:00", "10:30"}, {"10:45", "12:15"}},
	})
	calendar, err := NewCalendar(config, shanghai(t))
	require.NoError(t, err)

	term, err := calendar.Lookup("2026-2027-1")
	require.NoError(t, err)
	require.Equal(t, []Period{
		{Start: TimeOfDay{9, 0}, End: TimeOfDay{10, 30}},
		{Start: TimeOfDay{10, 45}, End: TimeOfDay{12, 15}},
	}, term.Periods)
}

func TestCalendarValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *CalendarConfig)
	}{
		{"start not monday", func(c *CalendarConfig) {
			c.Terms[0].StartMonday = "2023-09-19"
		}},
		{"invalid date", func(c *CalendarConfig) {
			c.Terms[0].StartMonday = "19/09/2023"
		}},
		{"period end before start", func(c *CalendarConfig) {
			c.DefaultPeriods[0] = [2]string{"08:45", "08:00"}
		}},
		{"invalid time", func(c *CalendarConfig) {
			c.DefaultPeriods[0] = [2]string{"8am", "08:45"}
		}},
		{"duplicate term", func(c *CalendarConfig) {
			c.Terms = append(c.Terms, c.Terms[0])
		}},
		{"unknown current term", func(c *CalendarConfig) {
			c.CurrentTerm = "2030-2031-1"
		}},
		{"no periods", func(c *CalendarConfig) {
			c.DefaultPeriods = nil
		}},
	}
	for _, c := range cases {
		config := DefaultCalendarConfig()
		c.mutate(&config)
		_, err := NewCalendar(config, shanghai(t))
		require.Error(t, err, c.name)
	}
}

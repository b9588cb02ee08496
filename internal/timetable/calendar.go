package timetable

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// UnknownTermError is returned when a term has no calendar configured.
type UnknownTermError struct {
	TermId string
}

func (e *UnknownTermError) Error() string {
	return fmt.Sprintf("no calendar configured for term %q", e.TermId)
}

// TimeOfDay is a wall clock time, it has no date or location of its own.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant of this time of day on the given date.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// Period is one class slot of a day.
type Period struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Term is the resolved calendar of a single term.
type Term struct {
	Id string
	// StartMonday is midnight of the first Monday of the term.
	StartMonday time.Time
	Periods     []Period
}

// TermConfig is the configured form of a term, dates are written 2006-01-02.
type TermConfig struct {
	Id          string      `json:"id"`
	StartMonday string      `json:"start_monday"`
	Periods     [][2]string `json:"periods,omitempty"`
}

type CalendarConfig struct {
	// Timezone is the IANA name classes are scheduled in.
	Timezone string `json:"timezone"`
	// DefaultPeriods is used by every term that does not list its own periods.
	DefaultPeriods [][2]string  `json:"default_periods"`
	Terms          []TermConfig `json:"terms"`
	// CurrentTerm is used when no term is specified.
	CurrentTerm string `json:"current_term"`
}

// DefaultCalendarConfig is the campus calendar for recent terms.
func DefaultCalendarConfig() CalendarConfig {
	return CalendarConfig{
		Timezone: "Asia/Shanghai",
		DefaultPeriods: [][2]string{
			{"08:00", "08:45"},
			{"08:50", "09:35"},
			{"10:00", "10:45"},
			{"10:50", "11:35"},
			{"11:45", "12:25"},
			{"13:25", "14:10"},
			{"14:15", "15:00"},
			{"15:05", "15:50"},
			{"16:15", "17:00"},
			{"17:05", "17:50"},
			{"18:50", "19:35"},
			{"19:40", "20:25"},
			{"20:30", "21:15"},
		},
		Terms: []TermConfig{
			{Id: "2023-2024-1", StartMonday: "2023-09-18"},
			{Id: "2023-2024-2", StartMonday: "2024-02-26"},
			{Id: "2024-2025-1", StartMonday: "2024-09-09"},
			{Id: "2024-2025-2", StartMonday: "2025-02-17"},
			{Id: "2025-2026-1", StartMonday: "2025-09-15"},
			{Id: "2025-2026-2", StartMonday: "2026-03-02"},
		},
		CurrentTerm: "2025-2026-1",
	}
}

// Calendar is the immutable term calendar table.
type Calendar struct {
	location *time.Location
	terms    map[string]Term
	current  string
}

func parsePeriods(pairs [][2]string) ([]Period, error) {
	periods := make([]Period, len(pairs))
	for i, pair := range pairs {
		start, err := ParseTimeOfDay(pair[0])
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i+1, err)
		}
		end, err := ParseTimeOfDay(pair[1])
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i+1, err)
		}
		if start.minutes() >= end.minutes() {
			return nil, fmt.Errorf("period %d: start %s is not before end %s", i+1, start, end)
		}
		periods[i] = Period{Start: start, End: end}
	}
	return periods, nil
}

// NewCalendar validates the configuration and resolves every term in the given location.
func NewCalendar(config CalendarConfig, location *time.Location) (*Calendar, error) {
	if location == nil {
		return nil, fmt.Errorf("calendar location is nil")
	}
	defaults, err := parsePeriods(config.DefaultPeriods)
	if err != nil {
		return nil, fmt.Errorf("default periods: %w", err)
	}

	terms := make(map[string]Term, len(config.Terms))
	for _, tc := range config.Terms {
		id := strings.TrimSpace(tc.Id)
		if id == "" {
			return nil, fmt.Errorf("term with empty id")
		}
		if _, exists := terms[id]; exists {
			return nil, fmt.Errorf("term %s: configured twice", id)
		}
		start, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(tc.StartMonday), location)
		if err != nil {
			return nil, fmt.Errorf("term %s: invalid start_monday: %w", id, err)
		}
		if start.Weekday() != time.Monday {
			return nil, fmt.Errorf("term %s: start_monday %s is a %s", id, tc.StartMonday, start.Weekday())
		}

		periods := defaults
		if len(tc.Periods) > 0 {
			periods, err = parsePeriods(tc.Periods)
			if err != nil {
				return nil, fmt.Errorf("term %s: %w", id, err)
			}
		}
		if len(periods) == 0 {
			return nil, fmt.Errorf("term %s: no periods configured", id)
		}
		terms[id] = Term{Id: id, StartMonday: start, Periods: periods}
	}

	current := strings.TrimSpace(config.CurrentTerm)
	if current != "" {
		if _, ok := terms[current]; !ok {
			return nil, fmt.Errorf("current term %s is not configured", current)
		}
	}

	return &Calendar{
		location: location,
		terms:    terms,
		current:  current,
	}, nil
}

func (c *Calendar) Location() *time.Location {
	return c.location
}

// Resolve returns the given term id, or the current term when it is empty.
func (c *Calendar) Resolve(termId string) string {
	termId = strings.TrimSpace(termId)
	if termId == "" {
		return c.current
	}
	return termId
}

// Lookup returns the term with the given id (resolved with Resolve).
func (c *Calendar) Lookup(termId string) (Term, error) {
	id := c.Resolve(termId)
	term, ok := c.terms[id]
	if !ok {
		return Term{}, &UnknownTermError{TermId: id}
	}
	return term, nil
}

// TermIds lists the configured terms in order.
func (c *Calendar) TermIds() []string {
	ids := make([]string, 0, len(c.terms))
	for id := range c.terms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package timetable

import (
	"fmt"
	"time"
	"timetable-backend/internal/components/assert"
	"timetable-backend/internal/components/telemetry"
)

const (
	report_expander_unknown_season = "expander.unknown-season"
	report_expander_invalid_slot   = "expander.invalid-slot"
	report_expander_occurrences    = "expander.occurrences"
)

// Occurrence is a single dated class meeting.
type Occurrence struct {
	Course Course
	// Week is the week number as listed upstream, before any season offset.
	Week        int
	Weekday     int
	PeriodStart int
	PeriodCount int
	Classroom   string
	StartsAt    time.Time
	EndsAt      time.Time
	SingleWeek  bool
	DoubleWeek  bool
	Season      Season
	TermId      string
	Note        string
}

// Expander expands descriptors into occurrences using a calendar.
type Expander struct {
	calendar *Calendar
	tel      telemetry.API
}

func NewExpander(calendar *Calendar, tel telemetry.API) Expander {
	assert.NotNil(calendar)
	assert.NotNil(tel)
	return Expander{
		calendar: calendar,
		tel:      telemetry.NewScopedAPI("timetable", tel),
	}
}

// Expand produces one occurrence per (week, season) pair of every descriptor.
//
// An unknown term fails the whole expansion with *UnknownTermError. Descriptors
// with an unrecognized season label, no weeks or a slot outside of the period
// table produce no occurrences and are reported instead.
func (e Expander) Expand(descs []Descriptor, termId string) ([]Occurrence, error) {
	term, err := e.calendar.Lookup(termId)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	unknownSeasons := 0
	for _, desc := range descs {
		seasons, ok := DecodeSeasons(desc.SeasonLabel)
		if !ok {
			unknownSeasons++
			e.tel.ReportWarning(
				report_expander_unknown_season,
				fmt.Sprintf("season label %q", desc.SeasonLabel),
				desc.Course.Name,
			)
			continue
		}
		occurrences, err := expandOne(desc, term, seasons)
		if err != nil {
			e.tel.ReportWarning(report_expander_invalid_slot, err, desc.Course.Name)
			continue
		}
		out = append(out, occurrences...)
	}

	if unknownSeasons > 0 {
		e.tel.ReportCount(report_expander_unknown_season, int64(unknownSeasons))
	}
	e.tel.ReportCount(report_expander_occurrences, int64(len(out)))
	return out, nil
}

func expandOne(desc Descriptor, term Term, seasons []Season) ([]Occurrence, error) {
	if desc.Weekday < 1 || desc.Weekday > 7 {
		return nil, fmt.Errorf("weekday %d out of range", desc.Weekday)
	}
	if desc.PeriodStart < 1 || desc.PeriodCount < 1 {
		return nil, fmt.Errorf("invalid periods %d+%d", desc.PeriodStart, desc.PeriodCount)
	}
	last := desc.PeriodStart + desc.PeriodCount - 1
	if last > len(term.Periods) {
		return nil, fmt.Errorf(
			"periods %d-%d exceed the %d periods of term %s",
			desc.PeriodStart, last, len(term.Periods), term.Id,
		)
	}
	first := term.Periods[desc.PeriodStart-1]
	end := term.Periods[last-1]

	out := make([]Occurrence, 0, len(desc.Weeks)*len(seasons))
	for _, week := range desc.Weeks {
		for _, season := range seasons {
			effective := week + season.weekOffset()
			date := term.StartMonday.AddDate(0, 0, 7*(effective-1)+(desc.Weekday-1))
			out = append(out, Occurrence{
				Course:      desc.Course,
				Week:        week,
				Weekday:     desc.Weekday,
				PeriodStart: desc.PeriodStart,
				PeriodCount: desc.PeriodCount,
				Classroom:   desc.Classroom,
				StartsAt:    first.Start.On(date),
				EndsAt:      end.End.On(date),
				SingleWeek:  desc.Parity == ParityOdd,
				DoubleWeek:  desc.Parity == ParityEven,
				Season:      season,
				TermId:      term.Id,
				Note:        desc.Note,
			})
		}
	}
	return out, nil
}

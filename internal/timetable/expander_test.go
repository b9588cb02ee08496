package timetable

import (
	"errors"
	"testing"
	"time"
	"timetable-backend/internal/components/telemetry"
	"timetable-backend/internal/scrapers/zdbk"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func sortOccurrences(a, b Occurrence) bool {
	if !a.StartsAt.Equal(b.StartsAt) {
		return a.StartsAt.Before(b.StartsAt)
	}
	return a.Course.Code < b.Course.Code
}

func TestExpandSingle(t *testing.T) {
	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})

	occurrences, err := expander.Expand([]Descriptor{{
		Course:      Course{Code: "211G0210", Name: "高等数学"},
		Weeks:       []int{1},
		Weekday:     1,
		PeriodStart: 1,
		PeriodCount: 1,
		SeasonLabel: "秋",
	}}, "2025-2026-1")
	require.NoError(t, err)
	require.Len(t, occurrences, 1)

	loc := shanghai(t)
	occ := occurrences[0]
	require.Equal(t, time.Date(2025, 9, 15, 8, 0, 0, 0, loc), occ.StartsAt)
	require.Equal(t, time.Date(2025, 9, 15, 8, 45, 0, 0, loc), occ.EndsAt)
	require.Equal(t, SeasonAutumn, occ.Season)
	require.Equal(t, "2025-2026-1", occ.TermId)
	require.Equal(t, 1, occ.Week)
}

func TestExpandPeriodSpan(t *testing.T) {
	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})

	occurrences, err := expander.Expand([]Descriptor{{
		Weeks:       []int{2},
		Weekday:     3,
		PeriodStart: 3,
		PeriodCount: 2,
		SeasonLabel: "秋",
	}}, "2025-2026-1")
	require.NoError(t, err)
	require.Len(t, occurrences, 1)

	loc := shanghai(t)
	require.Equal(t, time.Date(2025, 9, 24, 10, 0, 0, 0, loc), occurrences[0].StartsAt)
	require.Equal(t, time.Date(2025, 9, 24, 11, 35, 0, 0, loc), occurrences[0].EndsAt)
}

func TestExpandTwoSeasons(t *testing.T) {
	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})

	occurrences, err := expander.Expand([]Descriptor{{
		Weeks:       []int{1, 2},
		Weekday:     1,
		PeriodStart: 1,
		PeriodCount: 1,
		SeasonLabel: "秋冬",
	}}, "2025-2026-1")
	require.NoError(t, err)
	require.Len(t, occurrences, 4)

	loc := shanghai(t)
	starts := map[Season][]time.Time{}
	for _, occ := range occurrences {
		starts[occ.Season] = append(starts[occ.Season], occ.StartsAt)
	}
	require.Equal(t, []time.Time{
		time.Date(2025, 9, 15, 8, 0, 0, 0, loc),
		time.Date(2025, 9, 22, 8, 0, 0, 0, loc),
	}, starts[SeasonAutumn])
	// winter week 1 is the ninth week of the term
	require.Equal(t, []time.Time{
		time.Date(2025, 11, 10, 8, 0, 0, 0, loc),
		time.Date(2025, 11, 17, 8, 0, 0, 0, loc),
	}, starts[SeasonWinter])
}

func TestExpandParityFlags(t *testing.T) {
	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})

	desc := ParseEntry(zdbk.RawEntry{
		Label:       text("线性代数<br>春夏{第1-4,6周|双周}<br>李四<br>紫金港西1-202"),
		Weekday:     text("2"),
		StartPeriod: text("6"),
		TermLabel:   text("春夏"),
	})
	occurrences, err := expander.Expand([]Descriptor{desc}, "2025-2026-2")
	require.NoError(t, err)
	require.Len(t, occurrences, 6)
	for _, occ := range occurrences {
		require.True(t, occ.DoubleWeek)
		require.False(t, occ.SingleWeek)
		require.Equal(t, 0, occ.Week%2)
		require.Equal(t, "紫金港西1-202", occ.Classroom)
	}
}

func TestExpandIdempotent(t *testing.T) {
	entries, err := zdbk.ExtractEntries(`{"kbList":[` +
		`{"kcb":"高等数学<br>秋冬{第1-8周|2节/周}<br>张三<br>紫金港东1A-101zwf","xqj":1,"djj":"1","xkkh":"(2025-2026-1)-211G0210-0094081-1","xxq":"秋冬"},` +
		`{"kcb":"高等数学<br>秋冬{第1-8周|2节/周}<br>张三<br>紫金港东1A-101zwf","xqj":1,"djj":"1","xkkh":"(2025-2026-1)-211G0210-0094081-1","xxq":"秋冬"},` +
		`{"kcb":"体育<br>秋{第2-8周|单周}<br>赵六<br>紫金港风雨操场","xqj":"5","djj":"3","xxq":"秋"}` +
		`],"xh":"3200100000"}`)
	require.NoError(t, err)
	descs := ParseEntries(entries)

	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})
	first, err := expander.Expand(descs, "2025-2026-1")
	require.NoError(t, err)
	// duplicated entries are kept, 2 * 8 weeks * 2 seasons + 3 odd weeks
	require.Len(t, first, 35)

	reversed := make([]Descriptor, len(descs))
	for i, d := range descs {
		reversed[len(descs)-1-i] = d
	}
	second, err := expander.Expand(reversed, "2025-2026-1")
	require.NoError(t, err)

	diff := cmp.Diff(first, second, cmpopts.SortSlices(sortOccurrences))
	require.Empty(t, diff)
}

func TestExpandUnknownSeason(t *testing.T) {
	tel := &telemetry.Recorder{}
	expander := NewExpander(defaultCalendar(t), tel)

	occurrences, err := expander.Expand([]Descriptor{{
		Course:      Course{Name: "短学期实践"},
		Weeks:       []int{1},
		Weekday:     1,
		PeriodStart: 1,
		PeriodCount: 1,
		SeasonLabel: "短",
	}}, "2025-2026-1")
	require.NoError(t, err)
	require.Empty(t, occurrences)
	require.Len(t, tel.Find("warning", "timetable: expander.unknown-season"), 1)
	require.Len(t, tel.Find("count", "timetable: expander.unknown-season"), 1)
}

func TestExpandInvalidSlot(t *testing.T) {
	tel := &telemetry.Recorder{}
	expander := NewExpander(defaultCalendar(t), tel)

	occurrences, err := expander.Expand([]Descriptor{
		{Weeks: []int{1}, Weekday: 1, PeriodStart: 13, PeriodCount: 2, SeasonLabel: "秋"},
		{Weeks: []int{1}, Weekday: 0, PeriodStart: 1, PeriodCount: 1, SeasonLabel: "秋"},
		{Weeks: []int{1}, Weekday: 8, PeriodStart: 1, PeriodCount: 1, SeasonLabel: "秋"},
		{Weeks: []int{1}, Weekday: 1, PeriodStart: 0, PeriodCount: 1, SeasonLabel: "秋"},
		{Weeks: []int{1}, Weekday: 1, PeriodStart: 13, PeriodCount: 1, SeasonLabel: "秋"},
	}, "2025-2026-1")
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	require.Len(t, tel.Find("warning", "timetable: expander.invalid-slot"), 4)
}

func TestExpandNoWeeks(t *testing.T) {
	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})
	occurrences, err := expander.Expand([]Descriptor{{
		Weekday:     1,
		PeriodStart: 1,
		PeriodCount: 1,
		SeasonLabel: "秋冬",
	}}, "2025-2026-1")
	require.NoError(t, err)
	require.Empty(t, occurrences)
}

func TestExpandUnknownTerm(t *testing.T) {
	expander := NewExpander(defaultCalendar(t), telemetry.SlogAPI{})
	_, err := expander.Expand(nil, "2030-2031-1")
	var unknown *UnknownTermError
	require.True(t, errors.As(err, &unknown), "expected UnknownTermError, got %v", err)
}

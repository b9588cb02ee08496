// Package timetable turns raw portal entries into dated class occurrences.
package timetable

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"timetable-backend/internal/scrapers/zdbk"
	"timetable-backend/lib/htmlutil"
)

// maxWeek bounds week ranges, anything past it is upstream garbage.
const maxWeek = 52

var (
	braceRegex       = regexp.MustCompile(`\{([^}]*)\}`)
	weekPhraseRegex  = regexp.MustCompile(`第\s*([\d,\-\s，]+)\s*周`)
	periodCountRegex = regexp.MustCompile(`(\d+)\s*节`)
	examRegex        = regexp.MustCompile(`\(\d{4}年\d{2}月\d{2}日\(\d{2}:\d{2}-\d{2}:\d{2}\)\)`)
	markerRegex      = regexp.MustCompile(`(?:zwf)+\s*$`)
)

type Course struct {
	// Code is the course code from the selection key, or the course name when
	// the entry has no key.
	Code    string
	Name    string
	Teacher string
}

// Descriptor is the structured form of a raw entry. Fields missing upstream are
// left at their zero value.
type Descriptor struct {
	Course    Course
	Classroom string
	// Note is the exam schedule found on the classroom line, if any.
	Note string

	// WeekText is the week phrase as found, like 第1-8周.
	WeekText string
	// Weeks is sorted, deduplicated and already filtered by Parity.
	Weeks       []int
	Parity      Parity
	Weekday     int
	PeriodStart int
	PeriodCount int

	// SeasonLabel is the half-year label, like 秋冬.
	SeasonLabel string
	// TermId is the term named by the selection key.
	TermId string
}

func splitLines(label string) []string {
	normalized := strings.TrimSpace(htmlutil.BreaksToNewlines(label))
	if normalized == "" {
		return nil
	}
	lines := strings.Split(normalized, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

func line(lines []string, n int) (string, bool) {
	if n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// ParseWeeks expands a week phrase like 第1-4,6周 into week numbers. Unparsable
// parts are skipped.
func ParseWeeks(text string, parity Parity) []int {
	text = strings.NewReplacer("第", "", "周", "", "，", ",").Replace(text)

	set := map[int]struct{}{}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		if !isRange {
			to = from
		}
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			continue
		}
		if a < 1 || b > maxWeek || a > b {
			continue
		}
		for w := a; w <= b; w++ {
			if parity.allows(w) {
				set[w] = struct{}{}
			}
		}
	}

	weeks := make([]int, 0, len(set))
	for w := range set {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// parseSchedule reads the week phrase, period count and parity off of the
// second line of a label.
func parseSchedule(s string) (weekText string, weeks []int, parity Parity, periodCount int) {
	block := s
	if groups := braceRegex.FindStringSubmatch(s); groups != nil {
		block = groups[1]
	}

	switch {
	case strings.Contains(block, "单周"):
		parity = ParityOdd
	case strings.Contains(block, "双周"):
		parity = ParityEven
	}

	if groups := weekPhraseRegex.FindStringSubmatch(block); groups != nil {
		weekText = groups[0]
		weeks = ParseWeeks(groups[1], parity)
	}
	if groups := periodCountRegex.FindStringSubmatch(block); groups != nil {
		n, err := strconv.Atoi(groups[1])
		if err == nil && n > 0 {
			periodCount = n
		}
	}
	return weekText, weeks, parity, periodCount
}

// parseClassroom strips the exam schedule and trailing seat markers off of the
// classroom line, the exam schedule is returned as the note.
func parseClassroom(s string) (classroom string, note string) {
	if exam := examRegex.FindString(s); exam != "" {
		note = strings.TrimSuffix(strings.TrimPrefix(exam, "("), ")")
		s = strings.Replace(s, exam, "", 1)
	}
	s = strings.TrimSpace(s)
	s = markerRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s), note
}

// ParseEntry decodes a raw entry. It never fails, missing or malformed parts
// leave the matching fields empty.
func ParseEntry(entry zdbk.RawEntry) Descriptor {
	var desc Descriptor

	label, _ := entry.Label.Value()
	lines := splitLines(label)

	desc.Course.Name, _ = line(lines, 1)
	if l, ok := line(lines, 2); ok {
		desc.WeekText, desc.Weeks, desc.Parity, desc.PeriodCount = parseSchedule(l)
	}
	desc.Course.Teacher, _ = line(lines, 3)
	if l, ok := line(lines, 4); ok {
		desc.Classroom, desc.Note = parseClassroom(l)
	}

	if desc.PeriodCount == 0 {
		desc.PeriodCount = 1
		if n, ok := entry.Duration.Int(); ok && n > 0 {
			desc.PeriodCount = n
		}
	}
	desc.Weekday, _ = entry.Weekday.Int()
	desc.PeriodStart, _ = entry.StartPeriod.Int()
	desc.SeasonLabel, _ = entry.TermLabel.Value()
	desc.SeasonLabel = strings.TrimSpace(desc.SeasonLabel)

	if key, ok := entry.Key.Value(); ok {
		if termId, code, ok := zdbk.ParseKey(key); ok {
			desc.TermId = termId
			desc.Course.Code = code
		}
	}
	if desc.Course.Code == "" {
		desc.Course.Code = desc.Course.Name
	}
	return desc
}

// ParseEntries decodes every entry, order is preserved.
func ParseEntries(entries []zdbk.RawEntry) []Descriptor {
	out := make([]Descriptor, len(entries))
	for i, e := range entries {
		out[i] = ParseEntry(e)
	}
	return out
}

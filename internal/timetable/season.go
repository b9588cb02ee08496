package timetable

import (
	"fmt"
	"strings"
)

// Season is one quarter of the academic year. The first half of the year is
// autumn followed by winter, the second half is spring followed by summer.
type Season string

const (
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
)

// weekOffset is how many weeks into its half-year a season starts, the second
// season of a half numbers its weeks from 1 again but begins after the first.
func (s Season) weekOffset() int {
	switch s {
	case SeasonWinter, SeasonSummer:
		return 8
	default:
		return 0
	}
}

// Label is the upstream name of the season.
func (s Season) Label() string {
	switch s {
	case SeasonAutumn:
		return "秋"
	case SeasonWinter:
		return "冬"
	case SeasonSpring:
		return "春"
	case SeasonSummer:
		return "夏"
	}
	return ""
}

// ParseSeason accepts both the english name and the upstream label.
func ParseSeason(s string) (Season, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, season := range []Season{SeasonAutumn, SeasonWinter, SeasonSpring, SeasonSummer} {
		if s == string(season) || s == season.Label() {
			return season, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// DecodeSeasons maps a half-year label to the seasons it covers.
//
//   - 秋冬 -> autumn, winter
//   - 春夏 -> spring, summer
//   - 秋, 冬, 春 or 夏 alone -> that season
//
// Anything else (including an empty label) decodes to no seasons and ok=false,
// callers decide what to do with such entries.
func DecodeSeasons(label string) (seasons []Season, ok bool) {
	label = strings.TrimSpace(label)
	switch {
	case strings.Contains(label, "秋冬"):
		return []Season{SeasonAutumn, SeasonWinter}, true
	case strings.Contains(label, "春夏"):
		return []Season{SeasonSpring, SeasonSummer}, true
	case label == "秋":
		return []Season{SeasonAutumn}, true
	case label == "冬":
		return []Season{SeasonWinter}, true
	case label == "春":
		return []Season{SeasonSpring}, true
	case label == "夏":
		return []Season{SeasonSummer}, true
	default:
		return nil, false
	}
}

// Parity restricts a course to odd or even weeks.
type Parity int

const (
	ParityNone Parity = iota
	// ParityOdd is marked 单周 upstream.
	ParityOdd
	// ParityEven is marked 双周 upstream.
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return "none"
	}
}

func (p Parity) allows(week int) bool {
	switch p {
	case ParityOdd:
		return week%2 == 1
	case ParityEven:
		return week%2 == 0
	default:
		return true
	}
}

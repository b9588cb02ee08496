package zdbk

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is an academic half-year, written `<year>-<year+1>-<half>` like 2025-2026-1.
type Term struct {
	StartYear int
	// Half is 1 for autumn-winter and 2 for spring-summer.
	Half int
}

func ParseTerm(id string) (Term, error) {
	parts := strings.Split(strings.TrimSpace(id), "-")
	if len(parts) != 3 {
		return Term{}, fmt.Errorf("invalid term identifier %q", id)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return Term{}, fmt.Errorf("invalid term identifier %q: %w", id, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return Term{}, fmt.Errorf("invalid term identifier %q: %w", id, err)
	}
	if end != start+1 {
		return Term{}, fmt.Errorf("invalid term identifier %q: years are not consecutive", id)
	}
	half, err := strconv.Atoi(parts[2])
	if err != nil || (half != 1 && half != 2) {
		return Term{}, fmt.Errorf("invalid term identifier %q: half must be 1 or 2", id)
	}
	return Term{StartYear: start, Half: half}, nil
}

func (t Term) String() string {
	return fmt.Sprintf("%d-%d-%d", t.StartYear, t.StartYear+1, t.Half)
}

// QueryParams returns the academic year (xnm) and half-year code (xqm) the portal
// expects for this term.
func (t Term) QueryParams() (xnm string, xqm string) {
	xnm = strconv.Itoa(t.StartYear)
	if t.Half == 1 {
		return xnm, "3"
	}
	return xnm, "12"
}

// halfOfLabel tells which half a season label like 秋冬 or 春 belongs to.
// Labels naming no season (or seasons from both halves) are unknown.
func halfOfLabel(label string) (half int, known bool) {
	first := strings.ContainsAny(label, "秋冬")
	second := strings.ContainsAny(label, "春夏")
	switch {
	case first && !second:
		return 1, true
	case second && !first:
		return 2, true
	default:
		return 0, false
	}
}

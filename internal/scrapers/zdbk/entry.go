package zdbk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Text is a loosely typed upstream scalar, the portal sends the same field as a
// string in some records and as a number in others.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*t = Text(n.String())
	return nil
}

// Value returns the value, a nil receiver means the field was absent.
func (t *Text) Value() (string, bool) {
	if t == nil {
		return "", false
	}
	return string(*t), true
}

// Int parses the value as an integer, absent or unparsable values report false.
func (t *Text) Int() (int, bool) {
	s, ok := t.Value()
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// RawEntry is one schedule record as returned by the portal. Every field is
// optional, a nil field was absent (or null) upstream.
type RawEntry struct {
	// Label is the course label block, lines separated with <br>.
	Label *Text `json:"kcb,omitempty"`
	// Weekday is 1 (Monday) through 7 (Sunday).
	Weekday *Text `json:"xqj,omitempty"`
	// StartPeriod is the 1-based index of the first period.
	StartPeriod *Text `json:"djj,omitempty"`
	// Duration is the number of periods the class lasts, only a hint.
	Duration *Text `json:"skcd,omitempty"`
	// Key is the course selection key, like (2025-2026-1)-211G0210-0094081-1.
	Key *Text `json:"xkkh,omitempty"`
	// TermLabel is the season grouping, like 秋冬, 春 or 夏.
	TermLabel *Text `json:"xxq,omitempty"`
}

// UnmarshalJSON decodes the fields one by one, a field holding anything but a
// string or a number is left absent instead of failing the whole list.
func (e *RawEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return err
	}
	*e = RawEntry{
		Label:       optionalText(fields["kcb"]),
		Weekday:     optionalText(fields["xqj"]),
		StartPeriod: optionalText(fields["djj"]),
		Duration:    optionalText(fields["skcd"]),
		Key:         optionalText(fields["xkkh"]),
		TermLabel:   optionalText(fields["xxq"]),
	}
	return nil
}

func optionalText(raw json.RawMessage) *Text {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var t Text
	if t.UnmarshalJSON(raw) != nil {
		return nil
	}
	return &t
}

var keyRegex = regexp.MustCompile(`^\s*\((\d{4}-\d{4}-[12])\)-([^-\s]+)`)

// ParseKey splits a course selection key into its term identifier and course code.
func ParseKey(key string) (termId string, courseCode string, ok bool) {
	groups := keyRegex.FindStringSubmatch(key)
	if len(groups) < 3 {
		return "", "", false
	}
	return groups[1], groups[2], true
}

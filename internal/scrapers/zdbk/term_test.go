package zdbk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	term, err := ParseTerm("2025-2026-1")
	require.NoError(t, err)
	require.Equal(t, Term{StartYear: 2025, Half: 1}, term)
	require.Equal(t, "2025-2026-1", term.String())

	xnm, xqm := term.QueryParams()
	require.Equal(t, "2025", xnm)
	require.Equal(t, "3", xqm)

	term, err = ParseTerm("2024-2025-2")
	require.NoError(t, err)
	xnm, xqm = term.QueryParams()
	require.Equal(t, "2024", xnm)
	require.Equal(t, "12", xqm)

	for _, invalid := range []string{
		"",
		"2025-2026",
		"2025-2027-1",
		"2025-2026-3",
		"abcd-2026-1",
		"2025-2026-1-1",
	} {
		_, err := ParseTerm(invalid)
		require.Error(t, err, invalid)
	}
}

func TestParseKey(t *testing.T) {
	termId, code, ok := ParseKey("(2025-2026-1)-211G0210-0094081-1")
	require.True(t, ok)
	require.Equal(t, "2025-2026-1", termId)
	require.Equal(t, "211G0210", code)

	_, _, ok = ParseKey("211G0210-0094081-1")
	require.False(t, ok)
	_, _, ok = ParseKey("")
	require.False(t, ok)
}

func TestHalfOfLabel(t *testing.T) {
	cases := []struct {
		label string
		half  int
		known bool
	}{
		{"秋冬", 1, true},
		{"秋", 1, true},
		{"冬", 1, true},
		{"春夏", 2, true},
		{"夏", 2, true},
		{"短", 0, false},
		{"", 0, false},
		{"秋冬春夏", 0, false},
	}
	for _, c := range cases {
		half, known := halfOfLabel(c.label)
		require.Equal(t, c.known, known, c.label)
		require.Equal(t, c.half, half, c.label)
	}
}

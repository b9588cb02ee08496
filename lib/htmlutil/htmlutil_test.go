package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInputValue(t *testing.T) {
	doc, err := ParseDocument([]byte(`<html><body><form>
		<input type="hidden" name="execution" value="e1s1-abc">
		<input type="hidden" name="_eventId" value="submit">
		<input name="empty" value="">
	</form>`))
	require.NoError(t, err)

	value, ok := InputValue(doc, "execution")
	require.True(t, ok)
	require.Equal(t, "e1s1-abc", value)

	_, ok = InputValue(doc, "empty")
	require.False(t, ok)
	_, ok = InputValue(doc, "missing")
	require.False(t, ok)
}

func TestBreaksToNewlines(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "a<br>b", expected: "a\nb"},
		{input: "a<BR/>b<br />c", expected: "a\nb\nc"},
		{input: "R&amp;D&nbsp;lab", expected: "R&D lab"},
		{input: "room\u00a0101", expected: "room 101"},
		{input: "no breaks", expected: "no breaks"},
	}
	for _, row := range table {
		require.Equal(t, row.expected, BreaksToNewlines(row.input))
	}
}

func TestSnippet(t *testing.T) {
	body := "<html>\n  <head>JSESSIONID=ABCDEF123; route=xyz</head>" + strings.Repeat("x", 500)
	snippet := Snippet(body, 60)
	require.NotContains(t, snippet, "ABCDEF123")
	require.NotContains(t, snippet, "xyz")
	require.Contains(t, snippet, "JSESSIONID=<redacted>")
	require.True(t, strings.HasSuffix(snippet, "..."))
	require.Equal(t, 63, len([]rune(snippet)))

	require.Equal(t, "short body", Snippet("  short\n\tbody ", 60))
}

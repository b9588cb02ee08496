package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseDocument parses an html body, upstream markup is rarely well-formed
// but the html5 parser recovers from it.
func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(body))
}

// InputValue returns the value of the first <input> with the given name attribute.
func InputValue(doc *goquery.Document, name string) (string, bool) {
	value, exists := doc.Find("input[name=" + name + "]").First().Attr("value")
	if !exists || value == "" {
		return "", false
	}
	return value, true
}

var lineBreakRegex = regexp.MustCompile(`(?i)<br\s*/?>`)

// BreaksToNewlines turns <br> tags into literal newlines and decodes html entities.
func BreaksToNewlines(s string) string {
	s = lineBreakRegex.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = html.UnescapeString(s)
	return strings.ReplaceAll(s, "\u00a0", " ")
}

var (
	innerWhitespace = regexp.MustCompile(`\s+`)
	cookieLike      = regexp.MustCompile(`(?i)(JSESSIONID|route|iPlanetDirectoryPro)=[^;"'\s&<>]+`)
)

// Snippet returns at most `limit` runes of body on a single line with anything
// that looks like a session cookie redacted, for use in error messages.
func Snippet(body string, limit int) string {
	body = innerWhitespace.ReplaceAllString(body, " ")
	body = cookieLike.ReplaceAllString(body, "$1=<redacted>")
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "..."
}

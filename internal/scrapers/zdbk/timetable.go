package zdbk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"timetable-backend/lib/htmlutil"
)

var kbListRegex = regexp.MustCompile(`(?s)"kbList":(\[.*?\]),"xh"`)

// ExtractEntries pulls the kbList array out of a timetable response body and
// decodes it. The body is not guaranteed to be valid json as a whole, so only the
// array itself is decoded.
func ExtractEntries(body string) ([]RawEntry, error) {
	groups := kbListRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		return nil, &FetchError{
			Reason:  "response has no kbList",
			Snippet: htmlutil.Snippet(body, snippetLength),
		}
	}
	var entries []RawEntry
	err := json.Unmarshal([]byte(groups[1]), &entries)
	if err != nil {
		return nil, &FetchError{
			Reason:  "decode kbList",
			Snippet: htmlutil.Snippet(groups[1], snippetLength),
			Err:     err,
		}
	}
	return entries, nil
}

// FilterEntries drops entries that certainly belong to another term. Either
// mismatch is enough: an entry is dropped when its key names a different term,
// even one from the same half of an earlier year, or when its season label names
// the other half of the year. A missing or unreadable field never drops an entry.
func FilterEntries(entries []RawEntry, term Term) []RawEntry {
	termId := term.String()
	out := make([]RawEntry, 0, len(entries))
	for _, e := range entries {
		if key, ok := e.Key.Value(); ok {
			keyTerm, _, parsed := ParseKey(key)
			if parsed && keyTerm != termId {
				continue
			}
		}
		if label, ok := e.TermLabel.Value(); ok {
			half, known := halfOfLabel(label)
			if known && half != term.Half {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// FetchTimetable queries the portal for the raw timetable of the given term.
// With strict set, entries belonging to other terms are filtered out.
func (c *Client) FetchTimetable(ctx context.Context, session Session, termId string, strict bool) ([]RawEntry, error) {
	term, err := ParseTerm(termId)
	if err != nil {
		return nil, &FetchError{Reason: "invalid term", Err: err}
	}
	xnm, xqm := term.QueryParams()

	httpClient, err := c.newHttpClient(c.opts.PortalBaseUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_timetable, fmt.Errorf("new http client: %w", err))
		return nil, &FetchError{Reason: "create http client", Err: err}
	}

	res, err := httpClient.R().
		SetContext(ctx).
		SetCookies([]*http.Cookie{
			{Name: SessionCookie, Value: session.SessionId},
			{Name: RouteCookie, Value: session.Route},
		}).
		SetHeader("accept", "application/json, text/javascript, */*; q=0.01").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetHeader("origin", c.opts.PortalBaseUrl).
		SetHeader("referer", c.opts.PortalBaseUrl+indexPath).
		SetFormData(map[string]string{
			"xnm": xnm,
			"xqm": xqm,
		}).
		Post(timetablePath)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_timetable, fmt.Errorf("timetable request: %w", err), termId)
		return nil, &FetchError{Reason: "portal unreachable", Err: err}
	}

	body := res.String()
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		snippet := htmlutil.Snippet(body, snippetLength)
		c.tel.ReportWarning(
			report_client_fetch_timetable,
			fmt.Errorf("unexpected status %d", res.StatusCode()),
			termId,
			snippet,
		)
		return nil, &FetchError{
			Reason:  "unexpected status",
			Status:  res.StatusCode(),
			Snippet: snippet,
		}
	}

	entries, err := ExtractEntries(body)
	if err != nil {
		c.tel.ReportWarning(report_client_fetch_timetable, err, termId)
		if fe, ok := err.(*FetchError); ok {
			fe.Status = res.StatusCode()
			if looksLikeLogin(body) {
				fe.Reason = "portal session expired"
			}
		}
		return nil, err
	}
	c.tel.ReportCount(report_client_fetch_timetable, int64(len(entries)))

	if !strict {
		return entries, nil
	}
	filtered := FilterEntries(entries, term)
	if dropped := len(entries) - len(filtered); dropped > 0 {
		c.tel.ReportDebug(
			report_client_filter,
			"dropped entries of other terms",
			termId,
			dropped,
		)
	}
	return filtered, nil
}

// looksLikeLogin reports whether a portal response is the login page, which the
// portal serves with status 200 once a session expires.
func looksLikeLogin(body string) bool {
	return strings.Contains(body, "login_slogin") || strings.Contains(body, "cas/login")
}

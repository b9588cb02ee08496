package zdbk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"timetable-backend/internal/scrapers/upstream"
	"timetable-backend/internal/scrapers/zjuam"
	"timetable-backend/lib/htmlutil"
)

// serviceUrl is the portal endpoint the identity provider issues the service ticket for.
func (c *Client) serviceUrl() string {
	return c.opts.PortalBaseUrl + ssoLoginPath
}

// Exchange trades an sso token for a portal session. The identity provider answers
// with a redirect to the portal carrying a service ticket, that redirect is followed
// by hand exactly once and the portal's cookies are read off of its response.
//
// Both the session and route cookies must be present, otherwise *ExchangeError is
// returned. A stale token is the usual cause so nothing is retried here.
func (c *Client) Exchange(ctx context.Context, token string) (Session, error) {
	httpClient, err := c.newHttpClient(c.opts.SsoBaseUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_exchange, fmt.Errorf("new http client: %w", err))
		return Session{}, &ExchangeError{Reason: "create http client", Err: err}
	}

	loginUrl := fmt.Sprintf(
		"%s/cas/login?service=%s",
		c.opts.SsoBaseUrl,
		url.QueryEscape(c.serviceUrl()),
	)
	tokenCookie := &http.Cookie{Name: zjuam.TokenCookie, Value: token}

	res, err := httpClient.R().
		SetContext(ctx).
		SetCookie(tokenCookie).
		Get(loginUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_exchange, fmt.Errorf("service ticket request: %w", err))
		return Session{}, &ExchangeError{Reason: "identity provider unreachable", Err: err}
	}

	location := res.Header().Get("location")
	if location == "" {
		c.tel.ReportWarning(
			report_client_exchange,
			fmt.Errorf("no location header (status %d)", res.StatusCode()),
			htmlutil.Snippet(res.String(), snippetLength),
		)
		return Session{}, &ExchangeError{Reason: "no service ticket redirect, the sso token may have expired"}
	}
	target, err := res.RawResponse.Request.URL.Parse(location)
	if err != nil {
		c.tel.ReportBroken(report_client_exchange, fmt.Errorf("parse location: %w", err))
		return Session{}, &ExchangeError{Reason: "invalid service ticket redirect", Err: err}
	}
	// upstream sometimes redirects to plain http, the portal only serves https
	if strings.EqualFold(target.Scheme, "http") {
		target.Scheme = "https"
	}

	res, err = httpClient.R().
		SetContext(ctx).
		SetCookie(tokenCookie).
		SetHeader("referer", loginUrl).
		Get(target.String())
	if err != nil {
		c.tel.ReportBroken(report_client_exchange, fmt.Errorf("portal ticket request: %w", err))
		return Session{}, &ExchangeError{Reason: "portal unreachable", Err: err}
	}

	cookies := res.Cookies()
	sessionCookie, ok := upstream.FindCookie(cookies, SessionCookie, portalPath)
	if !ok {
		c.tel.ReportWarning(
			report_client_exchange,
			fmt.Errorf("portal did not set %s (status %d)", SessionCookie, res.StatusCode()),
		)
		return Session{}, &ExchangeError{Reason: fmt.Sprintf("portal did not set %s", SessionCookie)}
	}
	routeCookie, ok := upstream.FindCookie(cookies, RouteCookie, "")
	if !ok {
		c.tel.ReportWarning(
			report_client_exchange,
			fmt.Errorf("portal did not set %s (status %d)", RouteCookie, res.StatusCode()),
		)
		return Session{}, &ExchangeError{Reason: fmt.Sprintf("portal did not set %s", RouteCookie)}
	}

	return Session{
		SessionId: sessionCookie.Value,
		Route:     routeCookie.Value,
	}, nil
}

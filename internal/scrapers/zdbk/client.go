// Package zdbk talks to the academic affairs portal: it trades an sso token for a
// portal session and scrapes the raw timetable out of the portal.
package zdbk

import (
	"crypto/tls"
	"time"
	"timetable-backend/internal/components/assert"
	"timetable-backend/internal/components/telemetry"
	"timetable-backend/internal/scrapers/upstream"
	"timetable-backend/internal/scrapers/zjuam"

	"github.com/go-resty/resty/v2"
)

const (
	report_client_exchange        = "client.exchange"
	report_client_fetch_timetable = "client.fetch-timetable"
	report_client_filter          = "client.filter"
)

const (
	DefaultPortalBaseUrl = "https://zdbk.zju.edu.cn"

	SessionCookie = "JSESSIONID"
	RouteCookie   = "route"

	portalPath        = "/jwglxt"
	ssoLoginPath      = "/jwglxt/xtgl/login_ssologin.html"
	indexPath         = "/jwglxt/xtgl/index_initMenu.html"
	timetablePath     = "/jwglxt/kbcx/xskbcx_cxXsKb.html"
	snippetLength     = 200
	defaultSsoBaseUrl = zjuam.DefaultBaseUrl
)

type Options struct {
	// SsoBaseUrl is the identity provider, it defaults to zjuam.DefaultBaseUrl.
	SsoBaseUrl string
	// PortalBaseUrl defaults to DefaultPortalBaseUrl.
	PortalBaseUrl    string
	Timeout          time.Duration
	BrowserTransport bool
	TLSConfig        *tls.Config
}

// Session is the portal's own session, derived from an sso token. It is shorter
// lived than the token so it is never cached.
type Session struct {
	SessionId string
	Route     string
}

// Client exchanges sso tokens and fetches timetables. Like zjuam.Client it keeps
// no state between calls.
type Client struct {
	opts Options
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	if opts.SsoBaseUrl == "" {
		opts.SsoBaseUrl = defaultSsoBaseUrl
	}
	if opts.PortalBaseUrl == "" {
		opts.PortalBaseUrl = DefaultPortalBaseUrl
	}
	return &Client{
		opts: opts,
		tel:  telemetry.NewScopedAPI("zdbk_scraper", tel),
	}
}

func (c *Client) newHttpClient(baseUrl string) (*resty.Client, error) {
	return upstream.NewClient(upstream.ClientOptions{
		BaseUrl:          baseUrl,
		Timeout:          c.opts.Timeout,
		BrowserTransport: c.opts.BrowserTransport,
		TracerName:       "timetable.scrapers.zdbk",
		TLSConfig:        c.opts.TLSConfig,
	}, c.tel)
}

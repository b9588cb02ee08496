// Package upstream holds the http client setup shared by the identity provider and
// academic portal scrapers.
package upstream

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"time"
	"timetable-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single hop, upstream is slow but never legitimately
// slower than this.
const DefaultTimeout = 12 * time.Second

type ClientOptions struct {
	BaseUrl string
	// Timeout is applied per request, zero means DefaultTimeout.
	Timeout time.Duration
	// BrowserTransport wraps the transport so requests carry the headers and TLS
	// fingerprint of a regular browser.
	BrowserTransport bool
	// TracerName is the otel tracer the requests are reported under.
	TracerName string
	// TLSConfig overrides the default tls configuration, tests use it to trust
	// their own certificates.
	TLSConfig *tls.Config
}

// NewClient creates a resty client with its own cookie jar that never follows redirects.
// Clients are meant to live for a single pipeline run.
func NewClient(opts ClientOptions, tel telemetry.API) (*resty.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(timeout)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.TLSConfig != nil {
		httpClient.SetTLSClientConfig(opts.TLSConfig)
	}
	if opts.BrowserTransport {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", UserAgent)
	httpClient.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpClient.SetRedirectPolicy(NoRedirects())

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	tracerName := opts.TracerName
	if tracerName == "" {
		tracerName = "timetable.scrapers"
	}
	telemetry.InstrumentResty(httpClient, tracerName, tel)

	return httpClient, nil
}

// NoRedirects makes the client hand back 3xx responses as-is, the handshakes
// read cookies and Location headers off of the redirect responses themselves.
func NoRedirects() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	})
}

// FindCookie returns the first cookie with the given name, and when path is
// non-empty, the given path.
func FindCookie(cookies []*http.Cookie, name, path string) (*http.Cookie, bool) {
	for _, c := range cookies {
		if c.Name != name || c.Value == "" {
			continue
		}
		if path != "" && c.Path != "" && c.Path != path {
			continue
		}
		return c, true
	}
	return nil, false
}

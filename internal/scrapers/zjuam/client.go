// Package zjuam logs into the campus identity provider (CAS) and yields the
// iPlanetDirectoryPro token that the other campus systems accept.
package zjuam

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
	"timetable-backend/internal/components/assert"
	"timetable-backend/internal/components/telemetry"
	"timetable-backend/internal/scrapers/upstream"
	"timetable-backend/lib/htmlutil"

	"github.com/go-resty/resty/v2"
)

const (
	report_client_login      = "client.login"
	report_client_get_pubkey = "client.get-pubkey"
)

const (
	DefaultBaseUrl = "https://zjuam.zju.edu.cn"

	// TokenCookie is the cookie the identity provider keeps the sso token in.
	TokenCookie = "iPlanetDirectoryPro"

	loginPath  = "/cas/login"
	pubkeyPath = "/cas/v2/getPubKey"
)

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl          string
	Timeout          time.Duration
	BrowserTransport bool
	TLSConfig        *tls.Config
}

// Client performs the identity provider login handshake, it holds no session
// state between calls. Every Login starts from an empty cookie jar.
type Client struct {
	opts Options
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	return &Client{
		opts: opts,
		tel:  telemetry.NewScopedAPI("zjuam_scraper", tel),
	}
}

type publicKey struct {
	Modulus  string `json:"modulus"`
	Exponent string `json:"exponent"`
}

// Login submits the username and password to the identity provider and returns
// the sso token. It fails with *ProtocolError when the login page no longer carries
// an execution token and with *AuthenticationError for everything else.
// No retries are done here.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	authError := func(reason string, err error) error {
		return &AuthenticationError{Reason: reason, Err: err}
	}

	httpClient, err := upstream.NewClient(upstream.ClientOptions{
		BaseUrl:          c.opts.BaseUrl,
		Timeout:          c.opts.Timeout,
		BrowserTransport: c.opts.BrowserTransport,
		TracerName:       "timetable.scrapers.zjuam",
		TLSConfig:        c.opts.TLSConfig,
	}, c.tel)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("new http client: %w", err))
		return "", authError("create http client", err)
	}

	res, err := httpClient.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login page request: %w", err))
		return "", authError("provider unreachable", err)
	}
	doc, err := htmlutil.ParseDocument(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse login page: %w", err))
		return "", authError("unexpected login page", err)
	}
	execution, ok := htmlutil.InputValue(doc, "execution")
	if !ok {
		err := &ProtocolError{Reason: fmt.Sprintf(
			"login page (status %d) has no execution token", res.StatusCode(),
		)}
		c.tel.ReportBroken(report_client_login, err)
		return "", err
	}

	key, err := c.getPublicKey(ctx, httpClient)
	if err != nil {
		return "", authError("fetch public key", err)
	}
	encrypted, err := EncryptPassword(password, key.Modulus, key.Exponent)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("encrypt password: %w", err))
		return "", authError("encrypt password", err)
	}

	loginUrl := c.opts.BaseUrl + loginPath
	res, err = httpClient.R().
		SetContext(ctx).
		SetHeader("origin", c.opts.BaseUrl).
		SetHeader("referer", loginUrl).
		SetFormData(map[string]string{
			"username":   username,
			"password":   encrypted,
			"execution":  execution,
			"_eventId":   "submit",
			"rememberMe": "true",
		}).
		Post(loginPath)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login request: %w", err))
		return "", authError("provider unreachable", err)
	}
	if res.StatusCode() >= 400 {
		c.tel.ReportWarning(report_client_login, fmt.Errorf("login response status %d", res.StatusCode()))
		return "", authError(fmt.Sprintf("login rejected with status %d", res.StatusCode()), nil)
	}

	// the provider is inconsistent about where the token ends up, sometimes it is
	// only in this response's headers and sometimes only in the jar.
	if cookie, ok := upstream.FindCookie(res.Cookies(), TokenCookie, ""); ok {
		return cookie.Value, nil
	}
	parsed, err := url.Parse(loginUrl)
	if err == nil {
		jar := httpClient.GetClient().Jar
		if cookie, ok := upstream.FindCookie(jar.Cookies(parsed), TokenCookie, ""); ok {
			return cookie.Value, nil
		}
	}

	c.tel.ReportWarning(
		report_client_login,
		fmt.Errorf("no %s cookie after login (status %d)", TokenCookie, res.StatusCode()),
	)
	return "", authError("wrong credentials or additional verification required", nil)
}

func (c *Client) getPublicKey(ctx context.Context, httpClient *resty.Client) (publicKey, error) {
	res, err := httpClient.R().
		SetContext(ctx).
		Get(pubkeyPath)
	if err != nil {
		c.tel.ReportBroken(report_client_get_pubkey, fmt.Errorf("fetch: %w", err))
		return publicKey{}, err
	}

	var key publicKey
	err = json.Unmarshal(res.Body(), &key)
	if err != nil {
		c.tel.ReportBroken(report_client_get_pubkey, fmt.Errorf("unmarshal json: %w", err), res.StatusCode())
		return publicKey{}, err
	}
	if key.Modulus == "" || key.Exponent == "" {
		err := fmt.Errorf("public key response is missing modulus or exponent")
		c.tel.ReportBroken(report_client_get_pubkey, err, res.StatusCode())
		return publicKey{}, err
	}
	return key, nil
}

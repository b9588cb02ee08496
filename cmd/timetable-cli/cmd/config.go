package cmd

import (
	"os"
	"time"
	"timetable-backend/internal/scrapers/upstream"
	"timetable-backend/internal/sessioncache"
	"timetable-backend/internal/timetable"
)

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpstreamConfig struct {
	// SsoBaseUrl is the identity provider, empty means the campus default.
	SsoBaseUrl string `json:"sso_base_url"`
	// PortalBaseUrl is the academic affairs portal, empty means the campus default.
	PortalBaseUrl    string `json:"portal_base_url"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	BrowserTransport bool   `json:"browser_transport"`
}

type SessionConfig struct {
	// the number of seconds an sso token is reused for
	TtlSeconds int `json:"ttl_seconds"`
	// the maximum number of cached tokens
	Size int `json:"size"`
}

type Config struct {
	Credentials CredentialsConfig        `json:"credentials"`
	Upstream    UpstreamConfig           `json:"upstream"`
	Session     SessionConfig            `json:"session"`
	Calendar    timetable.CalendarConfig `json:"calendar"`
	// the path to the sqlite database synced timetables are stored in
	Database string `json:"database"`
}

func defaultConfig() Config {
	return Config{
		Upstream: UpstreamConfig{
			TimeoutSeconds: int(upstream.DefaultTimeout / time.Second),
		},
		Session: SessionConfig{
			TtlSeconds: int(sessioncache.DefaultTTL / time.Second),
			Size:       sessioncache.DefaultSize,
		},
		Calendar: timetable.DefaultCalendarConfig(),
		Database: "data/timetable.db",
	}
}

// credentialsFromEnv lets ZJU_USERNAME and ZJU_PASSWORD override the config so
// passwords do not have to be written to disk.
func credentialsFromEnv(creds CredentialsConfig) CredentialsConfig {
	if username, ok := os.LookupEnv("ZJU_USERNAME"); ok {
		creds.Username = username
	}
	if password, ok := os.LookupEnv("ZJU_PASSWORD"); ok {
		creds.Password = password
	}
	return creds
}

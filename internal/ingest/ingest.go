// Package ingest runs the timetable pipeline for a user: login (or a cached
// token), portal session exchange, fetch, parse and expand.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"timetable-backend/internal/components/assert"
	"timetable-backend/internal/components/telemetry"
	"timetable-backend/internal/scrapers/zdbk"
	"timetable-backend/internal/sessioncache"
	"timetable-backend/internal/timetable"
)

const (
	report_ingestor_login    = "ingestor.login"
	report_ingestor_reauth   = "ingestor.reauth"
	report_ingestor_sync     = "ingestor.sync"
	report_ingestor_fetch    = "ingestor.fetch"
	report_ingestor_exchange = "ingestor.exchange"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type Exchanger interface {
	Exchange(ctx context.Context, token string) (zdbk.Session, error)
}

type Fetcher interface {
	FetchTimetable(ctx context.Context, session zdbk.Session, termId string, strict bool) ([]zdbk.RawEntry, error)
}

// Credentials identify a user. Password may be empty when the user is expected
// to have a cached token already.
type Credentials struct {
	Username string
	Password string
}

type Options struct {
	Authenticator Authenticator
	Exchanger     Exchanger
	Fetcher       Fetcher
	Cache         *sessioncache.Cache
	Calendar      *timetable.Calendar
	// TokenTTL is how long a fresh token is cached, zero means sessioncache.DefaultTTL.
	TokenTTL time.Duration
}

type Ingestor struct {
	auth     Authenticator
	exchange Exchanger
	fetch    Fetcher
	cache    *sessioncache.Cache
	calendar *timetable.Calendar
	expander timetable.Expander
	ttl      time.Duration
	tel      telemetry.API
}

func NewIngestor(opts Options, tel telemetry.API) *Ingestor {
	assert.NotNil(opts.Authenticator)
	assert.NotNil(opts.Exchanger)
	assert.NotNil(opts.Fetcher)
	assert.NotNil(opts.Cache)
	assert.NotNil(opts.Calendar)
	assert.NotNil(tel)

	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = sessioncache.DefaultTTL
	}
	return &Ingestor{
		auth:     opts.Authenticator,
		exchange: opts.Exchanger,
		fetch:    opts.Fetcher,
		cache:    opts.Cache,
		calendar: opts.Calendar,
		expander: timetable.NewExpander(opts.Calendar, tel),
		ttl:      ttl,
		tel:      telemetry.NewScopedAPI("ingest", tel),
	}
}

func (i *Ingestor) login(ctx context.Context, creds Credentials) (string, error) {
	if creds.Password == "" {
		return "", ErrNotLoggedIn
	}
	token, err := i.auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		i.tel.ReportWarning(report_ingestor_login, err, creds.Username)
		return "", err
	}
	return token, nil
}

// Login always performs a fresh login and caches the resulting token.
func (i *Ingestor) Login(ctx context.Context, creds Credentials) error {
	token, err := i.login(ctx, creds)
	if err != nil {
		return err
	}
	i.cache.Put(creds.Username, token, i.ttl)
	return nil
}

// Logout drops the cached token of the identity.
func (i *Ingestor) Logout(identity string) {
	i.cache.Evict(identity)
}

// token returns the token of the identity, cached reports whether it was read
// from the cache rather than issued by a login during this call.
func (i *Ingestor) token(ctx context.Context, creds Credentials) (token string, cached bool, err error) {
	if token, ok := i.cache.Get(creds.Username); ok {
		return token, true, nil
	}
	token, err = i.cache.GetOrRenew(ctx, creds.Username, i.ttl, func(ctx context.Context) (string, error) {
		return i.login(ctx, creds)
	})
	return token, false, err
}

// session derives a portal session. A cached token rejected by the portal is
// evicted and the login is retried once, the second failure is returned as is.
// A freshly issued token is never retried.
func (i *Ingestor) session(ctx context.Context, creds Credentials) (zdbk.Session, error) {
	token, cached, err := i.token(ctx, creds)
	if err != nil {
		return zdbk.Session{}, err
	}
	session, err := i.exchange.Exchange(ctx, token)
	if err == nil {
		return session, nil
	}

	var exchangeErr *zdbk.ExchangeError
	if !errors.As(err, &exchangeErr) {
		i.tel.ReportBroken(report_ingestor_exchange, err)
		return zdbk.Session{}, err
	}
	if !cached {
		i.tel.ReportWarning(report_ingestor_exchange, err, creds.Username)
		return zdbk.Session{}, err
	}

	i.tel.ReportDebug(report_ingestor_reauth, creds.Username, exchangeErr.Reason)
	i.cache.Evict(creds.Username)
	token, _, err = i.token(ctx, creds)
	if err != nil {
		return zdbk.Session{}, err
	}
	return i.exchange.Exchange(ctx, token)
}

// FetchRaw returns the raw entries of a term, an empty term id means the current
// term. strict=false skips the filtering of entries from other terms.
func (i *Ingestor) FetchRaw(ctx context.Context, creds Credentials, termId string, strict bool) ([]zdbk.RawEntry, error) {
	termId = i.calendar.Resolve(termId)
	if _, err := zdbk.ParseTerm(termId); err != nil {
		return nil, &timetable.UnknownTermError{TermId: termId}
	}

	session, err := i.session(ctx, creds)
	if err != nil {
		return nil, err
	}
	entries, err := i.fetch.FetchTimetable(ctx, session, termId, strict)
	if err != nil {
		i.tel.ReportWarning(report_ingestor_fetch, err, termId)
		return nil, err
	}
	return entries, nil
}

// Result is the outcome of a single pipeline run.
type Result struct {
	TermId      string
	Entries     []zdbk.RawEntry
	Descriptors []timetable.Descriptor
	Occurrences []timetable.Occurrence
}

// Sync runs the whole pipeline for a term. The term calendar is checked before
// anything is fetched.
func (i *Ingestor) Sync(ctx context.Context, creds Credentials, termId string) (Result, error) {
	termId = i.calendar.Resolve(termId)
	if _, err := i.calendar.Lookup(termId); err != nil {
		return Result{}, err
	}

	entries, err := i.FetchRaw(ctx, creds, termId, true)
	if err != nil {
		return Result{}, err
	}
	descs := timetable.ParseEntries(entries)
	occurrences, err := i.expander.Expand(descs, termId)
	if err != nil {
		return Result{}, fmt.Errorf("expand %s: %w", termId, err)
	}

	i.tel.ReportCount(report_ingestor_sync, int64(len(occurrences)))
	return Result{
		TermId:      termId,
		Entries:     entries,
		Descriptors: descs,
		Occurrences: occurrences,
	}, nil
}

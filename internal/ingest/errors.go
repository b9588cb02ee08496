package ingest

import (
	"errors"
	"timetable-backend/internal/scrapers/zdbk"
	"timetable-backend/internal/scrapers/zjuam"
)

// ErrNotLoggedIn is returned when there is no cached token for an identity and
// no password to log in with.
var ErrNotLoggedIn = errors.New("not logged in")

const (
	MessageLoginExpired = "login expired, please log in again"
	MessageFetchFailed  = "failed to fetch schedule"
)

// UserMessage is what an end user gets to see for err, details stay in the logs.
func UserMessage(err error) string {
	var authErr *zjuam.AuthenticationError
	var exchangeErr *zdbk.ExchangeError
	switch {
	case errors.Is(err, ErrNotLoggedIn),
		errors.As(err, &authErr),
		errors.As(err, &exchangeErr):
		return MessageLoginExpired
	default:
		return MessageFetchFailed
	}
}

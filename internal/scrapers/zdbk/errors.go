package zdbk

import "fmt"

// ExchangeError means the sso token was not accepted by the academic portal,
// usually because it expired. Callers should re-authenticate and retry once.
type ExchangeError struct {
	Reason string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal session exchange failed: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("portal session exchange failed: %s", e.Reason)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// FetchError means the timetable query failed or its response could not be read.
// Snippet is a bounded, redacted excerpt of the response body for diagnostics.
type FetchError struct {
	Reason  string
	Status  int
	Snippet string
	Err     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch timetable: %s", e.Reason)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %s", e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

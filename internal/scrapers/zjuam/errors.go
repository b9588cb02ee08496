package zjuam

import "fmt"

// AuthenticationError means the identity provider did not issue a token: wrong
// credentials, the provider being unreachable or an unexpected response shape.
// Users should be asked to log in again.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sso authentication failed: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("sso authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ProtocolError means the identity provider's markup or contract changed, it is
// not retryable and not actionable by the user.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("sso protocol violation: %s", e.Reason)
}

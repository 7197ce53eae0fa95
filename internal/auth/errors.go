package auth

import "fmt"

// AuthError is the terminal failure of one sign-in or refresh attempt:
// authorization denied or cancelled, missing code, state mismatch, or an
// unsuccessful token-endpoint call. Retrying means invoking Authenticate
// again from scratch; there is no partial-state resume.
type AuthError struct {
	Stage string // "authorize", "callback", "exchange", "refresh"
	Msg   string
	Body  string // raw token-endpoint response body, when available
}

func (e *AuthError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("auth %s failed: %s: %s", e.Stage, e.Msg, e.Body)
	}
	return fmt.Sprintf("auth %s failed: %s", e.Stage, e.Msg)
}

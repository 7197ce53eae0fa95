// Package session holds the in-memory bearer credential for one sign-in.
package session

import "time"

// DefaultTokenLifetime is assumed when the token endpoint omits expires_in.
const DefaultTokenLifetime = 30 * time.Minute

// Session is the token state for one signed-in account: the bearer token,
// its refresh credential, the absolute expiry instant, and the client
// credentials needed to refresh it. It lives only in memory; nothing is
// persisted across runs.
//
// Refresh mutates the session in place so every holder of the pointer sees
// the new token. Callers must serialize access; the session provides no
// locking of its own.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time

	ClientID     string
	ClientSecret string
}

// Apply installs a token-endpoint response onto the session. ExpiresAt is
// derived from the server-reported expires_in seconds at this moment;
// DefaultTokenLifetime is substituted when the server omits it.
func (s *Session) Apply(accessToken, refreshToken string, expiresIn int64) {
	lifetime := DefaultTokenLifetime
	if expiresIn > 0 {
		lifetime = time.Duration(expiresIn) * time.Second
	}
	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
	s.ExpiresAt = time.Now().UTC().Add(lifetime)
}

// ExpiresWithin reports whether the token expires at or before now+margin.
func (s *Session) ExpiresWithin(margin time.Duration) bool {
	return !time.Now().Add(margin).Before(s.ExpiresAt)
}

// Package auth drives the OAuth2 authorization-code and refresh-token
// exchanges against the platform's authentication service. Sign-in runs a
// temporary loopback HTTP listener, sends the user through the system
// browser, and trades the returned code for a token session.
package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/jsondoc"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/logging"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/session"
)

const (
	DefaultAuthorizeURL = "https://developer.api.autodesk.com/authentication/v2/authorize"
	DefaultTokenURL     = "https://developer.api.autodesk.com/authentication/v2/token"
	DefaultRedirectURI  = "http://127.0.0.1:8080/callback/"
	DefaultListenAddr   = "127.0.0.1:8080"
	DefaultScope        = "data:read data:write"
)

const successPage = `<!DOCTYPE html><html><body>
<h3>Sign-in complete.</h3><p>You may close this window and return to the application.</p>
</body></html>`

const failurePage = `<!DOCTYPE html><html><body>
<h3>Sign-in failed.</h3><p>You may close this window and try again from the application.</p>
</body></html>`

// Client performs the authorization-code and refresh-token grants. The
// token endpoint authenticates the application with HTTP Basic credentials
// (client_id:client_secret); no token is ever persisted.
type Client struct {
	authorizeURL string
	tokenURL     string
	redirectURI  string
	listenAddr   string
	scope        string
	httpClient   *http.Client

	// openBrowser launches the system browser; replaced in tests.
	openBrowser func(url string) error
}

// Config holds auth client configuration. Zero fields fall back to the
// platform defaults.
type Config struct {
	AuthorizeURL string
	TokenURL     string
	RedirectURI  string
	ListenAddr   string
	Scope        string
	Timeout      time.Duration
}

// New creates an auth client.
func New(cfg Config) *Client {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Scope == "" {
		cfg.Scope = DefaultScope
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		authorizeURL: cfg.AuthorizeURL,
		tokenURL:     cfg.TokenURL,
		redirectURI:  cfg.RedirectURI,
		listenAddr:   cfg.ListenAddr,
		scope:        cfg.Scope,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		openBrowser:  launchBrowser,
	}
}

// callback carries the query parameters of the provider's redirect.
type callback struct {
	code  string
	state string
	errc  string
}

// Authenticate runs the authorization-code grant: it binds the loopback
// listener, sends the user through the system browser, waits for the
// provider's redirect, and exchanges the returned code for a token session.
// The wait is bounded by ctx; cancel or set a deadline to abandon the
// sign-in. The listener is released on every exit path.
func (c *Client) Authenticate(ctx context.Context, clientID, clientSecret string) (*session.Session, error) {
	state := uuid.NewString()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", c.scope)
	q.Set("state", state)
	q.Set("prompt", "login")
	authURL := c.authorizeURL + "?" + q.Encode()

	// Bind before launching the browser so a fast redirect cannot land on a
	// closed port.
	ln, err := net.Listen("tcp", c.listenAddr)
	if err != nil {
		return nil, &AuthError{Stage: "authorize", Msg: fmt.Sprintf("bind %s: %v", c.listenAddr, err)}
	}

	results := make(chan callback, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(c.callbackPath(), func(w http.ResponseWriter, r *http.Request) {
		cb := callback{
			code:  r.URL.Query().Get("code"),
			state: r.URL.Query().Get("state"),
			errc:  r.URL.Query().Get("error"),
		}

		// Answer the browser before evaluating the result.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if cb.errc != "" || cb.code == "" {
			fmt.Fprint(w, failurePage)
		} else {
			fmt.Fprint(w, successPage)
		}

		select {
		case results <- cb:
		default:
			// A second request raced in; only the first callback counts.
		}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	logging.Info("waiting for sign-in", logging.String("listen", c.listenAddr))
	if err := c.openBrowser(authURL); err != nil {
		logging.Warn("browser launch failed, open the URL manually",
			logging.String("url", authURL), logging.Err(err))
	}

	var cb callback
	select {
	case <-ctx.Done():
		return nil, &AuthError{Stage: "authorize", Msg: fmt.Sprintf("sign-in abandoned: %v", ctx.Err())}
	case cb = <-results:
	}

	switch {
	case cb.errc != "":
		return nil, &AuthError{Stage: "callback", Msg: "authorization denied: " + cb.errc}
	case cb.code == "":
		return nil, &AuthError{Stage: "callback", Msg: "no authorization code returned"}
	case cb.state != state:
		return nil, &AuthError{Stage: "callback", Msg: "state mismatch in callback"}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", cb.code)
	form.Set("redirect_uri", c.redirectURI)

	s := &session.Session{ClientID: clientID, ClientSecret: clientSecret}
	if err := c.tokenRequest(ctx, "exchange", form, s); err != nil {
		return nil, err
	}

	logging.Info("signed in", logging.String("expires_at", s.ExpiresAt.Format(time.RFC3339)))
	return s, nil
}

// Refresh performs the refresh-token grant and overwrites the session's
// token state in place, so every holder of the session sees the update.
func (c *Client) Refresh(ctx context.Context, s *session.Session) error {
	if s.RefreshToken == "" {
		return &AuthError{Stage: "refresh", Msg: "session has no refresh token"}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.RefreshToken)

	return c.tokenRequest(ctx, "refresh", form, s)
}

// tokenRequest POSTs a form to the token endpoint with HTTP Basic client
// credentials and applies the returned token to s.
func (c *Client) tokenRequest(ctx context.Context, stage string, form url.Values, s *session.Session) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Stage: stage, Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.ClientID, s.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Stage: stage, Msg: err.Error()}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AuthError{
			Stage: stage,
			Msg:   fmt.Sprintf("token endpoint returned %d", resp.StatusCode),
			Body:  string(data),
		}
	}

	doc := jsondoc.Parse(data)
	s.Apply(
		doc.String("access_token", ""),
		doc.String("refresh_token", ""),
		doc.Int("expires_in", 0),
	)
	return nil
}

// callbackPath returns the path component of the redirect URI, falling back
// to the whole-server pattern when the URI does not parse.
func (c *Client) callbackPath() string {
	u, err := url.Parse(c.redirectURI)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// Package auth manages the OAuth2 session for the YouTube account: the
// consent URL, the one-time code exchange, and silent refresh of the
// access token with persistence through a credentials.Store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"ytupload/credentials"
)

// DefaultExpirySkew treats a token as expired this long before its stated expiry.
const DefaultExpirySkew = 10 * time.Second

// Manager owns the credential bundle lifecycle.
type Manager struct {
	oauth      *oauth2.Config
	store      credentials.Store
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
	skew       time.Duration

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithExpirySkew sets how early a token is considered expired.
func WithExpirySkew(d time.Duration) Option {
	return func(m *Manager) { m.skew = d }
}

// NewManager creates a token manager for the given OAuth client and store.
func NewManager(cfg *oauth2.Config, store credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		oauth:  cfg,
		store:  store,
		logger: log.Default(),
		now:    time.Now,
		skew:   DefaultExpirySkew,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AuthCodeURL returns the consent page URL requesting offline access.
// It has no side effects.
func (m *Manager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode trades a one-time authorization code for a token bundle and
// persists it. An unreadable stored bundle is replaced, since the code has
// already been spent.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (*credentials.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.oauth.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return nil, &Error{Op: "exchange", Err: classify(err)}
	}

	now := m.now()
	creds, err := m.store.Update(ctx, func(cur *credentials.Credentials) (*credentials.Credentials, error) {
		var previous string
		if cur != nil {
			previous = cur.RefreshToken
		}
		return credentials.FromToken(tok, previous, now), nil
	})
	if errors.Is(err, credentials.ErrCorrupt) {
		m.logger.Printf("auth: replacing unreadable credentials: %v", err)
		creds = credentials.FromToken(tok, "", now)
		err = m.store.Save(ctx, creds)
	}
	if err != nil {
		return nil, &Error{Op: "save", Err: err}
	}

	if creds.RefreshToken == "" {
		m.logger.Printf("auth: provider returned no refresh token; access will end at %s", creds.ExpiresAt().Format(time.RFC3339))
	}
	return creds, nil
}

// EnsureValidAccessToken returns stored credentials whose access token is
// valid, refreshing and persisting them first when expired. A valid stored
// token is returned without any network call.
func (m *Manager) EnsureValidAccessToken(ctx context.Context) (*credentials.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !creds.Expired(m.now(), m.skew) {
		return creds, nil
	}

	// Re-check under the store's exclusive update: another process may
	// have refreshed since the load above.
	return m.store.Update(ctx, func(cur *credentials.Credentials) (*credentials.Credentials, error) {
		if cur == nil {
			return nil, fmt.Errorf("auth: %w", credentials.ErrNotFound)
		}
		now := m.now()
		if !cur.Expired(now, m.skew) {
			return nil, nil
		}
		if cur.RefreshToken == "" {
			return nil, ErrTokenExpired
		}
		return m.refresh(ctx, cur, now)
	})
}

func (m *Manager) refresh(ctx context.Context, cur *credentials.Credentials, now time.Time) (*credentials.Credentials, error) {
	src := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: cur.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &RefreshError{Err: classify(err)}
	}

	next := credentials.FromToken(tok, cur.RefreshToken, now)
	if next.Scope == "" {
		next.Scope = cur.Scope
	}
	m.logger.Printf("auth: refreshed access token, valid until %s", next.ExpiresAt().Format(time.RFC3339))
	return next, nil
}

// TokenSource returns a source that yields a valid access token, refreshing
// and persisting through the manager when needed.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &managerSource{ctx: ctx, m: m})
}

// HTTPClient returns a client that authorizes requests with the managed
// token. Requests go through the manager's configured HTTP client.
func (m *Manager) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(m.clientContext(ctx), m.TokenSource(ctx))
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

type managerSource struct {
	ctx context.Context
	m   *Manager
}

func (s *managerSource) Token() (*oauth2.Token, error) {
	creds, err := s.m.EnsureValidAccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return creds.Token(), nil
}

// IsReauthRequired reports whether err means the user must run the
// authorization flow again.
func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidGrant) ||
		errors.Is(err, credentials.ErrNotFound)
}

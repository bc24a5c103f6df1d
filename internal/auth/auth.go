package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("missing Spotify client id or secret")

const defaultTimeout = 15 * time.Second

// Credentials identify the application to Spotify.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Authenticator obtains app tokens with the client-credentials flow and
// reuses a cached token across restarts while it is still valid.
type Authenticator struct {
	config  clientcredentials.Config
	cache   *TokenCache
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTimeout sets the HTTP timeout for token and API requests.
func WithTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the authenticator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithTokenURL overrides the Spotify token endpoint.
func WithTokenURL(url string) Option {
	return func(a *Authenticator) {
		a.config.TokenURL = url
	}
}

// New creates an Authenticator. cache may be nil to disable token persistence.
// Returns ErrMissingCredentials if either credential is empty.
func New(creds Credentials, cache *TokenCache, opts ...Option) (*Authenticator, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	a := &Authenticator{
		config: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
		cache:   cache,
		timeout: defaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("component", "auth").Logger()
	return a, nil
}

// TokenSource returns a token source that starts from the cached token,
// fetches a new one once it expires and writes every new token back to the cache.
func (a *Authenticator) TokenSource(ctx context.Context) oauth2.TokenSource {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: a.timeout})

	var cached *oauth2.Token
	if a.cache != nil {
		tok, err := a.cache.Load()
		if err != nil {
			a.logger.Warn().Err(err).Str("path", a.cache.Path()).Msg("discarding unreadable token cache")
			if err := a.cache.Delete(); err != nil {
				a.logger.Warn().Err(err).Msg("removing token cache")
			}
		} else if tok.Valid() {
			a.logger.Debug().Time("expiry", tok.Expiry).Msg("reusing cached token")
			cached = tok
		}
	}

	return oauth2.ReuseTokenSource(cached, &savingSource{
		base:   a.config.TokenSource(ctx),
		cache:  a.cache,
		logger: a.logger,
	})
}

// HTTPClient returns an HTTP client that authenticates every request.
func (a *Authenticator) HTTPClient(ctx context.Context) *http.Client {
	client := oauth2.NewClient(ctx, a.TokenSource(ctx))
	client.Timeout = a.timeout
	return client
}

// savingSource persists each freshly fetched token.
type savingSource struct {
	base   oauth2.TokenSource
	cache  *TokenCache
	logger zerolog.Logger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching client credentials token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Save(tok); err != nil {
			// Log but don't fail - the token is still usable.
			s.logger.Warn().Err(err).Msg("caching token")
		}
	}
	return tok, nil
}

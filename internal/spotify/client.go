// Package spotify wraps the Spotify Web API as the explorer's catalog provider.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-music-explorer/internal/metrics"
)

const (
	// DefaultMarket is the market used for artist top tracks.
	DefaultMarket = "US"

	defaultRequestsPerSecond = 10
	defaultBurst             = 5
	defaultBreakerFailures   = 5
	defaultBreakerTimeout    = 30 * time.Second
)

// ErrNoAudioFeatures is returned when the provider has no descriptors for a track.
var ErrNoAudioFeatures = errors.New("no audio features available")

// Client wraps the Spotify API client with the provider operations the
// explorer needs. Calls are paced by a token bucket and short-circuited by a
// breaker after consecutive failures; nothing is retried.
type Client struct {
	api     *spotify.Client
	market  string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger

	breakerFailures uint32
	breakerTimeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithMarket sets the market used for top-track lookups.
func WithMarket(market string) Option {
	return func(c *Client) {
		if market != "" {
			c.market = market
		}
	}
}

// WithRateLimit sets the provider request rate. Non-positive values keep the default.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open.
func WithBreaker(failures uint32, timeout time.Duration) Option {
	return func(c *Client) {
		if failures > 0 {
			c.breakerFailures = failures
		}
		if timeout > 0 {
			c.breakerTimeout = timeout
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:             api,
		market:          DefaultMarket,
		limiter:         rate.NewLimiter(defaultRequestsPerSecond, defaultBurst),
		logger:          zerolog.Nop(),
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "spotify").Logger()
	c.breaker = c.newBreaker()
	return c
}

// NewFromHTTP creates a client over an already authenticated HTTP client.
func NewFromHTTP(httpClient *http.Client, opts ...Option) *Client {
	return New(spotify.New(httpClient), opts...)
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[any] {
	failures := c.breakerFailures
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "spotify",
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider breaker state changed")
		},
	})
}

// call runs fn through the rate limiter and breaker and records metrics.
func call[T any](ctx context.Context, c *Client, op string, fn func() (T, error)) (T, error) {
	var zero T

	if err := c.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (any, error) {
		return fn()
	})
	metrics.ProviderDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "open"
		}
		metrics.ProviderRequests.WithLabelValues(op, status).Inc()
		return zero, err
	}

	metrics.ProviderRequests.WithLabelValues(op, "ok").Inc()
	v, _ := res.(T)
	return v, nil
}

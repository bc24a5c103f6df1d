// Package lastfm provides Last.fm API integration for fetching artist tags.
package lastfm

import (
	"errors"
	"time"
)

// ErrMissingAPIKey is returned when no Last.fm API key is configured.
var ErrMissingAPIKey = errors.New("missing Last.fm API key")

const (
	defaultTimeout           = 10 * time.Second
	defaultRequestsPerSecond = 5
)

// Config holds Last.fm API configuration.
type Config struct {
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewConfig returns a configuration for apiKey with default limits.
// Returns ErrMissingAPIKey if apiKey is empty.
func NewConfig(apiKey string) (*Config, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Config{
		APIKey:            apiKey,
		Timeout:           defaultTimeout,
		RequestsPerSecond: defaultRequestsPerSecond,
	}, nil
}

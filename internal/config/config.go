// Package config loads explorer configuration from defaults, an optional
// config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned when the Spotify client id or secret is not set.
var ErrMissingCredentials = errors.New("missing Spotify credentials (set SPOTIFY_ID and SPOTIFY_SECRET)")

const envPrefix = "EXPLORER"

// Config holds application configuration.
type Config struct {
	Spotify   SpotifyConfig   `mapstructure:"spotify"`
	LastFM    LastFMConfig    `mapstructure:"lastfm"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// SpotifyConfig holds provider credentials and client limits.
type SpotifyConfig struct {
	ClientID          string        `mapstructure:"client_id" validate:"required"`
	ClientSecret      string        `mapstructure:"client_secret" validate:"required"`
	Market            string        `mapstructure:"market" validate:"len=2"`
	TokenCache        string        `mapstructure:"token_cache"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"min=1"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures" validate:"min=1"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout" validate:"gt=0"`
}

// LastFMConfig enables genre enrichment when an API key is present.
type LastFMConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// CacheConfig selects where feature records are persisted.
type CacheConfig struct {
	Backend     string `mapstructure:"backend" validate:"oneof=file badger postgres"`
	Dir         string `mapstructure:"dir" validate:"required"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Backend postgres"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	APIRateLimit int           `mapstructure:"api_rate_limit" validate:"min=1"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// RecommendConfig holds selector settings.
type RecommendConfig struct {
	Limit int `mapstructure:"limit" validate:"min=1,max=50"`
}

// Load reads configuration. If path is empty, config.yaml is looked up in
// the working directory and the user config directory; a missing file is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for existing setups.
	_ = v.BindEnv("spotify.client_id", envPrefix+"_SPOTIFY_CLIENT_ID", "SPOTIFY_ID")
	_ = v.BindEnv("spotify.client_secret", envPrefix+"_SPOTIFY_CLIENT_SECRET", "SPOTIFY_SECRET")
	_ = v.BindEnv("lastfm.api_key", envPrefix+"_LASTFM_API_KEY", "LASTFM_API_KEY")
	_ = v.BindEnv("cache.database_url", envPrefix+"_CACHE_DATABASE_URL", "DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.market", "US")
	v.SetDefault("spotify.token_cache", filepath.Join(ConfigDir(), "token.json"))
	v.SetDefault("spotify.timeout", 15*time.Second)
	v.SetDefault("spotify.requests_per_second", 10.0)
	v.SetDefault("spotify.burst", 5)
	v.SetDefault("spotify.breaker_failures", 5)
	v.SetDefault("spotify.breaker_timeout", 30*time.Second)

	v.SetDefault("lastfm.api_key", "")

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "data")
	v.SetDefault("cache.database_url", "")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.api_rate_limit", 60)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("recommend.limit", 3)
}

var validate = validator.New()

// Validate checks the configuration. Missing Spotify credentials are
// reported as ErrMissingCredentials.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.StructNamespace() {
		case "Config.Spotify.ClientID", "Config.Spotify.ClientSecret":
			return ErrMissingCredentials
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ConfigDir returns ~/.config/music-explorer, or "." if the home directory
// is unknown.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "music-explorer")
}

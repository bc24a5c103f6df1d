package main

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/config"
	"github.com/justestif/go-spotify-music-explorer/internal/explorer"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
	"github.com/justestif/go-spotify-music-explorer/internal/logging"
	"github.com/justestif/go-spotify-music-explorer/internal/web"
)

// service is what the commands need from a wired explorer.
type service interface {
	web.Explorer
	LookupArtists(ctx context.Context, ids []string) ([]explorer.Lookup[features.ArtistFeatures], error)
	LookupTracks(ctx context.Context, ids []string) ([]explorer.Lookup[features.TrackFeatures], error)
	Close() error
}

type openFunc func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (service, error)

func openExplorer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (service, error) {
	app, err := explorer.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return app, nil
}

type commandContext struct {
	configFlag   string
	logLevelFlag string

	open openFunc

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(open openFunc) *commandContext {
	return &commandContext{open: open}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != "" {
			cfg.Log.Level = c.logLevelFlag
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// withService loads config, opens the explorer and closes it after fn.
func (c *commandContext) withService(ctx context.Context, fn func(svc service, cfg *config.Config, logger zerolog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.logger(cfg)

	svc, err := c.open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("closing explorer")
		}
	}()

	return fn(svc, cfg, logger)
}

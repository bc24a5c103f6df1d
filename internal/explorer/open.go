package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/auth"
	"github.com/justestif/go-spotify-music-explorer/internal/config"
	"github.com/justestif/go-spotify-music-explorer/internal/db"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
	"github.com/justestif/go-spotify-music-explorer/internal/lastfm"
	"github.com/justestif/go-spotify-music-explorer/internal/spotify"
)

// App is a fully wired Service plus the resources it owns.
type App struct {
	*Service

	closers []func() error
}

// Close releases the storage backends.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the provider client, the caches for the configured backend and
// the Service on top of them.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	authenticator, err := auth.New(
		auth.Credentials{ClientID: cfg.Spotify.ClientID, ClientSecret: cfg.Spotify.ClientSecret},
		tokenCache(cfg),
		auth.WithTimeout(cfg.Spotify.Timeout),
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating authenticator: %w", err)
	}

	provider := spotify.NewFromHTTP(authenticator.HTTPClient(ctx),
		spotify.WithMarket(cfg.Spotify.Market),
		spotify.WithRateLimit(cfg.Spotify.RequestsPerSecond, cfg.Spotify.Burst),
		spotify.WithBreaker(cfg.Spotify.BreakerFailures, cfg.Spotify.BreakerTimeout),
		spotify.WithLogger(logger),
	)

	fetchOpts := []features.FetcherOption{features.WithFetcherLogger(logger)}
	if cfg.LastFM.APIKey != "" {
		lfmCfg, err := lastfm.NewConfig(cfg.LastFM.APIKey)
		if err != nil {
			return nil, fmt.Errorf("configuring Last.fm: %w", err)
		}
		fetchOpts = append(fetchOpts, features.WithTagSource(lastfm.NewClient(lfmCfg, lastfm.WithLogger(logger))))
		logger.Info().Msg("Last.fm genre enrichment enabled")
	}

	app := &App{}
	artistStore, trackStore, err := openStores(ctx, cfg, app)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	artists := features.New[features.ArtistFeatures](ctx, features.KindArtist, artistStore,
		features.NewArtistFetcher(provider, fetchOpts...), features.WithLogger(logger))
	tracks := features.New[features.TrackFeatures](ctx, features.KindTrack, trackStore,
		features.NewTrackFetcher(provider, fetchOpts...), features.WithLogger(logger))

	logger.Info().
		Str("backend", cfg.Cache.Backend).
		Int("artists", artists.Len()).
		Int("tracks", tracks.Len()).
		Msg("feature caches ready")

	app.Service = NewService(artists, tracks, provider, WithLogger(logger))
	return app, nil
}

func tokenCache(cfg *config.Config) *auth.TokenCache {
	if cfg.Spotify.TokenCache == "" {
		return nil
	}
	return auth.NewTokenCache(cfg.Spotify.TokenCache)
}

// openStores returns the artist and track stores for the configured backend
// and registers their cleanup on app.
func openStores(ctx context.Context, cfg *config.Config, app *App) (features.Store[features.ArtistFeatures], features.Store[features.TrackFeatures], error) {
	switch cfg.Cache.Backend {
	case "badger":
		kv, err := features.OpenBadger(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, kv.Close)
		return features.NewBadgerStore[features.ArtistFeatures](kv, features.KindArtist),
			features.NewBadgerStore[features.TrackFeatures](kv, features.KindTrack),
			nil

	case "postgres":
		database, err := db.New(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		app.closers = append(app.closers, func() error { database.Close(); return nil })
		if err := database.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return db.NewFeatureStore[features.ArtistFeatures](database.Features(string(features.KindArtist))),
			db.NewFeatureStore[features.TrackFeatures](database.Features(string(features.KindTrack))),
			nil

	default:
		return features.NewFileStore[features.ArtistFeatures](cfg.Cache.Dir, features.KindArtist),
			features.NewFileStore[features.TrackFeatures](cfg.Cache.Dir, features.KindTrack),
			nil
	}
}

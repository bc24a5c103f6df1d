package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/spotify"
)

// maxTagGenres caps how many Last.fm tags become genres.
const maxTagGenres = 5

// ArtistProvider is the subset of the catalog provider the artist fetcher needs.
type ArtistProvider interface {
	FetchArtist(ctx context.Context, id string) (spotify.Artist, error)
	FetchArtistTopTracks(ctx context.Context, id string) ([]spotify.Track, error)
	FetchAudioFeatures(ctx context.Context, ids []string) ([]*spotify.AudioFeatures, error)
}

// TrackProvider is the subset of the catalog provider the track fetcher needs.
type TrackProvider interface {
	FetchTrack(ctx context.Context, id string) (spotify.Track, error)
	FetchTrackAudioFeatures(ctx context.Context, id string) (spotify.AudioFeatures, error)
}

// TagSource returns an artist's community tags, most relevant first.
type TagSource interface {
	ArtistTags(ctx context.Context, artist string) ([]string, error)
}

// ArtistFetcher builds ArtistFeatures from the provider.
type ArtistFetcher struct {
	provider ArtistProvider
	tags     TagSource
	now      func() time.Time
	logger   zerolog.Logger
}

// FetcherOption configures a fetcher.
type FetcherOption func(*fetcherOptions)

type fetcherOptions struct {
	tags   TagSource
	now    func() time.Time
	logger zerolog.Logger
}

// WithTagSource enables genre enrichment for artists the provider has no genres for.
func WithTagSource(tags TagSource) FetcherOption {
	return func(o *fetcherOptions) {
		o.tags = tags
	}
}

// WithClock sets the clock used for LastUpdated.
func WithClock(now func() time.Time) FetcherOption {
	return func(o *fetcherOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFetcherLogger sets the fetcher logger.
func WithFetcherLogger(logger zerolog.Logger) FetcherOption {
	return func(o *fetcherOptions) {
		o.logger = logger
	}
}

func buildFetcherOptions(opts []FetcherOption) fetcherOptions {
	o := fetcherOptions{now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewArtistFetcher returns a fetcher backed by provider.
func NewArtistFetcher(provider ArtistProvider, opts ...FetcherOption) *ArtistFetcher {
	o := buildFetcherOptions(opts)
	return &ArtistFetcher{
		provider: provider,
		tags:     o.tags,
		now:      o.now,
		logger:   o.logger.With().Str("component", "artist_fetcher").Logger(),
	}
}

// Fetch builds an artist record: metadata, top tracks and one batched
// descriptor lookup. Top tracks without descriptors are left out.
func (f *ArtistFetcher) Fetch(ctx context.Context, id string) (ArtistFeatures, error) {
	artist, err := f.provider.FetchArtist(ctx, id)
	if err != nil {
		return ArtistFeatures{}, err
	}

	tracks, err := f.provider.FetchArtistTopTracks(ctx, id)
	if err != nil {
		return ArtistFeatures{}, err
	}

	top := []TopTrack{}
	if len(tracks) > 0 {
		ids := make([]string, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
		}

		audio, err := f.provider.FetchAudioFeatures(ctx, ids)
		if err != nil {
			return ArtistFeatures{}, err
		}

		top = make([]TopTrack, 0, len(tracks))
		for i, t := range tracks {
			if i >= len(audio) || audio[i] == nil {
				continue
			}
			a := audio[i]
			top = append(top, TopTrack{
				ID:           t.ID,
				Name:         t.Name,
				Popularity:   t.Popularity,
				DurationMs:   t.DurationMs,
				Explicit:     t.Explicit,
				Danceability: a.Danceability,
				Energy:       a.Energy,
				Valence:      a.Valence,
				Tempo:        a.Tempo,
			})
		}
	}

	genres, source := artist.Genres, GenreSourceSpotify
	if len(genres) == 0 && f.tags != nil {
		if tagged := f.tagGenres(ctx, artist.Name); len(tagged) > 0 {
			genres, source = tagged, GenreSourceLastFM
		}
	}
	if genres == nil {
		genres = []string{}
	}

	return ArtistFeatures{
		ID:          artist.ID,
		Name:        artist.Name,
		Popularity:  artist.Popularity,
		Genres:      genres,
		GenreSource: source,
		Followers:   artist.Followers,
		ImageURL:    artist.ImageURL,
		TopTracks:   top,
		LastUpdated: f.now().UTC(),
	}, nil
}

// tagGenres returns up to maxTagGenres lower-cased, de-duplicated tags.
// Lookup failures are logged and yield no genres.
func (f *ArtistFetcher) tagGenres(ctx context.Context, name string) []string {
	tags, err := f.tags.ArtistTags(ctx, name)
	if err != nil {
		f.logger.Warn().Err(err).Str("artist", name).Msg("tag lookup failed, keeping empty genres")
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	genres := make([]string, 0, maxTagGenres)
	for _, tag := range tags {
		g := strings.ToLower(strings.TrimSpace(tag))
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		genres = append(genres, g)
		if len(genres) == maxTagGenres {
			break
		}
	}
	return genres
}

// TrackFetcher builds TrackFeatures from the provider.
type TrackFetcher struct {
	provider TrackProvider
	now      func() time.Time
}

// NewTrackFetcher returns a fetcher backed by provider.
func NewTrackFetcher(provider TrackProvider, opts ...FetcherOption) *TrackFetcher {
	o := buildFetcherOptions(opts)
	return &TrackFetcher{provider: provider, now: o.now}
}

// Fetch builds a track record. A track without descriptors is a failure.
func (f *TrackFetcher) Fetch(ctx context.Context, id string) (TrackFeatures, error) {
	track, err := f.provider.FetchTrack(ctx, id)
	if err != nil {
		return TrackFeatures{}, err
	}

	audio, err := f.provider.FetchTrackAudioFeatures(ctx, id)
	if err != nil {
		return TrackFeatures{}, fmt.Errorf("descriptors for track %s: %w", id, err)
	}

	return TrackFeatures{
		ID:           track.ID,
		Name:         track.Name,
		Artist:       track.PrimaryArtist(),
		Album:        track.Album,
		Popularity:   track.Popularity,
		DurationMs:   track.DurationMs,
		Explicit:     track.Explicit,
		ImageURL:     track.ImageURL,
		Danceability: audio.Danceability,
		Energy:       audio.Energy,
		Valence:      audio.Valence,
		Tempo:        audio.Tempo,
		LastUpdated:  f.now().UTC(),
	}, nil
}

// Package explorer is the facade the CLI and web server use: feature lookups
// through the caches, artist comparison, recommendations, search and mood groups.
package explorer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/clustering"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
	"github.com/justestif/go-spotify-music-explorer/internal/recommend"
	"github.com/justestif/go-spotify-music-explorer/internal/similarity"
	"github.com/justestif/go-spotify-music-explorer/internal/spotify"
)

// SearchLimit is the number of free-text search results returned.
const SearchLimit = 10

// Searcher runs provider searches.
type Searcher interface {
	SearchArtists(ctx context.Context, query string, limit int) ([]spotify.Artist, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
}

// FeatureSource is a read-through source of records, satisfied by *features.Cache.
type FeatureSource[R any] interface {
	Get(ctx context.Context, id string) (R, error)
	Records() map[string]R
	Len() int
}

// Comparison is the result of comparing two artists. A or B is nil when
// that artist is unavailable, in which case the score is 0.
type Comparison struct {
	A         *features.ArtistFeatures `json:"a"`
	B         *features.ArtistFeatures `json:"b"`
	Breakdown similarity.Breakdown     `json:"breakdown"`
}

// Stats summarizes cache sizes.
type Stats struct {
	Artists int `json:"artists"`
	Tracks  int `json:"tracks"`
}

// Service wires the caches, similarity engine and selectors together.
type Service struct {
	artists     FeatureSource[features.ArtistFeatures]
	tracks      FeatureSource[features.TrackFeatures]
	search      Searcher
	artistRecs  *recommend.Selector[spotify.Artist]
	trackRecs   *recommend.Selector[spotify.Track]
	moods       clustering.MoodConfig
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	now         func() time.Time
	moods       clustering.MoodConfig
	concurrency int
}

// WithLogger sets the logger passed to the service and its selectors.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock the selectors use to pick the current year.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMoodConfig sets the mood clustering parameters.
func WithMoodConfig(cfg clustering.MoodConfig) Option {
	return func(o *options) {
		o.moods = cfg
	}
}

// WithConcurrency sets how many ids a batch lookup fetches at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewService creates a Service. search backs both the free-text search and
// the recommendation selectors.
func NewService(
	artists FeatureSource[features.ArtistFeatures],
	tracks FeatureSource[features.TrackFeatures],
	search Searcher,
	opts ...Option,
) *Service {
	o := options{
		logger:      zerolog.Nop(),
		now:         time.Now,
		moods:       clustering.DefaultMoodConfig(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		artists: artists,
		tracks:  tracks,
		search:  search,
		artistRecs: recommend.New("artist", search.SearchArtists,
			func(a spotify.Artist) string { return a.ID },
			recommend.WithClock[spotify.Artist](o.now),
			recommend.WithLogger[spotify.Artist](o.logger)),
		trackRecs: recommend.New("track", search.SearchTracks,
			func(t spotify.Track) string { return t.ID },
			recommend.WithClock[spotify.Track](o.now),
			recommend.WithLogger[spotify.Track](o.logger)),
		moods:       o.moods,
		concurrency: o.concurrency,
		logger:      o.logger.With().Str("component", "explorer").Logger(),
	}
}

// ArtistFeatures returns the cached or freshly fetched artist record.
// The error wraps features.ErrUnavailable when the artist cannot be fetched.
func (s *Service) ArtistFeatures(ctx context.Context, id string) (*features.ArtistFeatures, error) {
	rec, err := s.artists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TrackFeatures returns the cached or freshly fetched track record.
func (s *Service) TrackFeatures(ctx context.Context, id string) (*features.TrackFeatures, error) {
	rec, err := s.tracks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CompareArtists scores two artists. An unavailable artist yields a zero
// score rather than an error.
func (s *Service) CompareArtists(ctx context.Context, idA, idB string) Comparison {
	a, errA := s.ArtistFeatures(ctx, idA)
	if errA != nil {
		s.logger.Warn().Err(errA).Str("id", idA).Msg("comparing with unavailable artist")
	}
	b, errB := s.ArtistFeatures(ctx, idB)
	if errB != nil {
		s.logger.Warn().Err(errB).Str("id", idB).Msg("comparing with unavailable artist")
	}

	return Comparison{A: a, B: b, Breakdown: similarity.Compare(a, b)}
}

// SimilarArtists returns artists to show next to seedID.
func (s *Service) SimilarArtists(ctx context.Context, seedID string, limit int) []spotify.Artist {
	return s.artistRecs.Recommend(ctx, seedID, limit)
}

// SimilarTracks returns tracks to show next to seedID.
func (s *Service) SimilarTracks(ctx context.Context, seedID string, limit int) []spotify.Track {
	return s.trackRecs.Recommend(ctx, seedID, limit)
}

// SearchArtists runs a free-text artist search. Failures yield no results.
func (s *Service) SearchArtists(ctx context.Context, query string) []spotify.Artist {
	if query == "" {
		return []spotify.Artist{}
	}
	res, err := s.search.SearchArtists(ctx, query, SearchLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("artist search failed")
		return []spotify.Artist{}
	}
	return res
}

// SearchTracks runs a free-text track search. Failures yield no results.
func (s *Service) SearchTracks(ctx context.Context, query string) []spotify.Track {
	if query == "" {
		return []spotify.Track{}
	}
	res, err := s.search.SearchTracks(ctx, query, SearchLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("track search failed")
		return []spotify.Track{}
	}
	return res
}

// MoodGroups clusters every cached track by mood. Tracks in undersized
// clusters are returned separately.
func (s *Service) MoodGroups() ([]clustering.MoodGroup, []features.TrackFeatures, error) {
	records := s.tracks.Records()
	tracks := make([]features.TrackFeatures, 0, len(records))
	for _, t := range records {
		tracks = append(tracks, t)
	}
	return clustering.DetectMoodGroups(tracks, s.moods)
}

// TrackMood labels a single track.
func (s *Service) TrackMood(t *features.TrackFeatures) clustering.MoodCategory {
	return clustering.GetMoodCategory(t.Audio())
}

// ArtistMood labels an artist from its averaged top tracks. The second
// result is false when the artist has no top tracks.
func (s *Service) ArtistMood(a *features.ArtistFeatures) (clustering.MoodCategory, bool) {
	v, ok := a.AudioProfile()
	if !ok {
		return clustering.MoodCategory{}, false
	}
	return clustering.GetMoodCategory(v), true
}

// Stats returns the number of cached records per kind.
func (s *Service) Stats() Stats {
	return Stats{Artists: s.artists.Len(), Tracks: s.tracks.Len()}
}

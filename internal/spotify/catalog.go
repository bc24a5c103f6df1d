package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// maxSearchLimit is the Spotify API page cap for search results.
const maxSearchLimit = 50

// FetchArtist looks up an artist by id.
func (c *Client) FetchArtist(ctx context.Context, id string) (Artist, error) {
	full, err := call(ctx, c, "get_artist", func() (*spotify.FullArtist, error) {
		return c.api.GetArtist(ctx, spotify.ID(id))
	})
	if err != nil {
		return Artist{}, fmt.Errorf("fetching artist %s: %w", id, err)
	}
	if full == nil {
		return Artist{}, fmt.Errorf("fetching artist %s: empty response", id)
	}
	return convertArtist(*full), nil
}

// FetchArtistTopTracks returns an artist's top tracks in the client's market.
func (c *Client) FetchArtistTopTracks(ctx context.Context, id string) ([]Track, error) {
	full, err := call(ctx, c, "get_artist_top_tracks", func() ([]spotify.FullTrack, error) {
		return c.api.GetArtistsTopTracks(ctx, spotify.ID(id), c.market)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks for artist %s: %w", id, err)
	}

	tracks := make([]Track, len(full))
	for i, t := range full {
		tracks[i] = convertTrack(t)
	}
	return tracks, nil
}

// FetchTrack looks up a track by id.
func (c *Client) FetchTrack(ctx context.Context, id string) (Track, error) {
	full, err := call(ctx, c, "get_track", func() (*spotify.FullTrack, error) {
		return c.api.GetTrack(ctx, spotify.ID(id))
	})
	if err != nil {
		return Track{}, fmt.Errorf("fetching track %s: %w", id, err)
	}
	if full == nil {
		return Track{}, fmt.Errorf("fetching track %s: empty response", id)
	}
	return convertTrack(*full), nil
}

// SearchArtists runs an artist search. Query syntax is passed through
// unchanged, so filters like "year:2024" or "genre:rock" work.
func (c *Client) SearchArtists(ctx context.Context, query string, limit int) ([]Artist, error) {
	res, err := c.search(ctx, query, spotify.SearchTypeArtist, limit)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Artists == nil {
		return nil, nil
	}

	artists := make([]Artist, len(res.Artists.Artists))
	for i, a := range res.Artists.Artists {
		artists[i] = convertArtist(a)
	}
	return artists, nil
}

// SearchTracks runs a track search.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	res, err := c.search(ctx, query, spotify.SearchTypeTrack, limit)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Tracks == nil {
		return nil, nil
	}

	tracks := make([]Track, len(res.Tracks.Tracks))
	for i, t := range res.Tracks.Tracks {
		tracks[i] = convertTrack(t)
	}
	return tracks, nil
}

func (c *Client) search(ctx context.Context, query string, typ spotify.SearchType, limit int) (*spotify.SearchResult, error) {
	limit = clampLimit(limit)
	res, err := call(ctx, c, "search", func() (*spotify.SearchResult, error) {
		return c.api.Search(ctx, query, typ, spotify.Limit(limit))
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return res, nil
}

func clampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > maxSearchLimit:
		return maxSearchLimit
	default:
		return limit
	}
}

// convertArtist converts a Spotify FullArtist to Artist.
func convertArtist(a spotify.FullArtist) Artist {
	genres := make([]string, len(a.Genres))
	copy(genres, a.Genres)

	return Artist{
		ID:         a.ID.String(),
		Name:       a.Name,
		Genres:     genres,
		Popularity: int(a.Popularity),
		Followers:  int(a.Followers.Count),
		ImageURL:   firstImageURL(a.Images),
	}
}

// convertTrack converts a Spotify FullTrack to Track.
func convertTrack(t spotify.FullTrack) Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return Track{
		ID:          t.ID.String(),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumID:     t.Album.ID.String(),
		AlbumType:   t.Album.AlbumType,
		ReleaseDate: t.Album.ReleaseDate,
		Popularity:  int(t.Popularity),
		DurationMs:  int(t.Duration),
		Explicit:    t.Explicit,
		Markets:     len(t.AvailableMarkets),
		ImageURL:    firstImageURL(t.Album.Images),
	}
}

// firstImageURL returns the URL of the first (largest) image, or "".
func firstImageURL(images []spotify.Image) string {
	for _, img := range images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

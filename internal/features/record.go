// Package features fetches, normalizes and caches per-entity feature records.
package features

import (
	"time"

	"github.com/muesli/clusters"
)

// Kind identifies the entity kind a cache holds.
type Kind string

const (
	KindArtist Kind = "artist"
	KindTrack  Kind = "track"
)

// Genre sources recorded on ArtistFeatures.
const (
	GenreSourceSpotify = "spotify"
	GenreSourceLastFM  = "lastfm"
)

// AudioVector holds the four acoustic descriptors used for comparison.
type AudioVector struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"` // BPM
}

// Coordinates returns the vector as k-means coordinates.
// Tempo is scaled by 1/200 so it lands near the unit range of the others.
func (v AudioVector) Coordinates() clusters.Coordinates {
	return clusters.Coordinates{v.Danceability, v.Energy, v.Valence, v.Tempo / 200}
}

// TopTrack is one of an artist's top tracks with its acoustic descriptors.
type TopTrack struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Popularity   int     `json:"popularity"`
	DurationMs   int     `json:"duration_ms"`
	Explicit     bool    `json:"explicit"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"`
}

// ArtistFeatures is the cached feature record for an artist.
type ArtistFeatures struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Popularity  int        `json:"popularity"`
	Genres      []string   `json:"genres"`
	GenreSource string     `json:"genre_source,omitempty"`
	Followers   int        `json:"followers"`
	ImageURL    string     `json:"image_url,omitempty"`
	TopTracks   []TopTrack `json:"top_tracks"`
	LastUpdated time.Time  `json:"last_updated"`
}

// AudioProfile averages the descriptors of the artist's top tracks.
// Returns false when the artist has no top tracks with descriptors.
func (a *ArtistFeatures) AudioProfile() (AudioVector, bool) {
	if a == nil || len(a.TopTracks) == 0 {
		return AudioVector{}, false
	}

	var sum AudioVector
	for _, t := range a.TopTracks {
		sum.Danceability += t.Danceability
		sum.Energy += t.Energy
		sum.Valence += t.Valence
		sum.Tempo += t.Tempo
	}

	n := float64(len(a.TopTracks))
	return AudioVector{
		Danceability: sum.Danceability / n,
		Energy:       sum.Energy / n,
		Valence:      sum.Valence / n,
		Tempo:        sum.Tempo / n,
	}, true
}

// TrackFeatures is the cached feature record for a single track.
type TrackFeatures struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	Popularity   int       `json:"popularity"`
	DurationMs   int       `json:"duration_ms"`
	Explicit     bool      `json:"explicit"`
	ImageURL     string    `json:"image_url,omitempty"`
	Danceability float64   `json:"danceability"`
	Energy       float64   `json:"energy"`
	Valence      float64   `json:"valence"`
	Tempo        float64   `json:"tempo"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Audio returns the track's descriptors as a vector.
func (t *TrackFeatures) Audio() AudioVector {
	return AudioVector{
		Danceability: t.Danceability,
		Energy:       t.Energy,
		Valence:      t.Valence,
		Tempo:        t.Tempo,
	}
}

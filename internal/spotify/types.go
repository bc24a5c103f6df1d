package spotify

import "strings"

// Artist is the provider's view of an artist, as returned by lookups and searches.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// Track is the provider's view of a track.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumID     string   `json:"album_id"`
	AlbumType   string   `json:"album_type"`
	ReleaseDate string   `json:"release_date"`
	Popularity  int      `json:"popularity"`
	DurationMs  int      `json:"duration_ms"`
	Explicit    bool     `json:"explicit"`
	Markets     int      `json:"markets"` // number of available markets
	ImageURL    string   `json:"image_url,omitempty"`
}

// PrimaryArtist returns the first credited artist, or "" if none.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistLine returns all credited artists joined by ", ".
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// AudioFeatures holds a track's acoustic descriptors.
type AudioFeatures struct {
	ID           string
	Danceability float64
	Energy       float64
	Valence      float64
	Tempo        float64
}

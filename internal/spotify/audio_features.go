package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// maxTracksPerRequest is the Spotify API limit for audio feature lookups.
const maxTracksPerRequest = 100

// FetchAudioFeatures retrieves audio features for the given track ids.
// The result is aligned with ids; tracks without features have a nil entry.
// Batches requests to max 100 tracks per request per Spotify API limits.
func (c *Client) FetchAudioFeatures(ctx context.Context, ids []string) ([]*AudioFeatures, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	indexByID := make(map[string][]int, len(ids))
	spotifyIDs := make([]spotify.ID, len(ids))
	for i, id := range ids {
		spotifyIDs[i] = spotify.ID(id)
		indexByID[id] = append(indexByID[id], i)
	}

	out := make([]*AudioFeatures, len(ids))
	total := len(ids)

	for i := 0; i < total; i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, total)
		batch := spotifyIDs[i:end]

		c.logger.Debug().Int("from", i+1).Int("to", end).Int("total", total).Msg("fetching audio features")

		features, err := call(ctx, c, "get_audio_features", func() ([]*spotify.AudioFeatures, error) {
			return c.api.GetAudioFeatures(ctx, batch...)
		})
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue // Track has no audio features
			}
			af := convertAudioFeatures(f)
			for _, idx := range indexByID[af.ID] {
				out[idx] = af
			}
		}
	}

	return out, nil
}

// FetchTrackAudioFeatures returns the features of a single track, or
// ErrNoAudioFeatures when the provider has none.
func (c *Client) FetchTrackAudioFeatures(ctx context.Context, id string) (AudioFeatures, error) {
	features, err := c.FetchAudioFeatures(ctx, []string{id})
	if err != nil {
		return AudioFeatures{}, err
	}
	if len(features) == 0 || features[0] == nil {
		return AudioFeatures{}, fmt.Errorf("track %s: %w", id, ErrNoAudioFeatures)
	}
	return *features[0], nil
}

// convertAudioFeatures copies the descriptors the explorer uses.
func convertAudioFeatures(f *spotify.AudioFeatures) *AudioFeatures {
	return &AudioFeatures{
		ID:           f.ID.String(),
		Danceability: float64(f.Danceability),
		Energy:       float64(f.Energy),
		Valence:      float64(f.Valence),
		Tempo:        float64(f.Tempo),
	}
}

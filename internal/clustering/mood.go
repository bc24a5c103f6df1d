// Package clustering groups cached tracks by mood using k-means over their
// audio descriptors.
package clustering

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-spotify-music-explorer/internal/features"
)

// MoodConfig holds mood-based clustering parameters.
type MoodConfig struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum tracks per group (smaller clusters become outliers)
}

// DefaultMoodConfig returns the recommended default configuration.
func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		NumClusters:    3,
		MinClusterSize: 2,
	}
}

// MoodGroup is a cluster of tracks with a similar feel.
type MoodGroup struct {
	Mood     MoodCategory             `json:"mood"`
	Tracks   []features.TrackFeatures `json:"tracks"`
	Centroid features.AudioVector     `json:"centroid"`
}

// trackObservation wraps a track to implement clusters.Observation.
type trackObservation struct {
	track  features.TrackFeatures
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectMoodGroups partitions tracks into mood groups.
// Returns the groups, largest first, and the tracks left in undersized
// clusters. With fewer tracks than clusters, every track is an outlier.
func DetectMoodGroups(tracks []features.TrackFeatures, cfg MoodConfig) ([]MoodGroup, []features.TrackFeatures, error) {
	if len(tracks) == 0 {
		return nil, nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultMoodConfig().NumClusters
	}

	if len(tracks) < cfg.NumClusters {
		return nil, slices.Clone(tracks), nil
	}

	obs := make(clusters.Observations, len(tracks))
	for i, t := range tracks {
		obs[i] = trackObservation{track: t, coords: t.Audio().Coordinates()}
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, nil, fmt.Errorf("partitioning %d tracks: %w", len(tracks), err)
	}

	var groups []MoodGroup
	var outliers []features.TrackFeatures

	for _, cluster := range result {
		var clusterTracks []features.TrackFeatures
		for _, o := range cluster.Observations {
			if to, ok := o.(trackObservation); ok {
				clusterTracks = append(clusterTracks, to.track)
			}
		}

		if len(clusterTracks) == 0 {
			continue
		}
		if len(clusterTracks) < cfg.MinClusterSize {
			outliers = append(outliers, clusterTracks...)
			continue
		}

		// Most popular first within a group.
		slices.SortFunc(clusterTracks, func(a, b features.TrackFeatures) int {
			return cmp.Or(cmp.Compare(b.Popularity, a.Popularity), cmp.Compare(a.ID, b.ID))
		})

		centroid := centroidOf(clusterTracks)
		groups = append(groups, MoodGroup{
			Mood:     GetMoodCategory(centroid),
			Tracks:   clusterTracks,
			Centroid: centroid,
		})
	}

	slices.SortFunc(groups, func(a, b MoodGroup) int {
		return cmp.Or(cmp.Compare(len(b.Tracks), len(a.Tracks)), cmp.Compare(a.Mood.Name, b.Mood.Name))
	})

	return groups, outliers, nil
}

// centroidOf averages the descriptors of tracks in their natural units.
func centroidOf(tracks []features.TrackFeatures) features.AudioVector {
	var sum features.AudioVector
	for _, t := range tracks {
		sum.Danceability += t.Danceability
		sum.Energy += t.Energy
		sum.Valence += t.Valence
		sum.Tempo += t.Tempo
	}
	n := float64(len(tracks))
	return features.AudioVector{
		Danceability: sum.Danceability / n,
		Energy:       sum.Energy / n,
		Valence:      sum.Valence / n,
		Tempo:        sum.Tempo / n,
	}
}

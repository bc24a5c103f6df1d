package clustering

import (
	"fmt"
	"testing"

	"github.com/justestif/go-spotify-music-explorer/internal/features"
)

func TestGenerateMoodName(t *testing.T) {
	tests := []struct {
		name string
		v    features.AudioVector
		want string
	}{
		{
			name: "high energy high valence",
			v:    features.AudioVector{Energy: 0.8, Valence: 0.7, Danceability: 0.6},
			want: "Upbeat Party",
		},
		{
			name: "high energy low valence",
			v:    features.AudioVector{Energy: 0.8, Valence: 0.3, Danceability: 0.6},
			want: "Intense & Dark",
		},
		{
			name: "low energy high valence",
			v:    features.AudioVector{Energy: 0.4, Valence: 0.7, Danceability: 0.5},
			want: "Chill & Happy",
		},
		{
			name: "low energy low valence",
			v:    features.AudioVector{Energy: 0.3, Valence: 0.3, Danceability: 0.4},
			want: "Reflective & Melancholy",
		},
		{
			name: "high danceability adds modifier",
			v:    features.AudioVector{Energy: 0.8, Valence: 0.7, Danceability: 0.85},
			want: "Upbeat Party (Danceable)",
		},
		{
			name: "boundary energy exactly 0.6 is low",
			v:    features.AudioVector{Energy: 0.6, Valence: 0.7, Danceability: 0.5},
			want: "Chill & Happy",
		},
		{
			name: "boundary valence exactly 0.5 is low",
			v:    features.AudioVector{Energy: 0.8, Valence: 0.5, Danceability: 0.6},
			want: "Intense & Dark",
		},
		{
			name: "boundary danceability exactly 0.7 no modifier",
			v:    features.AudioVector{Energy: 0.8, Valence: 0.7, Danceability: 0.7},
			want: "Upbeat Party",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generateMoodName(tt.v)
			if got != tt.want {
				t.Errorf("generateMoodName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetMoodCategory(t *testing.T) {
	category := GetMoodCategory(features.AudioVector{Energy: 0.8, Valence: 0.7, Danceability: 0.6, Tempo: 128})

	if category.Name != "Upbeat Party" {
		t.Errorf("Name = %q, want %q", category.Name, "Upbeat Party")
	}
	if category.Energy != 0.8 {
		t.Errorf("Energy = %v, want 0.8", category.Energy)
	}
	if category.Valence != 0.7 {
		t.Errorf("Valence = %v, want 0.7", category.Valence)
	}
	if category.Description == "" {
		t.Error("Description should not be empty")
	}
}

func makeTracks(prefix string, n int, v features.AudioVector) []features.TrackFeatures {
	tracks := make([]features.TrackFeatures, n)
	for i := range tracks {
		tracks[i] = features.TrackFeatures{
			ID:           fmt.Sprintf("%s%d", prefix, i),
			Name:         fmt.Sprintf("%s track %d", prefix, i),
			Popularity:   i * 10,
			Danceability: v.Danceability,
			Energy:       v.Energy,
			Valence:      v.Valence,
			Tempo:        v.Tempo,
		}
	}
	return tracks
}

func TestDetectMoodGroups_Empty(t *testing.T) {
	groups, outliers, err := DetectMoodGroups(nil, DefaultMoodConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups != nil || outliers != nil {
		t.Errorf("got groups=%v outliers=%v, want nil", groups, outliers)
	}
}

func TestDetectMoodGroups_TooFewTracks(t *testing.T) {
	tracks := makeTracks("x", 2, features.AudioVector{Energy: 0.5})

	groups, outliers, err := DetectMoodGroups(tracks, MoodConfig{NumClusters: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("groups = %d, want 0", len(groups))
	}
	if len(outliers) != 2 {
		t.Errorf("outliers = %d, want 2", len(outliers))
	}
}

func TestDetectMoodGroups_KeepsEveryTrack(t *testing.T) {
	var tracks []features.TrackFeatures
	tracks = append(tracks, makeTracks("party", 5, features.AudioVector{Danceability: 0.9, Energy: 0.9, Valence: 0.9, Tempo: 128})...)
	tracks = append(tracks, makeTracks("sad", 5, features.AudioVector{Danceability: 0.1, Energy: 0.1, Valence: 0.1, Tempo: 70})...)

	groups, outliers, err := DetectMoodGroups(tracks, MoodConfig{NumClusters: 2, MinClusterSize: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := len(outliers)
	for _, g := range groups {
		total += len(g.Tracks)
		if g.Mood.Name == "" {
			t.Error("group has empty mood name")
		}
		for i := 1; i < len(g.Tracks); i++ {
			if g.Tracks[i-1].Popularity < g.Tracks[i].Popularity {
				t.Errorf("group %q not sorted by popularity", g.Mood.Name)
			}
		}
	}
	if total != len(tracks) {
		t.Errorf("tracks accounted for = %d, want %d", total, len(tracks))
	}

	for i := 1; i < len(groups); i++ {
		if len(groups[i-1].Tracks) < len(groups[i].Tracks) {
			t.Error("groups not sorted largest first")
		}
	}
}

func TestCentroidOf(t *testing.T) {
	got := centroidOf([]features.TrackFeatures{
		{Danceability: 0.2, Energy: 0.4, Valence: 0.6, Tempo: 100},
		{Danceability: 0.4, Energy: 0.6, Valence: 0.8, Tempo: 120},
	})

	want := features.AudioVector{Danceability: 0.3, Energy: 0.5, Valence: 0.7, Tempo: 110}
	const eps = 1e-9
	diff := func(a, b float64) bool { return a-b > eps || b-a > eps }
	if diff(got.Danceability, want.Danceability) || diff(got.Energy, want.Energy) ||
		diff(got.Valence, want.Valence) || diff(got.Tempo, want.Tempo) {
		t.Errorf("centroidOf() = %+v, want %+v", got, want)
	}
}

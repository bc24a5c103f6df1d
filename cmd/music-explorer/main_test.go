package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/clustering"
	"github.com/justestif/go-spotify-music-explorer/internal/config"
	"github.com/justestif/go-spotify-music-explorer/internal/explorer"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
	"github.com/justestif/go-spotify-music-explorer/internal/similarity"
	"github.com/justestif/go-spotify-music-explorer/internal/spotify"
)

type fakeService struct {
	artists map[string]*features.ArtistFeatures
	closed  atomic.Bool
	limit   atomic.Int32
}

func newFakeService() *fakeService {
	return &fakeService{
		artists: map[string]*features.ArtistFeatures{
			"a1": {
				ID: "a1", Name: "Bjork", Popularity: 70, Genres: []string{"art pop"},
				TopTracks: []features.TopTrack{{ID: "t1", Name: "Joga", DurationMs: 305000, Energy: 0.4, Valence: 0.2, Tempo: 80}},
			},
			"a2": {ID: "a2", Name: "Sigur Ros", Popularity: 60, Genres: []string{"art pop", "post-rock"}},
		},
	}
}

func (f *fakeService) ArtistFeatures(_ context.Context, id string) (*features.ArtistFeatures, error) {
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: artist %q", features.ErrUnavailable, id)
}

func (f *fakeService) TrackFeatures(_ context.Context, id string) (*features.TrackFeatures, error) {
	if id == "t1" {
		return &features.TrackFeatures{ID: "t1", Name: "Joga", Artist: "Bjork", DurationMs: 305000, Energy: 0.4, Valence: 0.2, Tempo: 80}, nil
	}
	return nil, fmt.Errorf("%w: track %q", features.ErrUnavailable, id)
}

func (f *fakeService) CompareArtists(_ context.Context, idA, idB string) explorer.Comparison {
	a, b := f.artists[idA], f.artists[idB]
	return explorer.Comparison{A: a, B: b, Breakdown: similarity.Compare(a, b)}
}

func (f *fakeService) SimilarArtists(_ context.Context, _ string, limit int) []spotify.Artist {
	f.limit.Store(int32(limit))
	return []spotify.Artist{{ID: "x1", Name: "Fever Ray", Genres: []string{"electronic"}}}
}

func (f *fakeService) SimilarTracks(_ context.Context, _ string, limit int) []spotify.Track {
	f.limit.Store(int32(limit))
	return []spotify.Track{}
}

func (f *fakeService) SearchArtists(context.Context, string) []spotify.Artist { return nil }
func (f *fakeService) SearchTracks(context.Context, string) []spotify.Track   { return nil }

func (f *fakeService) MoodGroups() ([]clustering.MoodGroup, []features.TrackFeatures, error) {
	return []clustering.MoodGroup{{
		Mood:     clustering.MoodCategory{Name: "Melancholic"},
		Tracks:   []features.TrackFeatures{{ID: "t1"}, {ID: "t2"}},
		Centroid: features.AudioVector{Energy: 0.3, Valence: 0.2, Tempo: 90},
	}}, []features.TrackFeatures{{ID: "t3"}}, nil
}

func (f *fakeService) TrackMood(t *features.TrackFeatures) clustering.MoodCategory {
	return clustering.GetMoodCategory(t.Audio())
}

func (f *fakeService) ArtistMood(a *features.ArtistFeatures) (clustering.MoodCategory, bool) {
	v, ok := a.AudioProfile()
	if !ok {
		return clustering.MoodCategory{}, false
	}
	return clustering.GetMoodCategory(v), true
}

func (f *fakeService) Stats() explorer.Stats { return explorer.Stats{Artists: len(f.artists)} }

func (f *fakeService) LookupArtists(ctx context.Context, ids []string) ([]explorer.Lookup[features.ArtistFeatures], error) {
	out := make([]explorer.Lookup[features.ArtistFeatures], 0, len(ids))
	for _, id := range ids {
		a, err := f.ArtistFeatures(ctx, id)
		out = append(out, explorer.Lookup[features.ArtistFeatures]{ID: id, Record: a, Err: err})
	}
	return out, nil
}

func (f *fakeService) LookupTracks(ctx context.Context, ids []string) ([]explorer.Lookup[features.TrackFeatures], error) {
	out := make([]explorer.Lookup[features.TrackFeatures], 0, len(ids))
	for _, id := range ids {
		tr, err := f.TrackFeatures(ctx, id)
		out = append(out, explorer.Lookup[features.TrackFeatures]{ID: id, Record: tr, Err: err})
	}
	return out, nil
}

func (f *fakeService) Close() error {
	f.closed.Store(true)
	return nil
}

// runCommand executes the CLI against svc with a temp config file.
func runCommand(t *testing.T, svc *fakeService, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfgYAML := "spotify:\n  client_id: id\n  client_secret: secret\ncache:\n  dir: " + t.TempDir() + "\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := newCommandContext(func(context.Context, *config.Config, zerolog.Logger) (service, error) {
		return svc, nil
	})
	cmd := newRootCommand(ctx)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestArtistCommand(t *testing.T) {
	svc := newFakeService()

	out, err := runCommand(t, svc, "artist", "a1")
	if err != nil {
		t.Fatalf("artist: %v", err)
	}
	for _, want := range []string{"Bjork", "art pop", "Joga", "5:05"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !svc.closed.Load() {
		t.Error("service should be closed after the command")
	}
}

func TestArtistCommand_Unavailable(t *testing.T) {
	_, err := runCommand(t, newFakeService(), "artist", "missing")
	if !errors.Is(err, features.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestArtistCommand_Batch(t *testing.T) {
	out, err := runCommand(t, newFakeService(), "artist", "a1", "missing", "a2")
	if err != nil {
		t.Fatalf("artist batch: %v", err)
	}
	for _, want := range []string{"Bjork", "Sigur Ros", "not available"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestArtistCommand_RequiresID(t *testing.T) {
	if _, err := runCommand(t, newFakeService(), "artist"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestTrackCommand_JSON(t *testing.T) {
	out, err := runCommand(t, newFakeService(), "track", "t1", "--json")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if !strings.Contains(out, `"name": "Joga"`) {
		t.Errorf("output = %s", out)
	}
}

func TestSimilarityCommand(t *testing.T) {
	out, err := runCommand(t, newFakeService(), "similarity", "a1", "missing")
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if !strings.Contains(out, "Bjork vs missing: 0.00") {
		t.Errorf("output = %s", out)
	}
}

func TestRecommendCommand_Limit(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantLimit int32
		wantErr   bool
	}{
		{"config default", []string{"recommend", "artist", "a1"}, 3, false},
		{"flag", []string{"recommend", "artist", "a1", "--limit", "5"}, 5, false},
		{"track flag", []string{"recommend", "track", "t1", "-n", "2"}, 2, false},
		{"out of range", []string{"recommend", "artist", "a1", "--limit", "51"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()

			_, err := runCommand(t, svc, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := svc.limit.Load(); got != tt.wantLimit {
				t.Errorf("limit = %d, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestRecommendTrack_NoSuggestions(t *testing.T) {
	out, err := runCommand(t, newFakeService(), "recommend", "track", "t1")
	if err != nil {
		t.Fatalf("recommend track: %v", err)
	}
	if !strings.Contains(out, "No suggestions available") {
		t.Errorf("output = %s", out)
	}
}

func TestMoodsCommand(t *testing.T) {
	out, err := runCommand(t, newFakeService(), "moods")
	if err != nil {
		t.Fatalf("moods: %v", err)
	}
	for _, want := range []string{"Melancholic", "1 tracks left ungrouped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, nil, nil); got != "" {
		t.Errorf("empty headers should render nothing, got %q", got)
	}

	got := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"A", "B", "1", "2", "3"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0:00", 61000: "1:01", 305000: "5:05"}
	for ms, want := range tests {
		if got := formatDuration(ms); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", ms, got, want)
		}
	}
}

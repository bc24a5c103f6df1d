package web

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/clustering"
	"github.com/justestif/go-spotify-music-explorer/internal/explorer"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
	"github.com/justestif/go-spotify-music-explorer/internal/similarity"
	"github.com/justestif/go-spotify-music-explorer/internal/spotify"
	assets "github.com/justestif/go-spotify-music-explorer/web"
)

// fakeExplorer serves fixed records and counts suggestion calls.
type fakeExplorer struct {
	artists map[string]*features.ArtistFeatures
	tracks  map[string]*features.TrackFeatures

	similarCalls atomic.Int32
	lastLimit    atomic.Int32
}

func newFakeExplorer() *fakeExplorer {
	return &fakeExplorer{
		artists: map[string]*features.ArtistFeatures{
			"a1": {
				ID: "a1", Name: "Radiohead", Popularity: 80,
				Genres: []string{"alternative rock"}, GenreSource: features.GenreSourceSpotify,
				TopTracks: []features.TopTrack{
					{ID: "t1", Name: "Reckoner", DurationMs: 290000, Danceability: 0.5, Energy: 0.6, Valence: 0.4, Tempo: 104},
				},
			},
			"a2": {ID: "a2", Name: "Portishead", Popularity: 70, Genres: []string{"trip hop"}},
		},
		tracks: map[string]*features.TrackFeatures{
			"t1": {ID: "t1", Name: "Reckoner", Artist: "Radiohead", Album: "In Rainbows", DurationMs: 290000, Danceability: 0.5, Energy: 0.6, Valence: 0.4, Tempo: 104},
		},
	}
}

func (f *fakeExplorer) ArtistFeatures(_ context.Context, id string) (*features.ArtistFeatures, error) {
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: artist %q", features.ErrUnavailable, id)
}

func (f *fakeExplorer) TrackFeatures(_ context.Context, id string) (*features.TrackFeatures, error) {
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: track %q", features.ErrUnavailable, id)
}

func (f *fakeExplorer) CompareArtists(_ context.Context, idA, idB string) explorer.Comparison {
	a, b := f.artists[idA], f.artists[idB]
	return explorer.Comparison{A: a, B: b, Breakdown: similarity.Compare(a, b)}
}

func (f *fakeExplorer) SimilarArtists(_ context.Context, _ string, limit int) []spotify.Artist {
	f.similarCalls.Add(1)
	f.lastLimit.Store(int32(limit))
	return []spotify.Artist{{ID: "s1", Name: "Thom Yorke"}}
}

func (f *fakeExplorer) SimilarTracks(_ context.Context, _ string, limit int) []spotify.Track {
	f.similarCalls.Add(1)
	f.lastLimit.Store(int32(limit))
	return []spotify.Track{{ID: "s2", Name: "Nude", Artists: []string{"Radiohead"}}}
}

func (f *fakeExplorer) SearchArtists(_ context.Context, query string) []spotify.Artist {
	if query == "" {
		return []spotify.Artist{}
	}
	return []spotify.Artist{{ID: "a1", Name: "Radiohead", Genres: []string{"alternative rock"}}}
}

func (f *fakeExplorer) SearchTracks(_ context.Context, query string) []spotify.Track {
	if query == "" {
		return []spotify.Track{}
	}
	return []spotify.Track{{ID: "t1", Name: "Reckoner", Artists: []string{"Radiohead"}, DurationMs: 290000}}
}

func (f *fakeExplorer) MoodGroups() ([]clustering.MoodGroup, []features.TrackFeatures, error) {
	return nil, nil, nil
}

func (f *fakeExplorer) TrackMood(t *features.TrackFeatures) clustering.MoodCategory {
	return clustering.GetMoodCategory(t.Audio())
}

func (f *fakeExplorer) ArtistMood(a *features.ArtistFeatures) (clustering.MoodCategory, bool) {
	v, ok := a.AudioProfile()
	if !ok {
		return clustering.MoodCategory{}, false
	}
	return clustering.GetMoodCategory(v), true
}

func (f *fakeExplorer) Stats() explorer.Stats {
	return explorer.Stats{Artists: len(f.artists), Tracks: len(f.tracks)}
}

func newTestServer(t *testing.T, exp Explorer) *Server {
	t.Helper()

	templates, err := fs.Sub(assets.TemplatesFS, "templates")
	if err != nil {
		t.Fatalf("sub templates: %v", err)
	}
	static, err := fs.Sub(assets.StaticFS, "static")
	if err != nil {
		t.Fatalf("sub static: %v", err)
	}

	srv, err := NewServer(ServerConfig{
		APIRateLimit: 1000,
		TemplatesFS:  templates,
		StaticFS:     static,
		Logger:       zerolog.Nop(),
	}, exp)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPages(t *testing.T) {
	srv := newTestServer(t, newFakeExplorer())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   []string
	}{
		{"home", "/", http.StatusOK, []string{"Music Explorer", "2 artists and 1 tracks cached"}},
		{"artist search", "/artists?q=radio", http.StatusOK, []string{"Radiohead", "/artists/a1"}},
		{"artist search empty query", "/artists", http.StatusOK, []string{"Search artists"}},
		{"track search", "/tracks?q=reck", http.StatusOK, []string{"Reckoner", "4:50"}},
		{"artist detail", "/artists/a1", http.StatusOK, []string{"Radiohead", "alternative rock", "Thom Yorke", "Reckoner"}},
		{"artist without audio", "/artists/a2", http.StatusOK, []string{"Portishead", "No top tracks with audio features"}},
		{"track detail", "/tracks/t1", http.StatusOK, []string{"Reckoner", "In Rainbows", "104 BPM", "Nude"}},
		{"unknown artist", "/artists/nope", http.StatusNotFound, []string{"Not available", "nope"}},
		{"unknown track", "/tracks/nope", http.StatusNotFound, []string{"Not available"}},
		{"moods empty", "/moods", http.StatusOK, []string{"Not enough cached tracks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv.Handler(), tt.target)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestArtistSearch_HTMXRendersFragment(t *testing.T) {
	srv := newTestServer(t, newFakeExplorer())

	rec := get(t, srv.Handler(), "/artists?q=radio", "HX-Request", "true")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("fragment should not include the layout")
	}
	if !strings.Contains(body, "Radiohead") {
		t.Error("fragment missing result")
	}
}

func TestAPIArtist(t *testing.T) {
	srv := newTestServer(t, newFakeExplorer())

	rec := get(t, srv.Handler(), "/api/artists/a1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got features.ArtistFeatures
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "a1" || got.Name != "Radiohead" {
		t.Errorf("got %+v", got)
	}
}

func TestAPI_UnavailableIsNotFound(t *testing.T) {
	srv := newTestServer(t, newFakeExplorer())

	for _, target := range []string{"/api/artists/missing", "/api/tracks/missing"} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, srv.Handler(), target)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != "not available" {
				t.Errorf("error = %q", body.Error)
			}
		})
	}
}

func TestAPISimilar_Limit(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int32
	}{
		{"default", "/api/artists/a1/similar", http.StatusOK, 3},
		{"explicit", "/api/tracks/t1/similar?limit=7", http.StatusOK, 7},
		{"zero", "/api/artists/a1/similar?limit=0", http.StatusBadRequest, 0},
		{"too large", "/api/artists/a1/similar?limit=51", http.StatusBadRequest, 0},
		{"not a number", "/api/tracks/t1/similar?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := newFakeExplorer()
			srv := newTestServer(t, exp)

			rec := get(t, srv.Handler(), tt.target)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if exp.similarCalls.Load() != 0 {
					t.Error("explorer should not be called for a bad limit")
				}
				return
			}
			if got := exp.lastLimit.Load(); got != tt.wantLimit {
				t.Errorf("limit = %d, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestAPISimilarity(t *testing.T) {
	srv := newTestServer(t, newFakeExplorer())

	t.Run("missing parameter", func(t *testing.T) {
		rec := get(t, srv.Handler(), "/api/similarity?a=a1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown artist scores zero", func(t *testing.T) {
		rec := get(t, srv.Handler(), "/api/similarity?a=a1&b=missing")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var got explorer.Comparison
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Breakdown.Total != 0 {
			t.Errorf("total = %v, want 0", got.Breakdown.Total)
		}
		if got.B != nil {
			t.Error("b should be null")
		}
	})

	t.Run("self comparison", func(t *testing.T) {
		rec := get(t, srv.Handler(), "/api/similarity?a=a1&b=a1")
		var got explorer.Comparison
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Breakdown.Total < 0.999 {
			t.Errorf("total = %v, want 1", got.Breakdown.Total)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, newFakeExplorer())

	rec := get(t, srv.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	var health struct {
		Status  string `json:"status"`
		Artists int    `json:"artists"`
		Tracks  int    `json:"tracks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || health.Artists != 2 || health.Tracks != 1 {
		t.Errorf("health = %+v", health)
	}

	rec = get(t, srv.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestAPI_RateLimited(t *testing.T) {
	templates, _ := fs.Sub(assets.TemplatesFS, "templates")
	srv, err := NewServer(ServerConfig{APIRateLimit: 2, TemplatesFS: templates, Logger: zerolog.Nop()}, newFakeExplorer())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	var last int
	for range 3 {
		last = get(t, srv.Handler(), "/api/artists/a1").Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	// Pages are not rate limited.
	if code := get(t, srv.Handler(), "/").Code; code != http.StatusOK {
		t.Errorf("page status = %d, want 200", code)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{59000, "0:59"},
		{290000, "4:50"},
		{3600000, "60:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

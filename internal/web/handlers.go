package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/clustering"
	"github.com/justestif/go-spotify-music-explorer/internal/explorer"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
	"github.com/justestif/go-spotify-music-explorer/internal/recommend"
	"github.com/justestif/go-spotify-music-explorer/internal/spotify"
)

// Explorer is the read side the web layer renders. *explorer.Service satisfies it.
type Explorer interface {
	ArtistFeatures(ctx context.Context, id string) (*features.ArtistFeatures, error)
	TrackFeatures(ctx context.Context, id string) (*features.TrackFeatures, error)
	CompareArtists(ctx context.Context, idA, idB string) explorer.Comparison
	SimilarArtists(ctx context.Context, seedID string, limit int) []spotify.Artist
	SimilarTracks(ctx context.Context, seedID string, limit int) []spotify.Track
	SearchArtists(ctx context.Context, query string) []spotify.Artist
	SearchTracks(ctx context.Context, query string) []spotify.Track
	MoodGroups() ([]clustering.MoodGroup, []features.TrackFeatures, error)
	TrackMood(t *features.TrackFeatures) clustering.MoodCategory
	ArtistMood(a *features.ArtistFeatures) (clustering.MoodCategory, bool)
	Stats() explorer.Stats
}

const appTitle = "Music Explorer"

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	explorer     Explorer
	templates    *Templates
	similarLimit int
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(explorer Explorer, templates *Templates, similarLimit int, logger zerolog.Logger) *Handlers {
	if similarLimit <= 0 {
		similarLimit = recommend.DefaultLimit
	}
	return &Handlers{
		explorer:     explorer,
		templates:    templates,
		similarLimit: similarLimit,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
	}
}

type similarQuery struct {
	Limit int `validate:"min=1,max=50"`
}

type similarityQuery struct {
	A string `validate:"required"`
	B string `validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home", h.pageData(r, appTitle))
}

// ArtistSearch handles GET /artists?q=. HTMX requests get only the results list.
func (h *Handlers) ArtistSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := ArtistSearchPageData{
		PageData: h.pageData(r, "Artists"),
		Results:  h.explorer.SearchArtists(r.Context(), query),
	}
	data.Query = query

	if isHTMX(r) {
		h.renderPartial(w, "artist_results", data)
		return
	}
	h.render(w, http.StatusOK, "artists", data)
}

// TrackSearch handles GET /tracks?q=.
func (h *Handlers) TrackSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := TrackSearchPageData{
		PageData: h.pageData(r, "Tracks"),
		Results:  h.explorer.SearchTracks(r.Context(), query),
	}
	data.Query = query

	if isHTMX(r) {
		h.renderPartial(w, "track_results", data)
		return
	}
	h.render(w, http.StatusOK, "tracks", data)
}

// ArtistPage handles GET /artists/{id}.
func (h *Handlers) ArtistPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	artist, err := h.explorer.ArtistFeatures(r.Context(), id)
	if err != nil {
		h.unavailable(w, r, "artist", id, err)
		return
	}

	data := ArtistPageData{
		PageData: h.pageData(r, artist.Name),
		Artist:   artist,
		Similar:  h.explorer.SimilarArtists(r.Context(), id, h.similarLimit),
	}
	data.Profile, data.HasAudio = artist.AudioProfile()
	data.Mood, _ = h.explorer.ArtistMood(artist)

	h.render(w, http.StatusOK, "artist", data)
}

// TrackPage handles GET /tracks/{id}.
func (h *Handlers) TrackPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	track, err := h.explorer.TrackFeatures(r.Context(), id)
	if err != nil {
		h.unavailable(w, r, "track", id, err)
		return
	}

	data := TrackPageData{
		PageData: h.pageData(r, track.Name),
		Track:    track,
		Mood:     h.explorer.TrackMood(track),
		Similar:  h.explorer.SimilarTracks(r.Context(), id, h.similarLimit),
	}

	h.render(w, http.StatusOK, "track", data)
}

// Moods handles GET /moods: every cached track grouped by mood.
func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	groups, outliers, err := h.explorer.MoodGroups()
	if err != nil {
		h.logger.Error().Err(err).Msg("grouping tracks by mood")
	}

	h.render(w, http.StatusOK, "moods", MoodsPageData{
		PageData: h.pageData(r, "Moods"),
		Groups:   groups,
		Outliers: outliers,
	})
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		explorer.Stats
	}{Status: "ok", Stats: h.explorer.Stats()})
}

// APIArtist handles GET /api/artists/{id}.
func (h *Handlers) APIArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := h.explorer.ArtistFeatures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

// APITrack handles GET /api/tracks/{id}.
func (h *Handlers) APITrack(w http.ResponseWriter, r *http.Request) {
	track, err := h.explorer.TrackFeatures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// APISimilarArtists handles GET /api/artists/{id}/similar?limit=.
func (h *Handlers) APISimilarArtists(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.explorer.SimilarArtists(r.Context(), chi.URLParam(r, "id"), limit))
}

// APISimilarTracks handles GET /api/tracks/{id}/similar?limit=.
func (h *Handlers) APISimilarTracks(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.explorer.SimilarTracks(r.Context(), chi.URLParam(r, "id"), limit))
}

// APISimilarity handles GET /api/similarity?a=&b=.
func (h *Handlers) APISimilarity(w http.ResponseWriter, r *http.Request) {
	q := similarityQuery{
		A: strings.TrimSpace(r.URL.Query().Get("a")),
		B: strings.TrimSpace(r.URL.Query().Get("b")),
	}
	if err := h.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query parameters a and b are required"})
		return
	}

	writeJSON(w, http.StatusOK, h.explorer.CompareArtists(r.Context(), q.A, q.B))
}

// limitParam reads ?limit=, defaulting to the configured suggestion count.
// It writes a 400 and returns false when the value is out of range.
func (h *Handlers) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	q := similarQuery{Limit: h.similarLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
			return 0, false
		}
		q.Limit = n
	}

	if err := h.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 50"})
		return 0, false
	}
	return q.Limit, true
}

func (h *Handlers) apiError(w http.ResponseWriter, err error) {
	if errors.Is(err, features.ErrUnavailable) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not available"})
		return
	}
	h.logger.Error().Err(err).Msg("api request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// unavailable renders the empty state for an entity that cannot be shown.
func (h *Handlers) unavailable(w http.ResponseWriter, r *http.Request, kind, id string, err error) {
	h.logger.Warn().Err(err).Str("kind", kind).Str("id", id).Msg("entity not available")

	h.render(w, http.StatusNotFound, "unavailable", UnavailablePageData{
		PageData: h.pageData(r, "Not available"),
		Kind:     kind,
		ID:       id,
	})
}

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Stats:       h.explorer.Stats(),
	}
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("rendering template")
	}
}

func (h *Handlers) renderPartial(w http.ResponseWriter, partial string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.RenderPartial(w, partial, data); err != nil {
		h.logger.Error().Err(err).Str("partial", partial).Msg("rendering partial")
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

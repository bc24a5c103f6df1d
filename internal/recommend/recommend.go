// Package recommend picks "related" entities for a seed by padding popular
// search results until a limit is reached.
package recommend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/metrics"
)

// DefaultLimit is used when Recommend is called with a non-positive limit.
const DefaultLimit = 3

// genrePadLimit is the page size of each genre padding query.
const genrePadLimit = 2

// DefaultGenres are the tags used to pad short result lists, in order.
var DefaultGenres = []string{"pop", "rock", "hip-hop"}

// SearchFunc runs a provider search query and returns up to limit results.
type SearchFunc[T any] func(ctx context.Context, query string, limit int) ([]T, error)

// Selector recommends entities of one kind.
//
// Candidates come from popularity searches, not from the similarity engine:
// the seed is accepted but does not influence which entities are returned.
type Selector[T any] struct {
	kind   string
	search SearchFunc[T]
	idOf   func(T) string
	genres []string
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Selector.
type Option[T any] func(*Selector[T])

// WithClock sets the clock used to pick the current year.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Selector[T]) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the selector logger.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(s *Selector[T]) {
		s.logger = logger
	}
}

// New returns a selector for kind that searches with search and dedups by idOf.
func New[T any](kind string, search SearchFunc[T], idOf func(T) string, opts ...Option[T]) *Selector[T] {
	s := &Selector[T]{
		kind:   kind,
		search: search,
		idOf:   idOf,
		genres: DefaultGenres,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "recommend").Str("kind", kind).Logger()
	return s
}

// Recommend returns up to limit entities:
//
//  1. popular this year
//  2. popular last year, if still short
//  3. two per genre tag, until full or the tags run out
//
// Any search error discards what was collected and falls back to a single
// "this year" query. If that also fails the result is empty, never nil.
func (s *Selector[T]) Recommend(ctx context.Context, seedID string, limit int) []T {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results, err := s.collect(ctx, limit)
	if err == nil {
		return results
	}

	s.logger.Error().Err(err).Str("seed", seedID).Msg("recommendation pipeline failed, using fallback query")
	metrics.RecommendFallbacks.WithLabelValues(s.kind).Inc()

	fallback, ferr := s.search(ctx, yearQuery(s.now().Year()), limit)
	if ferr != nil {
		s.logger.Error().Err(ferr).Str("seed", seedID).Msg("fallback query failed")
		return []T{}
	}
	if len(fallback) > limit {
		fallback = fallback[:limit]
	}
	return fallback
}

func (s *Selector[T]) collect(ctx context.Context, limit int) ([]T, error) {
	year := s.now().Year()
	c := collector[T]{idOf: s.idOf, seen: make(map[string]struct{}), items: make([]T, 0, limit)}

	page, err := s.search(ctx, yearQuery(year), limit)
	if err != nil {
		return nil, fmt.Errorf("searching current year: %w", err)
	}
	c.add(page)

	if len(c.items) < limit {
		page, err := s.search(ctx, yearQuery(year-1), limit)
		if err != nil {
			return nil, fmt.Errorf("searching previous year: %w", err)
		}
		c.add(page)
	}

	for _, genre := range s.genres {
		if len(c.items) >= limit {
			break
		}
		page, err := s.search(ctx, "genre:"+genre, genrePadLimit)
		if err != nil {
			return nil, fmt.Errorf("searching genre %s: %w", genre, err)
		}
		c.add(page)
	}

	if len(c.items) > limit {
		c.items = c.items[:limit]
	}
	return c.items, nil
}

func yearQuery(year int) string {
	return "year:" + strconv.Itoa(year)
}

// collector appends results while skipping ids it has already seen.
type collector[T any] struct {
	idOf  func(T) string
	seen  map[string]struct{}
	items []T
}

func (c *collector[T]) add(page []T) {
	for _, item := range page {
		id := c.idOf(item)
		if _, dup := c.seen[id]; dup {
			continue
		}
		c.seen[id] = struct{}{}
		c.items = append(c.items, item)
	}
}

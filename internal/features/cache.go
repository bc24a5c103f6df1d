package features

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"sync"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-music-explorer/internal/metrics"
)

// ErrUnavailable is returned by Get when a record is neither cached nor fetchable.
var ErrUnavailable = errors.New("features not available")

// Fetcher builds a fresh record for an id from the catalog provider.
type Fetcher[R any] interface {
	Fetch(ctx context.Context, id string) (R, error)
}

// Store persists a full id -> record map.
// Load returns an error matching fs.ErrNotExist when nothing has been persisted yet.
// Restore returns the most recent known-good version after a failed Save.
type Store[R any] interface {
	Load(ctx context.Context) (map[string]R, error)
	Save(ctx context.Context, entries map[string]R) error
	Restore(ctx context.Context) (map[string]R, error)
}

// Cache is a read-through cache of feature records for one entity kind.
// Entries never expire; a record is fetched once per id and kept for good.
type Cache[R any] struct {
	kind    Kind
	store   Store[R]
	fetcher Fetcher[R]
	logger  zerolog.Logger

	mu      sync.RWMutex
	entries map[string]R
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger used for cache events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a cache and loads whatever the store holds.
// A missing or unreadable store starts the cache empty and persists the empty map.
func New[R any](ctx context.Context, kind Kind, store Store[R], fetcher Fetcher[R], opts ...Option) *Cache[R] {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[R]{
		kind:    kind,
		store:   store,
		fetcher: fetcher,
		logger:  o.logger.With().Str("component", "feature_cache").Str("kind", string(kind)).Logger(),
		entries: make(map[string]R),
	}
	c.load(ctx)
	return c
}

// Kind returns the entity kind held by the cache.
func (c *Cache[R]) Kind() Kind {
	return c.kind
}

// Len returns the number of records held in memory.
func (c *Cache[R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Records returns a copy of every cached record keyed by id.
func (c *Cache[R]) Records() map[string]R {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}

// Get returns the record for id, fetching and persisting it on a miss.
// A failed fetch caches nothing and returns an error wrapping ErrUnavailable.
// A failed write is logged and recovered from the store's backup; the fetched
// record is still returned even if that recovery drops it from memory.
func (c *Cache[R]) Get(ctx context.Context, id string) (R, error) {
	c.mu.RLock()
	rec, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		metrics.CacheHits.WithLabelValues(string(c.kind)).Inc()
		c.logger.Debug().Str("id", id).Msg("cache hit")
		return rec, nil
	}

	metrics.CacheMisses.WithLabelValues(string(c.kind)).Inc()
	c.logger.Debug().Str("id", id).Msg("cache miss, fetching")

	rec, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		metrics.CacheFetchFailures.WithLabelValues(string(c.kind)).Inc()
		c.logger.Error().Err(err).Str("id", id).Msg("fetching features")
		var zero R
		return zero, fmt.Errorf("%w: %s %q: %w", ErrUnavailable, c.kind, id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = rec
	c.persist(ctx)

	return rec, nil
}

// load fills the in-memory map from the store. Must be called before the
// cache is shared.
func (c *Cache[R]) load(ctx context.Context) {
	entries, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.logger.Info().Msg("no persisted cache found, creating an empty one")
		c.persist(ctx)
		return
	case err != nil:
		c.logger.Error().Err(err).Msg("persisted cache unreadable, resetting to empty")
		c.persist(ctx)
		return
	}

	if entries != nil {
		c.entries = entries
	}
	metrics.CacheEntries.WithLabelValues(string(c.kind)).Set(float64(len(c.entries)))
	c.logger.Info().Int("entries", len(c.entries)).Msg("loaded feature cache")
}

// persist writes the whole map. On failure the most recent backup, if any,
// replaces the in-memory map. Must be called with c.mu held for writing
// (or before the cache is shared).
func (c *Cache[R]) persist(ctx context.Context) {
	defer func() {
		metrics.CacheEntries.WithLabelValues(string(c.kind)).Set(float64(len(c.entries)))
	}()

	err := c.store.Save(ctx, c.entries)
	if err == nil {
		c.logger.Debug().Int("entries", len(c.entries)).Msg("saved feature cache")
		return
	}

	metrics.CachePersistFailures.WithLabelValues(string(c.kind)).Inc()
	c.logger.Error().Err(err).Msg("saving feature cache")

	restored, rerr := c.store.Restore(ctx)
	if rerr != nil {
		if !errors.Is(rerr, fs.ErrNotExist) {
			c.logger.Error().Err(rerr).Msg("restoring feature cache from backup")
		}
		return
	}
	if restored == nil {
		restored = make(map[string]R)
	}

	c.entries = restored
	metrics.CacheRestores.WithLabelValues(string(c.kind)).Inc()
	c.logger.Warn().Int("entries", len(c.entries)).Msg("restored feature cache from backup")
}

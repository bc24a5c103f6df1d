package explorer

import (
	"context"
	"sync"

	"github.com/justestif/go-spotify-music-explorer/internal/features"
)

// DefaultConcurrency is the number of ids a batch lookup fetches at once.
const DefaultConcurrency = 5

// Lookup is the outcome of one id in a batch lookup.
type Lookup[R any] struct {
	ID     string
	Record *R
	Err    error // non-nil if the record could not be loaded
}

// LookupArtists loads several artists concurrently.
// Results are returned in the same order as ids.
// Individual failures are captured in Lookup.Err rather than failing the batch.
func (s *Service) LookupArtists(ctx context.Context, ids []string) ([]Lookup[features.ArtistFeatures], error) {
	return lookupAll(ctx, ids, s.concurrency, s.ArtistFeatures)
}

// LookupTracks loads several tracks concurrently, in input order.
func (s *Service) LookupTracks(ctx context.Context, ids []string) ([]Lookup[features.TrackFeatures], error) {
	return lookupAll(ctx, ids, s.concurrency, s.TrackFeatures)
}

func lookupAll[R any](
	ctx context.Context,
	ids []string,
	concurrency int,
	get func(context.Context, string) (*R, error),
) ([]Lookup[R], error) {
	if len(ids) == 0 {
		return []Lookup[R]{}, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Lookup[R], len(ids))

	type workItem struct {
		index int
		id    string
	}
	workCh := make(chan workItem, len(ids))
	for i, id := range ids {
		workCh <- workItem{index: i, id: id}
	}
	close(workCh)

	var wg sync.WaitGroup
	for range min(concurrency, len(ids)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = Lookup[R]{ID: work.id, Err: err}
					continue
				}

				rec, err := get(ctx, work.id)
				results[work.index] = Lookup[R]{ID: work.id, Record: rec, Err: err}
			}
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

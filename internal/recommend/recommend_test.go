package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type item struct {
	ID   string
	Note string
}

type searchCall struct {
	query string
	limit int
}

// fakeSearch returns canned pages per query and records every call.
type fakeSearch struct {
	mu      sync.Mutex
	pages   map[string][]item
	errs    map[string]error
	failAll bool
	calls   []searchCall
}

func (f *fakeSearch) search(_ context.Context, query string, limit int) ([]item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, searchCall{query, limit})
	if f.failAll {
		return nil, errors.New("provider down")
	}
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	page := f.pages[query]
	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

func newSelector(f *fakeSearch) *Selector[item] {
	clock := func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return New("artist", f.search, func(i item) string { return i.ID }, WithClock[item](clock))
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecommend_CurrentYearFillsLimit(t *testing.T) {
	f := &fakeSearch{pages: map[string][]item{
		"year:2025": {{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}}

	got := newSelector(f).Recommend(context.Background(), "seed", 3)

	if !equalStrings(ids(got), []string{"a", "b", "c"}) {
		t.Errorf("Recommend() = %v, want [a b c]", ids(got))
	}
	if len(f.calls) != 1 {
		t.Errorf("search calls = %v, want exactly one", f.calls)
	}
}

func TestRecommend_PadsWithPreviousYearAndGenres(t *testing.T) {
	f := &fakeSearch{pages: map[string][]item{
		"year:2025":     {{ID: "a"}},
		"year:2024":     {{ID: "a", Note: "different payload"}, {ID: "b"}},
		"genre:pop":     {{ID: "b"}, {ID: "c"}},
		"genre:rock":    {{ID: "d"}, {ID: "e"}},
		"genre:hip-hop": {{ID: "f"}},
	}}

	got := newSelector(f).Recommend(context.Background(), "seed", 4)

	if !equalStrings(ids(got), []string{"a", "b", "c", "d"}) {
		t.Errorf("Recommend() = %v, want [a b c d]", ids(got))
	}

	want := []searchCall{
		{"year:2025", 4},
		{"year:2024", 4},
		{"genre:pop", 2},
		{"genre:rock", 2},
	}
	if len(f.calls) != len(want) {
		t.Fatalf("search calls = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, f.calls[i], want[i])
		}
	}
}

func TestRecommend_GenresExhausted(t *testing.T) {
	f := &fakeSearch{pages: map[string][]item{
		"year:2025": {{ID: "a"}},
	}}

	got := newSelector(f).Recommend(context.Background(), "seed", 5)

	if !equalStrings(ids(got), []string{"a"}) {
		t.Errorf("Recommend() = %v, want [a]", ids(got))
	}
	if len(f.calls) != 5 {
		t.Errorf("search calls = %d, want 5 (2 years + 3 genres)", len(f.calls))
	}
}

func TestRecommend_ErrorFallsBackOnce(t *testing.T) {
	f := &fakeSearch{
		pages: map[string][]item{
			"year:2025": {{ID: "a"}},
		},
		errs: map[string]error{"genre:pop": errors.New("rate limited")},
	}

	got := newSelector(f).Recommend(context.Background(), "seed", 3)

	// Progress before the error is discarded; the fallback re-runs year:2025.
	if !equalStrings(ids(got), []string{"a"}) {
		t.Errorf("Recommend() = %v, want [a]", ids(got))
	}
	last := f.calls[len(f.calls)-1]
	if last != (searchCall{"year:2025", 3}) {
		t.Errorf("last call = %v, want fallback year:2025 with limit 3", last)
	}
	if len(f.calls) != 4 {
		t.Errorf("search calls = %d, want 4 (3 pipeline + 1 fallback)", len(f.calls))
	}
}

func TestRecommend_FallbackFailureReturnsEmpty(t *testing.T) {
	f := &fakeSearch{failAll: true}

	got := newSelector(f).Recommend(context.Background(), "seed", 3)

	if got == nil || len(got) != 0 {
		t.Errorf("Recommend() = %v, want empty non-nil slice", got)
	}
	if len(f.calls) != 2 {
		t.Errorf("search calls = %d, want 2", len(f.calls))
	}
}

func TestRecommend_DefaultLimit(t *testing.T) {
	f := &fakeSearch{pages: map[string][]item{
		"year:2025": {{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
	}}

	got := newSelector(f).Recommend(context.Background(), "seed", 0)

	if len(got) != DefaultLimit {
		t.Errorf("len = %d, want %d", len(got), DefaultLimit)
	}
	if f.calls[0].limit != DefaultLimit {
		t.Errorf("limit passed = %d, want %d", f.calls[0].limit, DefaultLimit)
	}
}

func TestRecommend_TruncatesOversizedPage(t *testing.T) {
	search := func(_ context.Context, _ string, _ int) ([]item, error) {
		return []item{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}, nil
	}
	s := New("track", search, func(i item) string { return i.ID })

	if got := s.Recommend(context.Background(), "seed", 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestRecommend_SeedDoesNotChangeResults(t *testing.T) {
	f := &fakeSearch{pages: map[string][]item{
		"year:2025": {{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}}
	s := newSelector(f)

	one := s.Recommend(context.Background(), "seed-1", 3)
	two := s.Recommend(context.Background(), "seed-2", 3)

	if !equalStrings(ids(one), ids(two)) {
		t.Errorf("results differ by seed: %v vs %v", ids(one), ids(two))
	}
}

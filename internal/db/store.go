package db

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// FeatureStore persists a feature cache in PostgreSQL. It satisfies the
// Load/Save/Restore contract of features.Store.
type FeatureStore[R any] struct {
	repo *FeatureRepository
}

// NewFeatureStore returns a store over repo.
func NewFeatureStore[R any](repo *FeatureRepository) *FeatureStore[R] {
	return &FeatureStore[R]{repo: repo}
}

// Load reads every record of the kind. An empty table loads as an empty map.
func (s *FeatureStore[R]) Load(ctx context.Context) (map[string]R, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return decodeRows[R](rows)
}

// Save replaces the kind's rows with entries.
func (s *FeatureStore[R]) Save(ctx context.Context, entries map[string]R) error {
	docs, err := encodeRecords(entries)
	if err != nil {
		return err
	}
	return s.repo.ReplaceAll(ctx, docs)
}

// Restore reloads the last committed state. A failed Save rolls back, so
// that state is the prior version.
func (s *FeatureStore[R]) Restore(ctx context.Context) (map[string]R, error) {
	return s.Load(ctx)
}

func encodeRecords[R any](entries map[string]R) (map[string][]byte, error) {
	docs := make(map[string][]byte, len(entries))
	for id, rec := range entries {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding record %q: %w", id, err)
		}
		docs[id] = data
	}
	return docs, nil
}

func decodeRows[R any](rows []FeatureRow) (map[string]R, error) {
	entries := make(map[string]R, len(rows))
	for _, row := range rows {
		var rec R
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			return nil, fmt.Errorf("decoding record %q: %w", row.ID, err)
		}
		entries[row.ID] = rec
	}
	return entries, nil
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FeatureRepository handles feature_cache rows for one kind.
type FeatureRepository struct {
	pool *pgxpool.Pool
	kind string
}

// Kind returns the entity kind the repository is scoped to.
func (r *FeatureRepository) Kind() string {
	return r.kind
}

// Get retrieves one row by id.
func (r *FeatureRepository) Get(ctx context.Context, id string) (*FeatureRow, error) {
	query := `
		SELECT kind, id, record, updated_at
		FROM feature_cache
		WHERE kind = $1 AND id = $2
	`
	var row FeatureRow
	err := r.pool.QueryRow(ctx, query, r.kind, id).Scan(&row.Kind, &row.ID, &row.Record, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting feature row: %w", err)
	}
	return &row, nil
}

// List retrieves every row of the kind.
func (r *FeatureRepository) List(ctx context.Context) ([]FeatureRow, error) {
	query := `
		SELECT kind, id, record, updated_at
		FROM feature_cache
		WHERE kind = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, r.kind)
	if err != nil {
		return nil, fmt.Errorf("listing feature rows: %w", err)
	}
	defer rows.Close()

	var out []FeatureRow
	for rows.Next() {
		var row FeatureRow
		if err := rows.Scan(&row.Kind, &row.ID, &row.Record, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning feature row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature rows: %w", err)
	}
	return out, nil
}

// ReplaceAll makes the kind's rows equal to records in a single transaction:
// every record is upserted and ids not in records are deleted.
func (r *FeatureRepository) ReplaceAll(ctx context.Context, records map[string][]byte) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	ids := make([]string, 0, len(records))
	docs := make([]string, 0, len(records))
	for id, doc := range records {
		ids = append(ids, id)
		docs = append(docs, string(doc))
	}

	if len(ids) > 0 {
		upsert := `
			INSERT INTO feature_cache (kind, id, record, updated_at)
			SELECT $1, u.id, u.record::jsonb, NOW()
			FROM unnest($2::text[], $3::text[]) AS u(id, record)
			ON CONFLICT (kind, id) DO UPDATE SET
				record = EXCLUDED.record,
				updated_at = EXCLUDED.updated_at
			WHERE feature_cache.record IS DISTINCT FROM EXCLUDED.record
		`
		if _, err := tx.Exec(ctx, upsert, r.kind, ids, docs); err != nil {
			return fmt.Errorf("upserting feature rows: %w", err)
		}
	}

	prune := `DELETE FROM feature_cache WHERE kind = $1 AND NOT (id = ANY($2::text[]))`
	if _, err := tx.Exec(ctx, prune, r.kind, ids); err != nil {
		return fmt.Errorf("pruning feature rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

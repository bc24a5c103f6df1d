package db

import "time"

// FeatureRow is one cached record as stored in feature_cache.
type FeatureRow struct {
	Kind      string
	ID        string
	Record    []byte // JSON document
	UpdatedAt time.Time
}

package port

import (
	"context"

	"github.com/ringo380/pgadvisor/internal/core/domain"
)

// MetadataReader exposes the catalog facts the advisor needs: per-column
// metadata for the analyzed schemas (base tables only) and the existing
// index snapshot. Both are point-in-time reads taken at run start; the
// creation phase re-checks the live catalog rather than trusting them.
type MetadataReader interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
	ExistingIndexes(ctx context.Context) (map[string][]domain.ExistingIndex, error)
}

// IndexUsageRecord is one live row of index scan statistics. Status is
// filled in by the advisor from the raw counters.
type IndexUsageRecord struct {
	Schema        string             `json:"schema"`
	Table         string             `json:"table"`
	Index         string             `json:"index"`
	Scans         int64              `json:"scans"`
	TuplesRead    int64              `json:"tuples_read"`
	TuplesFetched int64              `json:"tuples_fetched"`
	SizeBytes     int64              `json:"size_bytes"`
	SizeHuman     string             `json:"size_human,omitempty"`
	Status        domain.UsageStatus `json:"status,omitempty"`
	Note          string             `json:"note,omitempty"`
}

// IndexUsageReader reads scan/tuple statistics for every index in the
// analyzed schemas.
type IndexUsageReader interface {
	IndexUsage(ctx context.Context) ([]IndexUsageRecord, error)
}

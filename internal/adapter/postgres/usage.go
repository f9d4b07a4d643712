package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ringo380/pgadvisor/internal/core/port"
)

// UsageReader reads live index scan statistics from pg_stat_user_indexes.
type UsageReader struct {
	pool    *pgxpool.Pool
	schemas []string
}

func NewUsageReader(pool *pgxpool.Pool, schemas []string) *UsageReader {
	return &UsageReader{pool: pool, schemas: schemas}
}

func (r *UsageReader) IndexUsage(ctx context.Context) ([]port.IndexUsageRecord, error) {
	filter, args := schemaFilter(r.schemas, "s.schemaname", 1)
	query := fmt.Sprintf(queryIndexUsageStats, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index usage: %w", err)
	}
	defer rows.Close()

	var records []port.IndexUsageRecord
	for rows.Next() {
		var rec port.IndexUsageRecord
		if err := rows.Scan(
			&rec.Schema, &rec.Table, &rec.Index,
			&rec.Scans, &rec.TuplesRead, &rec.TuplesFetched,
			&rec.SizeBytes, &rec.SizeHuman,
		); err != nil {
			return nil, fmt.Errorf("scanning index usage row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

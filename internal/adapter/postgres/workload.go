package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ringo380/pgadvisor/internal/core/port"
)

// ErrStatementsUnavailable means pg_stat_statements is not installed in the
// target database; the advisor cannot sample a workload without it.
var ErrStatementsUnavailable = errors.New("pg_stat_statements extension is not available")

// StatementSampler reads aggregated workload statistics from
// pg_stat_statements, filtered server-side to significant queries.
type StatementSampler struct {
	pool        *pgxpool.Pool
	minCalls    int64
	minMeanTime float64
	limit       int
}

func NewStatementSampler(pool *pgxpool.Pool, minCalls int64, minMeanTimeMS float64, limit int) *StatementSampler {
	return &StatementSampler{
		pool:        pool,
		minCalls:    minCalls,
		minMeanTime: minMeanTimeMS,
		limit:       limit,
	}
}

func (s *StatementSampler) Sample(ctx context.Context) ([]port.QueryStat, error) {
	rows, err := s.pool.Query(ctx, queryStatements, s.minCalls, s.minMeanTime, s.limit)
	if err != nil {
		var pgErr *pgconn.PgError
		// 42P01 undefined_table: the extension view does not exist.
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" && strings.Contains(pgErr.Message, "pg_stat_statements") {
			return nil, ErrStatementsUnavailable
		}
		return nil, fmt.Errorf("querying pg_stat_statements: %w", err)
	}
	defer rows.Close()

	var stats []port.QueryStat
	for rows.Next() {
		var q port.QueryStat
		if err := rows.Scan(&q.Query, &q.Calls, &q.TotalTimeMS, &q.MeanTimeMS, &q.Rows, &q.CacheHitRatio); err != nil {
			return nil, fmt.Errorf("scanning workload row: %w", err)
		}
		stats = append(stats, q)
	}
	return stats, rows.Err()
}

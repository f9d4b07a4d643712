package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ringo380/pgadvisor/internal/core/domain"
	"github.com/ringo380/pgadvisor/internal/core/port"
)

// ConcurrentCreator builds indexes with CREATE INDEX CONCURRENTLY. Each
// candidate is its own unit of work: CONCURRENTLY cannot run inside a
// transaction, so there is no batch to roll back — a failed build leaves an
// invalid index behind, which the creator drops before reporting FAILED.
type ConcurrentCreator struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration // zero means no per-statement timeout
}

func NewConcurrentCreator(pool *pgxpool.Pool, statementTimeout time.Duration) *ConcurrentCreator {
	return &ConcurrentCreator{pool: pool, statementTimeout: statementTimeout}
}

// BuildSQL renders the non-locking creation statement for a candidate.
func BuildSQL(candidate domain.IndexCandidate) string {
	cols := make([]string, len(candidate.Columns))
	for i, c := range candidate.Columns {
		cols[i] = quoteIdent(c)
	}
	return fmt.Sprintf("CREATE INDEX CONCURRENTLY %s ON %s (%s)",
		quoteIdent(candidate.Name), quoteQualified(candidate.Table), strings.Join(cols, ", "))
}

func (c *ConcurrentCreator) Create(ctx context.Context, candidate domain.IndexCandidate) port.CreationResult {
	start := time.Now()
	result := port.CreationResult{
		Candidate: candidate,
		SQL:       BuildSQL(candidate),
	}
	finish := func(outcome port.CreationOutcome, err error) port.CreationResult {
		result.Outcome = outcome
		result.DurationMS = time.Since(start).Milliseconds()
		if err != nil {
			result.Error = err.Error()
		}
		return result
	}

	// Check the live catalog, not the analysis snapshot: a concurrent run
	// may have created the same name since the snapshot was taken.
	exists, err := c.indexExists(ctx, candidate)
	if err != nil {
		return finish(port.OutcomeFailed, fmt.Errorf("checking live catalog: %w", err))
	}
	if exists {
		return finish(port.OutcomeAlreadyExists, nil)
	}

	execCtx := ctx
	if c.statementTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, c.statementTimeout)
		defer cancel()
	}

	if _, err := c.pool.Exec(execCtx, result.SQL); err != nil {
		// A failed CONCURRENTLY build can leave an INVALID index; drop it so
		// a retry of the same candidate name starts clean.
		c.dropLeftover(candidate)
		return finish(port.OutcomeFailed, fmt.Errorf("creating index: %w", err))
	}
	return finish(port.OutcomeCreated, nil)
}

func (c *ConcurrentCreator) indexExists(ctx context.Context, candidate domain.IndexCandidate) (bool, error) {
	schema := candidate.Table
	if i := strings.IndexByte(schema, '.'); i >= 0 {
		schema = schema[:i]
	}
	var one int
	err := c.pool.QueryRow(ctx, queryIndexExists, schema, candidate.Name).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// dropLeftover removes the invalid index a failed build may have left. The
// original context may already be cancelled or timed out, so cleanup runs on
// its own short deadline; failure here is acceptable (the next run's
// existence check surfaces the leftover).
func (c *ConcurrentCreator) dropLeftover(candidate domain.IndexCandidate) {
	schema := candidate.Table
	if i := strings.IndexByte(schema, '.'); i >= 0 {
		schema = schema[:i]
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sql := fmt.Sprintf("DROP INDEX CONCURRENTLY IF EXISTS %s.%s",
		quoteIdent(schema), quoteIdent(candidate.Name))
	_, _ = c.pool.Exec(ctx, sql)
}

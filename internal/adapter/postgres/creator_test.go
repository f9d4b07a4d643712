package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ringo380/pgadvisor/internal/adapter/postgres"
	"github.com/ringo380/pgadvisor/internal/core/domain"
	"github.com/ringo380/pgadvisor/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSQL(t *testing.T) {
	sql := postgres.BuildSQL(domain.IndexCandidate{
		Table:   "rds.orders",
		Columns: []string{"entry_date"},
		Name:    "idx_orders_entry_date",
	})
	assert.Equal(t, `CREATE INDEX CONCURRENTLY "idx_orders_entry_date" ON "rds"."orders" ("entry_date")`, sql)

	sql = postgres.BuildSQL(domain.IndexCandidate{
		Table:   "rds.orders",
		Columns: []string{"region", "status"},
		Name:    "idx_orders_region_status",
	})
	assert.Equal(t, `CREATE INDEX CONCURRENTLY "idx_orders_region_status" ON "rds"."orders" ("region", "status")`, sql)
}

func indexInCatalog(t *testing.T, pool *pgxpool.Pool, schema, name string) bool {
	t.Helper()
	var one int
	err := pool.QueryRow(context.Background(),
		"SELECT 1 FROM pg_indexes WHERE schemaname = $1 AND indexname = $2", schema, name).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestConcurrentCreator_CreateAndRecheck(t *testing.T) {
	pool := setupTestDB(t)
	creator := postgres.NewConcurrentCreator(pool, 2*time.Minute)
	ctx := context.Background()

	candidate := domain.IndexCandidate{
		Type:    domain.CandidateSingleColumn,
		Table:   "rds.orders",
		Columns: []string{"entry_date"},
		Name:    "idx_orders_entry_date",
	}

	res := creator.Create(ctx, candidate)
	assert.Equal(t, port.OutcomeCreated, res.Outcome)
	assert.Empty(t, res.Error)
	assert.True(t, indexInCatalog(t, pool, "rds", "idx_orders_entry_date"))

	// Second attempt hits the live-catalog check.
	res = creator.Create(ctx, candidate)
	assert.Equal(t, port.OutcomeAlreadyExists, res.Outcome)
	assert.Empty(t, res.Error)
}

func TestConcurrentCreator_SkipsPreexistingName(t *testing.T) {
	pool := setupTestDB(t)
	creator := postgres.NewConcurrentCreator(pool, 0)
	ctx := context.Background()

	// idx_orders_status was created by the schema seed, not the advisor.
	res := creator.Create(ctx, domain.IndexCandidate{
		Table:   "rds.orders",
		Columns: []string{"status"},
		Name:    "idx_orders_status",
	})
	assert.Equal(t, port.OutcomeAlreadyExists, res.Outcome)
}

func TestConcurrentCreator_FailureLeavesNoLeftover(t *testing.T) {
	pool := setupTestDB(t)
	creator := postgres.NewConcurrentCreator(pool, 0)
	ctx := context.Background()

	res := creator.Create(ctx, domain.IndexCandidate{
		Table:   "rds.orders",
		Columns: []string{"no_such_column"},
		Name:    "idx_orders_no_such_column",
	})
	assert.Equal(t, port.OutcomeFailed, res.Outcome)
	assert.NotEmpty(t, res.Error)
	assert.False(t, indexInCatalog(t, pool, "rds", "idx_orders_no_such_column"))
}

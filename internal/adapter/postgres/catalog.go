package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ringo380/pgadvisor/internal/core/domain"
)

// CatalogReader reads column metadata, row estimates, and the existing
// index snapshot for the analyzed schemas.
type CatalogReader struct {
	pool    *pgxpool.Pool
	schemas []string
}

func NewCatalogReader(pool *pgxpool.Pool, schemas []string) *CatalogReader {
	return &CatalogReader{pool: pool, schemas: schemas}
}

func (r *CatalogReader) Catalog(ctx context.Context) (*domain.Catalog, error) {
	filter, args := schemaFilter(r.schemas, "t.table_schema", 1)
	query := fmt.Sprintf(queryColumnMetadata, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying column metadata: %w", err)
	}
	defer rows.Close()

	catalog := domain.NewCatalog()
	for rows.Next() {
		var (
			schema, table, column, dataType, role string
			nullable                              bool
			nDistinct                             *float64
		)
		if err := rows.Scan(&schema, &table, &column, &dataType, &nullable, &role, &nDistinct); err != nil {
			return nil, fmt.Errorf("scanning column metadata row: %w", err)
		}

		t := catalog.Upsert(schema, table)
		colRole := domain.ColumnRole(role)
		t.Columns[column] = domain.ColumnMeta{
			Name:      column,
			DataType:  dataType,
			Nullable:  nullable,
			Role:      colRole,
			NDistinct: nDistinct,
		}
		switch colRole {
		case domain.RolePrimaryKey:
			t.PrimaryKeys = append(t.PrimaryKeys, column)
		case domain.RoleForeignKey:
			t.ForeignKeys = append(t.ForeignKeys, column)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading column metadata: %w", err)
	}

	if err := r.fillRowEstimates(ctx, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (r *CatalogReader) fillRowEstimates(ctx context.Context, catalog *domain.Catalog) error {
	filter, args := schemaFilter(r.schemas, "n.nspname", 1)
	query := fmt.Sprintf(queryRowEstimates, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying row estimates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table string
		var estimate int64
		if err := rows.Scan(&schema, &table, &estimate); err != nil {
			return fmt.Errorf("scanning row estimate: %w", err)
		}
		if t, ok := catalog.Table(schema + "." + table); ok {
			t.RowEstimate = estimate
		}
	}
	return rows.Err()
}

func (r *CatalogReader) ExistingIndexes(ctx context.Context) (map[string][]domain.ExistingIndex, error) {
	filter, args := schemaFilter(r.schemas, "schemaname", 1)
	query := fmt.Sprintf(queryExistingIndexes, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing indexes: %w", err)
	}
	defer rows.Close()

	indexes := make(map[string][]domain.ExistingIndex)
	for rows.Next() {
		var idx domain.ExistingIndex
		if err := rows.Scan(&idx.Schema, &idx.Table, &idx.Name, &idx.Definition); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		key := idx.Schema + "." + idx.Table
		indexes[key] = append(indexes[key], idx)
	}
	return indexes, rows.Err()
}

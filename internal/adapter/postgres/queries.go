package postgres

// queryStatements reads significant workload rows from pg_stat_statements.
// The significance thresholds are $1 (min calls) and $2 (min mean time in
// ms); $3 caps the sample. Catalog housekeeping queries are excluded so the
// advisor never recommends indexes for its own reads.
const queryStatements = `
	SELECT
		query,
		calls,
		total_exec_time,
		mean_exec_time,
		rows,
		CASE
			WHEN shared_blks_hit + shared_blks_read = 0 THEN 0
			ELSE ROUND(100.0 * shared_blks_hit / (shared_blks_hit + shared_blks_read), 2)
		END::float8 AS cache_hit_ratio
	FROM pg_stat_statements
	WHERE query NOT LIKE '%pg_stat_statements%'
		AND query NOT LIKE '%information_schema%'
		AND query NOT LIKE '%pg_catalog%'
		AND calls > $1
		AND mean_exec_time > $2
	ORDER BY total_exec_time DESC
	LIMIT $3`

// queryColumnMetadata has one %s placeholder for the schema filter clause.
// Base tables only; the key-constraint joins tag each column's role and
// pg_stats supplies n_distinct (NULL when the table was never analyzed).
const queryColumnMetadata = `
	SELECT
		t.table_schema,
		t.table_name,
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES',
		CASE
			WHEN pk.column_name IS NOT NULL THEN 'PRIMARY KEY'
			WHEN fk.column_name IS NOT NULL THEN 'FOREIGN KEY'
			ELSE 'REGULAR'
		END AS column_role,
		s.n_distinct
	FROM information_schema.tables t
	JOIN information_schema.columns c
		ON c.table_schema = t.table_schema AND c.table_name = t.table_name
	LEFT JOIN (
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu ON kcu.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
	) pk ON pk.table_schema = c.table_schema
		AND pk.table_name = c.table_name
		AND pk.column_name = c.column_name
	LEFT JOIN (
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu ON kcu.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
	) fk ON fk.table_schema = c.table_schema
		AND fk.table_name = c.table_name
		AND fk.column_name = c.column_name
	LEFT JOIN pg_stats s
		ON s.schemaname = c.table_schema
		AND s.tablename = c.table_name
		AND s.attname = c.column_name
	WHERE %s
		AND t.table_type = 'BASE TABLE'
	ORDER BY t.table_schema, t.table_name, c.ordinal_position`

// queryRowEstimates has one %s placeholder for the schema filter clause.
// reltuples gives the planner's live row count, preferred over the fixed
// row-count assumption when computing selectivity.
const queryRowEstimates = `
	SELECT n.nspname, c.relname, GREATEST(c.reltuples, 0)::bigint
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE c.relkind IN ('r', 'p') AND %s`

// queryExistingIndexes has one %s placeholder for the schema filter clause.
const queryExistingIndexes = `
	SELECT schemaname, tablename, indexname, indexdef
	FROM pg_indexes
	WHERE %s
	ORDER BY schemaname, tablename, indexname`

// queryIndexExists checks the live catalog for an index name. $1 = schema,
// $2 = index name.
const queryIndexExists = `
	SELECT 1 FROM pg_indexes
	WHERE schemaname = $1 AND indexname = $2`

// queryIndexUsageStats has one %s placeholder for the schema filter clause.
const queryIndexUsageStats = `
	SELECT
		s.schemaname,
		s.relname,
		s.indexrelname,
		COALESCE(s.idx_scan, 0),
		COALESCE(s.idx_tup_read, 0),
		COALESCE(s.idx_tup_fetch, 0),
		COALESCE(pg_relation_size(s.indexrelid), 0),
		pg_size_pretty(COALESCE(pg_relation_size(s.indexrelid), 0))
	FROM pg_stat_user_indexes s
	WHERE %s
	ORDER BY s.schemaname, s.relname, s.indexrelname`

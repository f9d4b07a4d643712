package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ordersCatalog builds a one-table snapshot with a primary key, a foreign
// key, a high-selectivity column and a low-selectivity column.
func ordersCatalog() *Catalog {
	c := NewCatalog()
	orders := c.Upsert("rds", "orders")
	orders.RowEstimate = 1_000_000
	orders.Columns["id"] = ColumnMeta{Name: "id", Role: RolePrimaryKey}
	orders.Columns["customer_id"] = ColumnMeta{Name: "customer_id", Role: RoleForeignKey, NDistinct: fptr(50_000)}
	orders.Columns["region"] = ColumnMeta{Name: "region", Role: RoleRegular, NDistinct: fptr(200_000)}
	orders.Columns["status"] = ColumnMeta{Name: "status", Role: RoleRegular, NDistinct: fptr(5)}
	orders.Columns["entry_date"] = ColumnMeta{Name: "entry_date", Role: RoleRegular}
	orders.PrimaryKeys = []string{"id"}
	orders.ForeignKeys = []string{"customer_id"}
	return c
}

func candidateByName(t *testing.T, candidates []IndexCandidate, name string) IndexCandidate {
	t.Helper()
	for _, c := range candidates {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("candidate %s not generated", name)
	return IndexCandidate{}
}

func TestGenerate_ForeignKeyStrategy(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	// Foreign keys are suggested even with no observed usage at all.
	candidates := g.Generate(nil, ordersCatalog(), nil)

	require.Len(t, candidates, 1)
	fk := candidates[0]
	assert.Equal(t, CandidateForeignKey, fk.Type)
	assert.Equal(t, "rds.orders", fk.Table)
	assert.Equal(t, []string{"customer_id"}, fk.Columns)
	assert.Equal(t, "idx_orders_customer_id", fk.Name)
	assert.Equal(t, float64(1_000_000), fk.PriorityScore)
	assert.Equal(t, BenefitHigh, fk.Benefit)
}

func TestGenerate_ForeignKeySupersedesSingleColumn(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	usage := []ColumnUsage{{Table: "rds.orders", Column: "customer_id", Weight: 500}}
	candidates := g.Generate(usage, ordersCatalog(), nil)

	// One candidate for the column, from the foreign-key strategy.
	require.Len(t, candidates, 1)
	assert.Equal(t, CandidateForeignKey, candidates[0].Type)
}

func TestGenerate_SkipsPrimaryKeyColumns(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	usage := []ColumnUsage{{Table: "rds.orders", Column: "id", Weight: 9_999}}
	candidates := g.Generate(usage, ordersCatalog(), nil)

	for _, c := range candidates {
		assert.NotEqual(t, "idx_orders_id", c.Name)
	}
}

func TestGenerate_SkipsUnknownTablesAndColumns(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	usage := []ColumnUsage{
		{Table: "rds.nonexistent", Column: "status", Weight: 100},
		{Table: "rds.orders", Column: "phantom_col", Weight: 100},
	}
	candidates := g.Generate(usage, ordersCatalog(), nil)

	// Only the foreign-key candidate survives.
	require.Len(t, candidates, 1)
	assert.Equal(t, CandidateForeignKey, candidates[0].Type)
}

func TestGenerate_SelectivityScoring(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	usage := []ColumnUsage{
		{Table: "rds.orders", Column: "region", Weight: 1_000},
		{Table: "rds.orders", Column: "status", Weight: 1_000},
		{Table: "rds.orders", Column: "entry_date", Weight: 1_000},
	}
	candidates := g.Generate(usage, ordersCatalog(), nil)

	// region: 200k distinct over 1M rows, selectivity 0.2 > 0.1 boosts.
	region := candidateByName(t, candidates, "idx_orders_region")
	assert.InDelta(t, 1_500, region.PriorityScore, 1e-9)
	assert.Contains(t, region.Reasoning, "selectivity: 0.200")

	// status: 5 distinct over 1M rows, selectivity below 0.01 penalizes.
	status := candidateByName(t, candidates, "idx_orders_status")
	assert.InDelta(t, 500, status.PriorityScore, 1e-9)

	// entry_date: no statistics, moderate 0.5 still earns the boost.
	entryDate := candidateByName(t, candidates, "idx_orders_entry_date")
	assert.InDelta(t, 1_500, entryDate.PriorityScore, 1e-9)
	assert.Equal(t, BenefitLow, entryDate.Benefit)
}

func TestGenerate_SkipsAlreadyIndexedColumns(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	existing := map[string][]ExistingIndex{
		"rds.orders": {
			{
				Name:       "idx_orders_customer_id",
				Definition: "CREATE INDEX idx_orders_customer_id ON rds.orders USING btree (customer_id)",
			},
			{
				Name:       "idx_orders_region",
				Definition: "CREATE INDEX idx_orders_region ON rds.orders USING btree (region)",
			},
		},
	}
	usage := []ColumnUsage{
		{Table: "rds.orders", Column: "region", Weight: 1_000},
		{Table: "rds.orders", Column: "status", Weight: 1_000},
	}
	candidates := g.Generate(usage, ordersCatalog(), existing)

	require.Len(t, candidates, 1)
	assert.Equal(t, "idx_orders_status", candidates[0].Name)
}

func TestGenerate_CompositePatterns(t *testing.T) {
	patterns := []CompositePattern{
		{
			Table:     "rds.orders",
			Columns:   []string{"region", "status"},
			Rationale: "Common filter combination in reporting queries",
		},
		{
			Table:   "rds.orders",
			Columns: []string{"region", "phantom_col"},
		},
		{
			Table:   "rds.nonexistent",
			Columns: []string{"a", "b"},
		},
	}
	g := NewGenerator(DefaultScoringPolicy(), patterns)

	candidates := g.Generate(nil, ordersCatalog(), nil)

	composite := candidateByName(t, candidates, "idx_orders_region_status")
	assert.Equal(t, CandidateComposite, composite.Type)
	assert.Equal(t, []string{"region", "status"}, composite.Columns)
	assert.Equal(t, float64(500_000), composite.PriorityScore)
	assert.Equal(t, BenefitMedium, composite.Benefit)
	assert.Equal(t, "Common filter combination in reporting queries", composite.Reasoning)

	// Patterns naming unknown tables or columns are dropped quietly.
	require.Len(t, candidates, 2) // foreign key + one composite
}

func TestGenerate_CompositeCoveredByExisting(t *testing.T) {
	patterns := []CompositePattern{
		{Table: "rds.orders", Columns: []string{"region", "status"}},
	}
	g := NewGenerator(DefaultScoringPolicy(), patterns)

	existing := map[string][]ExistingIndex{
		"rds.orders": {
			{Definition: "CREATE INDEX other_name ON rds.orders USING btree (status, region)"},
		},
	}
	candidates := g.Generate(nil, ordersCatalog(), existing)

	for _, c := range candidates {
		assert.NotEqual(t, CandidateComposite, c.Type)
	}
}

func TestGenerate_RankingAndTruncation(t *testing.T) {
	policy := DefaultScoringPolicy()
	policy.MaxSuggestions = 2
	patterns := []CompositePattern{
		{Table: "rds.orders", Columns: []string{"region", "status"}},
	}
	g := NewGenerator(policy, patterns)

	usage := []ColumnUsage{
		{Table: "rds.orders", Column: "region", Weight: 1_000},
		{Table: "rds.orders", Column: "status", Weight: 1_000},
	}
	candidates := g.Generate(usage, ordersCatalog(), nil)

	require.Len(t, candidates, 2)
	assert.Equal(t, CandidateForeignKey, candidates[0].Type)
	assert.Equal(t, CandidateComposite, candidates[1].Type)
	assert.GreaterOrEqual(t, candidates[0].PriorityScore, candidates[1].PriorityScore)
}

func TestGenerate_RowCountAssumptionFallback(t *testing.T) {
	policy := DefaultScoringPolicy()
	policy.RowCountAssumption = 1_000
	g := NewGenerator(policy, nil)

	c := NewCatalog()
	tbl := c.Upsert("rds", "small")
	tbl.Columns["code"] = ColumnMeta{Name: "code", Role: RoleRegular, NDistinct: fptr(500)}

	usage := []ColumnUsage{{Table: "rds.small", Column: "code", Weight: 100}}
	candidates := g.Generate(usage, c, nil)

	// 500 distinct over assumed 1k rows: selectivity 0.5, boosted.
	require.Len(t, candidates, 1)
	assert.InDelta(t, 150, candidates[0].PriorityScore, 1e-9)
}

func TestCandidateName(t *testing.T) {
	assert.Equal(t, "idx_orders_status", CandidateName("rds.orders", []string{"status"}))
	assert.Equal(t, "idx_orders_region_status", CandidateName("rds.orders", []string{"region", "status"}))
	assert.Equal(t, "idx_orders_status", CandidateName("orders", []string{"status"}))
}

func TestBenefitFor(t *testing.T) {
	p := DefaultScoringPolicy()

	assert.Equal(t, BenefitLow, p.BenefitFor(99_999))
	assert.Equal(t, BenefitMedium, p.BenefitFor(100_000))
	assert.Equal(t, BenefitMedium, p.BenefitFor(999_999))
	assert.Equal(t, BenefitHigh, p.BenefitFor(1_000_000))
}

func TestGenerate_ModerateSelectivityScoresUnchanged(t *testing.T) {
	g := NewGenerator(DefaultScoringPolicy(), nil)

	c := NewCatalog()
	tbl := c.Upsert("rds", "fact_enrollment")
	tbl.RowEstimate = 1_000_000
	tbl.Columns["school_year_id"] = ColumnMeta{Name: "school_year_id", Role: RoleRegular, NDistinct: fptr(-0.02)}

	// weight 500 calls x 200ms; selectivity 0.02 sits between the
	// thresholds, so no boost and no penalty apply.
	usage := []ColumnUsage{{Table: "rds.fact_enrollment", Column: "school_year_id", Weight: 100_000}}
	candidates := g.Generate(usage, c, nil)

	require.Len(t, candidates, 1)
	assert.InDelta(t, 100_000, candidates[0].PriorityScore, 1e-9)
	assert.Equal(t, BenefitMedium, candidates[0].Benefit)
}

func TestGenerate_DuplicatePatternsEmitOnce(t *testing.T) {
	pattern := CompositePattern{
		Table:     "rds.orders",
		Columns:   []string{"entry_date", "status"},
		Rationale: "Date-range scans filtered by status",
	}
	g := NewGenerator(DefaultScoringPolicy(), []CompositePattern{pattern, pattern})

	candidates := g.Generate(nil, ordersCatalog(), nil)

	count := 0
	for _, c := range candidates {
		if c.Name == "idx_orders_entry_date_status" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGenerate_NameCollisionAcrossStrategies(t *testing.T) {
	// A column named like the joined pattern columns derives the same index
	// name as the composite; only one candidate may carry it.
	c := NewCatalog()
	events := c.Upsert("rds", "events")
	events.RowEstimate = 1_000_000
	events.Columns["device"] = ColumnMeta{Name: "device", Role: RoleRegular, NDistinct: fptr(100)}
	events.Columns["type"] = ColumnMeta{Name: "type", Role: RoleRegular, NDistinct: fptr(20)}
	events.Columns["device_type"] = ColumnMeta{Name: "device_type", Role: RoleRegular, NDistinct: fptr(-0.05)}

	pattern := CompositePattern{
		Table:     "rds.events",
		Columns:   []string{"device", "type"},
		Rationale: "Device dashboards filter on both",
	}
	g := NewGenerator(DefaultScoringPolicy(), []CompositePattern{pattern})

	usage := []ColumnUsage{{Table: "rds.events", Column: "device_type", Weight: 5_000}}
	candidates := g.Generate(usage, c, nil)

	count := 0
	for _, cand := range candidates {
		if cand.Name == "idx_events_device_type" {
			count++
		}
	}
	assert.Equal(t, 1, count, "derived index names must be unique across strategies")

	names := make(map[string]bool)
	for _, cand := range candidates {
		assert.False(t, names[cand.Name], "duplicate name %s", cand.Name)
		names[cand.Name] = true
	}
}

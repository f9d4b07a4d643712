package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestSelectivity(t *testing.T) {
	tests := []struct {
		name      string
		nDistinct *float64
		rowCount  float64
		want      float64
	}{
		{name: "never analyzed", nDistinct: nil, rowCount: 1_000_000, want: 0.5},
		{name: "negative is a fraction", nDistinct: fptr(-0.25), rowCount: 1_000_000, want: 0.25},
		{name: "absolute count scaled", nDistinct: fptr(200_000), rowCount: 1_000_000, want: 0.2},
		{name: "absolute count capped at one", nDistinct: fptr(5_000_000), rowCount: 1_000_000, want: 1.0},
		{name: "zero distinct", nDistinct: fptr(0), rowCount: 1_000_000, want: 0},
		{name: "unknown row count", nDistinct: fptr(500), rowCount: 0, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Selectivity(tt.nDistinct, tt.rowCount), 1e-9)
		})
	}
}

func TestCatalog_UpsertAndLookup(t *testing.T) {
	c := NewCatalog()

	orders := c.Upsert("rds", "orders")
	orders.Columns["id"] = ColumnMeta{Name: "id", Role: RolePrimaryKey}
	orders.PrimaryKeys = append(orders.PrimaryKeys, "id")

	again := c.Upsert("rds", "orders")
	assert.Same(t, orders, again)

	c.Upsert("staging", "customers")

	got, ok := c.Table("rds.orders")
	require.True(t, ok)
	assert.Equal(t, "rds.orders", got.Qualified())
	assert.True(t, got.HasColumn("id"))
	assert.True(t, got.IsPrimaryKey("id"))
	assert.False(t, got.IsPrimaryKey("customer_id"))

	_, ok = c.Table("rds.missing")
	assert.False(t, ok)

	names := make([]string, 0, 2)
	for _, tbl := range c.Tables() {
		names = append(names, tbl.Qualified())
	}
	assert.Equal(t, []string{"rds.orders", "staging.customers"}, names)
}

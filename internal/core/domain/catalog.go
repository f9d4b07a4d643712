package domain

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("not found")

// ColumnRole describes how a column participates in table constraints.
type ColumnRole string

const (
	RolePrimaryKey ColumnRole = "PRIMARY KEY"
	RoleForeignKey ColumnRole = "FOREIGN KEY"
	RoleRegular    ColumnRole = "REGULAR"
)

// ColumnMeta is a point-in-time snapshot of one column's catalog facts.
// NDistinct mirrors pg_stats.n_distinct: nil when the table has never been
// analyzed, negative when the planner stores a fraction of total rows.
type ColumnMeta struct {
	Name      string
	DataType  string
	Nullable  bool
	Role      ColumnRole
	NDistinct *float64
}

// TableMeta holds the column snapshot for one base table.
type TableMeta struct {
	Schema      string
	Name        string
	RowEstimate int64 // pg_class.reltuples; 0 or negative when unknown

	Columns map[string]ColumnMeta

	// PrimaryKeys and ForeignKeys preserve catalog ordering so candidate
	// generation is deterministic across runs.
	PrimaryKeys []string
	ForeignKeys []string
}

// Qualified returns the schema-qualified table name ("rds.fact_enrollment").
func (t *TableMeta) Qualified() string {
	return t.Schema + "." + t.Name
}

// HasColumn reports whether the snapshot knows the named column.
func (t *TableMeta) HasColumn(column string) bool {
	_, ok := t.Columns[column]
	return ok
}

// IsPrimaryKey reports whether column is part of the table's primary key.
func (t *TableMeta) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKeys {
		if pk == column {
			return true
		}
	}
	return false
}

// Catalog is the metadata snapshot for all tables under analysis.
// Table iteration order matches catalog read order, which keeps foreign-key
// candidate emission stable between runs.
type Catalog struct {
	tables []*TableMeta
	byName map[string]*TableMeta
}

func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*TableMeta)}
}

// Upsert returns the table entry for schema.name, creating it on first use.
func (c *Catalog) Upsert(schema, name string) *TableMeta {
	key := schema + "." + name
	if t, ok := c.byName[key]; ok {
		return t
	}
	t := &TableMeta{
		Schema:  schema,
		Name:    name,
		Columns: make(map[string]ColumnMeta),
	}
	c.tables = append(c.tables, t)
	c.byName[key] = t
	return t
}

// Table looks up a table by its qualified name.
func (c *Catalog) Table(qualified string) (*TableMeta, bool) {
	t, ok := c.byName[qualified]
	return t, ok
}

// Tables returns all tables in catalog read order.
func (c *Catalog) Tables() []*TableMeta {
	return c.tables
}

// ExistingIndex is a snapshot row from the index catalog. Definition is the
// full CREATE INDEX text; deduplication treats it as an opaque token stream
// rather than parsing the column list.
type ExistingIndex struct {
	Schema     string
	Table      string
	Name       string
	Definition string
}

// Selectivity estimates the fraction of distinct values in a column from a
// pg_stats-style distinct count. nil means never analyzed (moderate 0.5),
// negative encodes a fraction of total rows directly, and non-negative is an
// absolute count scaled by the table's row count (rowCount falls back to the
// caller's assumption when the true count is unavailable).
func Selectivity(nDistinct *float64, rowCount float64) float64 {
	if nDistinct == nil {
		return 0.5
	}
	v := *nDistinct
	if v < 0 {
		return -v
	}
	if rowCount <= 0 {
		return 1.0
	}
	s := v / rowCount
	if s > 1.0 {
		return 1.0
	}
	return s
}

// identTokens splits an index definition into lowercase identifier tokens.
func identTokens(definition string) []string {
	return strings.FieldsFunc(strings.ToLower(definition), func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

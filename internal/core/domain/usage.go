package domain

import "sort"

// ColumnUsage is one (table, column) pair with its accumulated workload
// weight. Table is schema-qualified.
type ColumnUsage struct {
	Table  string
	Column string
	Weight float64
}

// UsageAccumulator sums per-query weights into (table, column) buckets
// across a full workload sample.
type UsageAccumulator struct {
	weights map[[2]string]float64
}

func NewUsageAccumulator() *UsageAccumulator {
	return &UsageAccumulator{weights: make(map[[2]string]float64)}
}

func (u *UsageAccumulator) Add(table, column string, weight float64) {
	u.weights[[2]string{table, column}] += weight
}

func (u *UsageAccumulator) Len() int {
	return len(u.weights)
}

// Ranked returns all accumulated pairs ordered by descending weight.
// Ties fall back to table then column name so runs are deterministic.
func (u *UsageAccumulator) Ranked() []ColumnUsage {
	out := make([]ColumnUsage, 0, len(u.weights))
	for key, w := range u.weights {
		out = append(out, ColumnUsage{Table: key[0], Column: key[1], Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Column < out[j].Column
	})
	return out
}

package domain

import (
	"fmt"
	"sort"
)

// Generator turns aggregated column usage, the metadata snapshot, and the
// existing-index snapshot into a ranked candidate list. Three strategies run
// over the same inputs; their outputs are concatenated (single-column,
// foreign-key, composite), stably sorted by descending priority, and
// truncated to the policy's suggestion cap.
type Generator struct {
	Policy   ScoringPolicy
	Patterns []CompositePattern
}

func NewGenerator(policy ScoringPolicy, patterns []CompositePattern) *Generator {
	return &Generator{Policy: policy, Patterns: patterns}
}

func (g *Generator) Generate(usage []ColumnUsage, catalog *Catalog, existing map[string][]ExistingIndex) []IndexCandidate {
	// Derived index names must be unique across the whole candidate list, so
	// every strategy claims its names and later passes skip claimed ones.
	// A column whose name equals the joined columns of a composite pattern
	// would otherwise collide.
	claimed := make(map[string]bool)

	fks := g.foreignKeyCandidates(catalog, existing, claimed)
	singles := g.singleColumnCandidates(usage, catalog, existing, claimed)
	composites := g.compositeCandidates(catalog, existing, claimed)

	candidates := make([]IndexCandidate, 0, len(singles)+len(fks)+len(composites))
	candidates = append(candidates, singles...)
	candidates = append(candidates, fks...)
	candidates = append(candidates, composites...)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PriorityScore > candidates[j].PriorityScore
	})
	if len(candidates) > g.Policy.MaxSuggestions {
		candidates = candidates[:g.Policy.MaxSuggestions]
	}
	return candidates
}

func (g *Generator) singleColumnCandidates(usage []ColumnUsage, catalog *Catalog, existing map[string][]ExistingIndex, claimed map[string]bool) []IndexCandidate {
	var out []IndexCandidate

	for _, cu := range usage {
		table, ok := catalog.Table(cu.Table)
		if !ok {
			continue
		}
		meta, ok := table.Columns[cu.Column]
		if !ok {
			continue
		}
		if table.IsPrimaryKey(cu.Column) {
			continue
		}
		if ColumnIndexed(existing[cu.Table], cu.Column) {
			continue
		}

		name := CandidateName(cu.Table, []string{cu.Column})
		if claimed[name] {
			continue
		}
		claimed[name] = true

		sel := clamp01(Selectivity(meta.NDistinct, g.rowCount(table)))
		score := cu.Weight
		if meta.Role == RoleForeignKey {
			score *= g.Policy.ForeignKeyBoost
		}
		if sel > g.Policy.HighSelectivityThreshold {
			score *= g.Policy.HighSelectivityBoost
		}
		if sel < g.Policy.LowSelectivityThreshold {
			score *= g.Policy.LowSelectivityPenalty
		}

		out = append(out, IndexCandidate{
			Type:          CandidateSingleColumn,
			Table:         cu.Table,
			Columns:       []string{cu.Column},
			Name:          name,
			PriorityScore: score,
			Reasoning:     fmt.Sprintf("Column used frequently in queries (weight: %.0f), selectivity: %.3f", cu.Weight, sel),
			Benefit:       g.Policy.BenefitFor(score),
		})
	}
	return out
}

func (g *Generator) foreignKeyCandidates(catalog *Catalog, existing map[string][]ExistingIndex, claimed map[string]bool) []IndexCandidate {
	var out []IndexCandidate
	for _, table := range catalog.Tables() {
		qualified := table.Qualified()
		for _, fk := range table.ForeignKeys {
			if ColumnIndexed(existing[qualified], fk) {
				continue
			}
			name := CandidateName(qualified, []string{fk})
			if claimed[name] {
				continue
			}
			claimed[name] = true
			out = append(out, IndexCandidate{
				Type:          CandidateForeignKey,
				Table:         qualified,
				Columns:       []string{fk},
				Name:          name,
				PriorityScore: g.Policy.ForeignKeyPriority,
				Reasoning:     "Foreign key column needs index for join performance",
				Benefit:       BenefitHigh,
			})
		}
	}
	return out
}

func (g *Generator) compositeCandidates(catalog *Catalog, existing map[string][]ExistingIndex, claimed map[string]bool) []IndexCandidate {
	var out []IndexCandidate
	for _, pattern := range g.Patterns {
		table, ok := catalog.Table(pattern.Table)
		if !ok {
			continue
		}
		missing := false
		for _, col := range pattern.Columns {
			if !table.HasColumn(col) {
				missing = true
				break
			}
		}
		if missing {
			continue
		}
		if CompositeCovered(existing[pattern.Table], pattern.Columns) {
			continue
		}
		name := CandidateName(pattern.Table, pattern.Columns)
		if claimed[name] {
			continue
		}
		claimed[name] = true
		out = append(out, IndexCandidate{
			Type:          CandidateComposite,
			Table:         pattern.Table,
			Columns:       pattern.Columns,
			Name:          name,
			PriorityScore: g.Policy.CompositePriority,
			Reasoning:     pattern.Rationale,
			Benefit:       BenefitMedium,
		})
	}
	return out
}

func (g *Generator) rowCount(table *TableMeta) float64 {
	if table.RowEstimate > 0 {
		return float64(table.RowEstimate)
	}
	return g.Policy.RowCountAssumption
}

// clamp01 caps selectivity before it feeds the scoring multipliers; the
// negative-n_distinct convention can otherwise produce values above 1.
func clamp01(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	if s < 0 {
		return 0
	}
	return s
}

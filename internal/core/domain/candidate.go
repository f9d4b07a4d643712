package domain

import "strings"

// CandidateType identifies which generation strategy produced a candidate.
type CandidateType string

const (
	CandidateSingleColumn CandidateType = "single_column"
	CandidateForeignKey   CandidateType = "foreign_key"
	CandidateComposite    CandidateType = "composite"
)

// Benefit is a coarse estimate of how much a candidate is expected to help.
type Benefit string

const (
	BenefitLow    Benefit = "LOW"
	BenefitMedium Benefit = "MEDIUM"
	BenefitHigh   Benefit = "HIGH"
)

// IndexCandidate is an immutable index recommendation. Table is always
// schema-qualified and Columns is non-empty with unique elements ordered as
// the index would be declared.
type IndexCandidate struct {
	Type          CandidateType `json:"type"`
	Table         string        `json:"table"`
	Columns       []string      `json:"columns"`
	Name          string        `json:"name"`
	PriorityScore float64       `json:"priority_score"`
	Reasoning     string        `json:"reasoning"`
	Benefit       Benefit       `json:"estimated_benefit"`
}

// CandidateName derives the generated index name from the bare table name
// and its column list ("idx_fact_enrollment_school_year_id").
func CandidateName(qualifiedTable string, columns []string) string {
	table := qualifiedTable
	if i := strings.IndexByte(qualifiedTable, '.'); i >= 0 {
		table = qualifiedTable[i+1:]
	}
	return "idx_" + table + "_" + strings.Join(columns, "_")
}

// CompositePattern is one entry of the externally supplied multi-column
// access-pattern catalog. The generator only emits the pattern when the
// table and every listed column exist in the metadata snapshot.
type CompositePattern struct {
	Table     string   `yaml:"table" json:"table"`
	Columns   []string `yaml:"columns" json:"columns"`
	Rationale string   `yaml:"rationale" json:"rationale"`
}

// ScoringPolicy holds every tunable of the candidate scoring model. It is
// passed into the generator per run so policy changes never require code
// changes; DefaultScoringPolicy matches the historically deployed values.
type ScoringPolicy struct {
	ForeignKeyBoost          float64
	HighSelectivityBoost     float64
	HighSelectivityThreshold float64
	LowSelectivityPenalty    float64
	LowSelectivityThreshold  float64

	ForeignKeyPriority float64
	CompositePriority  float64

	HighBenefitThreshold   float64
	MediumBenefitThreshold float64

	// RowCountAssumption scales absolute distinct counts into a selectivity
	// fraction when the true table row count is unavailable.
	RowCountAssumption float64

	// MaxSuggestions truncates the final ranked list.
	MaxSuggestions int
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		ForeignKeyBoost:          2.0,
		HighSelectivityBoost:     1.5,
		HighSelectivityThreshold: 0.10,
		LowSelectivityPenalty:    0.5,
		LowSelectivityThreshold:  0.01,
		ForeignKeyPriority:       1_000_000,
		CompositePriority:        500_000,
		HighBenefitThreshold:     1_000_000,
		MediumBenefitThreshold:   100_000,
		RowCountAssumption:       1_000_000,
		MaxSuggestions:           50,
	}
}

// BenefitFor maps a priority score to its benefit band. Thresholds are
// inclusive so the fixed foreign-key and composite scores land in the bands
// their strategies promise.
func (p ScoringPolicy) BenefitFor(score float64) Benefit {
	switch {
	case score >= p.HighBenefitThreshold:
		return BenefitHigh
	case score >= p.MediumBenefitThreshold:
		return BenefitMedium
	default:
		return BenefitLow
	}
}

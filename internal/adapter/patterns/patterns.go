// Package patterns loads the composite-index pattern catalog: an
// operator-maintained, versioned list of known multi-column access patterns.
// Shipping this as data keeps domain knowledge out of the generator; the
// generator only emits patterns whose table and columns exist in the
// metadata snapshot.
package patterns

import (
	"fmt"
	"strings"

	"github.com/ringo380/pgadvisor/internal/core/domain"
)

// Catalog is the parsed pattern file.
type Catalog struct {
	Patterns []domain.CompositePattern `yaml:"patterns"`
}

func validate(cat *Catalog) error {
	for i, p := range cat.Patterns {
		if !strings.Contains(p.Table, ".") {
			return fmt.Errorf("patterns[%d].table %q: must be schema-qualified", i, p.Table)
		}
		if len(p.Columns) < 2 {
			return fmt.Errorf("patterns[%d] (%s): composite patterns need at least two columns", i, p.Table)
		}
		seen := make(map[string]bool, len(p.Columns))
		for _, col := range p.Columns {
			if col == "" {
				return fmt.Errorf("patterns[%d] (%s): empty column name", i, p.Table)
			}
			if seen[col] {
				return fmt.Errorf("patterns[%d] (%s): duplicate column %q", i, p.Table, col)
			}
			seen[col] = true
		}
	}
	return nil
}

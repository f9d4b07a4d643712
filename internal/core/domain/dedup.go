package domain

import "strings"

// ColumnIndexed reports whether any existing index on the table mentions the
// column as a whole identifier token (case-insensitive). This is a textual
// approximation of "the column is covered": it never misses a real covering
// index, at the cost of false positives when a column name appears in an
// expression index.
func ColumnIndexed(indexes []ExistingIndex, column string) bool {
	want := strings.ToLower(column)
	for _, idx := range indexes {
		for _, tok := range identTokens(idx.Definition) {
			if tok == want {
				return true
			}
		}
	}
	return false
}

// CompositeCovered reports whether some existing index's token set is a
// superset of the candidate column set, compared order-insensitively. An
// index on (a, b, c) therefore covers a candidate on {b, a}.
func CompositeCovered(indexes []ExistingIndex, columns []string) bool {
	for _, idx := range indexes {
		toks := make(map[string]bool)
		for _, tok := range identTokens(idx.Definition) {
			toks[tok] = true
		}
		covered := true
		for _, col := range columns {
			if !toks[strings.ToLower(col)] {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}

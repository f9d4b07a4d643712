package domain

import (
	"regexp"
	"sort"
	"strings"
)

// Extractor turns one query's text into a mapping from schema-qualified
// table name to the set of column names the query touches in ways an index
// could help (filters and sort keys). Implementations are best-effort: a
// query yielding no references is not an error, and misattributed columns
// are filtered later against the metadata snapshot.
type Extractor interface {
	Extract(sql string) map[string][]string
}

// HeuristicExtractor approximates table/column attribution with regular
// expressions instead of a SQL grammar. It only qualifies tables whose
// schema is in the analyzed set; queries that reference solely unqualified
// tables contribute nothing.
type HeuristicExtractor struct {
	schemas map[string]bool
}

func NewHeuristicExtractor(schemas []string) *HeuristicExtractor {
	set := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		set[strings.ToLower(s)] = true
	}
	return &HeuristicExtractor{schemas: set}
}

var (
	reLineComment  = regexp.MustCompile(`--[^\n]*`)
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reWhitespace   = regexp.MustCompile(`\s+`)

	reFromJoin = regexp.MustCompile(`\b(?:from|join)\s+([a-z_][a-z0-9_]*)\.([a-z_][a-z0-9_]*)`)

	reWhereClause = regexp.MustCompile(`\bwhere\s+(.+?)(?:\bgroup\s+by\b|\border\s+by\b|\blimit\b|\bhaving\b|\bunion\b|$)`)
	reComparison  = regexp.MustCompile(`\b([a-z_][a-z0-9_]*(?:\.[a-z_][a-z0-9_]*)?)\s*[=<>!]`)

	reOrderClause = regexp.MustCompile(`\border\s+by\s+([^;]+?)(?:\blimit\b|\boffset\b|$)`)
	reIdentifier  = regexp.MustCompile(`\b([a-z_][a-z0-9_]*(?:\.[a-z_][a-z0-9_]*)?)\b`)
)

// sqlNoise holds keywords the loose identifier regexes pick up inside WHERE
// and ORDER BY clauses. Anything that slips through is still dropped at
// generation time when no such column exists in the metadata.
var sqlNoise = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"null": true, "like": true, "between": true, "exists": true,
	"asc": true, "desc": true, "nulls": true, "first": true, "last": true,
	"case": true, "when": true, "then": true, "else": true, "end": true,
}

func (e *HeuristicExtractor) Extract(sql string) map[string][]string {
	q := normalizeSQL(sql)

	tables := make(map[string]map[string]bool)
	for _, m := range reFromJoin.FindAllStringSubmatch(q, -1) {
		schema, table := m[1], m[2]
		if e.schemas[schema] {
			key := schema + "." + table
			if tables[key] == nil {
				tables[key] = make(map[string]bool)
			}
		}
	}
	if len(tables) == 0 {
		return nil
	}

	for _, m := range reWhereClause.FindAllStringSubmatch(q, -1) {
		for _, cm := range reComparison.FindAllStringSubmatch(m[1], -1) {
			attribute(cm[1], tables)
		}
	}

	for _, m := range reOrderClause.FindAllStringSubmatch(q, -1) {
		for _, im := range reIdentifier.FindAllStringSubmatch(m[1], -1) {
			attribute(im[1], tables)
		}
	}

	out := make(map[string][]string, len(tables))
	for table, cols := range tables {
		names := make([]string, 0, len(cols))
		for col := range cols {
			names = append(names, col)
		}
		sort.Strings(names)
		out[table] = names
	}
	return out
}

// attribute assigns a column reference to the tables found in the query.
// "alias.column" resolves the alias by suffix or substring match against
// the qualified table names; a bare column goes to every table, on the
// assumption that metadata filtering will discard the wrong ones. Alias
// collisions can misattribute a column; that loss is accepted.
func attribute(ref string, tables map[string]map[string]bool) {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		alias, column := ref[:i], ref[i+1:]
		if sqlNoise[column] {
			return
		}
		for table, cols := range tables {
			if strings.HasSuffix(table, alias) || strings.Contains(table, alias) {
				cols[column] = true
			}
		}
		return
	}
	if sqlNoise[ref] {
		return
	}
	for _, cols := range tables {
		cols[ref] = true
	}
}

func normalizeSQL(sql string) string {
	q := strings.ToLower(strings.TrimSpace(sql))
	q = reLineComment.ReplaceAllString(q, " ")
	q = reBlockComment.ReplaceAllString(q, " ")
	return reWhitespace.ReplaceAllString(q, " ")
}

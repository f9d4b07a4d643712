package domain

import (
	"sort"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParserExtractor resolves table/column usage with PostgreSQL's actual
// parser instead of the regex heuristic. It plugs into the same Extractor
// seam, so scoring and ranking never see the difference. Queries that fail
// to parse contribute nothing (fail-open, matching the heuristic's posture
// on unextractable queries).
type ParserExtractor struct {
	schemas map[string]bool
}

func NewParserExtractor(schemas []string) *ParserExtractor {
	set := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		set[strings.ToLower(s)] = true
	}
	return &ParserExtractor{schemas: set}
}

// comparisonOps are the operators whose left-hand operand counts as an
// indexable filter reference.
var comparisonOps = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true,
	"<>": true, "!=": true,
}

func (e *ParserExtractor) Extract(sql string) map[string][]string {
	tree, err := pg_query.Parse(sql)
	if err != nil || len(tree.Stmts) == 0 {
		return nil
	}

	w := &usageWalker{
		schemas: e.schemas,
		tables:  make(map[string]map[string]bool),
		aliases: make(map[string]string),
	}
	for _, raw := range tree.Stmts {
		if raw.Stmt == nil {
			continue
		}
		if sel, ok := raw.Stmt.Node.(*pg_query.Node_SelectStmt); ok {
			w.selectStmt(sel.SelectStmt)
		}
	}
	if len(w.tables) == 0 {
		return nil
	}

	out := make(map[string][]string, len(w.tables))
	for table, cols := range w.tables {
		names := make([]string, 0, len(cols))
		for col := range cols {
			names = append(names, col)
		}
		sort.Strings(names)
		out[table] = names
	}
	return out
}

type usageWalker struct {
	schemas map[string]bool
	tables  map[string]map[string]bool
	aliases map[string]string // alias or bare relname -> qualified table
}

func (w *usageWalker) selectStmt(sel *pg_query.SelectStmt) {
	// UNION/INTERSECT/EXCEPT arms carry their own from/where trees.
	if sel.Larg != nil {
		w.selectStmt(sel.Larg)
	}
	if sel.Rarg != nil {
		w.selectStmt(sel.Rarg)
	}

	for _, from := range sel.FromClause {
		w.fromItem(from)
	}
	w.filterExpr(sel.WhereClause)
	for _, sortBy := range sel.SortClause {
		if sb, ok := sortBy.Node.(*pg_query.Node_SortBy); ok && sb.SortBy != nil {
			w.columnRefIn(sb.SortBy.Node)
		}
	}
}

func (w *usageWalker) fromItem(node *pg_query.Node) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		w.rangeVar(n.RangeVar)
	case *pg_query.Node_JoinExpr:
		w.fromItem(n.JoinExpr.Larg)
		w.fromItem(n.JoinExpr.Rarg)
		w.filterExpr(n.JoinExpr.Quals)
	}
	// Subselects and functions in FROM are deliberately skipped: their
	// inner references cannot be attributed to a base table.
}

func (w *usageWalker) rangeVar(rv *pg_query.RangeVar) {
	if rv == nil || rv.Schemaname == "" {
		return // unqualified tables cannot be disambiguated
	}
	schema := strings.ToLower(rv.Schemaname)
	if !w.schemas[schema] {
		return
	}
	qualified := schema + "." + strings.ToLower(rv.Relname)
	if w.tables[qualified] == nil {
		w.tables[qualified] = make(map[string]bool)
	}
	w.aliases[strings.ToLower(rv.Relname)] = qualified
	if rv.Alias != nil && rv.Alias.Aliasname != "" {
		w.aliases[strings.ToLower(rv.Alias.Aliasname)] = qualified
	}
}

// filterExpr walks a boolean filter tree collecting left-hand operands of
// comparison operators.
func (w *usageWalker) filterExpr(node *pg_query.Node) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_AExpr:
		if comparisonOps[operatorName(n.AExpr.Name)] {
			w.columnRefIn(n.AExpr.Lexpr)
		}
	case *pg_query.Node_BoolExpr:
		for _, arg := range n.BoolExpr.Args {
			w.filterExpr(arg)
		}
	case *pg_query.Node_NullTest:
		w.columnRefIn(n.NullTest.Arg)
	}
}

func (w *usageWalker) columnRefIn(node *pg_query.Node) {
	if node == nil {
		return
	}
	cr, ok := node.Node.(*pg_query.Node_ColumnRef)
	if !ok || cr.ColumnRef == nil {
		return
	}

	var parts []string
	for _, field := range cr.ColumnRef.Fields {
		if s, ok := field.Node.(*pg_query.Node_String_); ok && s.String_ != nil {
			parts = append(parts, strings.ToLower(s.String_.Sval))
		}
	}

	switch len(parts) {
	case 1:
		for _, cols := range w.tables {
			cols[parts[0]] = true
		}
	case 2:
		if qualified, ok := w.aliases[parts[0]]; ok {
			if cols := w.tables[qualified]; cols != nil {
				cols[parts[1]] = true
			}
		}
	}
}

func operatorName(name []*pg_query.Node) string {
	if len(name) == 0 {
		return ""
	}
	if s, ok := name[len(name)-1].Node.(*pg_query.Node_String_); ok && s.String_ != nil {
		return s.String_.Sval
	}
	return ""
}

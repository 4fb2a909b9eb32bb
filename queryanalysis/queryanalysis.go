// Package queryanalysis implements the query analyzer: it walks the
// normalized AST package sqlparse produces and reduces every WHERE/
// HAVING clause to disjunctive normal form — a list of branches, each a
// list of AND-ed Filter conjuncts — so the security engine (package
// security) can check "is there a branch missing a required predicate"
// without re-parsing SQL. Structural fields are compared field by
// field, never as raw text.
package queryanalysis

import (
	"github.com/ormlite/ormlite/sqlparse"
)

// Filter is a single resolved WHERE/HAVING conjunct.
type Filter struct {
	Table    string
	Column   string
	Operator string
	Value    any
}

// AccessedTable summarizes how one statement touches one table.
type AccessedTable struct {
	Name           string
	Alias          string
	Columns        []string
	FilterBranches [][]Filter
}

// Analysis is the full result of analyzing one statement.
type Analysis struct {
	Type           sqlparse.StatementType
	AccessedTables []AccessedTable
}

// Analyze resolves every "?" placeholder in stmt against params (in
// source order) and reduces its filters to DNF, grouped per accessed
// table.
func Analyze(stmt *sqlparse.Statement, params []any) (Analysis, error) {
	analysis := Analysis{Type: stmt.Type}

	aliasMap := aliasMapForTables(stmt.Tables)

	branches := [][]Filter{}
	if stmt.Where != nil {
		branches = toDNF(*stmt.Where, params)
	}
	havingBranches := havingToFilters(stmt, params)
	if len(havingBranches) > 0 {
		branches = crossJoin(branches, havingBranches)
	}
	branches = resolveFilterAliases(branches, aliasMap)

	columnsByTable := map[string]map[string]bool{}
	order := []string{}
	ensure := func(name string) {
		if _, ok := columnsByTable[name]; !ok {
			columnsByTable[name] = map[string]bool{}
			order = append(order, name)
		}
	}

	for _, t := range stmt.Tables {
		ensure(t.Name)
	}
	for _, col := range stmt.Projection {
		target := col.Table
		if base, ok := aliasMap[target]; ok {
			target = base
		}
		if target == "" && len(stmt.Tables) == 1 {
			target = stmt.Tables[0].Name
		}
		if target != "" {
			ensure(target)
			columnsByTable[target][col.Name] = true
		}
	}
	for name := range stmt.Assignments {
		for _, t := range stmt.Tables {
			ensure(t.Name)
			columnsByTable[t.Name][name] = true
		}
	}

	for _, name := range order {
		cols := make([]string, 0, len(columnsByTable[name]))
		for c := range columnsByTable[name] {
			cols = append(cols, c)
		}
		tableBranches := filterBranchesForTable(branches, name, len(stmt.Tables) == 1)
		analysis.AccessedTables = append(analysis.AccessedTables, AccessedTable{
			Name:           name,
			Columns:        cols,
			FilterBranches: tableBranches,
		})
	}

	return analysis, nil
}

// aliasMapForTables builds a FROM-scope alias map (alias -> base table
// name) so a column reference qualified with an alias, e.g. "u.age" in
// "FROM users u", resolves back to the declared table "users" rather
// than being treated as a reference to an unrelated table "u".
func aliasMapForTables(tables []sqlparse.TableRef) map[string]string {
	aliasMap := map[string]string{}
	for _, t := range tables {
		if t.Alias != "" {
			aliasMap[t.Alias] = t.Name
		}
	}
	return aliasMap
}

// resolveFilterAliases rewrites each filter's Table to the underlying
// base table name when it names a FROM-scope alias, so an aliased
// column's conjunct is still matched against the base table's required
// checks and its per-table filter bucket.
func resolveFilterAliases(branches [][]Filter, aliasMap map[string]string) [][]Filter {
	if len(aliasMap) == 0 {
		return branches
	}
	out := make([][]Filter, len(branches))
	for i, b := range branches {
		resolved := make([]Filter, len(b))
		for j, f := range b {
			if base, ok := aliasMap[f.Table]; ok {
				f.Table = base
			}
			resolved[j] = f
		}
		out[i] = resolved
	}
	return out
}

// filterBranchesForTable keeps, per branch, only the conjuncts that
// target this table (or are unqualified, when the statement touches a
// single table).
func filterBranchesForTable(branches [][]Filter, table string, singleTable bool) [][]Filter {
	if len(branches) == 0 {
		return nil
	}
	out := make([][]Filter, 0, len(branches))
	for _, b := range branches {
		var kept []Filter
		for _, f := range b {
			if f.Table == table || (f.Table == "" && singleTable) {
				kept = append(kept, f)
			}
		}
		out = append(out, kept)
	}
	return out
}

func toDNF(e sqlparse.Expr, params []any) [][]Filter {
	switch e.Kind {
	case sqlparse.ExprOp:
		switch e.Op {
		case "and":
			result := [][]Filter{{}}
			for _, arg := range e.Args {
				result = crossJoin(result, toDNF(arg, params))
			}
			return result
		case "or":
			var result [][]Filter
			for _, arg := range e.Args {
				result = append(result, toDNF(arg, params)...)
			}
			return result
		case "not":
			// Negation of an arbitrary subtree is not reducible to a DNF
			// conjunct list in general; treat as an opaque, unsatisfiable
			// constraint so callers don't mistake it for "no constraint".
			return [][]Filter{{{Operator: "not", Value: nil}}}
		default:
			if f, ok := leafFilter(e, params); ok {
				return [][]Filter{{f}}
			}
			return [][]Filter{{}}
		}
	default:
		return [][]Filter{{}}
	}
}

func crossJoin(a, b [][]Filter) [][]Filter {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([][]Filter, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			combined := make([]Filter, 0, len(x)+len(y))
			combined = append(combined, x...)
			combined = append(combined, y...)
			out = append(out, combined)
		}
	}
	return out
}

func leafFilter(e sqlparse.Expr, params []any) (Filter, bool) {
	switch e.Op {
	case "is_null", "is_not_null":
		if len(e.Args) != 1 {
			return Filter{}, false
		}
		col, ok := columnOf(e.Args[0])
		if !ok {
			return Filter{}, false
		}
		return Filter{Table: col.Table, Column: col.Name, Operator: e.Op}, true

	case "in", "not_in":
		if len(e.Args) < 1 {
			return Filter{}, false
		}
		col, ok := columnOf(e.Args[0])
		if !ok {
			return Filter{}, false
		}
		values := make([]any, 0, len(e.Args)-1)
		for _, a := range e.Args[1:] {
			values = append(values, resolveValue(a, params))
		}
		return Filter{Table: col.Table, Column: col.Name, Operator: e.Op, Value: values}, true

	case "between", "not_between":
		if len(e.Args) != 3 {
			return Filter{}, false
		}
		col, ok := columnOf(e.Args[0])
		if !ok {
			return Filter{}, false
		}
		lo := resolveValue(e.Args[1], params)
		hi := resolveValue(e.Args[2], params)
		return Filter{Table: col.Table, Column: col.Name, Operator: e.Op, Value: [2]any{lo, hi}}, true

	case "=", "<>", "<", "<=", ">", ">=", "like", "not_like", "~~", "!~~":
		if len(e.Args) != 2 {
			return Filter{}, false
		}
		left, leftIsCol := columnOf(e.Args[0])
		right, rightIsCol := columnOf(e.Args[1])
		switch {
		case leftIsCol && !rightIsCol:
			return Filter{Table: left.Table, Column: left.Name, Operator: normalizeOp(e.Op), Value: resolveValue(e.Args[1], params)}, true
		case rightIsCol && !leftIsCol:
			return Filter{Table: right.Table, Column: right.Name, Operator: flipOp(normalizeOp(e.Op)), Value: resolveValue(e.Args[0], params)}, true
		default:
			return Filter{}, false
		}
	default:
		return Filter{}, false
	}
}

func normalizeOp(op string) string {
	switch op {
	case "~~":
		return "like"
	case "!~~":
		return "not_like"
	default:
		return op
	}
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

func columnOf(e sqlparse.Expr) (sqlparse.ColumnExpr, bool) {
	if e.Kind != sqlparse.ExprColumn {
		return sqlparse.ColumnExpr{}, false
	}
	return e.Column, true
}

func resolveValue(e sqlparse.Expr, params []any) any {
	switch e.Kind {
	case sqlparse.ExprParam:
		if e.Param.Index >= 0 && e.Param.Index < len(params) {
			return params[e.Param.Index]
		}
		return nil
	case sqlparse.ExprLiteral:
		return e.Literal
	default:
		return nil
	}
}

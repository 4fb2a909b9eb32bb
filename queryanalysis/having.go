package queryanalysis

import "github.com/ormlite/ormlite/sqlparse"

// havingToFilters implements the HAVING-to-filter heuristic this package
// documents as an open question resolution: HAVING has no column of its
// own to anchor a security predicate to, since it filters on an
// aggregate. We anchor a COUNT(*) comparison to the first GROUP BY
// column, and a COUNT(col) comparison to col itself; any other
// aggregate (SUM, AVG, MIN, MAX, ...) is left unresolved, since it carries
// no identifying column to anchor to.
func havingToFilters(stmt *sqlparse.Statement, params []any) [][]Filter {
	if stmt.Having == nil {
		return nil
	}
	return havingDNF(*stmt.Having, stmt, params)
}

func havingDNF(e sqlparse.Expr, stmt *sqlparse.Statement, params []any) [][]Filter {
	switch e.Kind {
	case sqlparse.ExprOp:
		switch e.Op {
		case "and":
			result := [][]Filter{{}}
			for _, arg := range e.Args {
				result = crossJoin(result, havingDNF(arg, stmt, params))
			}
			return result
		case "or":
			var result [][]Filter
			for _, arg := range e.Args {
				result = append(result, havingDNF(arg, stmt, params)...)
			}
			return result
		default:
			if f, ok := havingLeaf(e, stmt, params); ok {
				return [][]Filter{{f}}
			}
			return nil
		}
	default:
		return nil
	}
}

func havingLeaf(e sqlparse.Expr, stmt *sqlparse.Statement, params []any) (Filter, bool) {
	switch e.Op {
	case "=", "<>", "<", "<=", ">", ">=":
		if len(e.Args) != 2 {
			return Filter{}, false
		}
		anchor, ok := havingAnchorColumn(e.Args[0], stmt)
		if !ok {
			return Filter{}, false
		}
		return Filter{Table: anchor.Table, Column: anchor.Name, Operator: normalizeOp(e.Op), Value: resolveValue(e.Args[1], params)}, true
	default:
		return Filter{}, false
	}
}

// havingAnchorColumn resolves a COUNT(*)/COUNT(col) aggregate expression
// to the column its comparison should be understood to constrain.
func havingAnchorColumn(e sqlparse.Expr, stmt *sqlparse.Statement) (sqlparse.ColumnExpr, bool) {
	if e.Kind != sqlparse.ExprFunc || e.FuncName != "count" {
		return sqlparse.ColumnExpr{}, false
	}
	if len(e.Args) == 1 && e.Args[0].Kind == sqlparse.ExprColumn {
		return e.Args[0].Column, true
	}
	// COUNT(*) has no argument column; anchor to the first GROUP BY key.
	if len(stmt.GroupBy) > 0 {
		return stmt.GroupBy[0], true
	}
	return sqlparse.ColumnExpr{}, false
}

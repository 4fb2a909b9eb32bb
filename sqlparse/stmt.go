package sqlparse

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

func parseSelect(stmt *pg_query.SelectStmt, out *Statement) error {
	out.Type = Select

	cteNames := map[string]bool{}
	if wc := stmt.GetWithClause(); wc != nil {
		cteTables, err := collectCTETables(wc, cteNames)
		if err != nil {
			return err
		}
		out.Tables = append(out.Tables, cteTables...)
	}

	tables, err := selectTables(stmt, cteNames)
	if err != nil {
		return err
	}
	out.Tables = append(out.Tables, tables...)

	// A compound SELECT (UNION/INTERSECT/EXCEPT) carries its projection,
	// WHERE, GROUP BY and HAVING on the leaf arms, not on this node; only
	// its own ORDER BY/LIMIT/OFFSET (handled below, unconditionally) apply
	// to the combined result.
	if stmt.GetOp() == pg_query.SetOperation_SETOP_NONE {
		for _, target := range stmt.GetTargetList() {
			rt := target.GetResTarget()
			if rt == nil {
				continue
			}
			if col, ok := asColumnRef(rt.GetVal()); ok {
				out.Projection = append(out.Projection, col)
			}
		}

		if w := stmt.GetWhereClause(); w != nil {
			expr, err := parseExpr(w)
			if err != nil {
				return err
			}
			out.Where = &expr
		}

		for _, g := range stmt.GetGroupClause() {
			if col, ok := asColumnRef(g); ok {
				out.GroupBy = append(out.GroupBy, col)
			}
		}

		if h := stmt.GetHavingClause(); h != nil {
			expr, err := parseExpr(h)
			if err != nil {
				return err
			}
			out.Having = &expr
		}
	}

	for _, s := range stmt.GetSortClause() {
		sortBy := s.GetSortBy()
		if sortBy == nil {
			continue
		}
		expr, err := parseExpr(sortBy.GetNode())
		if err != nil {
			return err
		}
		out.OrderBy = append(out.OrderBy, OrderItem{
			Expr:       expr,
			Descending: sortBy.GetSortbyDir() == pg_query.SortByDir_SORTBY_DESC,
		})
	}

	if lc := stmt.GetLimitCount(); lc != nil {
		if n, ok := intLiteral(lc); ok {
			out.Limit = &n
		}
	}
	if lo := stmt.GetLimitOffset(); lo != nil {
		if n, ok := intLiteral(lo); ok {
			out.Offset = &n
		}
	}

	return nil
}

// collectCTETables registers every name bound by wc into cteNames, so a
// later RangeVar reference to it is recognized as a CTE reference rather
// than a base table, and recursively collects the base tables reached
// from each CTE body. Names are registered before any body is walked so
// a CTE may reference an earlier sibling, or itself (WITH RECURSIVE),
// without being mistaken for a base table.
func collectCTETables(wc *pg_query.WithClause, cteNames map[string]bool) ([]TableRef, error) {
	if wc == nil {
		return nil, nil
	}

	for _, node := range wc.GetCtes() {
		if cte := node.GetCommonTableExpr(); cte != nil {
			cteNames[cte.GetCtename()] = true
		}
	}

	var out []TableRef
	for _, node := range wc.GetCtes() {
		cte := node.GetCommonTableExpr()
		if cte == nil {
			continue
		}
		body := cte.GetCtequery()
		if body == nil {
			continue
		}
		switch {
		case body.GetSelectStmt() != nil:
			sel := body.GetSelectStmt()
			if nestedWith := sel.GetWithClause(); nestedWith != nil {
				nested, err := collectCTETables(nestedWith, cteNames)
				if err != nil {
					return nil, err
				}
				out = append(out, nested...)
			}
			tables, err := selectTables(sel, cteNames)
			if err != nil {
				return nil, err
			}
			out = append(out, tables...)
		case body.GetInsertStmt() != nil:
			out = append(out, relationRef(body.GetInsertStmt().GetRelation()))
		case body.GetUpdateStmt() != nil:
			out = append(out, relationRef(body.GetUpdateStmt().GetRelation()))
		case body.GetDeleteStmt() != nil:
			out = append(out, relationRef(body.GetDeleteStmt().GetRelation()))
		}
	}
	return out, nil
}

// selectTables returns every base table reached from stmt's FROM
// clause, descending into UNION/INTERSECT/EXCEPT arms, joins, and
// subqueries. Names present in cteNames are excluded: they resolve to a
// WITH binding, not a base table.
func selectTables(stmt *pg_query.SelectStmt, cteNames map[string]bool) ([]TableRef, error) {
	if stmt.GetOp() != pg_query.SetOperation_SETOP_NONE {
		var out []TableRef
		if larg := stmt.GetLarg(); larg != nil {
			left, err := selectTables(larg, cteNames)
			if err != nil {
				return nil, err
			}
			out = append(out, left...)
		}
		if rarg := stmt.GetRarg(); rarg != nil {
			right, err := selectTables(rarg, cteNames)
			if err != nil {
				return nil, err
			}
			out = append(out, right...)
		}
		return out, nil
	}

	var out []TableRef
	for _, from := range stmt.GetFromClause() {
		refs, err := parseFromItem(from, cteNames)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}

func parseFromItem(node *pg_query.Node, cteNames map[string]bool) ([]TableRef, error) {
	switch {
	case node.GetRangeVar() != nil:
		rv := node.GetRangeVar()
		if cteNames[rv.GetRelname()] {
			return nil, nil
		}
		ref := TableRef{Name: rv.GetRelname()}
		if a := rv.GetAlias(); a != nil {
			ref.Alias = a.GetAliasname()
		}
		return []TableRef{ref}, nil
	case node.GetJoinExpr() != nil:
		je := node.GetJoinExpr()
		var out []TableRef
		if je.GetLarg() != nil {
			left, err := parseFromItem(je.GetLarg(), cteNames)
			if err != nil {
				return nil, err
			}
			out = append(out, left...)
		}
		if je.GetRarg() != nil {
			right, err := parseFromItem(je.GetRarg(), cteNames)
			if err != nil {
				return nil, err
			}
			out = append(out, right...)
		}
		return out, nil
	case node.GetRangeSubselect() != nil:
		rs := node.GetRangeSubselect()
		sub := rs.GetSubquery()
		if sub == nil || sub.GetSelectStmt() == nil {
			return nil, fmt.Errorf("sqlparse: unsupported subquery in FROM")
		}
		inner := sub.GetSelectStmt()
		innerNames := copyCTENames(cteNames)
		var out []TableRef
		if wc := inner.GetWithClause(); wc != nil {
			nested, err := collectCTETables(wc, innerNames)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		tables, err := selectTables(inner, innerNames)
		if err != nil {
			return nil, err
		}
		return append(out, tables...), nil
	default:
		return nil, fmt.Errorf("sqlparse: unsupported FROM item %T", node.GetNode())
	}
}

func copyCTENames(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func parseInsert(stmt *pg_query.InsertStmt, out *Statement) error {
	out.Type = Insert
	out.TargetTable = relationRef(stmt.GetRelation())
	out.Tables = []TableRef{out.TargetTable}

	var colNames []string
	for _, c := range stmt.GetCols() {
		if rt := c.GetResTarget(); rt != nil {
			colNames = append(colNames, rt.GetName())
		}
	}

	sel := stmt.GetSelectStmt().GetSelectStmt()
	if sel == nil || len(sel.GetValuesLists()) == 0 {
		return fmt.Errorf("sqlparse: expected a single-row VALUES clause")
	}

	row := sel.GetValuesLists()[0].GetList()
	if row == nil || len(row.GetItems()) != len(colNames) {
		return fmt.Errorf("sqlparse: column/value count mismatch in INSERT")
	}

	out.Assignments = make(map[string]Expr, len(colNames))
	for i, name := range colNames {
		expr, err := parseExpr(row.GetItems()[i])
		if err != nil {
			return err
		}
		out.Assignments[name] = expr
	}
	return nil
}

func parseUpdate(stmt *pg_query.UpdateStmt, out *Statement) error {
	out.Type = Update
	out.TargetTable = relationRef(stmt.GetRelation())
	out.Tables = []TableRef{out.TargetTable}

	out.Assignments = make(map[string]Expr, len(stmt.GetTargetList()))
	for _, t := range stmt.GetTargetList() {
		rt := t.GetResTarget()
		if rt == nil {
			continue
		}
		expr, err := parseExpr(rt.GetVal())
		if err != nil {
			return err
		}
		out.Assignments[rt.GetName()] = expr
	}

	if w := stmt.GetWhereClause(); w != nil {
		expr, err := parseExpr(w)
		if err != nil {
			return err
		}
		out.Where = &expr
	}
	return nil
}

func parseDelete(stmt *pg_query.DeleteStmt, out *Statement) error {
	out.Type = Delete
	out.TargetTable = relationRef(stmt.GetRelation())
	out.Tables = []TableRef{out.TargetTable}

	if w := stmt.GetWhereClause(); w != nil {
		expr, err := parseExpr(w)
		if err != nil {
			return err
		}
		out.Where = &expr
	}
	return nil
}

func relationRef(rv *pg_query.RangeVar) TableRef {
	ref := TableRef{Name: rv.GetRelname()}
	if a := rv.GetAlias(); a != nil {
		ref.Alias = a.GetAliasname()
	}
	return ref
}

func intLiteral(node *pg_query.Node) (int64, bool) {
	ac := node.GetAConst()
	if ac == nil {
		return 0, false
	}
	if iv := ac.GetIval(); iv != nil {
		return iv.GetIval(), true
	}
	return 0, false
}

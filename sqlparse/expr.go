package sqlparse

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

func asColumnRef(node *pg_query.Node) (ColumnExpr, bool) {
	cr := node.GetColumnRef()
	if cr == nil {
		return ColumnExpr{}, false
	}
	var parts []string
	for _, f := range cr.GetFields() {
		if s := f.GetString_(); s != nil {
			parts = append(parts, s.GetSval())
		}
	}
	switch len(parts) {
	case 1:
		return ColumnExpr{Name: parts[0]}, true
	case 2:
		return ColumnExpr{Table: parts[0], Name: parts[1]}, true
	default:
		return ColumnExpr{}, false
	}
}

func parseExpr(node *pg_query.Node) (Expr, error) {
	if node == nil {
		return Expr{}, fmt.Errorf("sqlparse: nil expression node")
	}

	if col, ok := asColumnRef(node); ok {
		if p, isParam := paramFromIdent(col.Name); isParam && col.Table == "" {
			return Expr{Kind: ExprParam, Param: p}, nil
		}
		return Expr{Kind: ExprColumn, Column: col}, nil
	}

	switch {
	case node.GetAConst() != nil:
		return parseAConst(node.GetAConst())

	case node.GetBoolExpr() != nil:
		be := node.GetBoolExpr()
		args := make([]Expr, 0, len(be.GetArgs()))
		for _, a := range be.GetArgs() {
			e, err := parseExpr(a)
			if err != nil {
				return Expr{}, err
			}
			args = append(args, e)
		}
		op := "and"
		switch be.GetBoolop() {
		case pg_query.BoolExprType_OR_EXPR:
			op = "or"
		case pg_query.BoolExprType_NOT_EXPR:
			op = "not"
		}
		return Expr{Kind: ExprOp, Op: op, Args: args}, nil

	case node.GetAExpr() != nil:
		return parseAExpr(node.GetAExpr())

	case node.GetNullTest() != nil:
		nt := node.GetNullTest()
		arg, err := parseExpr(nt.GetArg())
		if err != nil {
			return Expr{}, err
		}
		op := "is_null"
		if nt.GetNulltesttype() == pg_query.NullTestType_IS_NOT_NULL {
			op = "is_not_null"
		}
		return Expr{Kind: ExprOp, Op: op, Args: []Expr{arg}}, nil

	case node.GetFuncCall() != nil:
		fc := node.GetFuncCall()
		var name string
		if len(fc.GetFuncname()) > 0 {
			if s := fc.GetFuncname()[len(fc.GetFuncname())-1].GetString_(); s != nil {
				name = strings.ToLower(s.GetSval())
			}
		}
		args := make([]Expr, 0, len(fc.GetArgs()))
		for _, a := range fc.GetArgs() {
			e, err := parseExpr(a)
			if err != nil {
				return Expr{}, err
			}
			args = append(args, e)
		}
		return Expr{Kind: ExprFunc, FuncName: name, Args: args}, nil

	case node.GetList() != nil:
		list := node.GetList()
		args := make([]Expr, 0, len(list.GetItems()))
		for _, item := range list.GetItems() {
			e, err := parseExpr(item)
			if err != nil {
				return Expr{}, err
			}
			args = append(args, e)
		}
		return Expr{Kind: ExprOp, Op: "list", Args: args}, nil

	default:
		return Expr{}, fmt.Errorf("sqlparse: unsupported expression node %T", node.GetNode())
	}
}

func parseAConst(ac *pg_query.A_Const) (Expr, error) {
	if ac.GetIsnull() {
		return Expr{Kind: ExprLiteral, Literal: nil}, nil
	}
	if iv := ac.GetIval(); iv != nil {
		return Expr{Kind: ExprLiteral, Literal: iv.GetIval()}, nil
	}
	if fv := ac.GetFval(); fv != nil {
		return Expr{Kind: ExprLiteral, Literal: fv.GetFval()}, nil
	}
	if sv := ac.GetSval(); sv != nil {
		return Expr{Kind: ExprLiteral, Literal: sv.GetSval()}, nil
	}
	if bv := ac.GetBoolval(); bv != nil {
		return Expr{Kind: ExprLiteral, Literal: bv.GetBoolval()}, nil
	}
	return Expr{Kind: ExprLiteral, Literal: nil}, nil
}

func parseAExpr(ae *pg_query.A_Expr) (Expr, error) {
	var opName string
	if len(ae.GetName()) > 0 {
		if s := ae.GetName()[0].GetString_(); s != nil {
			opName = strings.ToLower(s.GetSval())
		}
	}

	left, err := parseExpr(ae.GetLexpr())
	if err != nil {
		return Expr{}, err
	}

	switch ae.GetKind() {
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		bounds, err := parseExpr(ae.GetRexpr())
		if err != nil {
			return Expr{}, err
		}
		op := "between"
		if ae.GetKind() == pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN {
			op = "not_between"
		}
		return Expr{Kind: ExprOp, Op: op, Args: append([]Expr{left}, bounds.Args...)}, nil

	case pg_query.A_Expr_Kind_AEXPR_IN:
		right, err := parseExpr(ae.GetRexpr())
		if err != nil {
			return Expr{}, err
		}
		op := "in"
		if opName == "<>" {
			op = "not_in"
		}
		return Expr{Kind: ExprOp, Op: op, Args: append([]Expr{left}, right.Args...)}, nil

	case pg_query.A_Expr_Kind_AEXPR_LIKE:
		right, err := parseExpr(ae.GetRexpr())
		if err != nil {
			return Expr{}, err
		}
		op := "like"
		if opName == "!~~" {
			op = "not_like"
		}
		return Expr{Kind: ExprOp, Op: op, Args: []Expr{left, right}}, nil

	default:
		right, err := parseExpr(ae.GetRexpr())
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprOp, Op: opName, Args: []Expr{left, right}}, nil
	}
}

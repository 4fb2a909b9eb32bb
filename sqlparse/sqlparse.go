// Package sqlparse wraps github.com/pganalyze/pg_query_go, normalizing its
// Postgres-dialect protobuf AST into a shape the query analyzer (package
// queryanalysis) can walk without caring about pg_query's node-getter
// idioms, following ariga-atlas's pgparse package, which walks the same
// AST via GetXStmt()/GetYClause() node accessors rather than type
// assertions.
package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/ormlite/ormlite/internal/diagnostic"
	"github.com/ormlite/ormlite/ormerr"
)

// StatementType classifies the parsed statement.
type StatementType string

const (
	Select StatementType = "select"
	Insert StatementType = "insert"
	Update StatementType = "update"
	Delete StatementType = "delete"
	With   StatementType = "with"
	Other  StatementType = "other"
)

// Param is a positional placeholder, numbered in source order starting at 0.
type Param struct {
	Index int
}

// ColumnExpr is a single projected, filtered, or ordered column reference.
type ColumnExpr struct {
	Table string // empty if unqualified
	Name  string
}

// Expr is a parsed boolean/scalar expression tree. Exactly one of its
// fields is meaningful, selected by Kind.
type Expr struct {
	Kind ExprKind

	// Kind == ExprColumn
	Column ColumnExpr
	// Kind == ExprParam
	Param Param
	// Kind == ExprLiteral
	Literal any
	// Kind == ExprOp
	Op       string
	Args     []Expr
	// Kind == ExprFunc
	FuncName string
}

type ExprKind string

const (
	ExprColumn  ExprKind = "column"
	ExprParam   ExprKind = "param"
	ExprLiteral ExprKind = "literal"
	ExprOp      ExprKind = "op"
	ExprFunc    ExprKind = "func"
)

// TableRef is one entry in a FROM/JOIN clause.
type TableRef struct {
	Name  string
	Alias string
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr       Expr
	Descending bool
}

// Statement is the normalized view of a single parsed SQL statement.
type Statement struct {
	Type StatementType

	// Insert/Update/Delete target.
	TargetTable TableRef

	// Tables named in FROM/JOIN (Select), or TargetTable alone otherwise.
	Tables []TableRef

	// Projected columns (Select only); empty for "SELECT *".
	Projection []ColumnExpr

	Where   *Expr
	Having  *Expr
	GroupBy []ColumnExpr
	OrderBy []OrderItem
	Limit   *int64
	Offset  *int64

	// Insert/Update: column -> value expression. A param in the map means
	// the caller will supply that value positionally.
	Assignments map[string]Expr

	ParamCount int
}

// sentinelPrefix replaces each "?" with a named placeholder pg_query_go
// accepts ($n is Postgres-specific and collides with literal text the
// caller may already be composing, so a unique textual sentinel is used
// instead and mapped back to {type:"param", index:i} after parsing).
const sentinelPrefix = "__ormlite_param_"

// Parse parses a single SQL statement using "?" positional placeholders
// (SQLite/driver convention) and returns its normalized form.
func Parse(sql string) (*Statement, error) {
	substituted, count := substituteSentinels(sql)

	result, err := pg_query.Parse(substituted)
	if err != nil {
		pos, snip, ok := diagnostic.Locate(sql, err.Error())
		if !ok {
			return nil, &ormerr.ParseError{SQL: sql, Snippet: snippet(sql, 0), Underlying: err}
		}
		return nil, &ormerr.ParseError{SQL: sql, Snippet: snip, Line: pos.Line, Column: pos.Character, Underlying: err}
	}
	if len(result.Stmts) != 1 {
		return nil, &ormerr.ParseError{SQL: sql, Snippet: snippet(sql, 0), Underlying: fmt.Errorf("expected exactly one statement, got %d", len(result.Stmts))}
	}

	raw := result.Stmts[0].Stmt
	stmt := &Statement{ParamCount: count}

	switch {
	case raw.GetSelectStmt() != nil:
		if err := parseSelect(raw.GetSelectStmt(), stmt); err != nil {
			return nil, wrapParseErr(sql, err)
		}
	case raw.GetInsertStmt() != nil:
		if err := parseInsert(raw.GetInsertStmt(), stmt); err != nil {
			return nil, wrapParseErr(sql, err)
		}
	case raw.GetUpdateStmt() != nil:
		if err := parseUpdate(raw.GetUpdateStmt(), stmt); err != nil {
			return nil, wrapParseErr(sql, err)
		}
	case raw.GetDeleteStmt() != nil:
		if err := parseDelete(raw.GetDeleteStmt(), stmt); err != nil {
			return nil, wrapParseErr(sql, err)
		}
	default:
		stmt.Type = Other
	}

	return stmt, nil
}

func wrapParseErr(sql string, err error) error {
	return &ormerr.ParseError{SQL: sql, Snippet: snippet(sql, 0), Underlying: err}
}

func snippet(sql string, at int) string {
	const window = 40
	start := at - window
	if start < 0 {
		start = 0
	}
	end := at + window
	if end > len(sql) {
		end = len(sql)
	}
	return sql[start:end]
}

func substituteSentinels(sql string) (string, int) {
	var b strings.Builder
	count := 0
	inString := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch == '\'' {
			inString = !inString
			b.WriteByte(ch)
			continue
		}
		if ch == '?' && !inString {
			b.WriteString(sentinelPrefix)
			b.WriteString(strconv.Itoa(count))
			count++
			continue
		}
		b.WriteByte(ch)
	}
	return b.String(), count
}

func paramFromIdent(name string) (Param, bool) {
	if !strings.HasPrefix(name, sentinelPrefix) {
		return Param{}, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(name, sentinelPrefix))
	if err != nil {
		return Param{}, false
	}
	return Param{Index: idx}, true
}

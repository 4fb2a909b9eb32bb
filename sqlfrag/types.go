// Package sqlfrag implements the tagged-template SQL composer: it
// interpolates columns, filters, order clauses, and raw fragments into
// a RawSql value of {text, params}, built as a plain {sql, args} pair
// rather than a driver-bound prepared statement.
package sqlfrag

import (
	"fmt"

	"github.com/ormlite/ormlite/ormerr"
)

// ColumnRef is the minimal surface the composer needs from a column value.
// column.Column implements this; the composer never imports the column
// package, so column -> sqlfrag is the only edge (no import cycle).
type ColumnRef interface {
	// TableDBName is the snake_case table name the column belongs to. An
	// empty string means the column has not been attached to a table yet.
	TableDBName() string
	// ColumnDBName is the column's own snake_case name.
	ColumnDBName() string
	// GeneratedExpr returns the expression and alias to emit for a
	// generatedAlwaysAs column reference (e.g. "(a + b) AS total"); ok is
	// false for ordinary columns, which emit "table.column" instead.
	GeneratedExpr() (expr string, alias string, ok bool)
}

// RawSql is the output of the template composer: ? placeholders in Text
// correspond positionally to Params.
type RawSql struct {
	Text   string
	Params []any
}

// Append splices another RawSql's text and params onto this one, reusing
// positional placeholders. Used by Table.update/delete when stitching a
// WHERE clause onto a statement prefix.
func (r RawSql) Append(other RawSql) RawSql {
	return RawSql{
		Text:   r.Text + other.Text,
		Params: append(append([]any{}, r.Params...), other.Params...),
	}
}

// Operator is a comparison or predicate operator usable in a FilterObject.
type Operator string

const (
	OpEq         Operator = "="
	OpNe         Operator = "!="
	OpLt         Operator = "<"
	OpLte        Operator = "<="
	OpGt         Operator = ">"
	OpGte        Operator = ">="
	OpLike       Operator = "LIKE"
	OpNotLike    Operator = "NOT LIKE"
	OpIn         Operator = "IN"
	OpNotIn      Operator = "NOT IN"
	OpBetween    Operator = "BETWEEN"
	OpNotBetween Operator = "NOT BETWEEN"
	OpIsNull     Operator = "IS NULL"
	OpIsNotNull  Operator = "IS NOT NULL"
)

// FilterObject is a single predicate built from a column and an operator.
// Right holds the already-encoded right-hand side: nil for IS [NOT] NULL,
// a [2]any pair for BETWEEN/NOT BETWEEN, a []any for IN/NOT IN, or a
// scalar for every other operator.
type FilterObject struct {
	Operator Operator
	Left     ColumnRef
	Right    any
}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderObject is a single ORDER BY clause term.
type OrderObject struct {
	Column    ColumnRef
	Direction Direction
}

func unattachedColumnError(col ColumnRef) error {
	return fmt.Errorf("%w: column %q is not attached to a table", ormerr.ErrInvalidTemplateValue, col.ColumnDBName())
}

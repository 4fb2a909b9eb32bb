// Package table implements the table model: the column registry a
// declaring program builds once per table, plus the CRUD operation
// builders (make/insert/insertMany/update/delete) and the
// security/immutability hooks a table exposes to package security.
//
// Tables are declared once, at program startup, as package-level values;
// a malformed declaration (duplicate column, empty index) is a
// programmer error caught immediately rather than surfaced as a runtime
// error a caller has to check, following a "fail fast during
// registration, return errors during operation" split: declaration-time
// mistakes panic, every runtime operation returns an error.
package table

import (
	"context"
	"fmt"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/security"
	"github.com/ormlite/ormlite/sqlfrag"
)

// Index is a secondary index declaration.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ConstraintKind classifies a table-level constraint tuple.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
)

// Constraint is a table-level constraint tuple. Order of Columns is significant for
// composite primary keys: reordering them is a change the migration
// engine cannot express as an in-place ALTER (ormerr.ConstraintChangeNotSupported).
type Constraint struct {
	Kind    ConstraintKind
	Columns []string
	Expr    string // populated only for ConstraintCheck
}

// Executor runs a composed statement end to end (parse, analyze,
// security, dispatch to the driver) and returns the driver's rows keyed
// by database column name; Table decodes them into host-named values. ormdb.Database implements it; package
// table never imports package ormdb, avoiding a cycle.
type Executor interface {
	Exec(ctx context.Context, raw sqlfrag.RawSql) ([]map[string]any, error)
}

// Table is the column registry and operation builder for one declared
// table.
type Table struct {
	name   string
	dbName string

	columns     map[string]column.Column // keyed by host name
	columnOrder []string

	indexes     []Index
	constraints []Constraint

	rule           security.Rule
	hasRule        bool
	immutable      []security.ImmutableRule
	requiredChecks []security.CheckContext

	db Executor
}

// New declares a table with the given host name and columns. Every
// column is attached to the returned table, binding TableDBName()/
// References() resolution.
func New(name string, columns ...column.Column) *Table {
	t := &Table{
		name:    name,
		dbName:  column.ToSnakeCase(name),
		columns: make(map[string]column.Column, len(columns)),
	}
	for _, c := range columns {
		if _, dup := t.columns[c.Name()]; dup {
			panic(fmt.Sprintf("ormlite: table %q declares column %q twice", name, c.Name()))
		}
		t.columns[c.Name()] = c.Attach(t)
		t.columnOrder = append(t.columnOrder, c.Name())
	}
	return t
}

// WithTimestamps adds createdAt/updatedAt INTEGER (AppDate) columns, the
// second carrying an onUpdate thunk that stamps the current time, so
// every table doesn't hand-roll the same two columns.
func (t *Table) WithTimestamps(now func() any) *Table {
	createdAt := column.New("createdAt", column.Integer).WithAppDate().WithNotNull().
		WithDefaultFn(func(column.CreationContext) any { return now() })
	updatedAt := column.New("updatedAt", column.Integer).WithAppDate().WithNotNull().
		WithDefaultFn(func(column.CreationContext) any { return now() }).
		WithOnUpdateFn(func(column.CreationContext) any { return now() })

	t.columns[createdAt.Name()] = createdAt.Attach(t)
	t.columnOrder = append(t.columnOrder, createdAt.Name())
	t.columns[updatedAt.Name()] = updatedAt.Attach(t)
	t.columnOrder = append(t.columnOrder, updatedAt.Name())
	return t
}

// Name returns the host-language table name. Implements column.tableBinding.
func (t *Table) Name() string { return t.name }

// DBName returns the snake_case table name. Implements column.tableBinding.
func (t *Table) DBName() string { return t.dbName }

// Column looks up a declared column by host name.
func (t *Table) Column(name string) (column.Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// Columns returns every declared column in declaration order.
func (t *Table) Columns() []column.Column {
	out := make([]column.Column, 0, len(t.columnOrder))
	for _, name := range t.columnOrder {
		out = append(out, t.columns[name])
	}
	return out
}

// AddIndex declares a secondary index. Panics if columns is empty or
// names an undeclared column — a malformed schema declaration.
func (t *Table) AddIndex(idx Index) *Table {
	t.validateColumns(idx.Columns, "index "+idx.Name)
	t.indexes = append(t.indexes, idx)
	return t
}

// AddConstraint declares a table-level constraint tuple.
func (t *Table) AddConstraint(c Constraint) *Table {
	if c.Kind != ConstraintCheck {
		t.validateColumns(c.Columns, string(c.Kind))
	}
	t.constraints = append(t.constraints, c)
	return t
}

func (t *Table) validateColumns(columns []string, context string) {
	if len(columns) == 0 {
		panic(fmt.Sprintf("ormlite: table %q: %s declares zero columns", t.name, context))
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			panic(fmt.Sprintf("ormlite: table %q: %s repeats column %q", t.name, context, c))
		}
		seen[c] = true
		if _, ok := t.columns[c]; !ok {
			panic(fmt.Sprintf("ormlite: table %q: %s references undeclared column %q", t.name, context, c))
		}
	}
}

// Indexes returns the declared secondary indexes.
func (t *Table) Indexes() []Index { return t.indexes }

// Constraints returns the declared table-level constraints.
func (t *Table) Constraints() []Constraint { return t.constraints }

// Secure attaches the table's custom authorization rule.
func (t *Table) Secure(rule security.Rule) *Table {
	t.rule = rule
	t.hasRule = true
	return t
}

// Rule implements security.Securable.
func (t *Table) Rule() (security.Rule, bool) { return t.rule, t.hasRule }

// AddImmutableRule marks a field unwritable by update.
func (t *Table) AddImmutableRule(field string) *Table {
	t.immutable = append(t.immutable, security.ImmutableRule{Table: t.name, Field: field})
	return t
}

// ImmutableRules implements security.Securable.
func (t *Table) ImmutableRules() []security.ImmutableRule { return t.immutable }

// RequireCheck adds a WHERE-clause predicate every select/update/delete
// against this table must satisfy in every DNF branch.
func (t *Table) RequireCheck(check security.CheckContext) *Table {
	check.TableName = t.name
	t.requiredChecks = append(t.requiredChecks, check)
	return t
}

// RequiredChecks implements security.Securable.
func (t *Table) RequiredChecks() []security.CheckContext { return t.requiredChecks }

// BindExecutor wires the table to the façade dispatch pipeline. Called
// once, when the table is registered with a database (ormdb.ConnectDriver).
func (t *Table) BindExecutor(db Executor) *Table {
	t.db = db
	return t
}

func (t *Table) requireExecutor() error {
	if t.db == nil {
		return ormerr.ErrNoDriverConnected
	}
	return nil
}

// Package security implements the authorization pipeline: immutable-field
// rules (updates only), a per-table custom rule, and a WHERE-clause
// predicate check, run in that order for every table a query touches.
//
// The engine operates against the normalized access summary the query
// analyzer (package queryanalysis) produces, never against raw SQL
// text, preferring structural comparison over string matching.
package security

import (
	"context"

	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/queryanalysis"
)

// Operation names a CRUD operation for error reporting and rule context.
type Operation string

const (
	Select Operation = "select"
	Insert Operation = "insert"
	Update Operation = "update"
	Delete Operation = "delete"
)

// QueryContext is handed to a custom Rule.
type QueryContext struct {
	Type           Operation
	AccessedTables []queryanalysis.AccessedTable
	Data           map[string]any // set for insert/update; nil otherwise
	Analysis       queryanalysis.Analysis
}

// Rule is a custom per-table authorization predicate. Returning false, or
// a non-nil error, denies the query. A Rule must not mutate its inputs.
type Rule func(ctx context.Context, qc QueryContext, principal any) (bool, error)

// And/Or/Not compose Rule values into larger authorization predicates.
func And(rules ...Rule) Rule {
	return func(ctx context.Context, qc QueryContext, principal any) (bool, error) {
		for _, r := range rules {
			ok, err := r(ctx, qc, principal)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

func Or(rules ...Rule) Rule {
	return func(ctx context.Context, qc QueryContext, principal any) (bool, error) {
		var lastErr error
		for _, r := range rules {
			ok, err := r(ctx, qc, principal)
			if ok {
				return true, nil
			}
			lastErr = err
		}
		return false, lastErr
	}
}

func Not(rule Rule) Rule {
	return func(ctx context.Context, qc QueryContext, principal any) (bool, error) {
		ok, err := rule(ctx, qc, principal)
		if err != nil {
			return false, nil
		}
		return !ok, nil
	}
}

// ImmutableRule marks a single field on a table as unwritable by update.
type ImmutableRule struct {
	Table string
	Field string
}

// CheckContext is the input to a WHERE-clause predicate requirement.
type CheckContext struct {
	TableName  string
	ColumnName string
	Operator   string
	Value      any
}

// Securable is the view a table exposes to the engine. table.Table
// implements it; the engine never imports package table, avoiding a
// cycle (table -> security for the Rule/ImmutableRule types, not the
// reverse).
type Securable interface {
	Name() string
	DBName() string
	Rule() (Rule, bool)
	ImmutableRules() []ImmutableRule
	RequiredChecks() []CheckContext
}

// Engine runs the three-stage authorization pipeline: immutable-field
// check, custom rule check, and required WHERE-predicate check.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Check runs all three stages for a single accessed table. data is
// non-nil only for insert/update.
func (e *Engine) Check(ctx context.Context, table Securable, op Operation, accessed queryanalysis.AccessedTable, analysis queryanalysis.Analysis, data map[string]any, principal any) error {
	if op == Update {
		if err := e.checkImmutable(table, data); err != nil {
			return err
		}
	}

	if rule, ok := table.Rule(); ok {
		qc := QueryContext{Type: op, AccessedTables: analysis.AccessedTables, Data: data, Analysis: analysis}
		allowed, err := rule(ctx, qc, principal)
		if err != nil || !allowed {
			return &ormerr.SecurityDenied{Table: table.Name(), Operation: string(op)}
		}
	}

	if op != Insert {
		if err := e.checkWherePredicates(table, accessed); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) checkImmutable(table Securable, data map[string]any) error {
	if data == nil {
		return nil
	}
	for _, rule := range table.ImmutableRules() {
		if rule.Table != table.Name() {
			continue
		}
		if _, present := data[rule.Field]; present {
			return &ormerr.ImmutableFieldViolation{Table: table.Name(), Operation: string(Update), Field: rule.Field}
		}
	}
	return nil
}

// checkWherePredicates requires that every DNF branch of the accessed
// table's filters contains a conjunct matching each of the table's
// required checks. An empty branch set is unsatisfied.
func (e *Engine) checkWherePredicates(table Securable, accessed queryanalysis.AccessedTable) error {
	for _, required := range table.RequiredChecks() {
		if required.TableName != "" && required.TableName != table.Name() && required.TableName != table.DBName() {
			continue
		}
		if !satisfies(accessed.FilterBranches, required) {
			return &ormerr.SecurityDenied{Table: table.Name(), Operation: "where-predicate"}
		}
	}
	return nil
}

func satisfies(branches [][]queryanalysis.Filter, required CheckContext) bool {
	if len(branches) == 0 {
		return false
	}
	for _, branch := range branches {
		if !branchHasMatch(branch, required) {
			return false
		}
	}
	return true
}

func branchHasMatch(branch []queryanalysis.Filter, required CheckContext) bool {
	for _, f := range branch {
		if f.Column == required.ColumnName && f.Operator == required.Operator && equalValue(f.Value, required.Value) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	return a == b
}

// Package ormerr defines the typed errors surfaced across the ormlite
// core. Sentinel errors are checked with errors.Is; the struct errors below
// carry the fields callers need and are checked with errors.As.
package ormerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra structured data.
var (
	// ErrNoDriverConnected is returned when a table or façade operation
	// is attempted before connectDriver has been called.
	ErrNoDriverConnected = errors.New("ormlite: no driver connected")

	// ErrInvalidTemplateValue covers programmer errors in SQL template
	// composition: an unattached column reference, a BETWEEN filter
	// without exactly two values, or an IN filter without a slice.
	ErrInvalidTemplateValue = errors.New("ormlite: invalid template value")

	// ErrReadInBatch is returned when a SELECT is issued while the façade
	// is collecting statements for Batch. Database.Transaction refuses a
	// driver without transaction support before any statement runs, so
	// this error does not arise inside a transaction.
	ErrReadInBatch = errors.New("ormlite: read not allowed in batch")
)

// MissingRequiredColumns is returned by Table.insert when one or more
// required columns have no value after Table.make has applied overrides
// and app-level defaults.
type MissingRequiredColumns struct {
	Table   string
	Columns []string
}

func (e *MissingRequiredColumns) Error() string {
	return fmt.Sprintf("ormlite: table %q missing required columns: %v", e.Table, e.Columns)
}

// SecurityDenied is returned when a table's custom security rule rejects
// a query, or returns void/false.
type SecurityDenied struct {
	Table     string
	Operation string
}

func (e *SecurityDenied) Error() string {
	return fmt.Sprintf("ormlite: security denied for %s on table %q", e.Operation, e.Table)
}

// ImmutableFieldViolation is returned when an update's data includes a key
// the table has marked immutable.
type ImmutableFieldViolation struct {
	Table     string
	Operation string
	Field     string
}

func (e *ImmutableFieldViolation) Error() string {
	return fmt.Sprintf("ormlite: immutable field %q violated by %s on table %q", e.Field, e.Operation, e.Table)
}

// ColumnMutationNotSupported is returned by the snapshot diff engine when a
// column's non-name attributes changed between two snapshots in a way that
// cannot be expressed as an online SQLite migration.
type ColumnMutationNotSupported struct {
	Table   string
	Column  string
	Changes []string
}

func (e *ColumnMutationNotSupported) Error() string {
	return fmt.Sprintf("ormlite: column mutation not supported on %s.%s: %v", e.Table, e.Column, e.Changes)
}

// ConstraintChangeNotSupported is returned by the snapshot diff engine when
// a table-level constraint tuple differs structurally between snapshots.
type ConstraintChangeNotSupported struct {
	Table string
}

func (e *ConstraintChangeNotSupported) Error() string {
	return fmt.Sprintf("ormlite: constraint change not supported on table %q", e.Table)
}

// ParseError wraps a SQL parser failure with the offending snippet and a
// best-effort source position, so the error remains legible once it has
// propagated several layers up from sqlparse.
type ParseError struct {
	SQL      string
	Snippet  string
	Line     int
	Column   int
	Underlying error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("ormlite: parse error at line %d, column %d near %q: %v", e.Line, e.Column, e.Snippet, e.Underlying)
	}
	return fmt.Sprintf("ormlite: parse error near %q: %v", e.Snippet, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

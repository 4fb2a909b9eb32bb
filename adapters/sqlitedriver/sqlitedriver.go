// Package sqlitedriver implements ormdb.Driver and ormdb.Transactor over
// database/sql with modernc.org/sqlite, a pure-Go embedded engine.
// Grounded on internal/executor/executor.go's sql.Open("sqlite", ...) +
// BeginTx/Commit/Rollback pattern, adapted from one-shot schema
// introspection to the per-statement dispatch ormdb.Driver requires.
package sqlitedriver

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ormlite/ormlite/internal/ormconfig"
	"github.com/ormlite/ormlite/ormdb"
)

// Driver is a synchronous, transactional SQLite driver.
type Driver struct {
	db *sql.DB
}

// Open connects to path (a file path or ":memory:") and applies pragmas.
func Open(path string, pragmas ormconfig.PragmaSet) (*Driver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitedriver: open: %w", err)
	}
	// A single in-memory connection and WAL's reliance on a shared file
	// both push us toward one open connection; modernc.org/sqlite is not
	// safe for concurrent writers across pooled connections.
	db.SetMaxOpenConns(1)

	for _, stmt := range pragmas.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlitedriver: pragma: %w", err)
		}
	}
	return &Driver{db: db}, nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

// Exec implements ormdb.Driver.
func (d *Driver) Exec(ctx context.Context, stmt ormdb.Statement) ([]map[string]any, error) {
	return exec(ctx, d.db, stmt)
}

// Batch implements ormdb.BatchDriver by running every statement inside a
// single transaction, committing only if all succeed.
func (d *Driver) Batch(ctx context.Context, stmts []ormdb.Statement) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitedriver: batch begin: %w", err)
	}
	for _, s := range stmts {
		if _, err := execTx(ctx, tx, s); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitedriver: batch commit: %w", err)
	}
	return nil
}

// Begin implements ormdb.Transactor.
func (d *Driver) Begin(ctx context.Context) (ormdb.Driver, func(context.Context) error, func(context.Context) error, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("sqlitedriver: begin: %w", err)
	}
	txDriver := &txDriver{tx: tx}
	commit := func(context.Context) error { return tx.Commit() }
	rollback := func(context.Context) error { return tx.Rollback() }
	return txDriver, commit, rollback, nil
}

// txDriver satisfies ormdb.Driver by running statements against an
// already-open *sql.Tx instead of the pooled *sql.DB.
type txDriver struct {
	tx *sql.Tx
}

func (t *txDriver) Exec(ctx context.Context, stmt ormdb.Statement) ([]map[string]any, error) {
	return execTx(ctx, t.tx, stmt)
}

func (t *txDriver) Close() error {
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func exec(ctx context.Context, q queryer, stmt ormdb.Statement) ([]map[string]any, error) {
	return run(ctx, q, stmt)
}

func execTx(ctx context.Context, q queryer, stmt ormdb.Statement) ([]map[string]any, error) {
	return run(ctx, q, stmt)
}

// run dispatches a statement and, for SELECT and PRAGMA, decodes every
// row into a map keyed by column name. ormdb only ever needs rows back
// from reads and introspection PRAGMAs; writes return nil rows and rely
// on the driver-level error for failure.
func run(ctx context.Context, q queryer, stmt ormdb.Statement) ([]map[string]any, error) {
	if !looksLikeSelect(stmt.SQL) {
		if _, err := q.ExecContext(ctx, stmt.SQL, stmt.Params...); err != nil {
			return nil, err
		}
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func looksLikeSelect(sqlText string) bool {
	for _, r := range sqlText {
		switch r {
		case ' ', '\t', '\n', '\r', '(':
			continue
		case 'S', 's', 'W', 'w': // SELECT, or a WITH ... SELECT common table expression
			return true
		case 'P', 'p': // PRAGMA, which introspection reads rows from
			return true
		default:
			return false
		}
	}
	return false
}

var _ ormdb.Driver = (*Driver)(nil)
var _ ormdb.BatchDriver = (*Driver)(nil)
var _ ormdb.Transactor = (*Driver)(nil)
var _ ormdb.Driver = (*txDriver)(nil)

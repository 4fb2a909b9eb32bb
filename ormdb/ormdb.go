// Package ormdb implements the database façade: the single point every
// table's operations dispatch through, running each statement through
// compose -> parse -> analyze -> security -> driver -> row-decode, and
// owning the connection lifecycle (connectDriver, connectUser,
// snapshot/migration, transactions, batches) as the one place that owns
// the driver and every other package calls into.
package ormdb

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ormlite/ormlite/ddl"
	"github.com/ormlite/ormlite/security"
	"github.com/ormlite/ormlite/snapshot"
	"github.com/ormlite/ormlite/table"
)

// Statement is one parameterized SQL statement, the unit a Driver
// executes and a Batch accumulates.
type Statement struct {
	SQL    string
	Params []any
}

// Driver is the pluggable contract every SQLite engine binding
// implements. A synchronous embedded engine (adapters/sqlitedriver) and
// an edge-runtime engine without transactions (adapters/libsql) both
// satisfy it; each runs a single-statement Exec directly, and only Batch
// groups statements.
type Driver interface {
	Exec(ctx context.Context, stmt Statement) ([]map[string]any, error)
	Close() error
}

// BatchDriver is implemented by drivers that can execute several
// statements as one network round trip. Drivers without it still work
// with Database.Batch; the façade just issues each statement in turn.
type BatchDriver interface {
	Driver
	Batch(ctx context.Context, stmts []Statement) error
}

// Transactor is implemented by drivers that support BEGIN/COMMIT/
// ROLLBACK. A batch-only edge driver typically does not.
type Transactor interface {
	Driver
	Begin(ctx context.Context) (txDriver Driver, commit func(context.Context) error, rollback func(context.Context) error, err error)
}

// Database is the façade every declared table's operations run through.
type Database struct {
	driver Driver
	tables map[string]*table.Table // keyed by db name

	security *security.Engine
	logger   zerolog.Logger

	principal any

	current snapshot.Snapshot
}

// Option configures a Database at construction time.
type Option func(*Database)

// WithLogger enables dispatch logging on logger. Without this option a
// Database logs nothing: zerolog.Nop() discards every event.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Database) {
		d.logger = logger
	}
}

// ConnectDriver registers a driver and the full set of tables a program
// declares, binding each table's Executor to this façade so
// table.Insert/Update/Delete/etc. dispatch through it. Logging is
// disabled by default; pass WithLogger to opt in.
func ConnectDriver(driver Driver, tables ...*table.Table) *Database {
	return connectDriver(driver, tables)
}

// ConnectDriverWithOptions is ConnectDriver plus construction-time
// Options, e.g. WithLogger.
func ConnectDriverWithOptions(driver Driver, tables []*table.Table, opts ...Option) *Database {
	return connectDriver(driver, tables, opts...)
}

func connectDriver(driver Driver, tables []*table.Table, opts ...Option) *Database {
	db := &Database{
		driver:   driver,
		tables:   make(map[string]*table.Table, len(tables)),
		security: security.NewEngine(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	for _, t := range tables {
		db.tables[t.DBName()] = t
		t.BindExecutor(db)
		// Nothing has been applied yet: current records the registration
		// order (which orderedTables follows) but no table structure, so
		// the first PrepareSnapshot creates every table.
		db.current.Order = append(db.current.Order, t.DBName())
	}
	return db
}

// ConnectUser returns a handle scoped to principal: every query issued
// through it runs table security rules with that principal, without
// affecting sibling handles sharing the same driver and tables.
func (d *Database) ConnectUser(principal any) *Database {
	scoped := *d
	scoped.principal = principal
	return &scoped
}

// GetSchemaDefinition renders the full CREATE TABLE DDL for every
// registered table, in registration order.
func (d *Database) GetSchemaDefinition() string {
	var sb strings.Builder
	first := true
	for _, t := range d.orderedTables() {
		if !first {
			sb.WriteString(";\n\n")
		}
		first = false
		sb.WriteString(ddl.CreateTable(t))
		for _, idx := range t.Indexes() {
			sb.WriteString(";\n")
			sb.WriteString(ddl.AddIndex(t.DBName(), idx))
		}
	}
	sb.WriteString(";\n")
	return sb.String()
}

func (d *Database) orderedTables() []*table.Table {
	out := make([]*table.Table, 0, len(d.tables))
	for _, name := range d.current.Order {
		if t, ok := d.tables[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Table looks up a registered table by its db name.
func (d *Database) Table(dbName string) (*table.Table, bool) {
	t, ok := d.tables[dbName]
	return t, ok
}

func (d *Database) Close() error {
	return d.driver.Close()
}

// NewConsoleLogger returns a human-readable stderr logger suitable for
// passing to WithLogger during development.
func NewConsoleLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Str("component", "ormdb").Logger()
}

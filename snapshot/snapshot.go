// Package snapshot implements the schema snapshot and diff engine: a
// point-in-time structural capture of a set of declared tables, and a
// comparison between two snapshots that emits a migration's worth of
// DDL. Structural comparison runs over the declared column/table model
// rather than raw DDL text, and adds rename detection via
// column.Column.RenamedFrom so a renamed column is not indistinguishable
// from a remove-then-add. Build never sets TableSnapshot.RenamedFrom
// (table.Table carries no rename hint), so a renamed table diffs as a
// DROP TABLE plus a CREATE TABLE.
package snapshot

import (
	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/table"
)

// ColumnSnapshot is the structural capture of one column, independent of
// the column.Column value it was captured from.
type ColumnSnapshot struct {
	Name        string
	DBName      string
	Storage     column.StorageType
	NotNull     bool
	PrimaryKey  bool
	Unique      bool
	Default     *column.Literal
	Generated   string
	RenamedFrom string
}

// TableSnapshot is the structural capture of one table.
type TableSnapshot struct {
	Name        string
	DBName      string
	Columns     map[string]ColumnSnapshot
	ColumnOrder []string
	Indexes     []table.Index
	Constraints []table.Constraint
	RenamedFrom string
}

// Snapshot is the structural capture of an entire set of declared
// tables, as produced by Build and compared by Prepare.
type Snapshot struct {
	Tables map[string]TableSnapshot
	Order  []string
}

// Build captures the current structure of every given table.
func Build(tables []*table.Table) Snapshot {
	snap := Snapshot{Tables: make(map[string]TableSnapshot, len(tables))}
	for _, t := range tables {
		ts := TableSnapshot{
			Name:        t.Name(),
			DBName:      t.DBName(),
			Columns:     make(map[string]ColumnSnapshot, len(t.Columns())),
			Indexes:     t.Indexes(),
			Constraints: t.Constraints(),
		}
		for _, c := range t.Columns() {
			cs := ColumnSnapshot{
				Name:        c.DBName(),
				DBName:      c.DBName(),
				Storage:     c.StorageType(),
				NotNull:     c.NotNull(),
				PrimaryKey:  c.IsPrimaryKey(),
				Unique:      c.IsUnique(),
				Default:     c.Default(),
				RenamedFrom: c.RenamedFrom(),
			}
			if expr, _, ok := c.GeneratedExpr(); ok {
				cs.Generated = expr
			}
			ts.Columns[cs.DBName] = cs
			ts.ColumnOrder = append(ts.ColumnOrder, cs.DBName)
		}
		snap.Tables[ts.DBName] = ts
		snap.Order = append(snap.Order, ts.DBName)
	}
	return snap
}

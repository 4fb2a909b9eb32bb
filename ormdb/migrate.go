package ormdb

import (
	"context"

	"github.com/ormlite/ormlite/snapshot"
	"github.com/ormlite/ormlite/table"
)

// PrepareSnapshot diffs the façade's last-known structure against the
// tables currently registered and returns the migration that reconciles
// them. It does not apply anything; ApplyMigration does.
func (d *Database) PrepareSnapshot(name string, opts snapshot.PrepareOptions) (snapshot.Migration, error) {
	desired := snapshot.Build(d.orderedTables())
	tablesByName := make(map[string]*table.Table, len(d.tables))
	for name, t := range d.tables {
		tablesByName[name] = t
	}
	return snapshot.Prepare(d.current, desired, tablesByName, name, opts)
}

// ApplyMigration runs every statement in m against the driver (the
// transaction's driver when ctx comes from Database.Transaction), then
// updates the façade's recorded structure so the next PrepareSnapshot
// diffs from the post-migration state.
func (d *Database) ApplyMigration(ctx context.Context, m snapshot.Migration) error {
	driver := d.driver
	if tx, ok := txDriverFromContext(ctx); ok {
		driver = tx
	}
	for _, stmt := range m.Statements {
		if _, err := driver.Exec(ctx, Statement{SQL: stmt.SQL}); err != nil {
			return err
		}
	}
	d.current = snapshot.Build(d.orderedTables())
	return nil
}

// Clear deletes every row from every registered table, in a single
// batch when the driver supports one. Intended for test fixtures, not
// production use.
func (d *Database) Clear(ctx context.Context) error {
	return d.Batch(ctx, func(ctx context.Context) error {
		for _, t := range d.orderedTables() {
			if _, err := t.Delete(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

package snapshot

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ddl"
	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/table"
)

// Statement is one DDL statement in a migration plan, paired with a
// human-readable description for migrate.Printer.
type Statement struct {
	SQL         string
	Description string
}

// Migration is the result of diffing two snapshots.
type Migration struct {
	ID         string
	Name       string
	Statements []Statement
	HasChanges bool
}

// PrepareOptions controls Prepare's behavior.
type PrepareOptions struct {
	// DryRun builds the migration plan without any expectation it will be
	// applied; Prepare behaves identically either way today, but callers
	// use DryRun to suppress side effects like migration-log bookkeeping
	// a future façade revision might add around Prepare.
	DryRun bool
}

// Prepare diffs old against desired and returns the migration that
// transforms old into desired. tablesByDBName maps desired table names to
// their live *table.Table, used to render CREATE TABLE for newly added
// tables and ADD COLUMN for newly added columns.
func Prepare(old, desired Snapshot, tablesByDBName map[string]*table.Table, name string, opts PrepareOptions) (Migration, error) {
	m := Migration{ID: uuid.NewString(), Name: name}

	oldByRenameTarget := map[string]string{} // desired dbName -> old dbName, via RenamedFrom
	for _, dbName := range desired.Order {
		ts := desired.Tables[dbName]
		if ts.RenamedFrom != "" {
			if _, exists := old.Tables[ts.RenamedFrom]; exists {
				oldByRenameTarget[dbName] = ts.RenamedFrom
			}
		}
	}

	consumedOld := map[string]bool{}
	for _, from := range oldByRenameTarget {
		consumedOld[from] = true
	}

	for _, dbName := range desired.Order {
		newTable := desired.Tables[dbName]

		if oldName, renamed := oldByRenameTarget[dbName]; renamed {
			m.Statements = append(m.Statements, Statement{
				SQL:         ddl.RenameTable(oldName, dbName),
				Description: fmt.Sprintf("Rename table %s to %s", oldName, dbName),
			})
			if err := diffTableBody(&m, old.Tables[oldName], newTable, tablesByDBName[dbName]); err != nil {
				return Migration{}, err
			}
			continue
		}

		oldTable, existed := old.Tables[dbName]
		if !existed {
			t := tablesByDBName[dbName]
			if t == nil {
				return Migration{}, fmt.Errorf("snapshot: no live table registered for %q", dbName)
			}
			m.Statements = append(m.Statements, Statement{
				SQL:         ddl.CreateTable(t),
				Description: fmt.Sprintf("Create table %s", dbName),
			})
			continue
		}

		if err := diffTableBody(&m, oldTable, newTable, tablesByDBName[dbName]); err != nil {
			return Migration{}, err
		}
	}

	for _, dbName := range old.Order {
		if consumedOld[dbName] {
			continue
		}
		if _, stillExists := desired.Tables[dbName]; stillExists {
			continue
		}
		m.Statements = append(m.Statements, Statement{
			SQL:         ddl.DropTable(dbName),
			Description: fmt.Sprintf("Drop table %s", dbName),
		})
	}

	m.HasChanges = len(m.Statements) > 0
	return m, nil
}

// diffTableBody appends every statement needed to turn oldTable into
// newTable. It returns a *ormerr.ColumnMutationNotSupported or
// *ormerr.ConstraintChangeNotSupported error, without appending anything
// further, the moment it finds a change SQLite cannot express as an
// in-place ALTER: a column's type, nullability, default, or primary-key
// status changed (ALTER COLUMN has no SQLite equivalent), or a
// table-level constraint tuple diverged. Prepare aborts the whole
// migration on this error so the caller's existing snapshot and database
// stay untouched rather than applying a partial, silently-skipped plan.
func diffTableBody(m *Migration, oldTable, newTable TableSnapshot, liveTable *table.Table) error {
	renameTargets := map[string]string{} // new col -> old col
	for _, name := range newTable.ColumnOrder {
		cs := newTable.Columns[name]
		if cs.RenamedFrom != "" {
			if _, exists := oldTable.Columns[cs.RenamedFrom]; exists {
				renameTargets[name] = cs.RenamedFrom
			}
		}
	}
	consumedOld := map[string]bool{}
	for _, from := range renameTargets {
		consumedOld[from] = true
	}

	for _, name := range newTable.ColumnOrder {
		newCol := newTable.Columns[name]

		if oldName, renamed := renameTargets[name]; renamed {
			m.Statements = append(m.Statements, Statement{
				SQL:         ddl.RenameColumn(newTable.DBName, oldName, name),
				Description: fmt.Sprintf("Rename column %s.%s to %s", newTable.DBName, oldName, name),
			})
			continue
		}

		oldCol, existed := oldTable.Columns[name]
		if !existed {
			c, ok := liveTable.Column(hostNameFor(liveTable, name))
			if !ok {
				continue
			}
			m.Statements = append(m.Statements, Statement{
				SQL:         ddl.AddColumn(newTable.DBName, c),
				Description: fmt.Sprintf("Add column %s to table %s", name, newTable.DBName),
			})
			continue
		}

		if changes := columnChanges(oldCol, newCol); len(changes) > 0 {
			return &ormerr.ColumnMutationNotSupported{Table: newTable.DBName, Column: name, Changes: changes}
		}
	}

	for _, name := range oldTable.ColumnOrder {
		if consumedOld[name] {
			continue
		}
		if _, stillExists := newTable.Columns[name]; stillExists {
			continue
		}
		m.Statements = append(m.Statements, Statement{
			SQL:         fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", newTable.DBName, name),
			Description: fmt.Sprintf("Drop column %s from table %s", name, newTable.DBName),
		})
	}

	if constraintsChanged(oldTable.Constraints, newTable.Constraints) {
		return &ormerr.ConstraintChangeNotSupported{Table: newTable.DBName}
	}

	diffIndexes(m, oldTable, newTable)
	return nil
}

func columnChanges(old, new ColumnSnapshot) []string {
	var changes []string
	if old.Storage != new.Storage {
		changes = append(changes, "type")
	}
	if old.NotNull != new.NotNull {
		changes = append(changes, "nullable")
	}
	if !defaultsEqual(old.Default, new.Default) {
		changes = append(changes, "default")
	}
	if old.PrimaryKey != new.PrimaryKey {
		changes = append(changes, "primary_key")
	}
	return changes
}

func defaultsEqual(a, b *column.Literal) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Null != b.Null {
		return false
	}
	if (a.String == nil) != (b.String == nil) || (a.String != nil && *a.String != *b.String) {
		return false
	}
	if (a.Number == nil) != (b.Number == nil) || (a.Number != nil && *a.Number != *b.Number) {
		return false
	}
	if (a.Bool == nil) != (b.Bool == nil) || (a.Bool != nil && *a.Bool != *b.Bool) {
		return false
	}
	return true
}

func diffIndexes(m *Migration, oldTable, newTable TableSnapshot) {
	oldByName := map[string]table.Index{}
	for _, idx := range oldTable.Indexes {
		oldByName[idx.Name] = idx
	}
	newByName := map[string]table.Index{}
	names := make([]string, 0, len(newTable.Indexes))
	for _, idx := range newTable.Indexes {
		newByName[idx.Name] = idx
		names = append(names, idx.Name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx := newByName[name]
		if _, existed := oldByName[name]; !existed {
			m.Statements = append(m.Statements, Statement{
				SQL:         ddl.AddIndex(newTable.DBName, idx),
				Description: fmt.Sprintf("Create index %s on table %s", name, newTable.DBName),
			})
		}
	}
	for name, idx := range oldByName {
		if _, stillExists := newByName[name]; !stillExists {
			m.Statements = append(m.Statements, Statement{
				SQL:         ddl.DropIndex(idx),
				Description: fmt.Sprintf("Drop index %s from table %s", name, newTable.DBName),
			})
		}
	}
}

func constraintsChanged(old, new []table.Constraint) bool {
	if len(old) != len(new) {
		return true
	}
	for i := range old {
		if old[i].Kind != new[i].Kind || new[i].Expr != old[i].Expr || len(old[i].Columns) != len(new[i].Columns) {
			return true
		}
		for j := range old[i].Columns {
			if old[i].Columns[j] != new[i].Columns[j] {
				return true // order matters: reordering a constraint tuple is a change
			}
		}
	}
	return false
}

func hostNameFor(t *table.Table, dbName string) string {
	for _, c := range t.Columns() {
		if c.DBName() == dbName {
			return c.Name()
		}
	}
	return dbName
}

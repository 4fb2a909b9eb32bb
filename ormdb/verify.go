package ormdb

import (
	"context"
	"fmt"

	"github.com/ormlite/ormlite/introspect"
	"github.com/ormlite/ormlite/snapshot"
)

// driverExecer adapts Driver.Exec (Statement in, decoded rows out) to
// introspect.Execer (a bare SQL string in), since introspection never
// needs bound parameters.
type driverExecer struct {
	driver Driver
}

func (e driverExecer) Exec(ctx context.Context, sql string) ([]map[string]any, error) {
	return e.driver.Exec(ctx, Statement{SQL: sql})
}

// VerifySchema introspects the live database structure and compares it
// against the façade's recorded snapshot, reporting every discrepancy
// instead of failing fast on the first one — useful after a migration
// applied outside ormlite (a manual ALTER, a restored backup) to see the
// whole drift at once before deciding how to reconcile it.
func (d *Database) VerifySchema(ctx context.Context) ([]string, error) {
	live, err := introspect.Inspect(ctx, driverExecer{driver: d.driver})
	if err != nil {
		return nil, err
	}

	liveByName := make(map[string]introspect.Table, len(live.Tables))
	for _, t := range live.Tables {
		liveByName[t.Name] = t
	}

	var drift []string
	for _, name := range d.current.Order {
		expected := d.current.Tables[name]
		actual, ok := liveByName[name]
		if !ok {
			drift = append(drift, fmt.Sprintf("table %q: missing from live database", name))
			continue
		}
		drift = append(drift, diffColumns(name, expected.ColumnOrder, expected.Columns, actual.Columns)...)
	}

	expectedNames := make(map[string]bool, len(d.current.Order))
	for _, name := range d.current.Order {
		expectedNames[name] = true
	}
	for _, t := range live.Tables {
		if !expectedNames[t.Name] {
			drift = append(drift, fmt.Sprintf("table %q: present in the live database but not declared", t.Name))
		}
	}

	return drift, nil
}

func diffColumns(tableName string, order []string, expected map[string]snapshot.ColumnSnapshot, actual []introspect.Column) []string {
	actualByName := make(map[string]introspect.Column, len(actual))
	for _, c := range actual {
		actualByName[c.Name] = c
	}

	var drift []string
	for _, name := range order {
		exp := expected[name]
		act, ok := actualByName[name]
		if !ok {
			drift = append(drift, fmt.Sprintf("table %q column %q: missing from live database", tableName, name))
			continue
		}
		if act.Nullable == exp.NotNull {
			drift = append(drift, fmt.Sprintf("table %q column %q: nullability mismatch", tableName, name))
		}
		if act.IsPrimaryKey != exp.PrimaryKey {
			drift = append(drift, fmt.Sprintf("table %q column %q: primary key mismatch", tableName, name))
		}
	}
	for name := range actualByName {
		if _, declared := expected[name]; !declared {
			drift = append(drift, fmt.Sprintf("table %q column %q: present in the live database but not declared", tableName, name))
		}
	}
	return drift
}

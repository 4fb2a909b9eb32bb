// Package introspect reads the structure SQLite itself believes a table
// has, straight from the sqlite_master/PRAGMA surface, independent of
// whatever the façade's own recorded snapshot says. Grounded on
// database/sqlite/introspector.go, which walked the identical
// PRAGMA table_info/index_list/foreign_key_list sequence against a raw
// *sql.DB; this version runs the same PRAGMAs through ormdb.Driver.Exec
// instead, so it works against any driver binding (embedded or edge),
// not just one holding a *sql.DB handle.
package introspect

import (
	"context"
	"fmt"
	"strings"
)

// Execer is the query surface introspection needs. ormdb.Driver does not
// satisfy it directly (its Exec takes an ormdb.Statement); ormdb wraps its
// driver in a small adapter. Kept separate so this package never imports ormdb
// (ormdb already imports table, and table cannot import introspect
// without a cycle once VerifySchema wires this in).
type Execer interface {
	Exec(ctx context.Context, sql string) ([]map[string]any, error)
}

// Column is the live structure of one column, as SQLite itself reports
// it via PRAGMA table_info.
type Column struct {
	Name         string
	Type         string
	Nullable     bool
	Default      *string
	IsPrimaryKey bool
}

// Index is the live structure of one non-autogenerated index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKey is the live structure of one foreign key constraint.
type ForeignKey struct {
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
}

// Table is the live structure of one table.
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Schema is the live structure of every user table in the database.
type Schema struct {
	Tables []Table
}

// Inspect reads the full live schema: every table SQLite tracks that
// isn't one of its own sqlite_% bookkeeping tables.
func Inspect(ctx context.Context, db Execer) (Schema, error) {
	names, err := Tables(ctx, db)
	if err != nil {
		return Schema{}, err
	}

	schema := Schema{}
	for _, name := range names {
		cols, err := Columns(ctx, db, name)
		if err != nil {
			return Schema{}, fmt.Errorf("introspect: columns of %s: %w", name, err)
		}
		idxs, err := Indexes(ctx, db, name)
		if err != nil {
			return Schema{}, fmt.Errorf("introspect: indexes of %s: %w", name, err)
		}
		fks, err := ForeignKeys(ctx, db, name)
		if err != nil {
			return Schema{}, fmt.Errorf("introspect: foreign keys of %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, Table{Name: name, Columns: cols, Indexes: idxs, ForeignKeys: fks})
	}
	return schema, nil
}

// Tables returns every user table name, sorted.
func Tables(ctx context.Context, db Execer) ([]string, error) {
	rows, err := db.Exec(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("introspect: querying tables: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if name, ok := r["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Columns returns every column of tableName, in declaration order.
func Columns(ctx context.Context, db Execer, tableName string) ([]Column, error) {
	rows, err := db.Exec(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(rows))
	for _, r := range rows {
		col := Column{
			Name:         asString(r["name"]),
			Type:         asString(r["type"]),
			Nullable:     asInt(r["notnull"]) == 0,
			IsPrimaryKey: asInt(r["pk"]) > 0,
		}
		if dflt, ok := r["dflt_value"].(string); ok {
			col.Default = &dflt
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// Indexes returns every index on tableName that the declaring program
// created, skipping SQLite's own autoindexes for inline PRIMARY KEY/
// UNIQUE constraints.
func Indexes(ctx context.Context, db Execer, tableName string) ([]Index, error) {
	rows, err := db.Exec(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	var out []Index
	for _, r := range rows {
		name := asString(r["name"])
		origin := asString(r["origin"])
		if origin != "c" || strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		idx := Index{Name: name, Unique: asInt(r["unique"]) == 1}
		infoRows, err := db.Exec(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(name)))
		if err != nil {
			return nil, err
		}
		for _, ir := range infoRows {
			if col, ok := ir["name"].(string); ok {
				idx.Columns = append(idx.Columns, col)
			}
		}
		out = append(out, idx)
	}
	return out, nil
}

// ForeignKeys returns every foreign key declared on tableName, grouping
// PRAGMA foreign_key_list's per-column rows by constraint id.
func ForeignKeys(ctx context.Context, db Execer, tableName string) ([]ForeignKey, error) {
	rows, err := db.Exec(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	var ids []int
	byID := make(map[int]*ForeignKey)
	for _, r := range rows {
		id := asInt(r["id"])
		fk, ok := byID[id]
		if !ok {
			fk = &ForeignKey{ReferencedTable: asString(r["table"])}
			byID[id] = fk
			ids = append(ids, id)
		}
		fk.Columns = append(fk.Columns, asString(r["from"]))
		fk.ReferencedColumns = append(fk.ReferencedColumns, asString(r["to"]))
	}
	out := make([]ForeignKey, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

package table

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/sqlfrag"
)

// Make resolves a full row from caller overrides (host-language column
// names -> app values), filling in app-level DefaultFn values and
// rejecting missing required columns. A column whose only default is a
// literal DB default is left out of the row so the database supplies it. Virtual columns are never part of
// the result; the database computes them.
func (t *Table) Make(overrides map[string]any, ctx column.CreationContext) (map[string]any, error) {
	row := make(map[string]any, len(t.columnOrder))
	var missing []string

	for _, name := range t.columnOrder {
		c := t.columns[name]
		if c.IsVirtual() {
			continue
		}
		if v, ok := overrides[name]; ok {
			row[name] = v
			continue
		}
		switch c.InsertType() {
		case column.Required:
			missing = append(missing, name)
		case column.WithDefault:
			if v, ok := c.DefaultFnValue(ctx); ok {
				row[name] = v
			}
			// else: a literal DB-level default handles it; omit the key so
			// the INSERT statement leaves the column out of its list.
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &ormerr.MissingRequiredColumns{Table: t.name, Columns: missing}
	}
	return row, nil
}

// Insert builds and runs a single-row INSERT, returning the decoded row
// the database reflects back (including any RETURNING-style columns the
// driver surfaces).
func (t *Table) Insert(ctx context.Context, principal any, overrides map[string]any) (map[string]any, error) {
	if err := t.requireExecutor(); err != nil {
		return nil, err
	}
	row, err := t.Make(overrides, column.CreationContext{Principal: principal})
	if err != nil {
		return nil, err
	}
	raw, err := t.buildInsert(row)
	if err != nil {
		return nil, err
	}
	rows, err := t.db.Exec(ctx, raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return t.decodeRow(row), nil
	}
	return t.decodeRow(rows[0]), nil
}

// InsertMany runs Insert once per row, in order, and stops at the first
// error. Rows inserted before the failing one are not rolled back.
func (t *Table) InsertMany(ctx context.Context, principal any, overrides []map[string]any) ([]map[string]any, error) {
	if err := t.requireExecutor(); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(overrides))
	for _, o := range overrides {
		row, err := t.Insert(ctx, principal, o)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Update applies data (host-language column names -> app values) to
// every row matching where, running each column's onUpdate thunk for
// columns the caller did not already set.
func (t *Table) Update(ctx context.Context, principal any, data map[string]any, where ...sqlfrag.FilterObject) ([]map[string]any, error) {
	if err := t.requireExecutor(); err != nil {
		return nil, err
	}
	creationCtx := column.CreationContext{Principal: principal}
	patch := make(map[string]any, len(data))
	for k, v := range data {
		patch[k] = v
	}
	for _, name := range t.columnOrder {
		c := t.columns[name]
		if c.IsVirtual() {
			continue
		}
		if _, set := patch[name]; set {
			continue
		}
		if fn, ok := c.GetOnUpdateFn(); ok {
			patch[name] = fn(creationCtx)
		}
	}

	raw, err := t.buildUpdate(patch, where)
	if err != nil {
		return nil, err
	}
	rows, err := t.db.Exec(ctx, raw)
	if err != nil {
		return nil, err
	}
	return t.decodeRows(rows), nil
}

// Delete removes every row matching where.
func (t *Table) Delete(ctx context.Context, where ...sqlfrag.FilterObject) ([]map[string]any, error) {
	if err := t.requireExecutor(); err != nil {
		return nil, err
	}
	raw, err := t.buildDelete(where)
	if err != nil {
		return nil, err
	}
	rows, err := t.db.Exec(ctx, raw)
	if err != nil {
		return nil, err
	}
	return t.decodeRows(rows), nil
}

func (t *Table) buildInsert(row map[string]any) (sqlfrag.RawSql, error) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	placeholders := make([]string, 0, len(names))
	params := make([]any, 0, len(names))
	for _, name := range names {
		c, ok := t.columns[name]
		if !ok {
			return sqlfrag.RawSql{}, fmt.Errorf("ormlite: table %q has no column %q", t.name, name)
		}
		encoded, err := c.Encode(row[name])
		if err != nil {
			return sqlfrag.RawSql{}, err
		}
		cols = append(cols, column.QuoteIdentifier(c.DBName()))
		placeholders = append(placeholders, "?")
		params = append(params, encoded)
	}

	if len(cols) == 0 {
		return sqlfrag.RawSql{
			Text: fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", column.QuoteIdentifier(t.dbName)),
		}, nil
	}

	text := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		column.QuoteIdentifier(t.dbName), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sqlfrag.RawSql{Text: text, Params: params}, nil
}

func (t *Table) buildUpdate(patch map[string]any, where []sqlfrag.FilterObject) (sqlfrag.RawSql, error) {
	if len(patch) == 0 {
		return sqlfrag.RawSql{}, fmt.Errorf("ormlite: update on table %q has no columns to set", t.name)
	}
	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names))
	params := make([]any, 0, len(names))
	for _, name := range names {
		c, ok := t.columns[name]
		if !ok {
			return sqlfrag.RawSql{}, fmt.Errorf("ormlite: table %q has no column %q", t.name, name)
		}
		encoded, err := c.Encode(patch[name])
		if err != nil {
			return sqlfrag.RawSql{}, err
		}
		assignments = append(assignments, fmt.Sprintf("%s = ?", column.QuoteIdentifier(c.DBName())))
		params = append(params, encoded)
	}

	raw := sqlfrag.RawSql{
		Text:   fmt.Sprintf("UPDATE %s SET %s", column.QuoteIdentifier(t.dbName), strings.Join(assignments, ", ")),
		Params: params,
	}
	whereRaw, err := t.composeWhere(where)
	if err != nil {
		return sqlfrag.RawSql{}, err
	}
	return raw.Append(whereRaw), nil
}

func (t *Table) buildDelete(where []sqlfrag.FilterObject) (sqlfrag.RawSql, error) {
	raw := sqlfrag.RawSql{Text: fmt.Sprintf("DELETE FROM %s", column.QuoteIdentifier(t.dbName))}
	whereRaw, err := t.composeWhere(where)
	if err != nil {
		return sqlfrag.RawSql{}, err
	}
	return raw.Append(whereRaw), nil
}

func (t *Table) composeWhere(where []sqlfrag.FilterObject) (sqlfrag.RawSql, error) {
	if len(where) == 0 {
		return sqlfrag.RawSql{}, nil
	}
	raw := sqlfrag.RawSql{Text: " WHERE "}
	for i, f := range where {
		if i > 0 {
			raw.Text += " AND "
		}
		clause, err := sqlfrag.Compose(sqlfrag.Sql(f))
		if err != nil {
			return sqlfrag.RawSql{}, err
		}
		raw = raw.Append(clause)
	}
	return raw, nil
}

func (t *Table) decodeRow(storageRow map[string]any) map[string]any {
	app := column.RowKeysToCamelCase(storageRow)
	out := make(map[string]any, len(app))
	for _, name := range t.columnOrder {
		c := t.columns[name]
		v, ok := app[name]
		if !ok {
			continue
		}
		decoded, err := c.Decode(v)
		if err != nil {
			out[name] = v
			continue
		}
		out[name] = decoded
	}
	return out
}

func (t *Table) decodeRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, t.decodeRow(r))
	}
	return out
}

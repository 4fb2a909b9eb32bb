package table_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/sqlfrag"
	"github.com/ormlite/ormlite/table"
)

// recordingExecutor captures every statement handed to it and, if Rows
// is set, returns it verbatim for the next call.
type recordingExecutor struct {
	statements []sqlfrag.RawSql
	rows       []map[string]any
	err        error
}

func (r *recordingExecutor) Exec(_ context.Context, raw sqlfrag.RawSql) ([]map[string]any, error) {
	r.statements = append(r.statements, raw)
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

func newUsersTable() *table.Table {
	return table.New("users",
		column.New("id", column.Integer).WithPrimaryKey().WithNotNull(),
		column.New("email", column.Text).WithNotNull(),
		column.New("age", column.Integer),
	)
}

func TestTable_New_PanicsOnDuplicateColumn(t *testing.T) {
	assert.Panics(t, func() {
		table.New("users", column.New("id", column.Integer), column.New("id", column.Integer))
	})
}

func TestTable_AddIndex_PanicsOnUndeclaredColumn(t *testing.T) {
	tbl := newUsersTable()
	assert.Panics(t, func() {
		tbl.AddIndex(table.Index{Name: "idx_missing", Columns: []string{"nope"}})
	})
}

func TestTable_Make_RejectsMissingRequiredColumns(t *testing.T) {
	tbl := newUsersTable()
	_, err := tbl.Make(map[string]any{"age": 30}, column.CreationContext{})

	var missing *ormerr.MissingRequiredColumns
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"email", "id"}, missing.Columns)
}

func TestTable_Insert_BuildsParameterizedStatement(t *testing.T) {
	tbl := newUsersTable()
	exec := &recordingExecutor{}
	tbl.BindExecutor(exec)

	_, err := tbl.Insert(context.Background(), nil, map[string]any{"id": 1, "email": "a@b.com"})
	require.NoError(t, err)
	require.Len(t, exec.statements, 1)

	stmt := exec.statements[0]
	assert.Contains(t, stmt.Text, `INSERT INTO users`)
	assert.Contains(t, stmt.Text, `email`)
	assert.Contains(t, stmt.Text, `id`)
	assert.ElementsMatch(t, []any{1, "a@b.com"}, stmt.Params)
}

func TestTable_Insert_WithoutExecutorFails(t *testing.T) {
	tbl := newUsersTable()
	_, err := tbl.Insert(context.Background(), nil, map[string]any{"id": 1, "email": "a@b.com"})
	assert.ErrorIs(t, err, ormerr.ErrNoDriverConnected)
}

func TestTable_Update_RunsOnUpdateThunkForUnsetColumns(t *testing.T) {
	stampCalled := false
	tbl := table.New("posts",
		column.New("id", column.Integer).WithPrimaryKey(),
		column.New("title", column.Text),
		column.New("updatedAt", column.Integer).WithOnUpdateFn(func(column.CreationContext) any {
			stampCalled = true
			return int64(42)
		}),
	)
	exec := &recordingExecutor{}
	tbl.BindExecutor(exec)

	idCol, _ := tbl.Column("id")
	_, err := tbl.Update(context.Background(), nil, map[string]any{"title": "new"}, idCol.Eq(1))
	require.NoError(t, err)
	assert.True(t, stampCalled)
	require.Len(t, exec.statements, 1)
	assert.Contains(t, exec.statements[0].Text, "UPDATE")
	assert.Contains(t, exec.statements[0].Text, "WHERE")
}

func TestTable_Update_EmptyPatchErrors(t *testing.T) {
	tbl := table.New("posts", column.New("id", column.Integer).WithPrimaryKey())
	exec := &recordingExecutor{}
	tbl.BindExecutor(exec)

	_, err := tbl.Update(context.Background(), nil, map[string]any{})
	assert.Error(t, err)
}

func TestTable_Delete_ComposesWhereClause(t *testing.T) {
	tbl := newUsersTable()
	exec := &recordingExecutor{}
	tbl.BindExecutor(exec)

	idCol, _ := tbl.Column("id")
	_, err := tbl.Delete(context.Background(), idCol.Eq(7))
	require.NoError(t, err)
	assert.Contains(t, exec.statements[0].Text, "DELETE FROM")
	assert.Contains(t, exec.statements[0].Text, "WHERE")
	assert.Equal(t, []any{7}, exec.statements[0].Params)
}

func TestTable_DecodeRow_AppliesColumnCodec(t *testing.T) {
	tbl := table.New("accounts",
		column.New("id", column.Integer).WithPrimaryKey(),
		column.New("active", column.Integer).WithAppBoolean(),
	)
	exec := &recordingExecutor{rows: []map[string]any{{"id": int64(1), "active": int64(1)}}}
	tbl.BindExecutor(exec)

	idCol, _ := tbl.Column("id")
	rows, err := tbl.Delete(context.Background(), idCol.Eq(1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, true, rows[0]["active"])
}

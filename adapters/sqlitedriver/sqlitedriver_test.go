package sqlitedriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormlite/ormlite/internal/ormconfig"
	"github.com/ormlite/ormlite/ormdb"
)

func TestLooksLikeSelect(t *testing.T) {
	cases := map[string]bool{
		"SELECT * FROM users":       true,
		"  select 1":                true,
		"WITH cte AS (SELECT 1) SELECT * FROM cte": true,
		"INSERT INTO users (id) VALUES (1)":        false,
		"UPDATE users SET email = ?":                false,
		"DELETE FROM users":                         false,
		"(SELECT 1)":                                true,
	}
	for sql, want := range cases {
		assert.Equal(t, want, looksLikeSelect(sql), sql)
	}
}

func TestDriver_OpenExecBatchTransaction_RoundTrip(t *testing.T) {
	driver, err := Open(":memory:", ormconfig.PragmaSet{"foreign_keys": "ON"})
	require.NoError(t, err)
	defer driver.Close()

	ctx := context.Background()
	_, err = driver.Exec(ctx, ormdb.Statement{SQL: `CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL)`})
	require.NoError(t, err)

	err = driver.Batch(ctx, []ormdb.Statement{
		{SQL: `INSERT INTO users (id, email) VALUES (?, ?)`, Params: []any{1, "a@b.com"}},
		{SQL: `INSERT INTO users (id, email) VALUES (?, ?)`, Params: []any{2, "c@d.com"}},
	})
	require.NoError(t, err)

	rows, err := driver.Exec(ctx, ormdb.Statement{SQL: `SELECT id, email FROM users ORDER BY id`})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@b.com", rows[0]["email"])

	txDriver, commit, rollback, err := driver.Begin(ctx)
	require.NoError(t, err)
	_, err = txDriver.Exec(ctx, ormdb.Statement{SQL: `INSERT INTO users (id, email) VALUES (?, ?)`, Params: []any{3, "e@f.com"}})
	require.NoError(t, err)
	require.NoError(t, rollback(ctx))
	_ = commit

	rows, err = driver.Exec(ctx, ormdb.Statement{SQL: `SELECT id FROM users`})
	require.NoError(t, err)
	assert.Len(t, rows, 2, "rolled-back transaction must not persist its insert")
}

func TestDriver_Batch_RollsBackOnFailure(t *testing.T) {
	driver, err := Open(":memory:", ormconfig.PragmaSet{})
	require.NoError(t, err)
	defer driver.Close()

	ctx := context.Background()
	_, err = driver.Exec(ctx, ormdb.Statement{SQL: `CREATE TABLE users (id INTEGER PRIMARY KEY)`})
	require.NoError(t, err)

	err = driver.Batch(ctx, []ormdb.Statement{
		{SQL: `INSERT INTO users (id) VALUES (?)`, Params: []any{1}},
		{SQL: `INSERT INTO nonexistent (id) VALUES (?)`, Params: []any{2}},
	})
	assert.Error(t, err)

	rows, err := driver.Exec(ctx, ormdb.Statement{SQL: `SELECT id FROM users`})
	require.NoError(t, err)
	assert.Empty(t, rows, "a failed batch must roll back its earlier successful statements too")
}

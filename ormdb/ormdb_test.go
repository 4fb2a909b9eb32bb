package ormdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ormdb"
	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/security"
	"github.com/ormlite/ormlite/sqlfrag"
	"github.com/ormlite/ormlite/table"
)

// fakeDriver records every statement it is handed, and whether it
// arrived via Exec, Batch, or a transaction, without attempting to
// actually execute SQL — dispatch plumbing is what these tests verify,
// not a real SQLite engine (adapters/sqlitedriver covers that).
type fakeDriver struct {
	execs      []ormdb.Statement
	batchCalls [][]ormdb.Statement
	begins     int
	committed  bool
	rolledBack bool
	txExecs    []ormdb.Statement
}

func (f *fakeDriver) Exec(_ context.Context, stmt ormdb.Statement) ([]map[string]any, error) {
	f.execs = append(f.execs, stmt)
	return nil, nil
}

func (f *fakeDriver) Close() error { return nil }

func (f *fakeDriver) Batch(_ context.Context, stmts []ormdb.Statement) error {
	f.batchCalls = append(f.batchCalls, stmts)
	return nil
}

func (f *fakeDriver) Begin(context.Context) (ormdb.Driver, func(context.Context) error, func(context.Context) error, error) {
	f.begins++
	tx := &fakeTxDriver{parent: f}
	commit := func(context.Context) error { f.committed = true; return nil }
	rollback := func(context.Context) error { f.rolledBack = true; return nil }
	return tx, commit, rollback, nil
}

type fakeTxDriver struct {
	parent *fakeDriver
}

func (t *fakeTxDriver) Exec(_ context.Context, stmt ormdb.Statement) ([]map[string]any, error) {
	t.parent.txExecs = append(t.parent.txExecs, stmt)
	return nil, nil
}

func (t *fakeTxDriver) Close() error { return nil }

var (
	_ ormdb.Driver      = (*fakeDriver)(nil)
	_ ormdb.BatchDriver = (*fakeDriver)(nil)
	_ ormdb.Transactor  = (*fakeDriver)(nil)
)

func newUsersTable() *table.Table {
	return table.New("users",
		column.New("id", column.Integer).WithPrimaryKey().WithNotNull(),
		column.New("email", column.Text).WithNotNull(),
	)
}

func TestDatabase_Insert_DispatchesDirectlyToDriver(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	_, err := users.Insert(context.Background(), nil, map[string]any{"id": 1, "email": "a@b.com"})
	require.NoError(t, err)
	assert.Len(t, driver.execs, 1)
	assert.Empty(t, driver.batchCalls)
	_ = db
}

func TestDatabase_Batch_QueuesWritesAndFlushesOnce(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	err := db.Batch(context.Background(), func(ctx context.Context) error {
		if _, err := users.Insert(ctx, nil, map[string]any{"id": 1, "email": "a@b.com"}); err != nil {
			return err
		}
		_, err := users.Insert(ctx, nil, map[string]any{"id": 2, "email": "c@d.com"})
		return err
	})
	require.NoError(t, err)

	assert.Empty(t, driver.execs, "writes inside Batch must not hit Exec directly")
	require.Len(t, driver.batchCalls, 1)
	assert.Len(t, driver.batchCalls[0], 2)
}

func TestDatabase_Batch_RejectsReads(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	err := db.Batch(context.Background(), func(ctx context.Context) error {
		_, err := db.Exec(ctx, sqlfrag.RawSql{Text: "SELECT * FROM users"})
		return err
	})
	assert.ErrorIs(t, err, ormerr.ErrReadInBatch)
}

func TestDatabase_Transaction_RunsAgainstTxDriverAndCommits(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		_, err := users.Insert(ctx, nil, map[string]any{"id": 1, "email": "a@b.com"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, driver.begins)
	assert.True(t, driver.committed)
	assert.False(t, driver.rolledBack)
	assert.Len(t, driver.txExecs, 1)
	assert.Empty(t, driver.execs, "writes inside Transaction must go through the tx driver, not the base driver")
}

func TestDatabase_Transaction_RollsBackOnError(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	sentinel := errors.New("boom")
	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		_, _ = users.Insert(ctx, nil, map[string]any{"id": 1, "email": "a@b.com"})
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.True(t, driver.rolledBack)
	assert.False(t, driver.committed)
}

func TestDatabase_Clear_BatchesDeletesAcrossTables(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	err := db.Clear(context.Background())
	require.NoError(t, err)
	require.Len(t, driver.batchCalls, 1)
	assert.Contains(t, driver.batchCalls[0][0].SQL, "DELETE FROM")
}

func TestDatabase_SecurityRuleDeniesWrite(t *testing.T) {
	users := newUsersTable().Secure(func(ctx context.Context, qc security.QueryContext, principal any) (bool, error) {
		return false, nil
	})
	driver := &fakeDriver{}
	ormdb.ConnectDriver(driver, users)

	_, err := users.Insert(context.Background(), nil, map[string]any{"id": 1, "email": "a@b.com"})
	var denied *ormerr.SecurityDenied
	assert.ErrorAs(t, err, &denied)
}

func TestGetSchemaDefinition_ContainsCreateTable(t *testing.T) {
	users := newUsersTable()
	driver := &fakeDriver{}
	db := ormdb.ConnectDriver(driver, users)

	ddl := db.GetSchemaDefinition()
	assert.Contains(t, ddl, `CREATE TABLE users`)
}

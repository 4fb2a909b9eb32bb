package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/snapshot"
	"github.com/ormlite/ormlite/table"
)

func usersTable() *table.Table {
	return table.New("users",
		column.New("id", column.Integer).WithPrimaryKey().WithNotNull(),
		column.New("email", column.Text).WithNotNull(),
	)
}

func TestBuild_IsIdempotent(t *testing.T) {
	tbl := usersTable()
	a := snapshot.Build([]*table.Table{tbl})
	b := snapshot.Build([]*table.Table{tbl})
	assert.Equal(t, a, b)
}

func TestPrepare_NewTableEmitsCreateTable(t *testing.T) {
	tbl := usersTable()
	desired := snapshot.Build([]*table.Table{tbl})
	m, err := snapshot.Prepare(snapshot.Snapshot{}, desired, map[string]*table.Table{"users": tbl}, "001_init", snapshot.PrepareOptions{})
	require.NoError(t, err)
	assert.True(t, m.HasChanges)
	require.Len(t, m.Statements, 1)
	assert.Contains(t, m.Statements[0].SQL, "CREATE TABLE")
}

func TestPrepare_NoChangesWhenSnapshotsMatch(t *testing.T) {
	tbl := usersTable()
	snap := snapshot.Build([]*table.Table{tbl})
	m, err := snapshot.Prepare(snap, snap, map[string]*table.Table{"users": tbl}, "002_noop", snapshot.PrepareOptions{})
	require.NoError(t, err)
	assert.False(t, m.HasChanges)
	assert.Empty(t, m.Statements)
}

func TestPrepare_AddedColumnEmitsAddColumn(t *testing.T) {
	before := usersTable()
	oldSnap := snapshot.Build([]*table.Table{before})

	after := table.New("users",
		column.New("id", column.Integer).WithPrimaryKey().WithNotNull(),
		column.New("email", column.Text).WithNotNull(),
		column.New("age", column.Integer),
	)
	newSnap := snapshot.Build([]*table.Table{after})

	m, err := snapshot.Prepare(oldSnap, newSnap, map[string]*table.Table{"users": after}, "003_add_age", snapshot.PrepareOptions{})
	require.NoError(t, err)
	require.Len(t, m.Statements, 1)
	assert.Contains(t, m.Statements[0].SQL, "ADD COLUMN")
	assert.Contains(t, m.Statements[0].SQL, "age")
}

func TestPrepare_ColumnTypeChangeFailsWithColumnMutationNotSupported(t *testing.T) {
	before := table.New("users", column.New("age", column.Integer))
	oldSnap := snapshot.Build([]*table.Table{before})

	after := table.New("users", column.New("age", column.Text))
	newSnap := snapshot.Build([]*table.Table{after})

	m, err := snapshot.Prepare(oldSnap, newSnap, map[string]*table.Table{"users": after}, "004_retype", snapshot.PrepareOptions{})
	require.Error(t, err)
	assert.Empty(t, m.Statements)
	var mutationErr *ormerr.ColumnMutationNotSupported
	require.ErrorAs(t, err, &mutationErr)
	assert.Equal(t, "users", mutationErr.Table)
	assert.Equal(t, "age", mutationErr.Column)
	assert.Contains(t, mutationErr.Changes, "type")
}

func TestPrepare_ConstraintReorderFailsWithConstraintChangeNotSupported(t *testing.T) {
	before := table.New("memberships", column.New("userID", column.Integer), column.New("orgID", column.Integer)).
		AddConstraint(table.Constraint{Kind: table.ConstraintUnique, Columns: []string{"userID", "orgID"}})
	oldSnap := snapshot.Build([]*table.Table{before})

	after := table.New("memberships", column.New("userID", column.Integer), column.New("orgID", column.Integer)).
		AddConstraint(table.Constraint{Kind: table.ConstraintUnique, Columns: []string{"orgID", "userID"}})
	newSnap := snapshot.Build([]*table.Table{after})

	m, err := snapshot.Prepare(oldSnap, newSnap, map[string]*table.Table{"memberships": after}, "005_reorder", snapshot.PrepareOptions{})
	require.Error(t, err)
	assert.Empty(t, m.Statements)
	var constraintErr *ormerr.ConstraintChangeNotSupported
	require.ErrorAs(t, err, &constraintErr)
	assert.Equal(t, "memberships", constraintErr.Table)
}

func TestPrepare_RenamedColumnEmitsRenameNotDrop(t *testing.T) {
	before := table.New("users", column.New("id", column.Integer).WithPrimaryKey(), column.New("email", column.Text))
	oldSnap := snapshot.Build([]*table.Table{before})

	after := table.New("users", column.New("id", column.Integer).WithPrimaryKey(),
		column.New("emailAddress", column.Text).WithRenamedFrom("email"))
	newSnap := snapshot.Build([]*table.Table{after})

	m, err := snapshot.Prepare(oldSnap, newSnap, map[string]*table.Table{"users": after}, "006_rename", snapshot.PrepareOptions{})
	require.NoError(t, err)
	require.Len(t, m.Statements, 1)
	assert.Contains(t, m.Statements[0].SQL, "RENAME COLUMN")
}

func TestPrepare_DroppedTableEmitsDropTable(t *testing.T) {
	tbl := usersTable()
	oldSnap := snapshot.Build([]*table.Table{tbl})
	m, err := snapshot.Prepare(oldSnap, snapshot.Snapshot{}, map[string]*table.Table{}, "007_drop", snapshot.PrepareOptions{})
	require.NoError(t, err)
	require.Len(t, m.Statements, 1)
	assert.Contains(t, m.Statements[0].SQL, "DROP TABLE")
}

package queryanalysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormlite/ormlite/queryanalysis"
	"github.com/ormlite/ormlite/sqlparse"
)

func TestAnalyze_SingleTableComparisonFilter(t *testing.T) {
	stmt, err := sqlparse.Parse(`SELECT id FROM users WHERE age >= ?`)
	require.NoError(t, err)

	analysis, err := queryanalysis.Analyze(stmt, []any{18})
	require.NoError(t, err)

	require.Len(t, analysis.AccessedTables, 1)
	users := analysis.AccessedTables[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.FilterBranches, 1)
	require.Len(t, users.FilterBranches[0], 1)
	f := users.FilterBranches[0][0]
	assert.Equal(t, "age", f.Column)
	assert.Equal(t, ">=", f.Operator)
	assert.Equal(t, 18, f.Value)
}

func TestAnalyze_OrProducesMultipleBranches(t *testing.T) {
	stmt, err := sqlparse.Parse(`SELECT id FROM users WHERE role = ? OR role = ?`)
	require.NoError(t, err)

	analysis, err := queryanalysis.Analyze(stmt, []any{"admin", "owner"})
	require.NoError(t, err)

	users := analysis.AccessedTables[0]
	require.Len(t, users.FilterBranches, 2)
	assert.Equal(t, "admin", users.FilterBranches[0][0].Value)
	assert.Equal(t, "owner", users.FilterBranches[1][0].Value)
}

func TestAnalyze_AndCrossJoinsBranches(t *testing.T) {
	stmt, err := sqlparse.Parse(`SELECT id FROM users WHERE (role = ? OR role = ?) AND active = ?`)
	require.NoError(t, err)

	analysis, err := queryanalysis.Analyze(stmt, []any{"admin", "owner", true})
	require.NoError(t, err)

	users := analysis.AccessedTables[0]
	require.Len(t, users.FilterBranches, 2)
	for _, branch := range users.FilterBranches {
		require.Len(t, branch, 2)
	}
}

func TestAnalyze_InOperatorResolvesParams(t *testing.T) {
	stmt, err := sqlparse.Parse(`DELETE FROM sessions WHERE user_id IN (?, ?)`)
	require.NoError(t, err)

	analysis, err := queryanalysis.Analyze(stmt, []any{1, 2})
	require.NoError(t, err)

	sessions := analysis.AccessedTables[0]
	require.Len(t, sessions.FilterBranches, 1)
	f := sessions.FilterBranches[0][0]
	assert.Equal(t, "in", f.Operator)
	assert.Equal(t, []any{1, 2}, f.Value)
}

func TestAnalyze_AssignmentsContributeAccessedColumns(t *testing.T) {
	stmt, err := sqlparse.Parse(`UPDATE users SET email = ? WHERE id = ?`)
	require.NoError(t, err)

	analysis, err := queryanalysis.Analyze(stmt, []any{"a@b.com", 1})
	require.NoError(t, err)

	users := analysis.AccessedTables[0]
	assert.Contains(t, users.Columns, "email")
}

func TestAnalyze_NoWhereProducesNoFilterBranches(t *testing.T) {
	stmt, err := sqlparse.Parse(`SELECT id FROM users`)
	require.NoError(t, err)

	analysis, err := queryanalysis.Analyze(stmt, nil)
	require.NoError(t, err)
	assert.Empty(t, analysis.AccessedTables[0].FilterBranches)
}

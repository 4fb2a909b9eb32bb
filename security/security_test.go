package security_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/queryanalysis"
	"github.com/ormlite/ormlite/security"
)

type stubSecurable struct {
	name, dbName   string
	rule           security.Rule
	hasRule        bool
	immutable      []security.ImmutableRule
	requiredChecks []security.CheckContext
}

func (s stubSecurable) Name() string   { return s.name }
func (s stubSecurable) DBName() string { return s.dbName }
func (s stubSecurable) Rule() (security.Rule, bool) { return s.rule, s.hasRule }
func (s stubSecurable) ImmutableRules() []security.ImmutableRule { return s.immutable }
func (s stubSecurable) RequiredChecks() []security.CheckContext  { return s.requiredChecks }

func TestEngine_CustomRuleDenies(t *testing.T) {
	tbl := stubSecurable{
		name: "posts", dbName: "posts", hasRule: true,
		rule: func(context.Context, security.QueryContext, any) (bool, error) { return false, nil },
	}
	eng := security.NewEngine()
	err := eng.Check(context.Background(), tbl, security.Select, queryanalysis.AccessedTable{}, queryanalysis.Analysis{}, nil, nil)

	var denied *ormerr.SecurityDenied
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "posts", denied.Table)
}

func TestEngine_CustomRuleAllows(t *testing.T) {
	tbl := stubSecurable{
		name: "posts", dbName: "posts", hasRule: true,
		rule: func(context.Context, security.QueryContext, any) (bool, error) { return true, nil },
	}
	eng := security.NewEngine()
	err := eng.Check(context.Background(), tbl, security.Select, queryanalysis.AccessedTable{}, queryanalysis.Analysis{}, nil, nil)
	assert.NoError(t, err)
}

func TestEngine_ImmutableFieldViolationOnUpdate(t *testing.T) {
	tbl := stubSecurable{
		name: "users", dbName: "users",
		immutable: []security.ImmutableRule{{Table: "users", Field: "email"}},
	}
	eng := security.NewEngine()
	err := eng.Check(context.Background(), tbl, security.Update, queryanalysis.AccessedTable{}, queryanalysis.Analysis{}, map[string]any{"email": "new@x.com"}, nil)

	var violation *ormerr.ImmutableFieldViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "email", violation.Field)
}

func TestEngine_ImmutableFieldUntouchedIsAllowed(t *testing.T) {
	tbl := stubSecurable{
		name: "users", dbName: "users",
		immutable: []security.ImmutableRule{{Table: "users", Field: "email"}},
	}
	eng := security.NewEngine()
	err := eng.Check(context.Background(), tbl, security.Update, queryanalysis.AccessedTable{}, queryanalysis.Analysis{}, map[string]any{"name": "new name"}, nil)
	assert.NoError(t, err)
}

func TestEngine_RequiredCheckDeniesWhenFilterMissing(t *testing.T) {
	tbl := stubSecurable{
		name: "documents", dbName: "documents",
		requiredChecks: []security.CheckContext{{ColumnName: "tenantID", Operator: "=", Value: "t1"}},
	}
	eng := security.NewEngine()
	accessed := queryanalysis.AccessedTable{Name: "documents", FilterBranches: [][]queryanalysis.Filter{
		{{Column: "id", Operator: "=", Value: 1}},
	}}
	err := eng.Check(context.Background(), tbl, security.Select, accessed, queryanalysis.Analysis{}, nil, nil)
	assert.Error(t, err)
}

func TestEngine_RequiredCheckAllowsWhenEveryBranchMatches(t *testing.T) {
	tbl := stubSecurable{
		name: "documents", dbName: "documents",
		requiredChecks: []security.CheckContext{{ColumnName: "tenantID", Operator: "=", Value: "t1"}},
	}
	eng := security.NewEngine()
	accessed := queryanalysis.AccessedTable{Name: "documents", FilterBranches: [][]queryanalysis.Filter{
		{{Column: "tenantID", Operator: "=", Value: "t1"}},
		{{Column: "tenantID", Operator: "=", Value: "t1"}, {Column: "id", Operator: "=", Value: 2}},
	}}
	err := eng.Check(context.Background(), tbl, security.Select, accessed, queryanalysis.Analysis{}, nil, nil)
	assert.NoError(t, err)
}

func TestEngine_RequiredCheckSkippedOnInsert(t *testing.T) {
	tbl := stubSecurable{
		name: "documents", dbName: "documents",
		requiredChecks: []security.CheckContext{{ColumnName: "tenantID", Operator: "=", Value: "t1"}},
	}
	eng := security.NewEngine()
	err := eng.Check(context.Background(), tbl, security.Insert, queryanalysis.AccessedTable{}, queryanalysis.Analysis{}, map[string]any{"tenantID": "t1"}, nil)
	assert.NoError(t, err)
}

func TestAnd_ShortCircuitsOnFirstFailure(t *testing.T) {
	calls := 0
	never := func(context.Context, security.QueryContext, any) (bool, error) {
		calls++
		return true, nil
	}
	deny := func(context.Context, security.QueryContext, any) (bool, error) { return false, nil }

	combined := security.And(deny, never)
	ok, err := combined(context.Background(), security.QueryContext{}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, calls)
}

func TestOr_AllowsIfAnyRuleAllows(t *testing.T) {
	deny := func(context.Context, security.QueryContext, any) (bool, error) { return false, nil }
	allow := func(context.Context, security.QueryContext, any) (bool, error) { return true, nil }

	combined := security.Or(deny, allow)
	ok, err := combined(context.Background(), security.QueryContext{}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNot_InvertsResult(t *testing.T) {
	allow := func(context.Context, security.QueryContext, any) (bool, error) { return true, nil }
	combined := security.Not(allow)
	ok, err := combined(context.Background(), security.QueryContext{}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

package ormdb

import (
	"context"

	"github.com/ormlite/ormlite/ormerr"
	"github.com/ormlite/ormlite/queryanalysis"
	"github.com/ormlite/ormlite/security"
	"github.com/ormlite/ormlite/sqlfrag"
	"github.com/ormlite/ormlite/sqlparse"
)

// Exec implements table.Executor: parse the composed SQL, analyze its
// per-table access, run the security pipeline, then dispatch to the
// driver (or, inside Batch, queue it). This is the one seam every
// table.Table operation funnels through.
func (d *Database) Exec(ctx context.Context, raw sqlfrag.RawSql) ([]map[string]any, error) {
	stmt, err := sqlparse.Parse(raw.Text)
	if err != nil {
		return nil, err
	}

	analysis, err := queryanalysis.Analyze(stmt, raw.Params)
	if err != nil {
		return nil, err
	}

	op, data := operationAndData(stmt, raw.Params)

	for _, accessed := range analysis.AccessedTables {
		t, ok := d.tables[accessed.Name]
		if !ok {
			continue // an expression or function call shaped like a table ref; nothing to secure
		}
		if err := d.security.Check(ctx, t, op, accessed, analysis, data, d.principal); err != nil {
			return nil, err
		}
	}

	if b, ok := batchFromContext(ctx); ok {
		if op == security.Select {
			return nil, ormerr.ErrReadInBatch
		}
		b.add(Statement{SQL: raw.Text, Params: raw.Params})
		return nil, nil
	}

	driver := d.driver
	if txDriver, ok := txDriverFromContext(ctx); ok {
		driver = txDriver
	}

	d.logger.Debug().Str("sql", raw.Text).Int("params", len(raw.Params)).Msg("dispatch")
	return driver.Exec(ctx, Statement{SQL: raw.Text, Params: raw.Params})
}

func operationAndData(stmt *sqlparse.Statement, params []any) (security.Operation, map[string]any) {
	switch stmt.Type {
	case sqlparse.Insert:
		return security.Insert, resolveAssignments(stmt, params)
	case sqlparse.Update:
		return security.Update, resolveAssignments(stmt, params)
	case sqlparse.Delete:
		return security.Delete, nil
	default:
		return security.Select, nil
	}
}

func resolveAssignments(stmt *sqlparse.Statement, params []any) map[string]any {
	if stmt.Assignments == nil {
		return nil
	}
	out := make(map[string]any, len(stmt.Assignments))
	for col, expr := range stmt.Assignments {
		switch expr.Kind {
		case sqlparse.ExprParam:
			if expr.Param.Index >= 0 && expr.Param.Index < len(params) {
				out[col] = params[expr.Param.Index]
			}
		case sqlparse.ExprLiteral:
			out[col] = expr.Literal
		}
	}
	return out
}

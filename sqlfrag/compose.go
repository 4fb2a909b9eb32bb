package sqlfrag

import (
	"fmt"
	"strings"

	"github.com/ormlite/ormlite/ormerr"
)

// Template is a pre-built sequence of literal chunks and interpolated
// values, the host-neutral replacement for a tagged template literal.
// len(Chunks) must equal len(Values)+1: Chunks[i] precedes Values[i].
type Template struct {
	Chunks []string
	Values []any
}

// Sql builds a Template from literal chunks interleaved with values. It is
// the ergonomic entry point a caller uses in place of a tagged template:
//
//	sqlfrag.Sql("SELECT ", id, " FROM users WHERE ", age.Gte(18))
//
// where id and age are column.Column values attached to the users table.
func Sql(parts ...any) Template {
	t := Template{Chunks: []string{""}}
	for _, p := range parts {
		if s, ok := p.(string); ok {
			t.Chunks[len(t.Chunks)-1] += s
			continue
		}
		t.Values = append(t.Values, p)
		t.Chunks = append(t.Chunks, "")
	}
	return t
}

// Compose interpolates a Template into a RawSql: column references
// render as qualified identifiers, filters and orders render through
// their own composers, and every other value becomes a bound parameter.
func Compose(t Template) (RawSql, error) {
	var b strings.Builder
	var params []any

	b.WriteString(t.Chunks[0])
	for i, v := range t.Values {
		frag, err := composeValue(v, &params)
		if err != nil {
			return RawSql{}, err
		}
		b.WriteString(frag)
		if i+1 < len(t.Chunks) {
			b.WriteString(t.Chunks[i+1])
		}
	}

	return RawSql{Text: b.String(), Params: params}, nil
}

func composeValue(v any, params *[]any) (string, error) {
	switch val := v.(type) {
	case ColumnRef:
		return composeColumn(val)
	case FilterObject:
		return composeFilter(val, params)
	case OrderObject:
		return composeOrder(val)
	case RawSql:
		*params = append(*params, val.Params...)
		return val.Text, nil
	default:
		*params = append(*params, v)
		return "?", nil
	}
}

func composeColumn(c ColumnRef) (string, error) {
	if c.TableDBName() == "" {
		return "", unattachedColumnError(c)
	}
	if expr, alias, ok := c.GeneratedExpr(); ok {
		if alias != "" {
			return fmt.Sprintf("%s AS %s", expr, alias), nil
		}
		return expr, nil
	}
	return fmt.Sprintf("%s.%s", c.TableDBName(), c.ColumnDBName()), nil
}

func composeFilter(f FilterObject, params *[]any) (string, error) {
	colText, err := composeColumn(f.Left)
	if err != nil {
		return "", err
	}

	switch f.Operator {
	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", colText, f.Operator), nil

	case OpBetween, OpNotBetween:
		pair, ok := f.Right.([2]any)
		if !ok {
			return "", fmt.Errorf("%w: %s requires exactly two values", ormerr.ErrInvalidTemplateValue, f.Operator)
		}
		*params = append(*params, pair[0], pair[1])
		return fmt.Sprintf("%s %s ? AND ?", colText, f.Operator), nil

	case OpIn, OpNotIn:
		values, ok := asSlice(f.Right)
		if !ok {
			return "", fmt.Errorf("%w: %s requires an array value", ormerr.ErrInvalidTemplateValue, f.Operator)
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			*params = append(*params, v)
		}
		return fmt.Sprintf("%s %s (%s)", colText, f.Operator, strings.Join(placeholders, ", ")), nil

	default:
		*params = append(*params, f.Right)
		return fmt.Sprintf("%s %s ?", colText, f.Operator), nil
	}
}

func composeOrder(o OrderObject) (string, error) {
	colText, err := composeColumn(o.Column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s", colText, o.Direction), nil
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case nil:
		return nil, false
	default:
		return nil, false
	}
}

package column

import (
	"reflect"

	"github.com/ormlite/ormlite/sqlfrag"
)

func (c Column) encodedOrValue(v any) any {
	if c.encode == nil {
		return v
	}
	encoded, err := c.encode(v)
	if err != nil {
		// Filter construction is a programmer-error surface: an encoder
		// failure here means the caller built a filter with a
		// value its own column codec rejects. Surface the raw value
		// rather than panicking; composition fails loudly later if the
		// driver rejects it.
		return v
	}
	return encoded
}

func (c Column) filter(op sqlfrag.Operator, right any) sqlfrag.FilterObject {
	return sqlfrag.FilterObject{Operator: op, Left: c, Right: right}
}

func (c Column) Eq(v any) sqlfrag.FilterObject  { return c.filter(sqlfrag.OpEq, c.encodedOrValue(v)) }
func (c Column) Ne(v any) sqlfrag.FilterObject  { return c.filter(sqlfrag.OpNe, c.encodedOrValue(v)) }
func (c Column) Gt(v any) sqlfrag.FilterObject  { return c.filter(sqlfrag.OpGt, c.encodedOrValue(v)) }
func (c Column) Gte(v any) sqlfrag.FilterObject { return c.filter(sqlfrag.OpGte, c.encodedOrValue(v)) }
func (c Column) Lt(v any) sqlfrag.FilterObject  { return c.filter(sqlfrag.OpLt, c.encodedOrValue(v)) }
func (c Column) Lte(v any) sqlfrag.FilterObject { return c.filter(sqlfrag.OpLte, c.encodedOrValue(v)) }

func (c Column) Like(pattern string) sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpLike, pattern)
}

func (c Column) NotLike(pattern string) sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpNotLike, pattern)
}

func (c Column) IsNull() sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpIsNull, nil)
}

func (c Column) IsNotNull() sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpIsNotNull, nil)
}

func (c Column) Between(lo, hi any) sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpBetween, [2]any{c.encodedOrValue(lo), c.encodedOrValue(hi)})
}

func (c Column) NotBetween(lo, hi any) sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpNotBetween, [2]any{c.encodedOrValue(lo), c.encodedOrValue(hi)})
}

func (c Column) InArray(values any) sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpIn, c.encodeSlice(values))
}

func (c Column) NotInArray(values any) sqlfrag.FilterObject {
	return c.filter(sqlfrag.OpNotIn, c.encodeSlice(values))
}

// encodeSlice accepts any slice type (so callers can pass []string, []int,
// etc., not just []any) and applies the column's encoder element-wise.
func (c Column) encodeSlice(values any) []any {
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = c.encodedOrValue(rv.Index(i).Interface())
	}
	return out
}

// Asc/Desc build an OrderObject for this column.
func (c Column) Asc() sqlfrag.OrderObject {
	return sqlfrag.OrderObject{Column: c, Direction: sqlfrag.Asc}
}

func (c Column) Desc() sqlfrag.OrderObject {
	return sqlfrag.OrderObject{Column: c, Direction: sqlfrag.Desc}
}

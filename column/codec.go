package column

import (
	"encoding/json"
	"fmt"
	"time"
)

// encodeDate/decodeDate store a time.Time as Unix milliseconds, so a
// driver receiving encoded params sees plain integers rather than
// time.Time values it would need to special-case.
func encodeDate(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli(), nil
	case int64:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("column: cannot encode %T as date", v)
	}
}

func decodeDate(v any) (any, error) {
	switch ms := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return time.UnixMilli(ms).UTC(), nil
	case float64:
		return time.UnixMilli(int64(ms)).UTC(), nil
	default:
		return nil, fmt.Errorf("column: cannot decode %T as date", v)
	}
}

// encodeBool/decodeBool store booleans as 0/1 integers, SQLite having no
// native boolean storage class.
func encodeBool(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("column: cannot encode %T as boolean", v)
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func decodeBool(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return n != 0, nil
	case float64:
		return n != 0, nil
	case bool:
		return n, nil
	default:
		return nil, fmt.Errorf("column: cannot decode %T as boolean", v)
	}
}

// enumCodec stores an enum value as its index into the declared values
// (e.g. role "admin" encodes to 0 when it is the first declared value).
func enumCodec(values []string) (Encoder, Decoder) {
	index := make(map[string]int64, len(values))
	for i, v := range values {
		index[v] = int64(i)
	}
	enc := func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("column: cannot encode %T as enum value", v)
		}
		idx, ok := index[s]
		if !ok {
			return nil, fmt.Errorf("column: %q is not a valid enum value", s)
		}
		return idx, nil
	}
	dec := func(v any) (any, error) {
		var idx int64
		switch n := v.(type) {
		case int64:
			idx = n
		case float64:
			idx = int64(n)
		default:
			return nil, fmt.Errorf("column: cannot decode %T as enum index", v)
		}
		if idx < 0 || int(idx) >= len(values) {
			return nil, fmt.Errorf("column: enum index %d out of range", idx)
		}
		return values[idx], nil
	}
	return enc, dec
}

// jsonCodec stores an arbitrary JSON-able value as its serialized text
// form, validating on encode against the column's schema.
func jsonCodec(v Validator) (Encoder, Decoder) {
	enc := func(val any) (any, error) {
		validated, err := v.Parse(val)
		if err != nil {
			return nil, fmt.Errorf("column: json value failed schema validation: %w", err)
		}
		b, err := json.Marshal(validated)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	dec := func(stored any) (any, error) {
		s, ok := stored.(string)
		if !ok {
			if stored == nil {
				return v.Default(), nil
			}
			return nil, fmt.Errorf("column: cannot decode %T as json text", stored)
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return enc, dec
}

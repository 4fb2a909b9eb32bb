package column

import (
	"regexp"
	"strings"
)

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ToSnakeCase converts a camelCase or PascalCase host identifier to the
// snake_case form used for database names. Consecutive uppercase runs
// (e.g. "userID") collapse to a single underscore boundary rather than one
// per letter, so "userID" becomes "user_id", not "user_i_d".
func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper {
			prevLower := i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z')
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamelCase converts a snake_case database identifier back to the
// lowerCamelCase form used for host-language row keys. An "id" part after
// the first is written "ID", so "user_id" becomes "userID", the inverse
// of ToSnakeCase.
func ToCamelCase(s string) string {
	if s == "" {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		if p == "id" {
			b.WriteString("ID")
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// QuoteIdentifier renders s as a SQL identifier: a name already safe to
// emit bare (letters, digits, underscore, not leading with a digit) is
// returned unchanged; anything else is wrapped in double quotes with any
// embedded quote doubled.
func QuoteIdentifier(s string) string {
	if bareIdentifier.MatchString(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// RowKeysToCamelCase copies a driver row (keyed in DB casing) into a new map
// keyed in host casing. Used by the database façade after every read.
func RowKeysToCamelCase(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[ToCamelCase(k)] = v
	}
	return out
}

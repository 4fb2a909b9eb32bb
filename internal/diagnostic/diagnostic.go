// Package diagnostic enriches a raw pg_query parse failure with a
// source position and offending snippet before it is wrapped in
// ormerr.ParseError, scraping the "at or near" message pg_query_go
// reports and mapping it back to a line/column in the original source.
// MySQL/typo heuristics are intentionally left out: callers here build
// SQL through the template composer, not by hand.
package diagnostic

import (
	"regexp"
	"strings"
)

// Position is a line/column/byte-offset location within a SQL source
// string.
type Position struct {
	Line      int
	Character int
	Offset    int
}

// PositionFromOffset converts a byte offset into a 1-based line/column.
func PositionFromOffset(source string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	line := 1
	col := 1
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Character: col, Offset: offset}
}

var nearTokenPattern = regexp.MustCompile(`at or near "([^"]+)"`)

// Locate finds the best-effort position of a pg_query error within sql,
// scraping the "at or near \"token\"" phrasing libpg_query emits.
func Locate(sql string, errorMsg string) (pos Position, snippet string, ok bool) {
	match := nearTokenPattern.FindStringSubmatch(errorMsg)
	if len(match) < 2 {
		if strings.Contains(errorMsg, "at end of input") {
			p := PositionFromOffset(sql, len(sql))
			return p, snippetAround(sql, len(sql)), true
		}
		return Position{}, "", false
	}
	token := match[1]
	offset := strings.Index(sql, token)
	if offset < 0 {
		return Position{}, "", false
	}
	return PositionFromOffset(sql, offset), snippetAround(sql, offset), true
}

func snippetAround(sql string, at int) string {
	const window = 40
	start := at - window
	if start < 0 {
		start = 0
	}
	end := at + window
	if end > len(sql) {
		end = len(sql)
	}
	return strings.TrimSpace(sql[start:end])
}

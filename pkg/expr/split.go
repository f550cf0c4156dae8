package expr

import (
	"strings"
)

// ClauseJoiner is the literal keyword joining validation clauses.
const ClauseJoiner = "AND"

// SplitClauses splits a validation string on whitespace-delimited `AND`
// keywords found at depth 0 outside quotes. `AND(...)` function calls are
// left intact because the keyword must be followed by whitespace.
func SplitClauses(validation string) []string {
	var (
		clauses []string
		sc      scanner
		last    int
	)
	for i := 0; i < len(validation); i++ {
		if !sc.step(validation[i]) || sc.depth != 0 {
			continue
		}
		if isJoinerAt(validation, i) {
			if clause := strings.TrimSpace(validation[last:i]); clause != "" {
				clauses = append(clauses, clause)
			}
			i += len(ClauseJoiner)
			last = i
		}
	}
	if clause := strings.TrimSpace(validation[last:]); clause != "" {
		clauses = append(clauses, clause)
	}
	return clauses
}

func isJoinerAt(s string, i int) bool {
	end := i + len(ClauseJoiner)
	if end >= len(s) || s[i:end] != ClauseJoiner {
		return false
	}
	return i > 0 && isSpace(s[i-1]) && isSpace(s[end])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

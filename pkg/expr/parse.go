package expr

import (
	"strings"
)

// Call is a parsed function invocation.
type Call struct {
	// Name is the function identifier, uppercased.
	Name string
	// Args holds the raw, trimmed argument substrings in order.
	Args []string
	// Raw is the trimmed source text.
	Raw string
}

// noParenNames lists functions that may be written without parentheses.
var noParenNames = map[string]struct{}{
	"TODAY":               {},
	"NOW":                 {},
	"UUID":                {},
	"RANDOM":              {},
	"CURRENT_USER":        {},
	"CURRENT_USER_NAME":   {},
	"CURRENT_USER_EMAIL":  {},
	"CURRENT_USER_ID":     {},
	"CURRENT_USER_DEPT":   {},
	"CURRENT_USER_ROLE":   {},
	"CURRENT_USER_SBU":    {},
	"CURRENT_USER_BRANCH": {},
	"CURRENT_USER_CORP":   {},
}

// IsNoParenName reports whether token is a zero-argument function that is
// recognised without trailing parentheses. Matching is exact-case so lower
// case field names never shadow it.
func IsNoParenName(token string) bool {
	_, ok := noParenNames[strings.TrimSpace(token)]
	return ok
}

// Parse splits expression into a function name and its raw arguments. It
// returns false when the text is not a single call: the opening parenthesis
// must follow an identifier and its matching parenthesis must close the
// expression. Bare no-paren names parse as zero-argument calls.
func Parse(expression string) (Call, bool) {
	raw := strings.TrimSpace(expression)
	if raw == "" {
		return Call{}, false
	}
	if IsNoParenName(raw) {
		return Call{Name: raw, Raw: raw}, true
	}

	open := strings.IndexByte(raw, '(')
	if open <= 0 || raw[len(raw)-1] != ')' {
		return Call{}, false
	}
	name := strings.TrimSpace(raw[:open])
	if !IsIdentifier(name) {
		return Call{}, false
	}
	if closeAt := matchingClose(raw, open); closeAt != len(raw)-1 {
		return Call{}, false
	}

	return Call{
		Name: strings.ToUpper(name),
		Args: SplitArgs(raw[open+1 : len(raw)-1]),
		Raw:  raw,
	}, true
}

// IsCall reports whether expression parses as a single function call.
func IsCall(expression string) bool {
	_, ok := Parse(expression)
	return ok
}

// IsIdentifier reports whether s is a function or field identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// SplitArgs splits an argument list on depth-0 commas outside quotes and
// trims each argument. An empty or blank list yields no arguments.
func SplitArgs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var (
		args []string
		sc   scanner
		last int
	)
	for i := 0; i < len(list); i++ {
		if !sc.step(list[i]) {
			continue
		}
		if list[i] == ',' && sc.depth == 0 {
			args = append(args, strings.TrimSpace(list[last:i]))
			last = i + 1
		}
	}
	return append(args, strings.TrimSpace(list[last:]))
}

// IsQuoted reports whether s is wrapped in a matching pair of single or
// double quotes.
func IsQuoted(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	first := s[0]
	if first != '"' && first != '\'' {
		return false
	}
	return strings.IndexByte(s[1:], first) == len(s)-2
}

// Unquote strips one pair of matching quotes. Unquoted input is returned
// trimmed but otherwise unchanged.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if !IsQuoted(s) {
		return s
	}
	return s[1 : len(s)-1]
}

// SplitPair splits s at the first depth-0 occurrence of sep outside quotes,
// as in the `key: value` entries of an object literal.
func SplitPair(s string, sep byte) (string, string, bool) {
	var sc scanner
	for i := 0; i < len(s); i++ {
		if sc.step(s[i]) && sc.depth == 0 && s[i] == sep {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
		}
	}
	return "", "", false
}

// FieldRef extracts the field name from an `@{name}` reference marker.
func FieldRef(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 || !strings.HasPrefix(s, "@{") || !strings.HasSuffix(s, "}") {
		return "", false
	}
	name := strings.TrimSpace(s[2 : len(s)-1])
	if name == "" || strings.ContainsAny(name, "{}") {
		return "", false
	}
	return name, true
}

// IsWrapped reports whether s starts with open and ends with the bracket that
// matches it, for example a whole `[...]` array literal.
func IsWrapped(s string, open byte) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != open {
		return false
	}
	return matchingClose(s, 0) == len(s)-1
}

// Balanced reports whether every bracket and quote in s is closed.
func Balanced(s string) bool {
	var sc scanner
	for i := 0; i < len(s); i++ {
		sc.step(s[i])
		if sc.depth < 0 {
			return false
		}
	}
	return sc.depth == 0 && !sc.inQuotes
}

// matchingClose returns the index of the bracket closing the one at open, or
// -1 when it is never closed.
func matchingClose(s string, open int) int {
	var sc scanner
	for i := open; i < len(s); i++ {
		if !sc.step(s[i]) {
			continue
		}
		if sc.depth == 0 && isCloser(s[i]) {
			return i
		}
	}
	return -1
}

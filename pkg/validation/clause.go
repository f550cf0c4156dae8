package validation

import (
	"strings"

	"github.com/goliatone/go-formexpr/pkg/expr"
)

// Kind identifies a validator in the clause catalogue.
type Kind string

const (
	KindRequired      Kind = "Required"
	KindUnique        Kind = "Unique"
	KindValidWhen     Kind = "ValidWhen"
	KindInvalidWhen   Kind = "InvalidWhen"
	KindMandatoryWhen Kind = "MandatoryWhen"
	KindReadOnlyWhen  Kind = "ReadOnlyWhen"
	KindMinLength     Kind = "MinLength"
	KindMaxLength     Kind = "MaxLength"
	KindLengthRange   Kind = "LengthRange"
	KindMin           Kind = "Min"
	KindMax           Kind = "Max"
	KindRange         Kind = "Range"
	KindPattern       Kind = "Pattern"
	KindRegexWhen     Kind = "RegexWhen"
	KindEmail         Kind = "Email"
	KindPhone         Kind = "Phone"
	KindURL           Kind = "URL"
	KindDigits        Kind = "Digits"
	KindAlpha         Kind = "Alpha"
	KindAlphaNumeric  Kind = "AlphaNumeric"
	KindDate          Kind = "Date"
	KindCreditCard    Kind = "CreditCard"
)

var catalogue = func() map[string]Kind {
	kinds := []Kind{
		KindRequired, KindUnique, KindValidWhen, KindInvalidWhen, KindMandatoryWhen, KindReadOnlyWhen,
		KindMinLength, KindMaxLength, KindLengthRange, KindMin, KindMax, KindRange,
		KindPattern, KindRegexWhen, KindEmail, KindPhone, KindURL, KindDigits,
		KindAlpha, KindAlphaNumeric, KindDate, KindCreditCard,
	}
	out := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		out[strings.ToUpper(string(k))] = k
	}
	return out
}()

// Clause is one recognised validator from a validation string.
type Clause struct {
	Kind Kind
	// Args holds raw argument text. Pattern literals keep their slashes.
	Args []string
	Raw  string
}

// Arg returns raw argument i or "".
func (c Clause) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// ParseClauses splits validation on AND and keeps the clauses it recognises,
// in order. Unknown or malformed clauses are dropped.
func ParseClauses(validation string) []Clause {
	var out []Clause
	for _, raw := range expr.SplitClauses(validation) {
		if clause, ok := ParseClause(raw); ok {
			out = append(out, clause)
		}
	}
	return out
}

// ParseClause recognises a single clause such as `Min(18, "Too young")`.
// Bare names (`Required`) are accepted as zero-argument clauses.
func ParseClause(raw string) (Clause, bool) {
	s := strings.TrimSpace(raw)
	if expr.IsIdentifier(s) {
		kind, ok := catalogue[strings.ToUpper(s)]
		return Clause{Kind: kind, Raw: s}, ok
	}

	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Clause{}, false
	}
	kind, ok := catalogue[strings.ToUpper(strings.TrimSpace(s[:open]))]
	if !ok {
		return Clause{}, false
	}
	if kind == KindPattern || kind == KindRegexWhen {
		args, ok := patternArgs(s[open+1 : len(s)-1])
		if !ok {
			return Clause{}, false
		}
		return Clause{Kind: kind, Args: args, Raw: s}, true
	}

	call, ok := expr.Parse(s)
	if !ok {
		return Clause{}, false
	}
	return Clause{Kind: kind, Args: call.Args, Raw: s}, true
}

// patternArgs splits a Pattern argument list whose first argument may be a
// `/regex/flags` literal containing commas, quotes or brackets.
func patternArgs(inner string) ([]string, bool) {
	inner = strings.TrimSpace(inner)
	if !strings.HasPrefix(inner, "/") {
		args := expr.SplitArgs(inner)
		return args, len(args) > 0
	}
	for i := 1; i < len(inner); i++ {
		if inner[i] != '/' || inner[i-1] == '\\' {
			continue
		}
		j := i + 1
		for j < len(inner) && inner[j] >= 'a' && inner[j] <= 'z' {
			j++
		}
		literal := inner[:j]
		rest := strings.TrimSpace(inner[j:])
		switch {
		case rest == "":
			return []string{literal}, true
		case rest[0] == ',':
			return append([]string{literal}, expr.SplitArgs(rest[1:])...), true
		}
	}
	return nil, false
}

package functions

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-formexpr/pkg/format"
)

func logicFunctions() []Definition {
	return []Definition{
		fn("IF", CategoryBoolean, 2, 3, "IF(condition, then, else)", "Pick a value by condition",
			unary(func(a *Args) any {
				if a.Bool(0) {
					return a.Value(1)
				}
				return a.Value(2)
			})),
		fn("IFS", CategoryBoolean, 2, Variadic, "IFS(cond1, val1, cond2, val2, ..., default)", "First value whose condition holds",
			unary(func(a *Args) any {
				n := a.Len()
				for i := 0; i+1 < n; i += 2 {
					if a.Bool(i) {
						return a.Value(i + 1)
					}
				}
				if n%2 == 1 {
					return a.Value(n - 1)
				}
				return nil
			})),
		fn("SWITCH", CategoryBoolean, 3, Variadic, "SWITCH(field, case1, val1, case2, val2, ..., default)", "Map a value through cases",
			unary(func(a *Args) any {
				subject := a.Value(0)
				n := a.Len()
				for i := 1; i+1 < n; i += 2 {
					if Equal(subject, a.Value(i)) {
						return a.Value(i + 1)
					}
				}
				if n%2 == 0 {
					return a.Value(n - 1)
				}
				return nil
			})),
		fn("CHOOSE", CategoryBoolean, 2, Variadic, "CHOOSE(index, a, b, ...)", "Pick the n-th value, 1-based",
			unary(func(a *Args) any {
				i := a.Int(0)
				if i < 1 || i >= a.Len() {
					return nil
				}
				return a.Value(i)
			})),
		fn("AND", CategoryBoolean, 1, Variadic, "AND(a, b, ...)", "All conditions hold",
			unary(func(a *Args) any {
				for i := 0; i < a.Len(); i++ {
					if !a.Bool(i) {
						return false
					}
				}
				return true
			})),
		fn("OR", CategoryBoolean, 1, Variadic, "OR(a, b, ...)", "Any condition holds",
			unary(func(a *Args) any {
				for i := 0; i < a.Len(); i++ {
					if a.Bool(i) {
						return true
					}
				}
				return false
			})),
		fn("NOT", CategoryBoolean, 1, 1, "NOT(condition)", "Negate a condition",
			unary(func(a *Args) any { return !a.Bool(0) })),
		fn("XOR", CategoryBoolean, 2, Variadic, "XOR(a, b)", "An odd number of conditions hold",
			unary(func(a *Args) any {
				odd := false
				for i := 0; i < a.Len(); i++ {
					if a.Bool(i) {
						odd = !odd
					}
				}
				return odd
			})),
		fn("NAND", CategoryBoolean, 2, Variadic, "NAND(a, b, ...)", "Not all conditions hold",
			unary(func(a *Args) any {
				for i := 0; i < a.Len(); i++ {
					if !a.Bool(i) {
						return true
					}
				}
				return false
			})),
		fn("NOR", CategoryBoolean, 2, Variadic, "NOR(a, b, ...)", "No condition holds",
			unary(func(a *Args) any {
				for i := 0; i < a.Len(); i++ {
					if a.Bool(i) {
						return false
					}
				}
				return true
			})),
		fn("TRUE", CategoryBoolean, 0, 0, "TRUE()", "The value true", unary(func(*Args) any { return true })),
		fn("FALSE", CategoryBoolean, 0, 0, "FALSE()", "The value false", unary(func(*Args) any { return false })),
		fn("IS_EMPTY", CategoryBoolean, 1, 1, "IS_EMPTY(field)", "Null, empty text or empty list",
			unary(func(a *Args) any { return isEmptyStrict(a.Value(0)) })),
		fn("IS_NOT_EMPTY", CategoryBoolean, 1, 1, "IS_NOT_EMPTY(field)", "Has a value",
			unary(func(a *Args) any { return !isEmptyStrict(a.Value(0)) })),
		fn("IS_NULL", CategoryBoolean, 1, 1, "IS_NULL(field)", "No value at all",
			unary(func(a *Args) any { return a.Value(0) == nil })),
		fn("IS_BLANK", CategoryBoolean, 1, 1, "IS_BLANK(field)", "Empty or only whitespace",
			unary(func(a *Args) any { return IsEmpty(a.Value(0)) })),
		fn("NULLIF", CategoryBoolean, 2, 2, "NULLIF(a, b)", "Null when a equals b, else a",
			unary(func(a *Args) any {
				if Equal(a.Value(0), a.Value(1)) {
					return nil
				}
				return a.Value(0)
			})),
		fn("EQUALS", CategoryBoolean, 2, 2, "EQUALS(a, b)", "Loose equality",
			unary(func(a *Args) any { return Equal(a.Value(0), a.Value(1)) })),
		fn("NOT_EQUALS", CategoryBoolean, 2, 2, "NOT_EQUALS(a, b)", "Loose inequality",
			unary(func(a *Args) any { return !Equal(a.Value(0), a.Value(1)) })),
		fn("GREATER_THAN", CategoryBoolean, 2, 2, "GREATER_THAN(a, b)", "a > b",
			unary(func(a *Args) any { return Compare(a.Value(0), a.Value(1)) > 0 })),
		fn("GREATER_OR_EQUAL", CategoryBoolean, 2, 2, "GREATER_OR_EQUAL(a, b)", "a >= b",
			unary(func(a *Args) any { return Compare(a.Value(0), a.Value(1)) >= 0 })),
		fn("LESS_THAN", CategoryBoolean, 2, 2, "LESS_THAN(a, b)", "a < b",
			unary(func(a *Args) any { return Compare(a.Value(0), a.Value(1)) < 0 })),
		fn("LESS_OR_EQUAL", CategoryBoolean, 2, 2, "LESS_OR_EQUAL(a, b)", "a <= b",
			unary(func(a *Args) any { return Compare(a.Value(0), a.Value(1)) <= 0 })),
		fn("BETWEEN", CategoryBoolean, 3, 3, "BETWEEN(field, min, max)", "min <= value <= max",
			unary(func(a *Args) any {
				v := a.Value(0)
				return Compare(v, a.Value(1)) >= 0 && Compare(v, a.Value(2)) <= 0
			})),
		fn("IN", CategoryBoolean, 2, Variadic, "IN(field, list)", "Value is one of the list items",
			unary(func(a *Args) any { return inList(a) })),
		fn("NOT_IN", CategoryBoolean, 2, Variadic, "NOT_IN(field, list)", "Value is none of the list items",
			unary(func(a *Args) any { return !inList(a) })),
		fn("IS_VALID_EMAIL", CategoryBoolean, 1, 1, "IS_VALID_EMAIL(field)", "E-mail address format",
			unary(func(a *Args) any { return format.Email(a.String(0)) })),
		fn("IS_VALID_PHONE", CategoryBoolean, 1, 1, "IS_VALID_PHONE(field)", "Phone number format",
			unary(func(a *Args) any { return format.Phone(a.String(0)) })),
		fn("IS_VALID_URL", CategoryBoolean, 1, 1, "IS_VALID_URL(field)", "Absolute URL format",
			unary(func(a *Args) any { return format.URL(a.String(0)) })),
		fn("IS_VALID_CREDIT_CARD", CategoryBoolean, 1, 1, "IS_VALID_CREDIT_CARD(field)", "Card number passing the Luhn check",
			unary(func(a *Args) any { return format.CreditCard(a.String(0)) })),
		fn("IS_VALID_DATE", CategoryBoolean, 1, 1, "IS_VALID_DATE(field)", "Parses as a date",
			unary(func(a *Args) any { _, ok := a.Time(0); return ok })),
		fn("IS_VALID_JSON", CategoryBoolean, 1, 1, "IS_VALID_JSON(field)", "Parses as JSON",
			unary(func(a *Args) any { return json.Valid([]byte(strings.TrimSpace(a.String(0)))) })),
		fn("IS_ALPHA", CategoryBoolean, 1, 1, "IS_ALPHA(field)", "Only letters",
			unary(func(a *Args) any { return format.Alpha(a.String(0)) })),
		fn("IS_ALPHANUMERIC", CategoryBoolean, 1, 1, "IS_ALPHANUMERIC(field)", "Only letters and digits",
			unary(func(a *Args) any { return format.AlphaNumeric(a.String(0)) })),
		fn("IS_DIGITS", CategoryBoolean, 1, 1, "IS_DIGITS(field)", "Only digits",
			unary(func(a *Args) any { return format.Digits(a.String(0)) })),
	}
}

func isEmptyStrict(v any) bool {
	if s, ok := v.(string); ok {
		return s == ""
	}
	return IsEmpty(v)
}

// inList accepts either a list argument or the remaining arguments as the
// candidate set.
func inList(a *Args) bool {
	subject := a.Value(0)
	var candidates []any
	if a.Len() == 2 {
		candidates = a.List(1)
	} else {
		for i := 1; i < a.Len(); i++ {
			candidates = append(candidates, a.Value(i))
		}
	}
	for _, c := range candidates {
		if Equal(subject, c) {
			return true
		}
	}
	return false
}

package functions

import (
	"strings"
	"time"

	"github.com/goliatone/go-formexpr/pkg/expr"
)

// Resolver evaluates one raw argument. On failure it still returns a
// fail-soft value (usually the raw text) together with the error.
type Resolver func(raw string) (any, error)

// Args gives handlers lazy, memoised access to their arguments so
// conditional functions only evaluate the branches they take.
type Args struct {
	Env *Env

	raw      []string
	resolve  Resolver
	values   []any
	errs     []error
	resolved []bool
}

// NewArgs wraps raw argument text. A nil resolver treats every argument as a
// literal (quotes stripped).
func NewArgs(env *Env, raw []string, resolve Resolver) *Args {
	if resolve == nil {
		resolve = func(s string) (any, error) { return expr.Unquote(s), nil }
	}
	if env == nil {
		env = &Env{}
	}
	return &Args{
		Env:      env,
		raw:      raw,
		resolve:  resolve,
		values:   make([]any, len(raw)),
		errs:     make([]error, len(raw)),
		resolved: make([]bool, len(raw)),
	}
}

// ValueArgs wraps already resolved values.
func ValueArgs(env *Env, values ...any) *Args {
	raw := make([]string, len(values))
	a := NewArgs(env, raw, nil)
	for i, v := range values {
		raw[i] = ToString(v)
		a.values[i] = v
		a.resolved[i] = true
	}
	return a
}

// Len is the number of arguments.
func (a *Args) Len() int { return len(a.raw) }

// Has reports whether argument i was supplied and is not blank.
func (a *Args) Has(i int) bool {
	if i < 0 || i >= len(a.raw) {
		return false
	}
	if a.resolved[i] {
		return a.values[i] != nil
	}
	return strings.TrimSpace(a.raw[i]) != ""
}

// Raw returns the unevaluated text of argument i.
func (a *Args) Raw(i int) string {
	if i < 0 || i >= len(a.raw) {
		return ""
	}
	return a.raw[i]
}

// Try resolves argument i and reports evaluation failures.
func (a *Args) Try(i int) (any, error) {
	if i < 0 || i >= len(a.raw) {
		return nil, nil
	}
	if !a.resolved[i] {
		a.values[i], a.errs[i] = a.resolve(a.raw[i])
		a.resolved[i] = true
	}
	return a.values[i], a.errs[i]
}

// Value resolves argument i, or nil when it is missing.
func (a *Args) Value(i int) any {
	v, _ := a.Try(i)
	return v
}

// String resolves argument i as text.
func (a *Args) String(i int) string { return ToString(a.Value(i)) }

// StringOr resolves argument i as text or returns def when it is missing.
func (a *Args) StringOr(i int, def string) string {
	if !a.Has(i) {
		return def
	}
	return a.String(i)
}

// Number resolves argument i with permissive numeric coercion.
func (a *Args) Number(i int) float64 { return ToNumber(a.Value(i)) }

// NumberOr resolves argument i as a number or returns def when missing.
func (a *Args) NumberOr(i int, def float64) float64 {
	if !a.Has(i) {
		return def
	}
	return a.Number(i)
}

// Int resolves argument i truncated toward zero.
func (a *Args) Int(i int) int { return ToInt(a.Value(i)) }

// IntOr resolves argument i as an int or returns def when missing.
func (a *Args) IntOr(i int, def int) int {
	if !a.Has(i) {
		return def
	}
	return a.Int(i)
}

// Bool resolves argument i with the shared truthiness rules.
func (a *Args) Bool(i int) bool { return Truthy(a.Value(i)) }

// Time resolves argument i as a date in the env location.
func (a *Args) Time(i int) (time.Time, bool) {
	return ToTime(a.Value(i), a.Env.location())
}

// List resolves argument i as a list.
func (a *Args) List(i int) []any { return ToList(a.Value(i)) }

// Values resolves every argument in order.
func (a *Args) Values() []any {
	out := make([]any, len(a.raw))
	for i := range a.raw {
		out[i] = a.Value(i)
	}
	return out
}

// Flatten resolves every argument, expanding list values one level.
func (a *Args) Flatten() []any {
	var out []any
	for _, v := range a.Values() {
		switch l := v.(type) {
		case []any:
			out = append(out, l...)
		case string:
			if strings.HasPrefix(strings.TrimSpace(l), "[") {
				out = append(out, ToList(l)...)
				continue
			}
			out = append(out, v)
		default:
			out = append(out, v)
		}
	}
	return out
}

// Numbers flattens the arguments and coerces each to a number.
func (a *Args) Numbers() []float64 {
	values := a.Flatten()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = ToNumber(v)
	}
	return out
}

// FieldName returns the field named by argument i without resolving it: an
// `@{name}` marker, a bare identifier or the text of a quoted literal.
func (a *Args) FieldName(i int) string {
	raw := strings.TrimSpace(a.Raw(i))
	if name, ok := expr.FieldRef(raw); ok {
		return name
	}
	if expr.IsQuoted(raw) {
		return expr.Unquote(raw)
	}
	if expr.IsIdentifier(raw) {
		return raw
	}
	return a.String(i)
}

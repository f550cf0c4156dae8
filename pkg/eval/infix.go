package eval

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	fexpr "github.com/goliatone/go-formexpr/pkg/expr"
	"github.com/goliatone/go-formexpr/pkg/functions"
)

// infix resolves every operand, coerces them pairwise according to the
// operators around them and hands the reduction to a compiled expr program.
// Operator precedence follows expr: arithmetic, then comparison, then &&,
// then ||.
func (r *run) infix(source string, in fexpr.Infix, depth int) (any, error) {
	allBare := true
	values := make([]any, len(in.Operands))
	for i, raw := range in.Operands {
		if !r.bare(raw) {
			allBare = false
		}
		v, err := r.resolve(raw, depth+1)
		if err != nil {
			return source, err
		}
		values[i] = v
	}
	// Free text such as `Draft - pending` is not arithmetic.
	if allBare {
		return source, nil
	}

	program, err := r.e.program(in.Operators)
	if err != nil {
		return source, err
	}
	out, err := expr.Run(program, coerce(in.Operators, values))
	if err != nil {
		out, err = expr.Run(program, numericRetry(in.Operators, values))
		if err != nil {
			return source, fmt.Errorf("eval: reduce %q: %w", source, err)
		}
	}
	return normalize(out), nil
}

// program compiles the operator shape once; operands are bound as v0..vn.
func (e *Evaluator) program(ops []fexpr.Operator) (*vm.Program, error) {
	var b strings.Builder
	b.WriteString("v0")
	for i, op := range ops {
		fmt.Fprintf(&b, " %s v%d", op, i+1)
	}
	shape := b.String()
	if cached, ok := e.programs.Load(shape); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(shape, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("eval: compile %q: %w", shape, err)
	}
	actual, _ := e.programs.LoadOrStore(shape, program)
	return actual.(*vm.Program), nil
}

type group struct {
	start, end int // operand indexes, inclusive
	text       bool
	modulo     bool
}

// coerce binds operands for one reduction. Arithmetic runs become numbers,
// or text when a `+` chain holds non-numeric text. Comparison pairs agree on
// a common kind. Everything else is a truth value.
func coerce(ops []fexpr.Operator, values []any) map[string]any {
	vars := make(map[string]any, len(values))
	kinds := make([]string, len(values))

	for _, g := range arithmeticGroups(ops, values) {
		for i := g.start; i <= g.end; i++ {
			if g.text {
				vars[name(i)] = functions.ToString(values[i])
				kinds[i] = "text"
			} else if g.modulo {
				vars[name(i)] = integral(values[i])
				kinds[i] = "number"
			} else {
				vars[name(i)] = number(values[i])
				kinds[i] = "number"
			}
		}
	}

	for j, op := range ops {
		if !op.IsComparison() {
			continue
		}
		left, right := j, j+1
		switch {
		case kinds[left] != "" && kinds[right] != "":
		case kinds[left] != "":
			vars[name(right)] = like(kinds[left], values[right])
		case kinds[right] != "":
			vars[name(left)] = like(kinds[right], values[left])
		default:
			a, b := pair(op, values[left], values[right])
			vars[name(left)], vars[name(right)] = a, b
		}
	}

	for i, v := range values {
		if _, ok := vars[name(i)]; !ok {
			vars[name(i)] = functions.Truthy(v)
		}
	}
	return vars
}

// numericRetry binds every non-logical operand as a number.
func numericRetry(ops []fexpr.Operator, values []any) map[string]any {
	vars := make(map[string]any, len(values))
	for i, v := range values {
		switch {
		case logicalOnly(ops, i):
			vars[name(i)] = functions.Truthy(v)
		case (i > 0 && ops[i-1] == fexpr.OpMod) || (i < len(ops) && ops[i] == fexpr.OpMod):
			vars[name(i)] = integral(v)
		default:
			vars[name(i)] = number(v)
		}
	}
	return vars
}

func arithmeticGroups(ops []fexpr.Operator, values []any) []group {
	var groups []group
	for i := 0; i < len(ops); i++ {
		if !ops[i].IsArithmetic() {
			continue
		}
		g := group{start: i, end: i + 1, modulo: ops[i] == fexpr.OpMod}
		onlyPlus := ops[i] == fexpr.OpAdd
		for g.end < len(ops) && ops[g.end].IsArithmetic() {
			onlyPlus = onlyPlus && ops[g.end] == fexpr.OpAdd
			g.modulo = g.modulo || ops[g.end] == fexpr.OpMod
			g.end++
		}
		if onlyPlus {
			for k := g.start; k <= g.end; k++ {
				if !functions.IsNumeric(values[k]) {
					g.text = true
					break
				}
			}
		}
		groups = append(groups, g)
		i = g.end - 1
	}
	return groups
}

func logicalOnly(ops []fexpr.Operator, i int) bool {
	if i > 0 && !ops[i-1].IsLogical() {
		return false
	}
	if i < len(ops) && !ops[i].IsLogical() {
		return false
	}
	return true
}

// pair coerces two compared operands to a common kind.
func pair(op fexpr.Operator, a, b any) (any, any) {
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	switch {
	case functions.IsNumeric(a) && functions.IsNumeric(b):
		return number(a), number(b)
	case aBool || bBool:
		if op == fexpr.OpEq || op == fexpr.OpNe {
			return functions.Truthy(a), functions.Truthy(b)
		}
		return number(a), number(b)
	case functions.IsDateLike(a) && functions.IsDateLike(b):
		return millis(a), millis(b)
	case op != fexpr.OpEq && op != fexpr.OpNe && (isNumber(a) || isNumber(b)):
		return number(a), number(b)
	}
	return functions.ToString(a), functions.ToString(b)
}

func like(kind string, v any) any {
	if kind == "text" {
		return functions.ToString(v)
	}
	return number(v)
}

// number converts v with permissive coercion.
func number(v any) any {
	return functions.ToNumber(v)
}

// integral binds operands of `%`, which expr only defines on integers.
// Values beyond the exact float range stay float64 and fail the reduction.
func integral(v any) any {
	f := functions.ToNumber(v)
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func millis(v any) any {
	t, _ := functions.ToTime(v, time.UTC)
	return int(t.UnixMilli())
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return float64(0)
		}
		return n
	}
	return v
}

func name(i int) string { return fmt.Sprintf("v%d", i) }

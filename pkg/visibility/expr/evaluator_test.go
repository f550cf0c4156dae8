package expr

import (
	"testing"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/visibility"
)

func TestEvaluatorBooleanComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", "enabled == true", visibility.Context{
		Values: map[string]any{"enabled": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("threshold", "enabled == true", visibility.Context{
		Values: map[string]any{"enabled": "true"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for string true")
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", "enabled", visibility.Context{
		Values: map[string]any{"enabled": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("threshold", "!enabled", visibility.Context{
		Values: map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for !false")
	}
}

func TestEvaluatorDotLookup(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("cta.headline", `cta.headline != ""`, visibility.Context{
		Values: map[string]any{"cta.headline": "Hello"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for flattened dotted key")
	}

	ok, err = eval.Eval("cta.headline", `cta.headline == "Hello"`, visibility.Context{
		Values: map[string]any{
			"cta": map[string]any{
				"headline": "Hello",
			},
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for nested map lookup")
	}
}

func TestEvaluatorNullLiteral(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", "missing == null", visibility.Context{
		Values: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for missing == null")
	}

	ok, err = eval.Eval("threshold", "enabled != null", visibility.Context{
		Values: map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for present != null")
	}
}

func TestEvaluatorBooleanComposition(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", `enabled == true && role == "admin"`, visibility.Context{
		Values: map[string]any{
			"enabled": true,
			"role":    "admin",
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for conjunction")
	}

	ok, err = eval.Eval("threshold", `enabled == true && role == "admin"`, visibility.Context{
		Values: map[string]any{
			"enabled": true,
			"role":    "user",
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for conjunction mismatch")
	}

	ok, err = eval.Eval("threshold", `enabled == true || role == "admin"`, visibility.Context{
		Values: map[string]any{
			"enabled": false,
			"role":    "admin",
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for disjunction")
	}
}


func TestEvaluatorOrderingComparisons(t *testing.T) {
	t.Parallel()

	ev := New()
	ctx := visibility.Context{Values: map[string]any{
		"amount": 1500.0,
		"start":  "2024-03-01",
		"end":    "2024-03-10",
		"code":   "007",
	}}

	cases := map[string]bool{
		`@{amount} >= 1000`:     true,
		`@{amount} > 1500`:      false,
		`@{amount} <= 1500`:     true,
		`amount < 10`:           false,
		`@{end} > @{start}`:     true,
		`@{start} >= @{end}`:    false,
		`@{code} == "007"`:      true,
		`@{status} == "Closed"`: false,
	}
	for rule, want := range cases {
		got, err := ev.Eval("field", rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %v, want %v", rule, got, want)
		}
	}
}

func TestEvaluatorFlatReductionIsLeftToRight(t *testing.T) {
	t.Parallel()

	ctx := visibility.Context{Values: map[string]any{"a": true, "b": false, "c": false}}

	flat, err := New().Eval("field", "a || b && c", ctx)
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if flat {
		t.Fatalf("expected (a || b) && c to be false")
	}

	prec, err := New(WithPrecedence()).Eval("field", "a || b && c", ctx)
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !prec {
		t.Fatalf("expected a || (b && c) to be true")
	}

	grouped, err := New().Eval("field", "a || (b && c)", ctx)
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !grouped {
		t.Fatalf("expected parentheses to override left-to-right reduction")
	}
}

func TestEvaluatorCalls(t *testing.T) {
	t.Parallel()

	ev := New(WithCalls(visibility.Engine(eval.New())))
	ctx := visibility.Context{Values: map[string]any{"type": "Expense", "code": "ABCD", "notes": ""}}

	cases := map[string]bool{
		`VisibleWhen(@{type} == "Expense")`:           true,
		`HiddenWhen(@{type} == "Expense")`:            false,
		`LENGTH(@{code}) > 3`:                         true,
		`LENGTH(@{code}) > 3 && IS_BLANK(@{notes})`:   true,
		`!CONTAINS(@{code}, "B")`:                     false,
		`UPPER("a,b") == "A,B"`:                       true,
		`VisibleWhen(@{type} == "Travel") || @{code}`: true,
	}
	for rule, want := range cases {
		got, err := ev.Eval("field", rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %v, want %v", rule, got, want)
		}
	}
}

func TestEvaluatorCallWithoutEngineErrors(t *testing.T) {
	t.Parallel()

	if _, err := New().Eval("field", `VisibleWhen(@{a} == 1)`, visibility.Context{}); err == nil {
		t.Fatalf("expected error without a call evaluator")
	}
}

func TestEvaluatorSyntaxErrors(t *testing.T) {
	t.Parallel()

	ev := New()
	for _, rule := range []string{
		`a = b`,
		`a & b`,
		`(a == true`,
		`"unterminated`,
		`a ==`,
		`@{unterminated`,
		`a == b c`,
		`{{a}}`,
		`@{a} == 1 }`,
		`ghost`,
	} {
		if _, err := ev.Eval("field", rule, visibility.Context{}); err == nil {
			t.Fatalf("Eval(%q) expected error", rule)
		}
	}
}

func TestVisibleFailsOpen(t *testing.T) {
	t.Parallel()

	ev := New()
	ctx := visibility.Context{Values: map[string]any{"enabled": false}}

	if !visibility.Visible(ev, "field", "", ctx) {
		t.Fatalf("empty rule must be visible")
	}
	if !visibility.Visible(ev, "field", " TRUE ", ctx) {
		t.Fatalf("literal true must be visible")
	}
	if visibility.Visible(ev, "field", "false", ctx) {
		t.Fatalf("literal false must be hidden")
	}
	if visibility.Visible(ev, "field", "enabled", ctx) {
		t.Fatalf("falsy rule must hide the field")
	}
	if !visibility.Visible(ev, "field", "enabled ==", ctx) {
		t.Fatalf("malformed rule must keep the field visible")
	}
	if !visibility.Visible(ev, "field", `VisibleWhen(@{enabled})`, ctx) {
		t.Fatalf("call without an engine must keep the field visible")
	}
	for _, rule := range []string{"{{unbalanced", "unknownToken", "@{n} > 3 }", "!unknownToken", "enabled || {x}"} {
		if !visibility.Visible(ev, "field", rule, ctx) {
			t.Fatalf("rule %q must keep the field visible", rule)
		}
	}
	if visibility.Visible(ev, "field", "extras.isAdmin", ctx) {
		t.Fatalf("absent extras flag must hide the field")
	}

	panicking := visibility.EvaluatorFunc(func(string, string, visibility.Context) (bool, error) {
		panic("boom")
	})
	if !visibility.Visible(panicking, "field", "enabled", ctx) {
		t.Fatalf("panicking evaluator must keep the field visible")
	}
	if !visibility.Visible(nil, "field", "enabled", ctx) {
		t.Fatalf("nil evaluator must keep the field visible")
	}
}

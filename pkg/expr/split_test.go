package expr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitClauses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple",
			input: "Required() AND MinLength(5)",
			want:  []string{"Required()", "MinLength(5)"},
		},
		{
			name:  "quoted joiner",
			input: `Required AND Pattern("A AND B", "msg")`,
			want:  []string{"Required", `Pattern("A AND B", "msg")`},
		},
		{
			name:  "nested and call",
			input: `ValidWhen(AND(a, b), "x") AND Email`,
			want:  []string{`ValidWhen(AND(a, b), "x")`, "Email"},
		},
		{
			name:  "lowercase is not a joiner",
			input: "Required and Email",
			want:  []string{"Required and Email"},
		},
		{
			name:  "empty",
			input: "  ",
			want:  nil,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, SplitClauses(tc.input)); diff != "" {
				t.Fatalf("clauses mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitInfix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  Infix
		ok    bool
	}{
		{
			input: "score >= 90",
			want:  Infix{Operands: []string{"score", "90"}, Operators: []Operator{OpGe}},
			ok:    true,
		},
		{
			input: `@{role} == "Manager" || @{role} == 'Admin'`,
			want: Infix{
				Operands:  []string{"@{role}", `"Manager"`, "@{role}", "'Admin'"},
				Operators: []Operator{OpEq, OpOr, OpEq},
			},
			ok: true,
		},
		{
			input: "LEN(@{phone}) == 10",
			want:  Infix{Operands: []string{"LEN(@{phone})", "10"}, Operators: []Operator{OpEq}},
			ok:    true,
		},
		{
			input: "price * qty - 5",
			want:  Infix{Operands: []string{"price", "qty", "5"}, Operators: []Operator{OpMul, OpSub}},
			ok:    true,
		},
		{input: "2024-01-01", ok: false},
		{input: "-5", ok: false},
		{input: `"a > b"`, ok: false},
		{input: "IF(a > b, 1, 2)", ok: false},
		{input: "a ==", ok: false},
	}

	for _, tc := range cases {
		got, ok := SplitInfix(tc.input)
		if ok != tc.ok {
			t.Fatalf("SplitInfix(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("SplitInfix(%q) mismatch (-want +got):\n%s", tc.input, diff)
		}
	}
}

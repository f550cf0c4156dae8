package expr

import (
	"strings"
)

// Operator is a binary infix operator found at the top level of an
// expression.
type Operator string

const (
	OpOr  Operator = "||"
	OpAnd Operator = "&&"
	OpEq  Operator = "=="
	OpNe  Operator = "!="
	OpGe  Operator = ">="
	OpLe  Operator = "<="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
)

// symbolic operators are recognised anywhere; longer ones first.
var symbolicOperators = []Operator{OpOr, OpAnd, OpEq, OpNe, OpGe, OpLe, OpGt, OpLt}

// IsLogical reports whether op combines boolean operands.
func (op Operator) IsLogical() bool { return op == OpOr || op == OpAnd }

// IsComparison reports whether op compares two operands.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGe, OpLe, OpGt, OpLt:
		return true
	}
	return false
}

// IsArithmetic reports whether op is a numeric operator.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

// Infix is an expression split on its top-level operators. Operands has
// exactly one more element than Operators.
type Infix struct {
	Operands  []string
	Operators []Operator
}

// SplitInfix scans expression for binary operators at depth 0 outside quotes.
// Comparison and logical operators are recognised anywhere; arithmetic
// operators only when surrounded by whitespace so that literals such as
// `2024-01-01` or `-5` stay intact. The bool result is false when no operator
// was found or an operand is empty.
func SplitInfix(expression string) (Infix, bool) {
	var (
		out  Infix
		sc   scanner
		last int
	)
	s := expression
	for i := 0; i < len(s); i++ {
		if !sc.step(s[i]) || sc.depth != 0 {
			continue
		}
		op, width := operatorAt(s, i)
		if width == 0 {
			continue
		}
		out.Operands = append(out.Operands, strings.TrimSpace(s[last:i]))
		out.Operators = append(out.Operators, op)
		i += width - 1
		last = i + 1
	}
	if len(out.Operators) == 0 {
		return Infix{}, false
	}
	out.Operands = append(out.Operands, strings.TrimSpace(s[last:]))
	for _, operand := range out.Operands {
		if operand == "" {
			return Infix{}, false
		}
	}
	return out, true
}

func operatorAt(s string, i int) (Operator, int) {
	for _, op := range symbolicOperators {
		if strings.HasPrefix(s[i:], string(op)) {
			// `=>` and `<>` style typos are not operators.
			if (op == OpGt || op == OpLt) && i > 0 && (s[i-1] == '=' || s[i-1] == '!') {
				return "", 0
			}
			return op, len(op)
		}
	}
	switch c := s[i]; c {
	case '+', '-', '*', '/', '%':
		if i > 0 && i+1 < len(s) && isSpace(s[i-1]) && isSpace(s[i+1]) {
			return Operator(string(c)), 1
		}
	}
	return "", 0
}

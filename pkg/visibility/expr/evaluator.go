package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	fexpr "github.com/goliatone/go-formexpr/pkg/expr"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/visibility"
)

// Evaluator is the visibility rule evaluator.
//
// Supported syntax:
//   - boolean checks: `enabled`, `@{enabled}`, `!archived`
//   - comparisons: `field == true`, `@{status} != "Closed"`, `@{amount} >= 1000`,
//     `@{end} > @{start}`
//   - composition: `a == true && b != false`, `a || b`, parentheses
//   - function calls delegated to a CallEvaluator: `VisibleWhen(...)`,
//     `LENGTH(@{code}) > 3`
//
// By default `&&` and `||` are reduced strictly left to right with no
// precedence between them, so `a || b && c` reads as `(a || b) && c`.
// Authored forms depend on that reading; WithPrecedence opts into the
// conventional one.
//
// Values are read from visibility.Context.Values (with dot-path traversal) and
// visibility.Context.Extras (via the `extras.` prefix). A bare name tested for
// truth must exist in Values; absent `extras.` flags read as false.
type Evaluator struct {
	precedence bool
	calls      visibility.CallEvaluator
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPrecedence binds `&&` tighter than `||`.
func WithPrecedence() Option {
	return func(e *Evaluator) { e.precedence = true }
}

// WithCalls resolves function calls embedded in rules.
func WithCalls(calls visibility.CallEvaluator) Option {
	return func(e *Evaluator) { e.calls = calls }
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return true, nil
	}

	expr, err := e.parse(tokens)
	if err != nil {
		return false, err
	}
	return expr.eval(&evalContext{ctx: ctx, field: fieldPath, calls: e.calls})
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenCall
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

func (k tokenKind) comparison() bool { return k >= tokenEq && k <= tokenGte }

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	for i < len(input) {
		ch := next()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			consume()
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '<', '>':
			consume()
			kind, raw := tokenLt, "<"
			if ch == '>' {
				kind, raw = tokenGt, ">"
			}
			if next() == '=' {
				consume()
				kind++
				raw += "="
			}
			tokens = append(tokens, token{kind: kind, raw: raw})
			continue
		case '=':
			consume()
			if next() != '=' {
				return nil, fmt.Errorf("visibility/expr: unexpected '='; use '=='")
			}
			consume()
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, fmt.Errorf("visibility/expr: unexpected '&'; use '&&'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, fmt.Errorf("visibility/expr: unexpected '|'; use '||'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '@':
			end := strings.IndexByte(input[i:], '}')
			if end < 0 {
				return nil, errors.New("visibility/expr: unterminated field reference")
			}
			name, ok := fexpr.FieldRef(input[i : i+end+1])
			if !ok {
				return nil, fmt.Errorf("visibility/expr: invalid field reference %q", input[i:i+end+1])
			}
			i += end + 1
			tokens = append(tokens, token{kind: tokenIdentifier, raw: name})
			continue
		case '"', '\'':
			quote := consume()
			start := i
			escaped := false
			for i < len(input) {
				c := consume()
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					value := input[start : i-1]
					if quote == '"' {
						unquoted, err := strconv.Unquote(`"` + value + `"`)
						if err != nil {
							return nil, fmt.Errorf("visibility/expr: invalid string literal: %w", err)
						}
						value = unquoted
					}
					tokens = append(tokens, token{kind: tokenString, raw: value})
					goto nextToken
				}
			}
			return nil, errors.New("visibility/expr: unterminated string literal")
		default:
			// identifier / number / keyword / call
			start := i
			for i < len(input) {
				c := input[i]
				if strings.IndexByte(" \t\n\r()!=&|<>\"'", c) >= 0 {
					break
				}
				i++
			}
			raw := strings.TrimSpace(input[start:i])
			if raw == "" {
				return nil, fmt.Errorf("visibility/expr: unexpected %q", ch)
			}
			if strings.ContainsAny(raw, "{}") {
				return nil, fmt.Errorf("visibility/expr: unbalanced braces in %q", raw)
			}
			if next() == '(' && fexpr.IsIdentifier(raw) {
				end, err := closingParen(input, i)
				if err != nil {
					return nil, err
				}
				i = end + 1
				tokens = append(tokens, token{kind: tokenCall, raw: input[start:i]})
				continue
			}
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil", "undefined":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}

	nextToken:
		continue
	}

	return tokens, nil
}

// closingParen finds the parenthesis closing the one at open, skipping
// quoted text.
func closingParen(input string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(input); i++ {
		c := input[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errors.New("visibility/expr: missing closing ')' in function call")
}

func looksLikeNumber(raw string) bool {
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type evalContext struct {
	ctx   visibility.Context
	field string
	calls visibility.CallEvaluator
}

type exprNode interface {
	eval(ctx *evalContext) (bool, error)
}

type exprOr struct {
	left  exprNode
	right exprNode
}

func (n exprOr) eval(ctx *evalContext) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return n.right.eval(ctx)
}

type exprAnd struct {
	left  exprNode
	right exprNode
}

func (n exprAnd) eval(ctx *evalContext) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return n.right.eval(ctx)
}

type exprNot struct {
	inner exprNode
}

func (n exprNot) eval(ctx *evalContext) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type operandKind int

const (
	opIdentifier operandKind = iota
	opString
	opNumber
	opBool
	opNull
	opCall
)

type operand struct {
	kind operandKind
	raw  string
}

// value resolves the operand. Unknown identifiers resolve to nil on the
// left of a comparison and to their own text on the right.
func (o operand) value(ctx *evalContext, right bool) (any, error) {
	switch o.kind {
	case opIdentifier:
		if v, ok := lookup(ctx.ctx, o.raw); ok {
			return v, nil
		}
		if right {
			return o.raw, nil
		}
		return nil, nil
	case opString:
		return o.raw, nil
	case opNumber:
		f, err := strconv.ParseFloat(o.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("visibility/expr: invalid number literal %q", o.raw)
		}
		return f, nil
	case opBool:
		return o.raw == "true", nil
	case opNull:
		return nil, nil
	case opCall:
		if ctx.calls == nil {
			return nil, fmt.Errorf("visibility/expr: no call evaluator for %s", o.raw)
		}
		return ctx.calls.EvaluateCall(ctx.field, o.raw, ctx.ctx)
	default:
		return nil, errors.New("visibility/expr: unsupported operand")
	}
}

type exprCompare struct {
	left  operand
	op    tokenKind
	right operand
}

func (n exprCompare) eval(ctx *evalContext) (bool, error) {
	left, err := n.left.value(ctx, false)
	if err != nil {
		return false, err
	}
	right, err := n.right.value(ctx, true)
	if err != nil {
		return false, err
	}

	switch {
	case n.left.kind == opNull || n.right.kind == opNull:
		other := left
		if n.left.kind == opNull {
			other = right
		}
		switch n.op {
		case tokenEq:
			return functions.IsEmpty(other), nil
		case tokenNeq:
			return !functions.IsEmpty(other), nil
		}
		return false, fmt.Errorf("visibility/expr: unsupported operator %q for null literal", n.opString())
	case n.left.kind == opBool || n.right.kind == opBool:
		switch n.op {
		case tokenEq:
			return functions.Truthy(left) == functions.Truthy(right), nil
		case tokenNeq:
			return functions.Truthy(left) != functions.Truthy(right), nil
		}
		return false, fmt.Errorf("visibility/expr: unsupported operator %q for bool literal", n.opString())
	}

	switch n.op {
	case tokenEq:
		return functions.Equal(left, right), nil
	case tokenNeq:
		return !functions.Equal(left, right), nil
	case tokenLt:
		return functions.Compare(left, right) < 0, nil
	case tokenLte:
		return functions.Compare(left, right) <= 0, nil
	case tokenGt:
		return functions.Compare(left, right) > 0, nil
	case tokenGte:
		return functions.Compare(left, right) >= 0, nil
	}
	return false, fmt.Errorf("visibility/expr: unsupported operator %q", n.opString())
}

func (n exprCompare) opString() string {
	switch n.op {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	default:
		return "?"
	}
}

type exprTruthy struct {
	operand operand
}

func (n exprTruthy) eval(ctx *evalContext) (bool, error) {
	if n.operand.kind == opIdentifier {
		value, ok := lookup(ctx.ctx, n.operand.raw)
		if !ok {
			if isExtrasPath(n.operand.raw) {
				return false, nil
			}
			return false, fmt.Errorf("visibility/expr: unknown identifier %q", n.operand.raw)
		}
		return functions.Truthy(value), nil
	}
	value, err := n.operand.value(ctx, false)
	if err != nil {
		return false, err
	}
	return functions.Truthy(value), nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (e *Evaluator) parse(tokens []token) (exprNode, error) {
	stream := &tokenStream{tokens: tokens}
	var (
		node exprNode
		err  error
	)
	if e.precedence {
		node, err = parseOr(stream)
	} else {
		node, err = parseFlat(stream)
	}
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

// parseFlat folds `&&` and `||` left to right as they appear.
func parseFlat(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream, parseFlat)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case stream.match(tokenAnd):
			right, err := parseUnary(stream, parseFlat)
			if err != nil {
				return nil, err
			}
			left = exprAnd{left: left, right: right}
		case stream.match(tokenOr):
			right, err := parseUnary(stream, parseFlat)
			if err != nil {
				return nil, err
			}
			left = exprOr{left: left, right: right}
		default:
			return left, nil
		}
	}
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream, parseOr)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream, parseOr)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

type groupParser func(*tokenStream) (exprNode, error)

func parseUnary(stream *tokenStream, group groupParser) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream, group)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream, group)
}

func parsePrimary(stream *tokenStream, group groupParser) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := group(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	left, err := stream.consumeOperand()
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) && stream.tokens[stream.pos].kind.comparison() {
		op := stream.tokens[stream.pos].kind
		stream.pos++
		right, err := stream.consumeOperand()
		if err != nil {
			return nil, err
		}
		return exprCompare{left: left, op: op, right: right}, nil
	}
	return exprTruthy{operand: left}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	if s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consumeOperand() (operand, error) {
	if s.pos >= len(s.tokens) {
		return operand{}, errors.New("visibility/expr: missing operand")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenIdentifier:
		return operand{kind: opIdentifier, raw: tok.raw}, nil
	case tokenString:
		return operand{kind: opString, raw: tok.raw}, nil
	case tokenNumber:
		return operand{kind: opNumber, raw: tok.raw}, nil
	case tokenBool:
		return operand{kind: opBool, raw: tok.raw}, nil
	case tokenNull:
		return operand{kind: opNull, raw: "null"}, nil
	case tokenCall:
		return operand{kind: opCall, raw: tok.raw}, nil
	default:
		return operand{}, fmt.Errorf("visibility/expr: expected operand, got %q", tok.raw)
	}
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}

	if isExtrasPath(key) {
		path := strings.TrimSpace(key[len("extras."):])
		return lookupMap(ctx.Extras, path)
	}
	return lookupMap(ctx.Values, key)
}

func isExtrasPath(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "extras.")
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || strings.TrimSpace(path) == "" {
		return nil, false
	}
	path = strings.TrimSpace(path)

	// Exact match wins for dotted keys.
	if v, ok := values[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = values
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

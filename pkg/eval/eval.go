package eval

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formexpr/pkg/expr"
	"github.com/goliatone/go-formexpr/pkg/functions"
)

const maxDepth = 64

var errTooDeep = errors.New("eval: expression nested too deeply")

// Scope is the form state an expression is evaluated against.
type Scope struct {
	// Values resolves field references. A bare token is treated as a field
	// reference only when Values knows the name.
	Values functions.ValueSource
	// Field names the field owning the expression, if any.
	Field string
	// FieldValid backs CheckValid().
	FieldValid func(name string) bool
}

// Result is the outcome of one evaluation. When OK is false Value holds the
// original expression text and Err the reason.
type Result struct {
	Value any
	OK    bool
	Err   error
}

// Evaluator resolves expressions against a Scope using a function registry.
// It is safe for concurrent use.
type Evaluator struct {
	registry *functions.Registry
	env      functions.Env
	logger   logrus.FieldLogger
	programs sync.Map
}

// New constructs an Evaluator backed by the builtin catalogue.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: functions.Builtin(),
		logger:   discardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Registry returns the catalogue the evaluator dispatches to.
func (e *Evaluator) Registry() *functions.Registry { return e.registry }

// Location returns the time zone date values are produced in.
func (e *Evaluator) Location() *time.Location {
	if e.env.Location == nil {
		return time.UTC
	}
	return e.env.Location
}

// Evaluate resolves expression. It never panics: unknown functions, arity
// mismatches and handler failures yield the original text with OK false.
func (e *Evaluator) Evaluate(expression string, scope Scope) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("eval: recovered: %v", rec)
			e.entry(scope, expression).WithError(err).Warn("expression evaluation panicked")
			res = Result{Value: expression, Err: err}
		}
	}()

	r := &run{e: e, env: e.scopedEnv(scope)}
	value, err := r.resolve(expression, 0)
	if err != nil {
		e.entry(scope, expression).WithError(err).Debug("expression fell back to its source text")
		return Result{Value: expression, Err: err}
	}
	return Result{Value: value, OK: true}
}

// EvaluateBool evaluates a condition with the shared truthiness rules. The
// second result is false when evaluation failed.
func (e *Evaluator) EvaluateBool(expression string, scope Scope) (bool, bool) {
	res := e.Evaluate(expression, scope)
	if !res.OK {
		return false, false
	}
	return functions.Truthy(res.Value), true
}

func (e *Evaluator) scopedEnv(scope Scope) *functions.Env {
	env := e.env
	env.Values = scope.Values
	env.Field = scope.Field
	env.FieldValid = scope.FieldValid
	return &env
}

func (e *Evaluator) entry(scope Scope, expression string) logrus.FieldLogger {
	fields := logrus.Fields{"expression": expression}
	if scope.Field != "" {
		fields["field"] = scope.Field
	}
	return e.logger.WithFields(fields)
}

// run carries the per-evaluation environment through recursive resolution.
type run struct {
	e   *Evaluator
	env *functions.Env
}

func (r *run) resolve(raw string, depth int) (any, error) {
	s := strings.TrimSpace(raw)
	if depth > maxDepth {
		return s, errTooDeep
	}

	switch {
	case s == "":
		return "", nil
	case expr.IsQuoted(s):
		return expr.Unquote(s), nil
	case expr.IsWrapped(s, '['):
		return r.array(s, depth), nil
	case expr.IsWrapped(s, '{'):
		return r.object(s, depth)
	case expr.IsWrapped(s, '('):
		return r.resolve(s[1:len(s)-1], depth+1)
	}

	if in, ok := expr.SplitInfix(s); ok {
		return r.infix(s, in, depth)
	}
	if len(s) > 1 && s[0] == '!' {
		v, err := r.resolve(s[1:], depth+1)
		if err != nil {
			return s, err
		}
		return !functions.Truthy(v), nil
	}
	if name, ok := expr.FieldRef(s); ok {
		v, _ := r.field(name)
		return v, nil
	}
	if expr.IsIdentifier(s) {
		if v, ok := r.field(s); ok {
			return v, nil
		}
	}
	if call, ok := expr.Parse(s); ok {
		return r.call(call, depth)
	}
	return literal(s), nil
}

func (r *run) field(name string) (any, bool) {
	if r.env.Values == nil {
		return nil, false
	}
	return r.env.Values.Get(name)
}

func (r *run) call(call expr.Call, depth int) (any, error) {
	args := functions.NewArgs(r.env, call.Args, func(raw string) (any, error) {
		return r.resolve(raw, depth+1)
	})
	v, err := r.e.registry.Call(call.Name, args)
	if err != nil {
		return call.Raw, fmt.Errorf("eval: call %s: %w", call.Name, err)
	}
	return v, nil
}

// array resolves a `[a, b, ...]` literal. Elements degrade to their text on
// failure like any other argument.
func (r *run) array(s string, depth int) []any {
	parts := expr.SplitArgs(s[1 : len(s)-1])
	out := make([]any, len(parts))
	for i, part := range parts {
		out[i], _ = r.resolve(part, depth+1)
	}
	return out
}

// object resolves a `{key: value, ...}` literal, as used by TEMPLATE.
func (r *run) object(s string, depth int) (any, error) {
	out := map[string]any{}
	for _, part := range expr.SplitArgs(s[1 : len(s)-1]) {
		key, value, ok := expr.SplitPair(part, ':')
		if !ok || key == "" {
			return s, fmt.Errorf("eval: object literal entry %q has no key", part)
		}
		out[expr.Unquote(key)], _ = r.resolve(value, depth+1)
	}
	return out, nil
}

// bare reports whether raw resolves to nothing but its own text.
func (r *run) bare(raw string) bool {
	s := strings.TrimSpace(raw)
	if expr.IsQuoted(s) || expr.IsWrapped(s, '[') || expr.IsWrapped(s, '{') || expr.IsWrapped(s, '(') {
		return false
	}
	if _, ok := expr.FieldRef(s); ok {
		return false
	}
	if expr.IsIdentifier(s) {
		if _, ok := r.field(s); ok {
			return false
		}
	}
	if expr.IsCall(s) {
		return false
	}
	_, text := literal(s).(string)
	return text
}

var numberLiteral = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)

// literal types a bare token. Numbers with leading zeros stay text so codes
// such as `007` survive.
func literal(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	if numberLiteral.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

package visibility

import (
	"strings"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/functions"
)

// Evaluator determines whether a field should be visible based on a rule
// string and the current form state.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current form
// values while Extras allows callers to inject arbitrary context such as user
// roles or feature flags (read through the `extras.` prefix).
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// CallEvaluator resolves function calls embedded in a rule, such as
// `VisibleWhen(...)` or `LENGTH(@{code}) > 3`.
type CallEvaluator interface {
	EvaluateCall(fieldPath, call string, ctx Context) (any, error)
}

// CallEvaluatorFunc adapts a function into a CallEvaluator.
type CallEvaluatorFunc func(fieldPath, call string, ctx Context) (any, error)

// EvaluateCall delegates to the underlying function.
func (fn CallEvaluatorFunc) EvaluateCall(fieldPath, call string, ctx Context) (any, error) {
	return fn(fieldPath, call, ctx)
}

// Engine resolves calls with the expression engine, reading field values
// from the visibility context.
func Engine(ev *eval.Evaluator) CallEvaluator {
	if ev == nil {
		ev = eval.New()
	}
	return CallEvaluatorFunc(func(fieldPath, call string, ctx Context) (any, error) {
		res := ev.Evaluate(call, eval.Scope{Values: functions.Values(ctx.Values), Field: fieldPath})
		if !res.OK {
			return nil, res.Err
		}
		return res.Value, nil
	})
}

// Visible evaluates rule and fails open: empty and "true" rules are visible,
// "false" is hidden, and any evaluation error or panic keeps the field
// visible.
func Visible(ev Evaluator, fieldPath, rule string, ctx Context) (visible bool) {
	defer func() {
		if recover() != nil {
			visible = true
		}
	}()
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "", "true":
		return true
	case "false":
		return false
	}
	if ev == nil {
		return true
	}
	ok, err := ev.Eval(fieldPath, rule, ctx)
	if err != nil {
		return true
	}
	return ok
}

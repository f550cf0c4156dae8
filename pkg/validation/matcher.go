package validation

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/expr"
	"github.com/goliatone/go-formexpr/pkg/format"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/model"
)

// Matcher checks a field's validation clauses against its current value.
type Matcher struct {
	evaluator *eval.Evaluator
	unique    *UniqueChecker
	logger    logrus.FieldLogger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithUniqueChecker enables Unique() clauses. Without a checker they pass.
func WithUniqueChecker(checker *UniqueChecker) MatcherOption {
	return func(m *Matcher) { m.unique = checker }
}

// WithLogger routes skipped-clause diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMatcher builds a Matcher that resolves clause arguments with ev.
func NewMatcher(ev *eval.Evaluator, opts ...MatcherOption) *Matcher {
	if ev == nil {
		ev = eval.New()
	}
	m := &Matcher{evaluator: ev, logger: discardLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

type verdict int

const (
	pass verdict = iota
	fail
	wait
)

// Check evaluates field's clauses left to right and reports the first
// failing one. An outstanding uniqueness lookup does not stop the pass; the
// outcome is Pending only when nothing else failed.
func (m *Matcher) Check(ctx context.Context, field model.Field, value any, scope eval.Scope) Outcome {
	scope.Field = field.Name
	pending := false
	for _, clause := range ParseClauses(field.Rules()) {
		v, msg := m.clause(ctx, field, value, scope, clause)
		switch v {
		case fail:
			return Outcome{Status: StatusInvalid, Message: msg, Clause: clause.Raw}
		case wait:
			pending = true
		}
	}
	if pending {
		return Outcome{Status: StatusPending}
	}
	return Outcome{Status: StatusValid}
}

// Required reports whether the field is mandatory right now: statically or
// through a MandatoryWhen clause whose condition holds.
func (m *Matcher) Required(field model.Field, scope eval.Scope) bool {
	if field.Required {
		return true
	}
	scope.Field = field.Name
	for _, clause := range ParseClauses(field.Rules()) {
		switch clause.Kind {
		case KindRequired:
			return true
		case KindMandatoryWhen:
			if ok, _ := m.evaluator.EvaluateBool(clause.Arg(0), scope); ok {
				return true
			}
		}
	}
	return false
}

// ReadOnly reports whether the field is locked right now: statically or
// through a ReadOnlyWhen clause whose condition holds.
func (m *Matcher) ReadOnly(field model.Field, scope eval.Scope) bool {
	if field.ReadOnly {
		return true
	}
	scope.Field = field.Name
	for _, clause := range ParseClauses(field.Validation) {
		if clause.Kind != KindReadOnlyWhen {
			continue
		}
		if ok, _ := m.evaluator.EvaluateBool(clause.Arg(0), scope); ok {
			return true
		}
	}
	return false
}

func (m *Matcher) clause(ctx context.Context, field model.Field, value any, scope eval.Scope, c Clause) (verdict, string) {
	label := field.DisplayLabel()
	empty := functions.IsEmpty(value) || field.Type == model.FieldTypeCheckbox && !functions.Truthy(value)

	switch c.Kind {
	case KindRequired:
		if empty {
			return fail, m.message(c, 0, scope, fmt.Sprintf("%s is required", label))
		}
		return pass, ""
	case KindMandatoryWhen:
		if !empty {
			return pass, ""
		}
		if m.condition(c, scope) {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s is required", label))
		}
		return pass, ""
	}

	if empty {
		return pass, ""
	}
	text := strings.TrimSpace(functions.ToString(value))

	switch c.Kind {
	case KindUnique:
		if m.unique == nil {
			return pass, ""
		}
		switch m.unique.Check(ctx, field.Name, text) {
		case UniqueTaken:
			return fail, m.message(c, 0, scope, fmt.Sprintf("%s must be unique", label))
		case UniquePending:
			return wait, ""
		}
		return pass, ""
	case KindValidWhen:
		if !m.condition(c, scope) {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s is invalid", label))
		}
	case KindInvalidWhen:
		if m.condition(c, scope) {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s is invalid", label))
		}
	case KindMinLength:
		n := functions.ToInt(m.arg(c, 0, scope))
		if length(value) < n {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s must be at least %d characters", label, n))
		}
	case KindMaxLength:
		n := functions.ToInt(m.arg(c, 0, scope))
		if length(value) > n {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s must be at most %d characters", label, n))
		}
	case KindLengthRange:
		lo, hi := functions.ToInt(m.arg(c, 0, scope)), functions.ToInt(m.arg(c, 1, scope))
		if l := length(value); l < lo || l > hi {
			return fail, m.message(c, 2, scope, fmt.Sprintf("%s must be between %d and %d characters", label, lo, hi))
		}
	case KindMin:
		bound := m.arg(c, 0, scope)
		if functions.Compare(value, bound) < 0 {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s must be at least %s", label, functions.ToString(bound)))
		}
	case KindMax:
		bound := m.arg(c, 0, scope)
		if functions.Compare(value, bound) > 0 {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s must be at most %s", label, functions.ToString(bound)))
		}
	case KindRange:
		lo, hi := m.arg(c, 0, scope), m.arg(c, 1, scope)
		if functions.Compare(value, lo) < 0 || functions.Compare(value, hi) > 0 {
			return fail, m.message(c, 2, scope, fmt.Sprintf("%s must be between %s and %s", label,
				functions.ToString(lo), functions.ToString(hi)))
		}
	case KindPattern, KindRegexWhen:
		re, err := functions.CompilePattern(m.pattern(c, scope))
		if err != nil {
			m.skip(field, c, err)
			return pass, ""
		}
		if !re.MatchString(text) {
			return fail, m.message(c, 1, scope, fmt.Sprintf("%s format is invalid", label))
		}
	case KindEmail:
		return predicate(format.Email(text), m.message(c, 0, scope, fmt.Sprintf("%s must be a valid email address", label)))
	case KindPhone:
		return predicate(format.Phone(text), m.message(c, 0, scope, fmt.Sprintf("%s must be a valid phone number", label)))
	case KindURL:
		return predicate(format.URL(text), m.message(c, 0, scope, fmt.Sprintf("%s must be a valid URL", label)))
	case KindDigits:
		return predicate(format.Digits(text), m.message(c, 0, scope, fmt.Sprintf("%s must contain only digits", label)))
	case KindAlpha:
		return predicate(format.Alpha(text), m.message(c, 0, scope, fmt.Sprintf("%s must contain only letters", label)))
	case KindAlphaNumeric:
		return predicate(format.AlphaNumeric(text), m.message(c, 0, scope, fmt.Sprintf("%s must contain only letters and numbers", label)))
	case KindDate:
		return predicate(format.Date(text), m.message(c, 0, scope, fmt.Sprintf("%s must be a valid date", label)))
	case KindCreditCard:
		return predicate(format.CreditCard(text), m.message(c, 0, scope, fmt.Sprintf("%s must be a valid credit card number", label)))
	}
	return pass, ""
}

func predicate(ok bool, msg string) (verdict, string) {
	if ok {
		return pass, ""
	}
	return fail, msg
}

// condition evaluates the clause's first argument. A condition that fails to
// evaluate counts as true for ValidWhen and false otherwise.
func (m *Matcher) condition(c Clause, scope eval.Scope) bool {
	ok, evaluated := m.evaluator.EvaluateBool(c.Arg(0), scope)
	if !evaluated {
		m.logger.WithFields(logrus.Fields{"field": scope.Field, "clause": c.Raw}).
			Debug("validation condition failed to evaluate, clause skipped")
		return c.Kind == KindValidWhen
	}
	return ok
}

func (m *Matcher) arg(c Clause, i int, scope eval.Scope) any {
	if i >= len(c.Args) {
		return nil
	}
	return m.evaluator.Evaluate(c.Args[i], scope).Value
}

// message resolves the optional message argument at i, falling back to def.
func (m *Matcher) message(c Clause, i int, scope eval.Scope, def string) string {
	if i >= len(c.Args) {
		return def
	}
	if msg := strings.TrimSpace(functions.ToString(m.arg(c, i, scope))); msg != "" {
		return msg
	}
	return def
}

// pattern returns the regex source: `/re/flags` literals verbatim, anything
// else evaluated.
func (m *Matcher) pattern(c Clause, scope eval.Scope) string {
	raw := strings.TrimSpace(c.Arg(0))
	if strings.HasPrefix(raw, "/") {
		return raw
	}
	if _, ref := expr.FieldRef(raw); ref || expr.IsQuoted(raw) || expr.IsCall(raw) {
		return functions.ToString(m.arg(c, 0, scope))
	}
	return raw
}

func (m *Matcher) skip(field model.Field, c Clause, err error) {
	m.logger.WithFields(logrus.Fields{"field": field.Name, "clause": c.Raw}).
		WithError(err).Debug("validation clause skipped")
}

func length(v any) int {
	if list, ok := v.([]any); ok {
		return len(list)
	}
	return utf8.RuneCountInString(functions.ToString(v))
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-formexpr/pkg/deps"
	"github.com/goliatone/go-formexpr/pkg/expr"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/model"
)

// Severity grades lint issues. Only errors make a definition unusable.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a problem found in a form definition.
type Issue struct {
	Path     string   `json:"path,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Report captures lint outcomes for one form.
type Report struct {
	FormID string  `json:"formId"`
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Errors returns the error-severity issues.
func (r Report) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Lint inspects a form definition for problems that the runtime would
// silently tolerate: unknown functions, malformed expressions, ignored
// validation clauses, dangling field references and dependency cycles.
func Lint(form model.Form, reg *functions.Registry) Report {
	if reg == nil {
		reg = functions.Builtin()
	}
	report := Report{FormID: form.ID}
	l := linter{reg: reg, fields: map[string]struct{}{}}
	for _, name := range form.FieldNames() {
		l.fields[name] = struct{}{}
	}

	if err := form.Validate(); err != nil {
		l.add("", "", SeverityError, "%s", err.Error())
	}
	if _, err := deps.Plan(form); err != nil {
		var cycle *deps.CycleError
		if errors.As(err, &cycle) {
			for _, name := range cycle.Fields {
				l.add(fieldPath(form, name, "defaultValue"), name, SeverityError,
					"default value is part of a dependency cycle (%s)", strings.Join(cycle.Fields, " -> "))
			}
		} else {
			l.add("", "", SeverityError, "%s", err.Error())
		}
	}

	for i, field := range form.Fields {
		base := fmt.Sprintf("fields[%d]", i)
		l.expression(base+".defaultValue", field.Name, field.DefaultValue, "default value")
		l.expression(base+".visibilityExpression", field.Name, field.VisibilityExpression, "visibility rule")
		l.validation(base+".validation", field)
	}

	report.Issues = l.issues
	report.Valid = len(report.Errors()) == 0
	return report
}

type linter struct {
	reg    *functions.Registry
	fields map[string]struct{}
	issues []Issue
}

func (l *linter) add(path, field string, severity Severity, format string, args ...any) {
	l.issues = append(l.issues, Issue{
		Path:     path,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	})
}

func (l *linter) expression(path, field, source, what string) {
	source = strings.TrimSpace(source)
	if source == "" {
		return
	}
	if !expr.Balanced(source) {
		l.add(path, field, SeverityWarning, "%s has unbalanced brackets or quotes", what)
		return
	}
	for _, name := range FunctionNames(source) {
		if !l.reg.Has(name) {
			l.add(path, field, SeverityWarning, "%s calls unknown function %s", what, name)
		}
	}
	for _, ref := range fieldRefs(source) {
		if _, ok := l.fields[ref]; !ok {
			l.add(path, field, SeverityWarning, "%s references unknown field %q", what, ref)
		}
	}
}

func (l *linter) validation(path string, field model.Field) {
	if strings.TrimSpace(field.Validation) == "" {
		return
	}
	for _, raw := range expr.SplitClauses(field.Validation) {
		clause, ok := ParseClause(raw)
		if !ok {
			l.add(path, field.Name, SeverityWarning, "validation clause %q is not recognised and will be ignored", raw)
			continue
		}
		switch clause.Kind {
		case KindValidWhen, KindInvalidWhen, KindMandatoryWhen, KindReadOnlyWhen:
			l.expression(path, field.Name, clause.Arg(0), "validation condition")
		case KindPattern, KindRegexWhen:
			if arg := clause.Arg(0); strings.HasPrefix(arg, "/") {
				if _, err := functions.CompilePattern(arg); err != nil {
					l.add(path, field.Name, SeverityWarning, "pattern %s does not compile: %v", arg, err)
				}
			}
		}
	}
}

func fieldPath(form model.Form, name, attr string) string {
	for i, field := range form.Fields {
		if field.Name == name {
			return fmt.Sprintf("fields[%d].%s", i, attr)
		}
	}
	return ""
}

var fieldRefPattern = regexp.MustCompile(`@\{\s*([^{}]+?)\s*\}`)

func fieldRefs(source string) []string {
	var out []string
	for _, m := range fieldRefPattern.FindAllStringSubmatch(source, -1) {
		out = append(out, m[1])
	}
	return out
}

// FunctionNames lists every function called anywhere in expression, nested
// calls included, in order of appearance.
func FunctionNames(expression string) []string {
	var names []string
	var walk func(s string, depth int)
	walk = func(s string, depth int) {
		s = strings.TrimSpace(s)
		if s == "" || depth > 64 || expr.IsQuoted(s) {
			return
		}
		switch {
		case expr.IsWrapped(s, '('):
			walk(s[1:len(s)-1], depth+1)
			return
		case expr.IsWrapped(s, '['):
			for _, part := range expr.SplitArgs(s[1 : len(s)-1]) {
				walk(part, depth+1)
			}
			return
		case expr.IsWrapped(s, '{'):
			for _, part := range expr.SplitArgs(s[1 : len(s)-1]) {
				if _, value, ok := expr.SplitPair(part, ':'); ok {
					walk(value, depth+1)
				}
			}
			return
		}
		if in, ok := expr.SplitInfix(s); ok {
			for _, operand := range in.Operands {
				walk(operand, depth+1)
			}
			return
		}
		if s[0] == '!' {
			walk(s[1:], depth+1)
			return
		}
		if expr.IsNoParenName(s) {
			names = append(names, s)
			return
		}
		if call, ok := expr.Parse(s); ok {
			names = append(names, call.Name)
			for _, arg := range call.Args {
				walk(arg, depth+1)
			}
		}
	}
	walk(expression, 0)
	return names
}

package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formexpr/pkg/model"
	"github.com/goliatone/go-formexpr/pkg/validation"
	"github.com/goliatone/go-formexpr/pkg/visibility"
)

// ErrValidationPending blocks submission while a uniqueness lookup is
// outstanding.
var ErrValidationPending = errors.New("form: validation pending")

// ValidationErrorMap maps field names to their error message.
type ValidationErrorMap map[string]string

// ValidationErrors is returned by Submit when visible fields are invalid.
type ValidationErrors struct {
	Fields ValidationErrorMap
}

func (e *ValidationErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "form: validation failed: " + strings.Join(parts, "; ")
}

// FieldState is what a renderer needs to draw one field.
type FieldState struct {
	Name            string            `json:"name"`
	Value           any               `json:"value"`
	ComputedDefault any               `json:"computedDefault,omitempty"`
	Visible         bool              `json:"visible"`
	ReadOnly        bool              `json:"readOnly"`
	Required        bool              `json:"required"`
	ValidationError string            `json:"validationError,omitempty"`
	Status          validation.Status `json:"status"`
}

// Visible evaluates name's visibility rule. Unknown fields are hidden;
// broken rules leave the field visible.
func (s *Session) Visible(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, ok := s.form.Field(name)
	if !ok {
		return false
	}
	return s.visible(field)
}

// ReadOnly reports whether name is locked statically or by a ReadOnlyWhen
// clause.
func (s *Session) ReadOnly(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, ok := s.form.Field(name)
	if !ok {
		return false
	}
	return s.matcher.ReadOnly(field, s.scope(s.values, name))
}

// Required reports whether name is mandatory right now.
func (s *Session) Required(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, ok := s.form.Field(name)
	if !ok {
		return false
	}
	return s.matcher.Required(field, s.scope(s.values, name))
}

// Validate checks every visible input field and returns the failures.
// Hidden fields are skipped and their status reset.
func (s *Session) Validate(ctx context.Context) ValidationErrorMap {
	s.mu.Lock()
	errs := make(ValidationErrorMap)
	statuses := make(map[string]validation.Outcome)
	for _, field := range s.form.Fields {
		if !s.validatable(field) {
			delete(s.outcomes, field.Name)
			continue
		}
		outcome := s.check(ctx, field)
		statuses[field.Name] = outcome
		if outcome.Failed() {
			errs[field.Name] = outcome.Message
		}
	}
	s.mu.Unlock()

	s.notifyStatus(statuses)
	return errs
}

// State returns the render state of every field in declaration order.
func (s *Session) State() []FieldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FieldState, 0, len(s.form.Fields))
	for _, field := range s.form.Fields {
		scope := s.scope(s.values, field.Name)
		state := FieldState{
			Name:            field.Name,
			Value:           s.values[field.Name],
			ComputedDefault: s.computed[field.Name],
			Visible:         s.visible(field),
			ReadOnly:        s.matcher.ReadOnly(field, scope),
			Required:        s.matcher.Required(field, scope),
		}
		if outcome, ok := s.outcomes[field.Name]; ok {
			state.Status = outcome.Status
			state.ValidationError = outcome.Message
		}
		out = append(out, state)
	}
	return out
}

// Submit flushes pending recomputation, validates the form and returns the
// values of visible fields. It fails with ErrValidationPending while a
// uniqueness lookup is outstanding and with *ValidationErrors when any
// visible field is invalid.
func (s *Session) Submit(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Flush()
	s.Validate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []string
	errs := make(ValidationErrorMap)
	payload := make(map[string]any)
	for _, field := range s.form.Fields {
		if !s.validatable(field) {
			continue
		}
		payload[field.Name] = s.values[field.Name]
		outcome, ok := s.outcomes[field.Name]
		if !ok {
			continue
		}
		switch outcome.Status {
		case validation.StatusPending:
			pending = append(pending, field.Name)
		case validation.StatusInvalid:
			errs[field.Name] = outcome.Message
		}
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationPending, strings.Join(pending, ", "))
	}
	if len(errs) > 0 {
		return nil, &ValidationErrors{Fields: errs}
	}
	return payload, nil
}

// uniqueResolved revalidates a field once the lookup for its current value
// lands.
func (s *Session) uniqueResolved(name, value string, _ bool) {
	s.mu.Lock()
	field, ok := s.form.Field(name)
	if !ok || uniqueText(s.values[name]) != value {
		s.mu.Unlock()
		return
	}
	outcome := s.check(context.Background(), field)
	s.mu.Unlock()

	s.notifyStatus(map[string]validation.Outcome{name: outcome})
}

// revalidate refreshes every field that already has an outcome. Must hold
// mu.
func (s *Session) revalidate(ctx context.Context) map[string]validation.Outcome {
	out := make(map[string]validation.Outcome)
	for _, field := range s.form.Fields {
		if _, touched := s.outcomes[field.Name]; !touched {
			continue
		}
		out[field.Name] = s.check(ctx, field)
	}
	return out
}

// check runs the matcher for field and records the outcome. Must hold mu.
func (s *Session) check(ctx context.Context, field model.Field) validation.Outcome {
	outcome := s.matcher.Check(ctx, field, s.values[field.Name], s.scope(s.values, field.Name))
	s.outcomes[field.Name] = outcome
	return outcome
}

func (s *Session) visible(field model.Field) bool {
	if field.Hidden {
		return false
	}
	return visibility.Visible(s.visibility, field.Name, field.VisibilityExpression, visibility.Context{
		Values: s.values,
		Extras: s.extras,
	})
}

func (s *Session) validatable(field model.Field) bool {
	return !field.Type.IsDecorative() && field.Type != model.FieldTypeHidden && s.visible(field)
}

package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formexpr/pkg/form"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/model"
)

// Filler walks a form session field by field, asking for every visible,
// writable field and re-asking while the session reports a validation error.
type Filler struct {
	driver   Driver
	out      io.Writer
	format   OutputFormat
	attempts int
	logger   logrus.FieldLogger
}

// New constructs a Filler with defaults (survey driver, JSON output).
func New(options ...Option) *Filler {
	f := &Filler{
		out:      os.Stdout,
		format:   OutputFormatJSON,
		attempts: DefaultAttempts,
		logger:   discardLogger(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(f.out)
	}
	return f
}

// Fill prompts for the session's fields in declaration order and submits.
// Visibility is re-read before each field so answers can reveal or hide
// later fields.
func (f *Filler) Fill(ctx context.Context, s *form.Session) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, field := range s.Form().Fields {
		if field.Type == model.FieldTypeLabel {
			if err := f.driver.Info(ctx, field.DisplayLabel()); err != nil {
				return nil, err
			}
			continue
		}
		if !askable(field) || !s.Visible(field.Name) {
			continue
		}
		if s.ReadOnly(field.Name) {
			current, _ := s.Get(field.Name)
			if err := f.driver.Info(ctx, fmt.Sprintf("%s: %s", field.DisplayLabel(), display(current, field.Type))); err != nil {
				return nil, err
			}
			continue
		}
		if err := f.fillField(ctx, s, field); err != nil {
			return nil, err
		}
	}

	s.Wait()
	values, err := s.Submit(ctx)
	if err != nil {
		return nil, fmt.Errorf("prompt: submit: %w", err)
	}
	return values, nil
}

func (f *Filler) fillField(ctx context.Context, s *form.Session, field model.Field) error {
	for attempt := 1; ; attempt++ {
		answer, err := f.ask(ctx, s, field)
		if err != nil {
			return err
		}
		if err := s.Set(field.Name, answer); err != nil {
			return fmt.Errorf("prompt: set %s: %w", field.Name, err)
		}

		// The first pass may start a uniqueness lookup; the second sees its verdict.
		s.Validate(ctx)
		s.Wait()
		msg := s.Validate(ctx)[field.Name]
		if msg == "" {
			return nil
		}

		f.logger.WithFields(logrus.Fields{"field": field.Name, "attempt": attempt}).Debug("answer rejected")
		if err := f.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", field.DisplayLabel(), msg)); err != nil {
			return err
		}
		if attempt >= f.attempts {
			return fmt.Errorf("%w: %s", ErrAttemptsExhausted, field.Name)
		}
	}
}

func (f *Filler) ask(ctx context.Context, s *form.Session, field model.Field) (any, error) {
	label := field.DisplayLabel()
	if s.Required(field.Name) {
		label += " *"
	}
	help := field.Placeholder
	current, _ := s.Get(field.Name)

	switch field.Type {
	case model.FieldTypeCheckbox:
		return f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: functions.Truthy(current), Help: help})

	case model.FieldTypeSelect, model.FieldTypeRadio:
		labels, values := optionLists(field.Options)
		if len(values) == 0 {
			break
		}
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      labels,
			DefaultIndex: indexOf(values, functions.ToString(current)),
			Help:         help,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(values) {
			return "", nil
		}
		return values[idx], nil

	case model.FieldTypeMultiSelect, model.FieldTypeCheckboxGroup:
		labels, values := optionLists(field.Options)
		if len(values) == 0 {
			break
		}
		selected := make([]string, 0)
		for _, v := range functions.ToList(current) {
			selected = append(selected, functions.ToString(v))
		}
		indices, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  labels,
			Defaults: indicesOf(values, selected),
			Help:     help,
		})
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(values) {
				out = append(out, values[idx])
			}
		}
		return out, nil

	case model.FieldTypePassword:
		return f.driver.Password(ctx, InputConfig{Message: label, Help: help})

	case model.FieldTypeTextarea:
		return f.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: display(current, field.Type), Help: help})
	}

	return f.driver.Input(ctx, InputConfig{
		Message:   label,
		Default:   display(current, field.Type),
		Help:      help,
		Validator: syntaxValidator(field.Type),
	})
}

// syntaxValidator rejects answers the session could not box for the type.
func syntaxValidator(t model.FieldType) func(string) error {
	switch {
	case t.IsNumeric():
		return func(raw string) error {
			if strings.TrimSpace(raw) == "" {
				return nil
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
				return errors.New("enter a number")
			}
			return nil
		}
	case t.IsTemporal():
		return func(raw string) error {
			if strings.TrimSpace(raw) == "" {
				return nil
			}
			if _, ok := functions.ToTime(raw, time.UTC); !ok {
				return errors.New("enter a date such as 2024-03-15")
			}
			return nil
		}
	default:
		return nil
	}
}

// Serialize renders submitted values in the configured format.
func (f *Filler) Serialize(values map[string]any) ([]byte, error) {
	switch f.format {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		for key, value := range values {
			if list, ok := value.([]any); ok {
				for _, item := range list {
					form.Add(key+"[]", functions.ToString(item))
				}
				continue
			}
			form.Set(key, functions.ToString(value))
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, key := range keys {
			fmt.Fprintf(&b, "%s=%s\n", key, functions.ToString(values[key]))
		}
		return []byte(b.String()), nil
	default:
		return json.MarshalIndent(values, "", "  ")
	}
}

func askable(field model.Field) bool {
	return !field.Type.IsDecorative() && field.Type != model.FieldTypeHidden && field.Type != model.FieldTypeFile && !field.Hidden
}

func display(v any, t model.FieldType) string {
	if tm, ok := v.(time.Time); ok && t == model.FieldTypeDate {
		return tm.Format("2006-01-02")
	}
	return functions.ToString(v)
}

func optionLists(options []model.Option) ([]string, []string) {
	labels := make([]string, 0, len(options))
	values := make([]string, 0, len(options))
	for _, opt := range options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		values = append(values, opt.Value)
	}
	return labels, values
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

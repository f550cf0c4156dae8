package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formexpr/pkg/form"
	"github.com/goliatone/go-formexpr/pkg/model"
	"github.com/goliatone/go-formexpr/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	prompts      []string
	defaults     map[string]string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.defaults != nil {
		s.defaults[cfg.Message] = cfg.Default
	}
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	return s.Input(ctx, cfg)
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if len(s.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[0]
	s.confirm = s.confirm[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if len(s.selectIdx) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[0]
	s.selectIdx = s.selectIdx[1:]
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if len(s.multiIdx) == 0 {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[0]
	s.multiIdx = s.multiIdx[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if len(s.textAreas) == 0 {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func requestForm() model.Form {
	return model.Form{
		ID: "request",
		Fields: []model.Field{
			{Name: "intro", Type: model.FieldTypeLabel, Label: "Purchase request"},
			{Name: "name", Type: model.FieldTypeText, Required: true},
			{Name: "greeting", Type: model.FieldTypeText, DefaultValue: `CONCAT("Hello ", name)`, ReadOnly: true},
			{Name: "quantity", Type: model.FieldTypeNumber, MinValue: "1"},
			{Name: "kind", Type: model.FieldTypeSelect, Options: []model.Option{
				{Label: "Hardware", Value: "hw"},
				{Label: "Other", Value: "other"},
			}},
			{Name: "reason", Type: model.FieldTypeTextarea, VisibilityExpression: `kind == "other"`, Required: true},
			{Name: "tags", Type: model.FieldTypeMultiSelect, Options: []model.Option{
				{Value: "urgent"},
				{Value: "capex"},
			}},
			{Name: "approved", Type: model.FieldTypeCheckbox},
			{Name: "token", Type: model.FieldTypeHidden, DefaultValue: `"t-1"`},
		},
	}
}

func TestFillerWalksVisibleFields(t *testing.T) {
	t.Parallel()

	s, err := form.New(requestForm(), form.WithDebounce(0))
	if err != nil {
		t.Fatalf("form.New returned error: %v", err)
	}
	defer s.Close()

	driver := &stubDriver{
		inputs:    []string{"", "Ada", "0", "4"},
		selectIdx: []int{1},
		textAreas: []string{"replacement"},
		multiIdx:  [][]int{{1}},
		confirm:   []bool{true},
	}
	values, err := New(WithDriver(driver)).Fill(testsupport.Context(), s)
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	want := map[string]any{
		"name":     "Ada",
		"greeting": "Hello Ada",
		"quantity": float64(4),
		"kind":     "other",
		"reason":   "replacement",
		"tags":     []any{"capex"},
		"approved": true,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("submitted values mismatch (-want +got):\n%s", diff)
	}

	wantPrompts := []string{"Name *", "Name *", "Quantity", "Quantity", "Kind", "Reason *", "Tags", "Approved"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt sequence mismatch (-want +got):\n%s", diff)
	}
	if driver.infoMessages[0] != "Purchase request" {
		t.Fatalf("label fields must be printed, got %q", driver.infoMessages[0])
	}
	joined := strings.Join(driver.infoMessages, "\n")
	for _, fragment := range []string{"Invalid Name", "Invalid Quantity", "Greeting: Hello Ada"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("missing notice %q in %q", fragment, joined)
		}
	}
}

func TestFillerSkipsFieldsHiddenByAnswers(t *testing.T) {
	t.Parallel()

	s, err := form.New(requestForm(), form.WithDebounce(0))
	if err != nil {
		t.Fatalf("form.New returned error: %v", err)
	}
	defer s.Close()

	driver := &stubDriver{
		inputs:    []string{"Bo", ""},
		selectIdx: []int{0},
		multiIdx:  [][]int{{}},
		confirm:   []bool{false},
	}
	values, err := New(WithDriver(driver)).Fill(testsupport.Context(), s)
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	if _, ok := values["reason"]; ok {
		t.Fatalf("reason must be left out while hidden, got %v", values)
	}
	if values["kind"] != "hw" || values["quantity"] != nil {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestFillerGivesUpAfterAttempts(t *testing.T) {
	t.Parallel()

	s, err := form.New(requestForm(), form.WithDebounce(0))
	if err != nil {
		t.Fatalf("form.New returned error: %v", err)
	}
	defer s.Close()

	driver := &stubDriver{inputs: []string{"", ""}}
	_, err = New(WithDriver(driver), WithAttempts(2)).Fill(testsupport.Context(), s)
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", err)
	}
}

func TestFillerUsesStoredValuesAsDefaults(t *testing.T) {
	t.Parallel()

	def := model.Form{
		ID: "edit",
		Fields: []model.Field{
			{Name: "due", Type: model.FieldTypeDate},
		},
	}
	s, err := form.New(def, form.WithDebounce(0), form.WithInitialValues(map[string]any{"due": "2024-03-15"}))
	if err != nil {
		t.Fatalf("form.New returned error: %v", err)
	}
	defer s.Close()

	driver := &stubDriver{inputs: []string{"2024-04-01"}, defaults: map[string]string{}}
	if _, err := New(WithDriver(driver)).Fill(testsupport.Context(), s); err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	if got := driver.defaults["Due"]; got != "2024-03-15" {
		t.Fatalf("default = %q, want stored date", got)
	}
}

func TestSerializeFormats(t *testing.T) {
	t.Parallel()

	values := map[string]any{"name": "Ada", "tags": []any{"a", "b"}, "qty": float64(2)}

	pretty, err := New(WithDriver(&stubDriver{}), WithOutputFormat(OutputFormatPrettyText)).Serialize(values)
	if err != nil {
		t.Fatalf("Serialize returned error: %v", err)
	}
	if diff := cmp.Diff("name=Ada\nqty=2\ntags=[\"a\",\"b\"]\n", string(pretty)); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}

	encoded, err := New(WithDriver(&stubDriver{}), WithOutputFormat(OutputFormatFormURLEncoded)).Serialize(values)
	if err != nil {
		t.Fatalf("Serialize returned error: %v", err)
	}
	if diff := cmp.Diff("name=Ada&qty=2&tags%5B%5D=a&tags%5B%5D=b", string(encoded)); diff != "" {
		t.Fatalf("form output mismatch (-want +got):\n%s", diff)
	}
}

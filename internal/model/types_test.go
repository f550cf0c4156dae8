package model

import "testing"

func TestParseFieldType(t *testing.T) {
	t.Parallel()

	cases := map[string]FieldType{
		"number":         FieldTypeNumber,
		" DateTime ":     FieldTypeDateTime,
		"checkbox_group": FieldTypeCheckboxGroup,
		"":               FieldTypeText,
		"slider":         FieldTypeText,
	}
	for raw, want := range cases {
		if got := ParseFieldType(raw); got != want {
			t.Fatalf("ParseFieldType(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestDefaultLabeler(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"firstName":     "First name",
		"start_date":    "Start date",
		"address2Line":  "Address 2 line",
		"":              "",
		"employee-type": "Employee type",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFieldRulesSynthesisesConstraints(t *testing.T) {
	t.Parallel()

	minLen, maxLen := 2, 10
	field := Field{
		Name:            "code",
		Required:        true,
		Validation:      "Email",
		MinValue:        "1",
		MinLength:       &minLen,
		MaxLength:       &maxLen,
		ValidationRegex: "^[A-Z]+$",
	}
	want := "Email AND Required AND Min(1) AND MinLength(2) AND MaxLength(10) AND Pattern(/^[A-Z]+$/)"
	if got := field.Rules(); got != want {
		t.Fatalf("Rules() = %q, want %q", got, want)
	}
}

func TestFieldRulesCarriesRegexMessage(t *testing.T) {
	t.Parallel()

	field := Field{Name: "taxId", ValidationRegex: "^[0-9]{2}-[0-9]{7}$", ValidationMessage: "Use the 12-3456789 format"}
	want := `Pattern(/^[0-9]{2}-[0-9]{7}$/, "Use the 12-3456789 format")`
	if got := field.Rules(); got != want {
		t.Fatalf("Rules() = %q, want %q", got, want)
	}
}

func TestFieldRulesDoesNotDuplicateAuthoredClauses(t *testing.T) {
	t.Parallel()

	field := Field{Name: "age", Required: true, Validation: "Required AND Range(18, 65)", MinValue: "0"}
	if got, want := field.Rules(), "Required AND Range(18, 65)"; got != want {
		t.Fatalf("Rules() = %q, want %q", got, want)
	}
}

func TestFormValidate(t *testing.T) {
	t.Parallel()

	if err := (Form{}).Validate(); err == nil {
		t.Fatalf("expected missing id error")
	}
	dup := Form{ID: "f", Fields: []Field{{Name: "a"}, {Name: "a"}}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected duplicate field error")
	}
	ok := Form{ID: "f", Fields: []Field{{Name: "a"}, {Name: "b"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestMetadataFromExtensions(t *testing.T) {
	t.Parallel()

	meta := MetadataFromExtensions(map[string]any{
		"x-formexpr-meta-section": "billing",
		"x-formexpr-meta-order":   float64(3),
		"x-other":                 "ignored",
	})
	if meta["section"] != "billing" || meta["order"] != "3" || len(meta) != 2 {
		t.Fatalf("unexpected metadata: %#v", meta)
	}
}

package openapi

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formexpr/pkg/model"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestFormFromOperationMapsProperties(t *testing.T) {
	t.Parallel()

	op := Operation{
		ID:      "createClaim",
		Method:  "POST",
		Path:    "/claims",
		Summary: "Expense claim",
		Extensions: map[string]any{
			"x-formexpr-meta-owner": "finance",
		},
		RequestBody: Schema{
			Type:     "object",
			Required: []string{"amount"},
			Properties: map[string]Schema{
				"amount": {
					Type:    "number",
					Format:  "currency",
					Minimum: floatPtr(0.01),
					Maximum: floatPtr(10000),
					Extensions: map[string]any{
						ExtensionOrder: 1,
					},
				},
				"category": {
					Type:    "string",
					Enum:    []any{"travel", "meals"},
					Default: "meals",
					Extensions: map[string]any{
						ExtensionOrder: 2,
					},
				},
				"total": {
					Type:     "number",
					ReadOnly: true,
					Extensions: map[string]any{
						ExtensionOrder:   3,
						ExtensionDefault: "ROUND(amount * 1.2, 2)",
					},
				},
				"reference": {
					Type:      "string",
					Title:     "Reference",
					MinLength: intPtr(3),
					Pattern:   "^[A-Z0-9-]+$",
					Extensions: map[string]any{
						ExtensionValidation:        []any{"Required", "MaxLength(12)"},
						ExtensionValidationMessage: "Use capitals and digits",
						ExtensionUnique:            true,
						ExtensionVisibility:        "category == 'travel'",
					},
				},
				"address": {Type: "object"},
			},
		},
	}

	form, err := FormFromOperation(op)
	if err != nil {
		t.Fatalf("FormFromOperation returned error: %v", err)
	}

	want := model.Form{
		ID:   "createClaim",
		Name: "Expense claim",
		Metadata: map[string]string{
			"owner":  "finance",
			"method": "POST",
			"path":   "/claims",
		},
		Fields: []model.Field{
			{Name: "amount", Type: model.FieldTypeCurrency, Required: true, MinValue: "0.01", MaxValue: "10000"},
			{
				Name:         "category",
				Type:         model.FieldTypeSelect,
				DefaultValue: `"meals"`,
				Options: []model.Option{
					{Label: "Travel", Value: "travel"},
					{Label: "Meals", Value: "meals", IsDefault: true},
				},
			},
			{Name: "total", Type: model.FieldTypeNumber, ReadOnly: true, DefaultValue: "ROUND(amount * 1.2, 2)"},
			{
				Name:                 "reference",
				Label:                "Reference",
				Type:                 model.FieldTypeText,
				MinLength:            intPtr(3),
				ValidationRegex:      "^[A-Z0-9-]+$",
				ValidationMessage:    "Use capitals and digits",
				Validation:           "Required AND MaxLength(12) AND Unique",
				VisibilityExpression: "category == 'travel'",
			},
		},
	}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldTypeFromFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		schema Schema
		want   model.FieldType
	}{
		{Schema{Type: "boolean"}, model.FieldTypeCheckbox},
		{Schema{Type: "integer"}, model.FieldTypeNumber},
		{Schema{Type: "string", Format: "date"}, model.FieldTypeDate},
		{Schema{Type: "string", Format: "date-time"}, model.FieldTypeDateTime},
		{Schema{Type: "string", Format: "email"}, model.FieldTypeEmail},
		{Schema{Type: "string", Format: "uri"}, model.FieldTypeURL},
		{Schema{Type: "string", Format: "password"}, model.FieldTypePassword},
		{Schema{Type: "string", Format: "binary"}, model.FieldTypeFile},
		{Schema{Type: "string", MaxLength: intPtr(2000)}, model.FieldTypeTextarea},
		{Schema{Type: "array", Items: &Schema{Type: "string", Enum: []any{"a", "b"}}}, model.FieldTypeMultiSelect},
		{Schema{Type: "string", Extensions: map[string]any{ExtensionType: "color"}}, model.FieldTypeColor},
	}
	for _, tc := range cases {
		got, ok := fieldType(tc.schema)
		if !ok || got != tc.want {
			t.Fatalf("%s: got %q (%v), want %q", tc.schema.DebugString(), got, ok, tc.want)
		}
	}
	if _, ok := fieldType(Schema{Type: "array", Items: &Schema{Type: "object"}}); ok {
		t.Fatalf("arrays of objects must be skipped")
	}
}

func TestFormsFromOperationsSkipsBodylessOperations(t *testing.T) {
	t.Parallel()

	ops := map[string]Operation{
		"list": {
			ID:     "list",
			Method: "GET",
			Path:   "/claims",
		},
		"create": {
			ID:     "create",
			Method: "POST",
			Path:   "/claims",
			RequestBody: Schema{
				Type:       "object",
				Properties: map[string]Schema{"note": {Type: "string", Default: `say "hi"`}},
			},
		},
	}
	forms, err := FormsFromOperations(ops)
	if err != nil {
		t.Fatalf("FormsFromOperations returned error: %v", err)
	}
	if len(forms) != 1 || forms[0].ID != "create" {
		t.Fatalf("expected only the create form, got %+v", forms)
	}
	if got := forms[0].Fields[0].DefaultValue; got != `'say "hi"'` {
		t.Fatalf("default = %s, want single-quoted literal", got)
	}

	if _, err := FormFromOperation(ops["list"]); err == nil {
		t.Fatalf("expected error for an operation without a body")
	}
}

func TestSourcesParse(t *testing.T) {
	t.Parallel()

	src, err := ParseSource("https://example.com/openapi.yaml")
	if err != nil || src.Kind() != SourceKindURL {
		t.Fatalf("expected url source, got %v, %v", src, err)
	}
	src, err = ParseSource("./specs/../api.yaml")
	if err != nil || src.Kind() != SourceKindFile || src.Location() != "api.yaml" {
		t.Fatalf("expected cleaned file source, got %v, %v", src, err)
	}
	if _, err := SourceFromURL("ftp://example.com/x"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	if _, err := ParseSource(""); err == nil {
		t.Fatalf("expected error for empty source")
	}
}

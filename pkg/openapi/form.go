package openapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formexpr/pkg/model"
)

// Extension keys read from operations and request body properties.
const (
	ExtensionID                = model.ExtensionPrefix + "-id"
	ExtensionType              = model.ExtensionPrefix + "-type"
	ExtensionOrder             = model.ExtensionPrefix + "-order"
	ExtensionPlaceholder       = model.ExtensionPrefix + "-placeholder"
	ExtensionHidden            = model.ExtensionPrefix + "-hidden"
	ExtensionUnique            = model.ExtensionPrefix + "-unique"
	ExtensionDefault           = model.ExtensionPrefix + "-default"
	ExtensionValidation        = model.ExtensionPrefix + "-validation"
	ExtensionValidationMessage = model.ExtensionPrefix + "-validation-message"
	ExtensionVisibility        = model.ExtensionPrefix + "-visibility"
)

// FormsFromOperations converts every operation with an object request body,
// ordered by form id.
func FormsFromOperations(ops map[string]Operation) ([]model.Form, error) {
	ids := make([]string, 0, len(ops))
	for id, op := range ops {
		if op.HasBody() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	forms := make([]model.Form, 0, len(ids))
	for _, id := range ids {
		form, err := FormFromOperation(ops[id])
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// FormFromOperation maps the request body properties of op onto form fields.
// Nested objects are skipped; arrays become multi-selects when their items
// are enumerated and are skipped otherwise.
func FormFromOperation(op Operation) (model.Form, error) {
	body := op.RequestBody
	if !op.HasBody() {
		return model.Form{}, fmt.Errorf("openapi: operation %s has no object request body", op.ID)
	}

	form := model.Form{
		ID:          op.ID,
		Name:        op.Summary,
		Description: op.Description,
		Metadata:    model.MetadataFromExtensions(op.Extensions),
	}
	if id, ok := stringExtension(op.Extensions, ExtensionID); ok {
		form.ID = id
	}
	if form.Metadata == nil {
		form.Metadata = make(map[string]string, 2)
	}
	form.Metadata["method"] = op.Method
	form.Metadata["path"] = op.Path

	for _, name := range orderedProperties(body.Properties) {
		if field, ok := fieldFromSchema(name, body.Properties[name], body.IsRequired(name)); ok {
			form.Fields = append(form.Fields, field)
		}
	}

	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return model.Form{}, fmt.Errorf("openapi: operation %s: %w", op.ID, err)
	}
	return form, nil
}

func fieldFromSchema(name string, prop Schema, required bool) (model.Field, bool) {
	kind, ok := fieldType(prop)
	if !ok {
		return model.Field{}, false
	}

	field := model.Field{
		Name:              name,
		Label:             prop.Title,
		Type:              kind,
		Required:          required,
		ReadOnly:          prop.ReadOnly,
		MinLength:         prop.MinLength,
		MaxLength:         prop.MaxLength,
		ValidationRegex:   prop.Pattern,
		Metadata:          model.MetadataFromExtensions(prop.Extensions),
		MinValue:          formatBound(prop.Minimum),
		MaxValue:          formatBound(prop.Maximum),
		Placeholder:       stringOrEmpty(prop.Extensions, ExtensionPlaceholder),
		ValidationMessage: stringOrEmpty(prop.Extensions, ExtensionValidationMessage),
	}
	if field.Label == "" && prop.Description != "" && len(prop.Description) <= 60 {
		field.Label = prop.Description
	}
	if hidden, ok := prop.Extensions[ExtensionHidden].(bool); ok {
		field.Hidden = hidden
	}

	if expression, ok := stringExtension(prop.Extensions, ExtensionDefault); ok {
		field.DefaultValue = expression
	} else if prop.Default != nil {
		field.DefaultValue = literalDefault(prop.Default)
	}

	clauses := make([]string, 0, 2)
	if expression, ok := stringExtension(prop.Extensions, ExtensionValidation); ok {
		clauses = append(clauses, expression)
	}
	if unique, ok := prop.Extensions[ExtensionUnique].(bool); ok && unique {
		clauses = append(clauses, "Unique")
	}
	field.Validation = strings.Join(clauses, " AND ")

	if expression, ok := stringExtension(prop.Extensions, ExtensionVisibility); ok {
		field.VisibilityExpression = expression
	}

	enum := prop.Enum
	if prop.Items != nil && len(enum) == 0 {
		enum = prop.Items.Enum
	}
	if len(enum) > 0 {
		field.Options = options(enum, prop.Default)
	}
	return field, true
}

func fieldType(prop Schema) (model.FieldType, bool) {
	if raw, ok := stringExtension(prop.Extensions, ExtensionType); ok {
		return model.ParseFieldType(raw), true
	}
	format := strings.ToLower(prop.Format)
	switch prop.Type {
	case "boolean":
		return model.FieldTypeCheckbox, true
	case "integer":
		return model.FieldTypeNumber, true
	case "number":
		if format == "currency" || format == "money" {
			return model.FieldTypeCurrency, true
		}
		return model.FieldTypeNumber, true
	case "array":
		if prop.Items != nil && len(prop.Items.Enum) > 0 {
			return model.FieldTypeMultiSelect, true
		}
		return "", false
	case "object":
		return "", false
	}

	if len(prop.Enum) > 0 {
		return model.FieldTypeSelect, true
	}
	switch format {
	case "date":
		return model.FieldTypeDate, true
	case "date-time":
		return model.FieldTypeDateTime, true
	case "email":
		return model.FieldTypeEmail, true
	case "uri", "url":
		return model.FieldTypeURL, true
	case "password":
		return model.FieldTypePassword, true
	case "phone", "tel":
		return model.FieldTypePhone, true
	case "color":
		return model.FieldTypeColor, true
	case "binary":
		return model.FieldTypeFile, true
	case "textarea", "markdown":
		return model.FieldTypeTextarea, true
	}
	if prop.MaxLength != nil && *prop.MaxLength > 255 {
		return model.FieldTypeTextarea, true
	}
	return model.FieldTypeText, true
}

// orderedProperties sorts by the order extension, then by name.
func orderedProperties(props map[string]Schema) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, iok := orderOf(props[names[i]])
		oj, jok := orderOf(props[names[j]])
		switch {
		case iok && jok && oi != oj:
			return oi < oj
		case iok != jok:
			return iok
		}
		return names[i] < names[j]
	})
	return names
}

func orderOf(prop Schema) (float64, bool) {
	raw, ok := model.CanonicalizeExtensionValue(prop.Extensions[ExtensionOrder])
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	return n, err == nil
}

func options(enum []any, def any) []model.Option {
	defText, _ := model.CanonicalizeExtensionValue(def)
	out := make([]model.Option, 0, len(enum))
	for _, raw := range enum {
		value, ok := model.CanonicalizeExtensionValue(raw)
		if !ok {
			continue
		}
		out = append(out, model.Option{
			Label:     model.DefaultLabeler(value),
			Value:     value,
			IsDefault: def != nil && value == defText,
		})
	}
	return out
}

// literalDefault renders a schema default as an expression that evaluates to
// the same value. Strings are quoted so spaces and operators stay literal.
func literalDefault(value any) string {
	s, ok := model.CanonicalizeExtensionValue(value)
	if !ok {
		return ""
	}
	if _, isString := value.(string); !isString {
		return s
	}
	switch {
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	default:
		return s
	}
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func stringExtension(ext map[string]any, key string) (string, bool) {
	if len(ext) == 0 {
		return "", false
	}
	s, ok := model.CanonicalizeExtensionValue(ext[key])
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func stringOrEmpty(ext map[string]any, key string) string {
	s, _ := stringExtension(ext, key)
	return s
}

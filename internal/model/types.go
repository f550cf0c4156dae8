package model

import "strings"

// FieldType enumerates the input kinds a workflow form can declare.
type FieldType string

const (
	FieldTypeText          FieldType = "TEXT"
	FieldTypeTextarea      FieldType = "TEXTAREA"
	FieldTypeNumber        FieldType = "NUMBER"
	FieldTypeCurrency      FieldType = "CURRENCY"
	FieldTypeDate          FieldType = "DATE"
	FieldTypeDateTime      FieldType = "DATETIME"
	FieldTypeCheckbox      FieldType = "CHECKBOX"
	FieldTypeCheckboxGroup FieldType = "CHECKBOX_GROUP"
	FieldTypeRadio         FieldType = "RADIO"
	FieldTypeSelect        FieldType = "SELECT"
	FieldTypeMultiSelect   FieldType = "MULTISELECT"
	FieldTypeFile          FieldType = "FILE"
	FieldTypeEmail         FieldType = "EMAIL"
	FieldTypePhone         FieldType = "PHONE"
	FieldTypeURL           FieldType = "URL"
	FieldTypePassword      FieldType = "PASSWORD"
	FieldTypeHidden        FieldType = "HIDDEN"
	FieldTypeLabel         FieldType = "LABEL"
	FieldTypeDivider       FieldType = "DIVIDER"
	FieldTypeColor         FieldType = "COLOR"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText: {}, FieldTypeTextarea: {}, FieldTypeNumber: {}, FieldTypeCurrency: {},
	FieldTypeDate: {}, FieldTypeDateTime: {}, FieldTypeCheckbox: {}, FieldTypeCheckboxGroup: {},
	FieldTypeRadio: {}, FieldTypeSelect: {}, FieldTypeMultiSelect: {}, FieldTypeFile: {},
	FieldTypeEmail: {}, FieldTypePhone: {}, FieldTypeURL: {}, FieldTypePassword: {},
	FieldTypeHidden: {}, FieldTypeLabel: {}, FieldTypeDivider: {}, FieldTypeColor: {},
}

// ParseFieldType normalises raw type names. Unknown or empty values map to
// FieldTypeText so older form definitions keep rendering.
func ParseFieldType(raw string) FieldType {
	candidate := FieldType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := knownFieldTypes[candidate]; ok {
		return candidate
	}
	return FieldTypeText
}

// IsTemporal reports whether values of this type are boxed as time.Time.
func (t FieldType) IsTemporal() bool {
	return t == FieldTypeDate || t == FieldTypeDateTime
}

// IsNumeric reports whether values of this type are boxed as float64.
func (t FieldType) IsNumeric() bool {
	return t == FieldTypeNumber || t == FieldTypeCurrency
}

// IsMulti reports whether the field holds a list of selections.
func (t FieldType) IsMulti() bool {
	return t == FieldTypeMultiSelect || t == FieldTypeCheckboxGroup
}

// IsDecorative reports whether the type is layout-only and never carries a value.
func (t FieldType) IsDecorative() bool {
	return t == FieldTypeLabel || t == FieldTypeDivider
}

// Option is a selectable choice for SELECT/RADIO/MULTISELECT fields.
type Option struct {
	Label     string `json:"label" yaml:"label"`
	Value     string `json:"value" yaml:"value"`
	IsDefault bool   `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

// Field is a single input slot of a workflow form. The three expression
// strings (DefaultValue, Validation, VisibilityExpression) are the durable
// format authored by administrators and must stay backward compatible.
type Field struct {
	Name                 string            `json:"name" yaml:"name"`
	Label                string            `json:"label,omitempty" yaml:"label,omitempty"`
	Type                 FieldType         `json:"type" yaml:"type"`
	Placeholder          string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required             bool              `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly             bool              `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Hidden               bool              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	DefaultValue         string            `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Validation           string            `json:"validation,omitempty" yaml:"validation,omitempty"`
	VisibilityExpression string            `json:"visibilityExpression,omitempty" yaml:"visibilityExpression,omitempty"`
	MinValue             string            `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue             string            `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	MinLength            *int              `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength            *int              `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	ValidationRegex      string            `json:"validationRegex,omitempty" yaml:"validationRegex,omitempty"`
	ValidationMessage    string            `json:"validationMessage,omitempty" yaml:"validationMessage,omitempty"`
	Options              []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DisplayLabel returns the authored label or a label derived from the name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return DefaultLabeler(f.Name)
}

// HasDefault reports whether the field declares a default value expression.
func (f Field) HasDefault() bool {
	return strings.TrimSpace(f.DefaultValue) != ""
}

// Form is the definition fetched once per form session. It is treated as
// read-only for the lifetime of the session.
type Form struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field           `json:"fields" yaml:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Field returns the definition for name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (f Form) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		names = append(names, field.Name)
	}
	return names
}

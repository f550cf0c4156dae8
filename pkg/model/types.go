package model

import internalmodel "github.com/goliatone/go-formexpr/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeText          = internalmodel.FieldTypeText
	FieldTypeTextarea      = internalmodel.FieldTypeTextarea
	FieldTypeNumber        = internalmodel.FieldTypeNumber
	FieldTypeCurrency      = internalmodel.FieldTypeCurrency
	FieldTypeDate          = internalmodel.FieldTypeDate
	FieldTypeDateTime      = internalmodel.FieldTypeDateTime
	FieldTypeCheckbox      = internalmodel.FieldTypeCheckbox
	FieldTypeCheckboxGroup = internalmodel.FieldTypeCheckboxGroup
	FieldTypeRadio         = internalmodel.FieldTypeRadio
	FieldTypeSelect        = internalmodel.FieldTypeSelect
	FieldTypeMultiSelect   = internalmodel.FieldTypeMultiSelect
	FieldTypeFile          = internalmodel.FieldTypeFile
	FieldTypeEmail         = internalmodel.FieldTypeEmail
	FieldTypePhone         = internalmodel.FieldTypePhone
	FieldTypeURL           = internalmodel.FieldTypeURL
	FieldTypePassword      = internalmodel.FieldTypePassword
	FieldTypeHidden        = internalmodel.FieldTypeHidden
	FieldTypeLabel         = internalmodel.FieldTypeLabel
	FieldTypeDivider       = internalmodel.FieldTypeDivider
	FieldTypeColor         = internalmodel.FieldTypeColor
)

// ExtensionPrefix namespaces vendor extensions understood by the loaders.
const ExtensionPrefix = internalmodel.ExtensionPrefix

type Field = internalmodel.Field
type Form = internalmodel.Form
type Option = internalmodel.Option

// ParseFieldType maps a raw type name onto the enumeration, defaulting to TEXT.
func ParseFieldType(raw string) FieldType {
	return internalmodel.ParseFieldType(raw)
}

// DefaultLabeler derives a display label from a field name.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}

// CanonicalizeExtensionValue renders an extension payload as a field string.
func CanonicalizeExtensionValue(value any) (string, bool) {
	return internalmodel.CanonicalizeExtensionValue(value)
}

// MetadataFromExtensions collects x-formexpr-meta-* extensions.
func MetadataFromExtensions(ext map[string]any) map[string]string {
	return internalmodel.MetadataFromExtensions(ext)
}

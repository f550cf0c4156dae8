package parser

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formexpr/pkg/model"
	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

// convertSchema flattens a kin-openapi schema. allOf members are merged into
// the result; a schema already being converted higher up the tree is
// returned as a bare reference so recursive components terminate.
func convertSchema(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	return convert(ref, make(map[*openapi3.Schema]bool))
}

func convert(ref *openapi3.SchemaRef, active map[*openapi3.Schema]bool) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil || active[ref.Value] {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	src := ref.Value
	active[src] = true
	defer delete(active, src)

	out := pkgopenapi.Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Title:       src.Title,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
		ReadOnly:    src.ReadOnly,
		Extensions:  extractExtensions(src.Extensions),
	}
	if len(src.Required) > 0 {
		out.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		out.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Properties) > 0 {
		out.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			out.Properties[name] = convert(property, active)
		}
	}
	if src.Items != nil {
		items := convert(src.Items, active)
		out.Items = &items
	}
	if src.Min != nil {
		value := *src.Min
		out.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		out.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		out.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		out.MaxLength = &value
	}

	for _, member := range src.AllOf {
		merge(&out, convert(member, active))
	}
	return out
}

// merge folds an allOf member into target. Values already set on target win.
func merge(target *pkgopenapi.Schema, member pkgopenapi.Schema) {
	if target.Type == "" {
		target.Type = member.Type
	}
	if target.Format == "" {
		target.Format = member.Format
	}
	for _, name := range member.Required {
		if !target.IsRequired(name) {
			target.Required = append(target.Required, name)
		}
	}
	if len(member.Properties) > 0 {
		if target.Properties == nil {
			target.Properties = make(map[string]pkgopenapi.Schema, len(member.Properties))
		}
		for name, prop := range member.Properties {
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = prop
			}
		}
	}
	for key, value := range member.Extensions {
		if target.Extensions == nil {
			target.Extensions = make(map[string]any, len(member.Extensions))
		}
		if _, exists := target.Extensions[key]; !exists {
			target.Extensions[key] = value
		}
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != "null" {
			return value
		}
	}
	return ""
}

// extractExtensions keeps the x-formexpr namespace.
func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any)
	for key, value := range raw {
		if value == nil {
			continue
		}
		if key == model.ExtensionPrefix || strings.HasPrefix(key, model.ExtensionPrefix+"-") {
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

package functions

import (
	"strings"
	"time"

	"github.com/goliatone/go-formexpr/pkg/model"
)

// Box converts a canonical value into the representation stored for a field
// of the given type: dates for DATE/DATETIME, float64 for NUMBER/CURRENCY,
// bool for CHECKBOX, lists for multi-value fields and text otherwise.
// Empty values box to nil for typed fields.
func Box(value any, fieldType model.FieldType) any {
	return BoxIn(value, fieldType, time.UTC)
}

// BoxIn is Box with dates parsed in loc.
func BoxIn(value any, fieldType model.FieldType, loc *time.Location) any {
	switch model.ParseFieldType(string(fieldType)) {
	case model.FieldTypeDate:
		t, ok := ToTime(value, loc)
		if !ok {
			return nil
		}
		return midnight(t)
	case model.FieldTypeDateTime:
		t, ok := ToTime(value, loc)
		if !ok {
			return nil
		}
		return t
	case model.FieldTypeNumber, model.FieldTypeCurrency:
		if IsEmpty(value) {
			return nil
		}
		return ToNumber(value)
	case model.FieldTypeCheckbox:
		return Truthy(value)
	case model.FieldTypeMultiSelect, model.FieldTypeCheckboxGroup:
		if s, ok := value.(string); ok && !strings.HasPrefix(strings.TrimSpace(s), "[") {
			if strings.TrimSpace(s) == "" {
				return []any{}
			}
			parts := strings.Split(s, ",")
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = strings.TrimSpace(p)
			}
			return out
		}
		return ToList(value)
	default:
		if value == nil {
			return ""
		}
		return ToString(value)
	}
}

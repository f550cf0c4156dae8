package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errFormIDMissing    = errors.New("model: form id is required")
	errFieldNameMissing = errors.New("model: field name is required")
)

// Validate checks structural invariants of a definition: a form id, named
// fields, unique names and sane length bounds.
func (f Form) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return errFormIDMissing
	}
	seen := make(map[string]struct{}, len(f.Fields))
	for idx, field := range f.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("model: field #%d: %w", idx, errFieldNameMissing)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("model: duplicate field name %q", field.Name)
		}
		seen[field.Name] = struct{}{}
		if field.MinLength != nil && *field.MinLength < 0 {
			return fmt.Errorf("model: field %q: minLength must not be negative", field.Name)
		}
		if field.MinLength != nil && field.MaxLength != nil && *field.MinLength > *field.MaxLength {
			return fmt.Errorf("model: field %q: minLength exceeds maxLength", field.Name)
		}
	}
	return nil
}

// Normalize returns a copy with field types canonicalised.
func (f Form) Normalize() Form {
	out := f
	out.Fields = make([]Field, len(f.Fields))
	for i, field := range f.Fields {
		field.Type = ParseFieldType(string(field.Type))
		out.Fields[i] = field
	}
	return out
}

// Rules returns the validation clauses declared by the field: the authored
// validation expression followed by clauses synthesised from the structured
// constraint properties. Clauses already present in the expression are not
// duplicated.
func (f Field) Rules() string {
	clauses := make([]string, 0, 6)
	authored := strings.TrimSpace(f.Validation)
	if authored != "" {
		clauses = append(clauses, authored)
	}
	upper := strings.ToUpper(authored)
	has := func(name string) bool {
		return strings.Contains(upper, name+"(") || containsWord(upper, name)
	}

	if f.Required && !has("REQUIRED") {
		clauses = append(clauses, "Required")
	}
	if v := strings.TrimSpace(f.MinValue); v != "" && !has("MIN") && !has("RANGE") {
		clauses = append(clauses, "Min("+v+")")
	}
	if v := strings.TrimSpace(f.MaxValue); v != "" && !has("MAX") && !has("RANGE") {
		clauses = append(clauses, "Max("+v+")")
	}
	if f.MinLength != nil && !has("MINLENGTH") && !has("LENGTHRANGE") {
		clauses = append(clauses, fmt.Sprintf("MinLength(%d)", *f.MinLength))
	}
	if f.MaxLength != nil && !has("MAXLENGTH") && !has("LENGTHRANGE") {
		clauses = append(clauses, fmt.Sprintf("MaxLength(%d)", *f.MaxLength))
	}
	if re := strings.TrimSpace(f.ValidationRegex); re != "" && !has("PATTERN") {
		clause := "Pattern(/" + re + "/"
		if msg := strings.TrimSpace(f.ValidationMessage); msg != "" {
			clause += ", " + strconv.Quote(msg)
		}
		clauses = append(clauses, clause+")")
	}
	return strings.Join(clauses, " AND ")
}

func containsWord(haystack, word string) bool {
	for _, token := range strings.Fields(haystack) {
		if token == word {
			return true
		}
	}
	return false
}

package functions

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonical layouts used when dates are rendered as text.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ToNumber coerces v the way parseFloat would: the longest numeric prefix of
// a string is used and anything non-numeric becomes 0.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case json.Number:
		f, _ := n.Float64()
		return finite(f)
	case string:
		return parseFloat(n)
	case []any:
		if len(n) == 1 {
			return ToNumber(n[0])
		}
		return 0
	default:
		return 0
	}
}

func parseFloat(s string) float64 {
	match := leadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// IsNumeric reports whether v is a number or a string holding exactly one.
func IsNumeric(v any) bool {
	switch n := v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return false
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	default:
		return false
	}
}

// ToInt truncates ToNumber toward zero.
func ToInt(v any) int {
	return int(ToNumber(v))
}

// ToString renders a canonical value as text. Dates at midnight render as
// a plain date, other dates as a local timestamp, invalid dates as "".
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return FormatNumber(s)
	case float32:
		return FormatNumber(float64(s))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return FormatNumber(ToNumber(s))
	case json.Number:
		return s.String()
	case time.Time:
		return FormatTime(s)
	case []any, map[string]any, []string:
		payload, err := json.Marshal(jsonSafe(s))
		if err != nil {
			return ""
		}
		return string(payload)
	case interface{ String() string }:
		return s.String()
	default:
		payload, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(payload)
	}
}

// FormatNumber renders f without exponent and without trailing zeros.
func FormatNumber(f float64) string {
	f = finite(f)
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTime renders t as a date or timestamp; the zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}

func jsonSafe(v any) any {
	switch val := v.(type) {
	case time.Time:
		return FormatTime(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonSafe(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonSafe(item)
		}
		return out
	default:
		return v
	}
}

// Truthy applies the condition rules shared by IF, AND/OR and visibility:
// empty text, "false", "0", "no", "off", "null", zero, nil, empty lists and
// invalid dates are false.
func Truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "", "false", "0", "no", "off", "null", "undefined":
			return false
		}
		return true
	case time.Time:
		return !b.IsZero()
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	default:
		if IsNumeric(v) {
			return ToNumber(v) != 0
		}
		return true
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	DateTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01",
	"2006",
}

// ToTime parses v as a date in loc. Numbers are milliseconds since the Unix
// epoch. The bool result is false for invalid dates, which are returned as
// the zero time.
func ToTime(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return parsed, true
			}
		}
		if IsNumeric(s) {
			return fromMillis(ToNumber(s), loc), true
		}
		return time.Time{}, false
	case nil, bool:
		return time.Time{}, false
	default:
		if IsNumeric(v) {
			return fromMillis(ToNumber(v), loc), true
		}
		return time.Time{}, false
	}
}

// IsDateLike reports whether v is a date or a string that parses as one.
// Bare numbers are not considered dates.
func IsDateLike(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return !t.IsZero()
	case string:
		if IsNumeric(t) {
			return false
		}
		_, ok := ToTime(t, time.UTC)
		return ok
	default:
		return false
	}
}

func fromMillis(ms float64, loc *time.Location) time.Time {
	return time.UnixMilli(int64(ms)).In(loc)
}

// ToList coerces v into a list. JSON array strings are decoded, other
// non-empty scalars become a single-element list.
func ToList(v any) []any {
	switch l := v.(type) {
	case nil:
		return []any{}
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	case string:
		s := strings.TrimSpace(l)
		if s == "" {
			return []any{}
		}
		if strings.HasPrefix(s, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return normalizeJSON(decoded).([]any)
			}
		}
		return []any{l}
	default:
		return []any{v}
	}
}

// ToMap coerces v into an object. JSON object strings are decoded; anything
// else yields nil.
func ToMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	case string:
		s := strings.TrimSpace(m)
		if !strings.HasPrefix(s, "{") {
			return nil
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		return normalizeJSON(decoded).(map[string]any)
	default:
		return nil
	}
}

// normalizeJSON keeps decoded JSON in canonical form (numbers as float64).
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case []any:
		for i := range val {
			val[i] = normalizeJSON(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeJSON(val[k])
		}
		return val
	case json.Number:
		f, _ := val.Float64()
		return f
	default:
		return v
	}
}

// IsEmpty reports nil, blank strings, empty lists and empty objects.
func IsEmpty(v any) bool {
	switch e := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(e) == ""
	case []any:
		return len(e) == 0
	case []string:
		return len(e) == 0
	case map[string]any:
		return len(e) == 0
	case time.Time:
		return e.IsZero()
	default:
		return false
	}
}

// Equal compares loosely: numbers numerically, dates by instant, booleans
// against their text form, everything else as text.
func Equal(a, b any) bool {
	if IsNumeric(a) && IsNumeric(b) {
		return ToNumber(a) == ToNumber(b)
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := ToTime(b, ta.Location()); ok {
			return ta.Equal(tb)
		}
	}
	if tb, ok := b.(time.Time); ok {
		if ta, ok := ToTime(a, tb.Location()); ok {
			return ta.Equal(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		return ba == Truthy(b) && isBoolText(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == Truthy(a) && isBoolText(a)
	}
	return ToString(a) == ToString(b)
}

func isBoolText(v any) bool {
	switch b := v.(type) {
	case bool:
		return true
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "true" || s == "false"
	default:
		return false
	}
}

// Compare orders two values: numerically when both are numeric, by instant
// when both are dates, otherwise lexically.
func Compare(a, b any) int {
	if IsNumeric(a) && IsNumeric(b) {
		return cmpFloat(ToNumber(a), ToNumber(b))
	}
	if IsDateLike(a) && IsDateLike(b) {
		ta, _ := ToTime(a, time.UTC)
		tb, _ := ToTime(b, time.UTC)
		return ta.Compare(tb)
	}
	if isNumberish(a) || isNumberish(b) {
		return cmpFloat(ToNumber(a), ToNumber(b))
	}
	return strings.Compare(ToString(a), ToString(b))
}

func isNumberish(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sortValues sorts numbers numerically and everything else lexically,
// numbers first.
func sortValues(values []any) []any {
	out := append([]any(nil), values...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := IsNumeric(out[i]), IsNumeric(out[j])
		if ni != nj {
			return ni
		}
		return Compare(out[i], out[j]) < 0
	})
	return out
}

// TypeOf names the canonical kind of v.
func TypeOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case time.Time:
		return "date"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		if IsNumeric(t) {
			return "number"
		}
		return "object"
	}
}

package functions

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formexpr/pkg/model"
)

func call(t *testing.T, env *Env, name string, args ...any) any {
	t.Helper()
	v, err := Builtin().Call(name, ValueArgs(env, args...))
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	return v
}

func fixedEnv() *Env {
	return &Env{
		Now:  func() time.Time { return time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC) },
		Rand: rand.New(rand.NewSource(7)),
		User: User{ID: "u-1", Name: "Jane Doe", Email: "jane@example.com", Department: "Finance", SBU: "Corporate"},
	}
}

func TestBuiltinCatalogueSize(t *testing.T) {
	t.Parallel()

	if n := Builtin().Len(); n < 200 {
		t.Fatalf("expected at least 200 functions, got %d", n)
	}
	for _, name := range []string{"CONCAT", "IFS", "BUSINESS_DAYS", "ValidWhen", "validwhen", "JSON_SET", "ARRAY_SORT"} {
		if !Builtin().Has(name) {
			t.Fatalf("missing function %s", name)
		}
	}
}

func TestCallErrors(t *testing.T) {
	t.Parallel()

	_, err := Builtin().Call("NOPE", ValueArgs(nil))
	if !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
	_, err = Builtin().Call("UPPER", ValueArgs(nil, "a", "b"))
	if !errors.Is(err, ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	reg := Builtin().Clone()
	err := reg.Register(Definition{Name: "upper", Handler: unary(func(*Args) any { return nil })})
	if err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register(Definition{Name: "SHOUT", MaxArgs: 1, MinArgs: 1, Handler: unary(func(a *Args) any { return a.String(0) + "!" })}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if Builtin().Has("SHOUT") {
		t.Fatalf("clone leaked into the shared registry")
	}
}

func TestRoundTiesTowardPositiveInfinity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		x        float64
		decimals int
		want     float64
	}{
		{123.456, 2, 123.46},
		{123.5, 0, 124},
		{2.5, 0, 3},
		{-2.5, 0, -2},
		{1.005, 2, 1.01},
		{1234, -2, 1200},
	}
	for _, tc := range cases {
		if got := Round(tc.x, tc.decimals); got != tc.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", tc.x, tc.decimals, got, tc.want)
		}
	}
}

func TestRoundIsIdempotent(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		x := (r.Float64() - 0.5) * 1e6
		once := Round(x, 2)
		if twice := Round(once, 2); twice != once {
			t.Fatalf("ROUND not idempotent for %v: %v != %v", x, once, twice)
		}
	}
}

func TestFloorCeilTruncAtNegatives(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	if got := call(t, env, "FLOOR", -4.7); got != float64(-5) {
		t.Fatalf("FLOOR = %v", got)
	}
	if got := call(t, env, "CEIL", -4.7); got != float64(-4) {
		t.Fatalf("CEIL = %v", got)
	}
	if got := call(t, env, "TRUNC", -4.7); got != float64(-4) {
		t.Fatalf("TRUNC = %v", got)
	}
}

func TestDateAddDiffRoundTrip(t *testing.T) {
	t.Parallel()

	zones := []*time.Location{time.UTC, time.FixedZone("UTC-5", -5*3600), time.FixedZone("UTC+13", 13*3600)}
	for _, loc := range zones {
		env := &Env{Location: loc}
		for _, start := range []string{"2024-01-31", "2023-02-28", "2020-02-29", "1999-12-31"} {
			for n := -400; n <= 400; n += 37 {
				added := call(t, env, "DATE_ADD", start, float64(n), "days")
				diff := call(t, env, "DATE_DIFF", added, start, "days")
				if diff != float64(n) {
					t.Fatalf("DATE_DIFF(DATE_ADD(%s, %d)) = %v in %s", start, n, diff, loc)
				}
			}
		}
	}
}

func TestDateDiffUnits(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	cases := []struct {
		a, b, unit string
		want       float64
	}{
		{"2024-03-15", "2024-01-31", "months", 1},
		{"2024-03-31", "2024-01-31", "months", 2},
		{"2024-01-31", "2024-03-15", "months", -1},
		{"2024-03-15", "1990-03-16", "years", 33},
		{"2024-01-15", "2024-01-01", "weeks", 2},
		{"2024-01-01T12:00:00", "2024-01-01T09:30:00", "hours", 2},
	}
	for _, tc := range cases {
		if got := call(t, env, "DATE_DIFF", tc.a, tc.b, tc.unit); got != tc.want {
			t.Fatalf("DATE_DIFF(%s, %s, %s) = %v, want %v", tc.a, tc.b, tc.unit, got, tc.want)
		}
	}
}

func TestBusinessDays(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	if got := call(t, env, "BUSINESS_DAYS", "2024-01-01", "2024-01-07"); got != float64(5) {
		t.Fatalf("BUSINESS_DAYS = %v, want 5", got)
	}
	if got := call(t, env, "BUSINESS_DAYS", "2024-01-07", "2024-01-01"); got != float64(-5) {
		t.Fatalf("reversed BUSINESS_DAYS = %v, want -5", got)
	}
	got := call(t, env, "ADD_BUSINESS_DAYS", "2024-01-05", float64(1))
	if want := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC); !got.(time.Time).Equal(want) {
		t.Fatalf("ADD_BUSINESS_DAYS = %v, want %v", got, want)
	}
}

func TestDateHelpers(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	cases := []struct {
		name string
		args []any
		want any
	}{
		{"DATE_FORMAT", []any{"2024-12-25", "DD/MM/YYYY"}, "25/12/2024"},
		{"DATE_FORMAT", []any{"2024-12-25", "MMMM DD, YYYY"}, "December 25, 2024"},
		{"DATE_FORMAT", []any{"2024-12-25T14:30:00", "YYYY-MM-DD HH:mm"}, "2024-12-25 14:30"},
		{"DATE_FORMAT", []any{"not a date", "YYYY"}, ""},
		{"WEEKDAY", []any{"2024-01-01"}, float64(1)},
		{"WEEKDAY", []any{"2024-01-07"}, float64(7)},
		{"QUARTER", []any{"2024-08-01"}, float64(3)},
		{"YEAR", []any{"garbage"}, float64(0)},
		{"AGE", []any{"1990-03-16"}, float64(33)},
		{"TIME", []any{float64(9), float64(5), float64(0)}, "09:05:00"},
		{"IS_LEAP_YEAR", []any{float64(2024)}, true},
		{"IS_WEEKEND", []any{"2024-01-06"}, true},
		{"IS_PAST", []any{"2024-03-14"}, true},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, call(t, env, tc.name, tc.args...)); diff != "" {
			t.Fatalf("%s%v mismatch (-want +got):\n%s", tc.name, tc.args, diff)
		}
	}

	parsed := call(t, env, "DATE_PARSE", "25-12-2024", "DD-MM-YYYY").(time.Time)
	if ToString(parsed) != "2024-12-25" {
		t.Fatalf("DATE_PARSE = %v", parsed)
	}
	end := call(t, env, "END_OF_MONTH", "2024-02-10").(time.Time)
	if ToString(end) != "2024-02-29" {
		t.Fatalf("END_OF_MONTH = %v", end)
	}
	if ToString(call(t, env, "TODAY")) != "2024-03-15" {
		t.Fatalf("TODAY did not use the injected clock")
	}
	if ToString(call(t, env, "DATE_ADD", "invalid", float64(3), "days")) != "" {
		t.Fatalf("invalid dates must format as empty text")
	}
}

func TestStringFunctions(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	cases := []struct {
		name string
		args []any
		want any
	}{
		{"CONCAT", []any{"Jane", " ", "Doe"}, "Jane Doe"},
		{"CONCAT_WS", []any{", ", "New York", "", "USA"}, "New York, USA"},
		{"SUBSTRING", []any{"ABCDEF", float64(1), float64(3)}, "ABC"},
		{"SUBSTRING", []any{"2024-12-25", float64(6), float64(2)}, "12"},
		{"LEFT", []any{"hello", float64(10)}, "hello"},
		{"RIGHT", []any{"hello", float64(3)}, "llo"},
		{"CAPITALIZE", []any{"hello WORLD"}, "Hello world"},
		{"TITLE_CASE", []any{"hello WORLD"}, "Hello World"},
		{"PAD_LEFT", []any{"7", float64(3), "0"}, "007"},
		{"INDEX_OF", []any{"john@example.com", "@"}, float64(4)},
		{"INDEX_OF", []any{"abc", "z"}, float64(-1)},
		{"REPLACE", []any{"a-b-c", "-", ""}, "ab-c"},
		{"REPLACE_ALL", []any{"a-b-c", "-", ""}, "abc"},
		{"LENGTH", []any{"héllo"}, float64(5)},
		{"REGEX_MATCH", []any{"ABC123", `^[A-Z]{3}\d{3}$`}, true},
		{"REGEX_MATCH", []any{"x", "("}, false},
		{"SPLIT", []any{"red, blue,green", ","}, []any{"red", "blue", "green"}},
		{"JOIN", []any{[]any{"a", "b"}, "|"}, "a|b"},
		{"SLUGIFY", []any{"Hello World!"}, "hello-world"},
		{"STRIP_HTML", []any{"<p>Hi <b>there</b></p>"}, "Hi there"},
		{"MASK", []any{"4111111111111111"}, "************1111"},
		{"SNAKE_CASE", []any{"firstName value"}, "first_name_value"},
		{"INITIALS", []any{"jane doe"}, "JD"},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, call(t, env, tc.name, tc.args...)); diff != "" {
			t.Fatalf("%s%v mismatch (-want +got):\n%s", tc.name, tc.args, diff)
		}
	}
}

func TestBuiltTextIsCapped(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	if got := call(t, env, "REPEAT", "ab", float64(3)); got != "ababab" {
		t.Fatalf("REPEAT = %q", got)
	}
	if got := call(t, env, "REPEAT", "a", float64(1e9)).(string); len(got) != maxBuiltLength {
		t.Fatalf("REPEAT length = %d, want %d", len(got), maxBuiltLength)
	}
	if got := call(t, env, "REPEAT", "ab", float64(1e9)).(string); len(got) != maxBuiltLength {
		t.Fatalf("REPEAT length = %d, want %d", len(got), maxBuiltLength)
	}
	if got := call(t, env, "PAD_LEFT", "7", float64(1e9), "0").(string); len(got) != maxBuiltLength {
		t.Fatalf("PAD_LEFT length = %d, want %d", len(got), maxBuiltLength)
	}
	if got := call(t, env, "PAD_RIGHT", "7", float64(1e9)).(string); len(got) != maxBuiltLength {
		t.Fatalf("PAD_RIGHT length = %d, want %d", len(got), maxBuiltLength)
	}
}

func TestNumberAndFormatting(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	cases := []struct {
		name string
		args []any
		want any
	}{
		{"SUM", []any{"1", float64(2), "abc", []any{float64(3), "4"}}, float64(10)},
		{"SUM", []any{0.1, 0.2}, 0.3},
		{"DIVIDE", []any{float64(1), float64(0)}, float64(0)},
		{"MEDIAN", []any{float64(1), float64(2), float64(3), float64(4), float64(5)}, float64(3)},
		{"COUNT", []any{"a", nil, "c", ""}, float64(2)},
		{"PERCENTAGE", []any{float64(15), float64(20)}, float64(75)},
		{"MOD", []any{float64(17), float64(5)}, float64(2)},
		{"TO_NUMBER", []any{"12abc"}, float64(12)},
		{"TO_NUMBER", []any{"abc"}, float64(0)},
		{"FORMAT_NUMBER", []any{1234.555, float64(2)}, "1,234.56"},
		{"FORMAT_CURRENCY", []any{1234.56, "USD"}, "$1,234.56"},
		{"FORMAT_CURRENCY", []any{1234.56, "EUR"}, "€1.234,56"},
		{"FORMAT_CURRENCY", []any{-5, "GBP"}, "-£5.00"},
		{"FORMAT_PERCENT", []any{0.125}, "12.5%"},
		{"FORMAT_PERCENT", []any{0.75}, "75%"},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, call(t, env, tc.name, tc.args...)); diff != "" {
			t.Fatalf("%s%v mismatch (-want +got):\n%s", tc.name, tc.args, diff)
		}
	}
}

func TestLogicFunctions(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	cases := []struct {
		name string
		args []any
		want any
	}{
		{"IFS", []any{false, "A", true, "B", true, "F"}, "B"},
		{"IFS", []any{false, "A", "fallback"}, "fallback"},
		{"SWITCH", []any{"I", "A", "Active", "I", "Inactive", "Unknown"}, "Inactive"},
		{"SWITCH", []any{"X", "A", "Active", "Unknown"}, "Unknown"},
		{"XOR", []any{true, true}, false},
		{"XOR", []any{true, "false"}, true},
		{"IN", []any{"PENDING", []any{"DRAFT", "PENDING"}}, true},
		{"IN", []any{"X", "A", "B"}, false},
		{"BETWEEN", []any{"5", float64(1), float64(10)}, true},
		{"EQUALS", []any{"10", float64(10)}, true},
		{"GREATER_THAN", []any{"2024-02-01", "2024-01-31"}, true},
		{"IS_EMPTY", []any{"   "}, false},
		{"IS_BLANK", []any{"   "}, true},
		{"IS_VALID_EMAIL", []any{"jane@example.com"}, true},
		{"IS_VALID_CREDIT_CARD", []any{"4111-1111-1111-1111"}, true},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, call(t, env, tc.name, tc.args...)); diff != "" {
			t.Fatalf("%s%v mismatch (-want +got):\n%s", tc.name, tc.args, diff)
		}
	}
}

func TestConditionalsAreLazy(t *testing.T) {
	t.Parallel()

	var resolved []string
	resolve := func(raw string) (any, error) {
		resolved = append(resolved, raw)
		switch raw {
		case "yes":
			return true, nil
		case "boom":
			return "boom", errors.New("boom")
		}
		return raw, nil
	}
	v, err := Builtin().Call("IF", NewArgs(nil, []string{"yes", "taken", "boom"}, resolve))
	if err != nil || v != "taken" {
		t.Fatalf("IF = %v, %v", v, err)
	}
	if diff := cmp.Diff([]string{"yes", "taken"}, resolved); diff != "" {
		t.Fatalf("IF resolved untaken branch (-want +got):\n%s", diff)
	}

	v, err = Builtin().Call("TRY", NewArgs(nil, []string{"boom", "safe"}, resolve))
	if err != nil || v != "safe" {
		t.Fatalf("TRY = %v, %v", v, err)
	}
}

func TestUtilityFunctions(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	env.Sequencer = NewMemorySequencer()
	env.Values = Values{"totalAmount": float64(42)}
	env.Lookup = MapLookup{"employees": {"E1": map[string]any{"name": "Ann"}}}

	if got := call(t, env, "SEQUENCE", "INV-"); got != "INV-00001" {
		t.Fatalf("SEQUENCE = %v", got)
	}
	if got := call(t, env, "SEQUENCE", "INV-"); got != "INV-00002" {
		t.Fatalf("second SEQUENCE = %v", got)
	}
	if got := call(t, env, "CURRENT_USER"); got != "Jane Doe" {
		t.Fatalf("CURRENT_USER = %v", got)
	}
	if got := call(t, env, "CURRENT_USER_SBU"); got != "Corporate" {
		t.Fatalf("CURRENT_USER_SBU = %v", got)
	}
	if got := call(t, env, "FIELD_VALUE", "totalAmount"); got != float64(42) {
		t.Fatalf("FIELD_VALUE = %v", got)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ann"}, call(t, env, "LOOKUP", "E1", "employees")); diff != "" {
		t.Fatalf("LOOKUP mismatch (-want +got):\n%s", diff)
	}
	if got := call(t, env, "TEMPLATE", "Order #{id} - {status}", map[string]any{"id": float64(123), "status": "Pending"}); got != "Order #123 - Pending" {
		t.Fatalf("TEMPLATE = %v", got)
	}
	if got := call(t, env, "JSON_GET", `{"user":{"name":"Ann","tags":["a","b"]}}`, "user.tags[1]"); got != "b" {
		t.Fatalf("JSON_GET = %v", got)
	}
	set := call(t, env, "JSON_SET", `{"status":"draft"}`, "user.name", "Ann")
	if ToString(set) != `{"status":"draft","user":{"name":"Ann"}}` {
		t.Fatalf("JSON_SET = %v", ToString(set))
	}
	if got := call(t, env, "DECODE_URL", "hello%20world"); got != "hello world" {
		t.Fatalf("DECODE_URL = %v", got)
	}
	if got := call(t, env, "ENCODE_URL", "a b/c"); got != "a%20b%2Fc" {
		t.Fatalf("ENCODE_URL = %v", got)
	}
	if got := call(t, env, "DECODE_BASE64", call(t, env, "ENCODE_BASE64", "héllo")); got != "héllo" {
		t.Fatalf("base64 round trip = %v", got)
	}
	if got := call(t, env, "TYPE_OF", []any{"a"}); got != "array" {
		t.Fatalf("TYPE_OF = %v", got)
	}
	n := call(t, env, "RANDOM_INT", float64(1), float64(6)).(float64)
	if n < 1 || n > 6 {
		t.Fatalf("RANDOM_INT out of range: %v", n)
	}
	if got := call(t, env, "CheckValid", "email"); got != true {
		t.Fatalf("CheckValid without a validator should pass, got %v", got)
	}
}

func TestArrayFunctions(t *testing.T) {
	t.Parallel()

	env := fixedEnv()
	list := `[3, "b", 1, "a", 3]`
	cases := []struct {
		name string
		args []any
		want any
	}{
		{"ARRAY_LENGTH", []any{list}, float64(5)},
		{"ARRAY_FIRST", []any{list}, float64(3)},
		{"ARRAY_LAST", []any{list}, float64(3)},
		{"ARRAY_CONTAINS", []any{list, "a"}, true},
		{"ARRAY_UNIQUE", []any{list}, []any{float64(3), "b", float64(1), "a"}},
		{"ARRAY_SORT", []any{list}, []any{float64(1), float64(3), float64(3), "a", "b"}},
		{"ARRAY_SUM", []any{[]any{float64(1), "2", float64(3)}}, float64(6)},
		{"ARRAY_SLICE", []any{list, float64(1), float64(3)}, []any{"b", float64(1)}},
		{"ARRAY_REMOVE", []any{list, float64(3)}, []any{"b", float64(1), "a"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, call(t, env, tc.name, tc.args...)); diff != "" {
			t.Fatalf("%s%v mismatch (-want +got):\n%s", tc.name, tc.args, diff)
		}
	}
}

func TestBox(t *testing.T) {
	t.Parallel()

	date := Box("2024-01-05T13:00:00", model.FieldTypeDate).(time.Time)
	if ToString(date) != "2024-01-05" {
		t.Fatalf("DATE box = %v", date)
	}
	if got := Box(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), model.FieldTypeText); got != "2024-01-05" {
		t.Fatalf("TEXT box = %v", got)
	}
	if got := Box("12.50", model.FieldTypeCurrency); got != 12.5 {
		t.Fatalf("CURRENCY box = %v", got)
	}
	if got := Box("", model.FieldTypeNumber); got != nil {
		t.Fatalf("empty NUMBER box = %v", got)
	}
	if got := Box("true", model.FieldTypeCheckbox); got != true {
		t.Fatalf("CHECKBOX box = %v", got)
	}
	if diff := cmp.Diff([]any{"a", "b"}, Box("a, b", model.FieldTypeMultiSelect)); diff != "" {
		t.Fatalf("MULTISELECT box mismatch (-want +got):\n%s", diff)
	}
	if got := Box(float64(3), model.FieldTypeText); got != "3" {
		t.Fatalf("TEXT box of number = %v", got)
	}
	if got := Box("nope", model.FieldTypeDate); got != nil {
		t.Fatalf("invalid DATE box = %v", got)
	}
}

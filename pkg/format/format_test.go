package format

import "testing"

func TestPredicates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		check func(string) bool
		value string
		want  bool
	}{
		{"email ok", Email, "jane@example.com", true},
		{"email bad", Email, "jane@", false},
		{"email empty", Email, "", false},
		{"url ok", URL, "https://example.com/a?b=c", true},
		{"url bad", URL, "example", false},
		{"phone ok", Phone, "+1 (555) 123-4567", true},
		{"phone short", Phone, "12-34", false},
		{"digits", Digits, "0123", true},
		{"digits sign", Digits, "-1", false},
		{"alpha", Alpha, "abcXYZ", true},
		{"alpha digit", Alpha, "abc1", false},
		{"alphanumeric", AlphaNumeric, "abc123", true},
		{"alphanumeric space", AlphaNumeric, "abc 123", false},
		{"card visa test", CreditCard, "4111 1111 1111 1111", true},
		{"card bad checksum", CreditCard, "4111 1111 1111 1112", false},
		{"date iso", Date, "2024-02-29", true},
		{"date invalid day", Date, "2023-02-29", false},
		{"numeric", Numeric, "-12.5", true},
	}

	for _, tc := range cases {
		if got := tc.check(tc.value); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLuhn(t *testing.T) {
	t.Parallel()

	if !Luhn("79927398713") {
		t.Fatalf("expected valid checksum")
	}
	if Luhn("79927398710") || Luhn("") || Luhn("12a") {
		t.Fatalf("expected invalid checksum")
	}
}

package validation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/model"
	"github.com/goliatone/go-formexpr/pkg/testsupport"
)

func check(t *testing.T, m *Matcher, field model.Field, value any, values functions.Values) Outcome {
	t.Helper()
	return m.Check(context.Background(), field, value, eval.Scope{Values: values})
}

func TestRequiredShortCircuitsLaterClauses(t *testing.T) {
	t.Parallel()

	field := model.Field{Name: "code", Validation: "Required() AND MinLength(5)"}
	got := check(t, NewMatcher(nil), field, "", nil)
	want := Outcome{Status: StatusInvalid, Message: "Code is required", Clause: "Required()"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestAgeScenario(t *testing.T) {
	t.Parallel()

	field := model.Field{Name: "age", Type: model.FieldTypeNumber, Validation: `Required() AND Min(18, "Must be 18 or older")`}
	m := NewMatcher(nil)
	cases := []struct {
		value any
		want  Outcome
	}{
		{"", Outcome{Status: StatusInvalid, Message: "Age is required", Clause: "Required()"}},
		{float64(15), Outcome{Status: StatusInvalid, Message: "Must be 18 or older", Clause: `Min(18, "Must be 18 or older")`}},
		{"15", Outcome{Status: StatusInvalid, Message: "Must be 18 or older", Clause: `Min(18, "Must be 18 or older")`}},
		{float64(21), Outcome{Status: StatusValid}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, check(t, m, field, tc.value, nil)); diff != "" {
			t.Fatalf("value %#v mismatch (-want +got):\n%s", tc.value, diff)
		}
	}
}

func TestClauseCatalogue(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)
	values := functions.Values{"startDate": "2024-01-10", "role": "admin"}
	cases := []struct {
		validation string
		value      any
		message    string
	}{
		{"MaxLength(3)", "abcd", "Field must be at most 3 characters"},
		{"LengthRange(2, 4)", "a", "Field must be between 2 and 4 characters"},
		{"LengthRange(2, 4)", "abc", ""},
		{"Max(100)", "150", "Field must be at most 100"},
		{"Range(1, 10)", float64(0), "Field must be between 1 and 10"},
		{`Pattern(/^[A-Z]{3}-\d{2,4}$/, "Use ABC-123")`, "abc-12", "Use ABC-123"},
		{`Pattern(/^[a-z]{3}-\d{2,4}$/i)`, "ABC-123", ""},
		{`Pattern("^\d+$")`, "12a", "Field format is invalid"},
		{`RegexWhen(/^x/, "Must start with x")`, "yes", "Must start with x"},
		{"Email", "not-an-email", "Field must be a valid email address"},
		{"Email()", "jane@example.com", ""},
		{"Phone()", "12", "Field must be a valid phone number"},
		{"URL()", "https://example.com/a", ""},
		{"Digits()", "12a", "Field must contain only digits"},
		{"Alpha()", "abc1", "Field must contain only letters"},
		{"AlphaNumeric()", "abc1", ""},
		{"Date()", "2024-13-45", "Field must be a valid date"},
		{"CreditCard()", "4111 1111 1111 1112", "Field must be a valid credit card number"},
		{"CreditCard()", "4111 1111 1111 1111", ""},
		{`ValidWhen(@{endDate} > @{startDate}, "End must follow start")`, "2024-01-05", "End must follow start"},
		{`InvalidWhen(@{role} == "admin", "Admins cannot request this")`, "x", "Admins cannot request this"},
		{`NotARule(1) AND MinLength(2)`, "a", "Field must be at least 2 characters"},
		{`Min(10) AND Email()`, "", ""},
	}
	for _, tc := range cases {
		field := model.Field{Name: "endDate", Label: "Field", Validation: tc.validation}
		scope := functions.Values{"startDate": values["startDate"], "role": values["role"], "endDate": tc.value}
		got := check(t, m, field, tc.value, scope)
		if got.Message != tc.message {
			t.Fatalf("%s with %#v: message %q, want %q", tc.validation, tc.value, got.Message, tc.message)
		}
	}
}

func TestMandatoryWhen(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)
	field := model.Field{Name: "justification", Validation: `MandatoryWhen(@{amount} > 1000, "Explain large amounts")`}

	got := check(t, m, field, "", functions.Values{"amount": float64(5000)})
	if got.Message != "Explain large amounts" {
		t.Fatalf("expected mandatory failure, got %#v", got)
	}
	got = check(t, m, field, "", functions.Values{"amount": float64(10)})
	if got.Status != StatusValid {
		t.Fatalf("expected valid when condition is false, got %#v", got)
	}
	if !m.Required(field, eval.Scope{Values: functions.Values{"amount": float64(5000)}}) {
		t.Fatalf("expected Required to follow MandatoryWhen")
	}
}

func TestSynthesisedConstraints(t *testing.T) {
	t.Parallel()

	maxLen := 3
	field := model.Field{Name: "qty", Required: true, MinValue: "1", MaxLength: &maxLen}
	m := NewMatcher(nil)
	if got := check(t, m, field, "", nil); got.Message != "Qty is required" {
		t.Fatalf("unexpected outcome %#v", got)
	}
	if got := check(t, m, field, "0", nil); got.Message != "Qty must be at least 1" {
		t.Fatalf("unexpected outcome %#v", got)
	}
	if got := check(t, m, field, "1000", nil); got.Message != "Qty must be at most 3 characters" {
		t.Fatalf("unexpected outcome %#v", got)
	}
}

func TestRequiredCheckbox(t *testing.T) {
	t.Parallel()

	field := model.Field{Name: "terms", Type: model.FieldTypeCheckbox, Required: true, Label: "Terms"}
	if got := check(t, NewMatcher(nil), field, false, nil); got.Message != "Terms is required" {
		t.Fatalf("unchecked required checkbox should fail, got %#v", got)
	}
}

func TestUniqueLifecycle(t *testing.T) {
	t.Parallel()

	backend := testsupport.NewBackend("jdoe").Gate()
	resolved := make(chan string, 1)
	checker := NewUniqueChecker(backend, "form-1", WithResolveFunc(func(field, value string, unique bool) {
		if !unique {
			resolved <- field + "=" + value
		}
	}))
	m := NewMatcher(nil, WithUniqueChecker(checker))
	field := model.Field{Name: "username", Validation: "Required() AND Unique()"}

	if got := check(t, m, field, "jdoe", nil); got.Status != StatusPending || got.Message != "" {
		t.Fatalf("expected pending outcome, got %#v", got)
	}
	if !checker.Pending("username") {
		t.Fatalf("expected lookup to be pending")
	}
	if got := check(t, m, field, "jdoe", nil); got.Status != StatusPending {
		t.Fatalf("expected still pending, got %#v", got)
	}

	backend.Release()
	if got := <-resolved; got != "username=jdoe" {
		t.Fatalf("unexpected resolution %q", got)
	}
	checker.Wait()

	got := check(t, m, field, "jdoe", nil)
	if got.Status != StatusInvalid || got.Message != "Username must be unique" {
		t.Fatalf("expected uniqueness failure, got %#v", got)
	}
	if backend.Calls() != 1 {
		t.Fatalf("expected a single backend call, got %d", backend.Calls())
	}
}

func TestUniqueFailsOpen(t *testing.T) {
	t.Parallel()

	checker := NewUniqueChecker(testsupport.NewBackend().Fail(errors.New("backend down")), "form-1")
	ctx := context.Background()
	if status := checker.Check(ctx, "email", "a@b.c"); status != UniquePending {
		t.Fatalf("expected pending, got %v", status)
	}
	checker.Wait()
	if status := checker.Check(ctx, "email", "a@b.c"); status != UniqueAvailable {
		t.Fatalf("expected fail-open availability, got %v", status)
	}
}

func TestUniqueStaleResponseIsOnlyCached(t *testing.T) {
	t.Parallel()

	backend := testsupport.NewBackend("old").Gate()
	var (
		mu    sync.Mutex
		fired []string
	)
	checker := NewUniqueChecker(backend, "form-1", WithResolveFunc(func(_, value string, _ bool) {
		mu.Lock()
		fired = append(fired, value)
		mu.Unlock()
	}))
	ctx := context.Background()

	checker.Check(ctx, "code", "old")
	checker.Invalidate("code", "new")
	checker.Check(ctx, "code", "new")
	backend.Release()
	checker.Wait()

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"new"}, fired); diff != "" {
		t.Fatalf("stale response must not notify (-want +got):\n%s", diff)
	}
	if status := checker.Check(ctx, "code", "old"); status != UniqueTaken {
		t.Fatalf("stale answer should still be cached, got %v", status)
	}
}

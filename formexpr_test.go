package formexpr_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	formexpr "github.com/goliatone/go-formexpr"
	"github.com/goliatone/go-formexpr/pkg/form"
	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

func TestImportOpenAPIBuildsWorkingSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	forms, err := formexpr.ImportOpenAPI(ctx, pkgopenapi.SourceFromFile("testdata/claims-api.yaml"))
	if err != nil {
		t.Fatalf("ImportOpenAPI returned error: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected one form, got %d", len(forms))
	}
	claim := forms[0]
	if claim.ID != "createClaim" || claim.Name != "Expense claim" {
		t.Fatalf("unexpected form header: %s %q", claim.ID, claim.Name)
	}
	if diff := cmp.Diff([]string{"category", "reason", "amount", "taxRate", "total", "invoice"}, claim.FieldNames()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	if claim.Metadata["owner"] != "finance" || claim.Metadata["method"] != "POST" {
		t.Fatalf("metadata not carried over: %v", claim.Metadata)
	}

	s, err := formexpr.NewSession(claim, form.WithDebounce(0))
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	defer s.Close()

	if s.Visible("reason") {
		t.Fatalf("reason must start hidden")
	}
	if err := s.Set("amount", "100"); err != nil {
		t.Fatalf("Set amount: %v", err)
	}
	if got, _ := s.Get("total"); got != 120.0 {
		t.Fatalf("total = %v, want 120", got)
	}
	if err := s.Set("total", 5); err == nil {
		t.Fatalf("read-only total must reject writes")
	}

	if err := s.Set("category", "other"); err != nil {
		t.Fatalf("Set category: %v", err)
	}
	if !s.Visible("reason") {
		t.Fatalf("reason must show once category is other")
	}
	errs := s.Validate(ctx)
	if errs["reason"] != "Tell us what the expense was for" {
		t.Fatalf("reason error = %q", errs["reason"])
	}
}

func TestImportOpenAPIReportsMissingDocuments(t *testing.T) {
	t.Parallel()

	if _, err := formexpr.ImportOpenAPI(context.Background(), pkgopenapi.SourceFromFile("testdata/missing.yaml")); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	res := formexpr.Evaluate(`CONCAT(first, " ", UPPER(last))`, map[string]any{"first": "Ada", "last": "lovelace"})
	if !res.OK || res.Value != "Ada LOVELACE" {
		t.Fatalf("unexpected result: %+v", res)
	}

	res = formexpr.Evaluate("NOT_A_FUNCTION(1)", nil)
	if res.OK || res.Value != "NOT_A_FUNCTION(1)" {
		t.Fatalf("unknown functions must degrade to the source text: %+v", res)
	}
}

func TestLoadFormsDefaultsToBundledForms(t *testing.T) {
	t.Parallel()

	store, err := formexpr.LoadForms(nil)
	if err != nil {
		t.Fatalf("LoadForms returned error: %v", err)
	}
	if _, ok := store.Form("expense-claim"); !ok {
		t.Fatalf("bundled expense-claim form missing: %v", store.IDs())
	}
}

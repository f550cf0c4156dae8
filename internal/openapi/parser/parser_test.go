package parser

import (
	"context"
	"sort"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
	"github.com/goliatone/go-formexpr/pkg/testsupport"
)

func parse(t *testing.T, document string, opts ...pkgopenapi.ParserOption) map[string]pkgopenapi.Operation {
	t.Helper()

	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile("inline.json"), []byte(document))
	if err != nil {
		t.Fatalf("construct document: %v", err)
	}
	operations, err := New(pkgopenapi.NewParserOptions(opts...)).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}
	return operations
}

func TestConvertSchemaHandlesRecursiveReferences(t *testing.T) {
	t.Parallel()

	const document = `{
  "openapi": "3.0.0",
  "info": { "title": "Cycle", "version": "1.0.0" },
  "paths": {},
  "components": {
    "schemas": {
      "Department": {
        "type": "object",
        "properties": {
          "manager": { "$ref": "#/components/schemas/Employee" }
        }
      },
      "Employee": {
        "type": "object",
        "properties": {
          "department": { "$ref": "#/components/schemas/Department" }
        }
      }
    }
  }
}`

	doc, err := openapi3.NewLoader().LoadFromData([]byte(document))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	department := convertSchema(doc.Components.Schemas["Department"])
	manager, ok := department.Properties["manager"]
	if !ok {
		t.Fatalf("expected manager property on Department schema")
	}
	back, ok := manager.Properties["department"]
	if !ok {
		t.Fatalf("expected department property on Employee schema")
	}
	if back.Ref == "" || len(back.Properties) != 0 {
		t.Fatalf("expected recursion to stop at a bare reference, got %+v", back)
	}
}

func TestOperationsMergesAllOfSchemas(t *testing.T) {
	t.Parallel()

	const document = `{
  "openapi": "3.0.0",
  "info": { "title": "AllOf", "version": "1.0.0" },
  "paths": {
    "/claims": {
      "post": {
        "operationId": "createClaim",
        "summary": "Create claim",
        "x-formexpr-meta-owner": "finance",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "allOf": [
                  {"$ref": "#/components/schemas/BaseClaim"},
                  {
                    "type": "object",
                    "required": ["email"],
                    "properties": {
                      "email": {"type": "string", "format": "email", "x-formexpr-unique": true}
                    }
                  }
                ]
              }
            }
          }
        },
        "responses": {
          "200": {"description": "ok"}
        }
      },
      "get": {
        "operationId": "listClaims",
        "responses": {
          "200": {"description": "ok"}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "BaseClaim": {
        "type": "object",
        "required": ["amount"],
        "properties": {
          "amount": {"type": "number", "minimum": 0.01, "x-vendor": "ignored"},
          "notes": {"type": "string", "nullable": true, "maxLength": 500}
        }
      }
    }
  }
}`

	operations := parse(t, document)
	if len(operations) != 2 {
		t.Fatalf("operations = %d, want 2", len(operations))
	}

	op, ok := operations["createClaim"]
	if !ok {
		t.Fatalf("operation createClaim not found")
	}
	if op.Method != "POST" || op.Path != "/claims" || op.Summary != "Create claim" {
		t.Fatalf("operation metadata mismatch: %+v", op)
	}
	if diff := cmp.Diff(map[string]any{"x-formexpr-meta-owner": "finance"}, op.Extensions); diff != "" {
		t.Fatalf("operation extensions mismatch (-want +got):\n%s", diff)
	}

	req := op.RequestBody
	if req.Type != "object" {
		t.Fatalf("request schema type = %q, want object", req.Type)
	}
	if diff := cmp.Diff([]string{"amount", "email"}, req.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	amount := req.Properties["amount"]
	if amount.Minimum == nil || *amount.Minimum != 0.01 {
		t.Fatalf("expected amount minimum 0.01, got %+v", amount)
	}
	if amount.Extensions != nil {
		t.Fatalf("foreign extensions must be dropped, got %v", amount.Extensions)
	}
	notes := req.Properties["notes"]
	if notes.Type != "string" || notes.MaxLength == nil || *notes.MaxLength != 500 {
		t.Fatalf("expected nullable string notes with maxLength, got %+v", notes)
	}
	email := req.Properties["email"]
	if email.Format != "email" || email.Extensions["x-formexpr-unique"] != true {
		t.Fatalf("expected email with unique extension, got %+v", email)
	}

	if operations["listClaims"].HasBody() {
		t.Fatalf("listClaims must not report a request body")
	}
}

func TestOperationsDerivesMissingIDs(t *testing.T) {
	t.Parallel()

	const document = `
openapi: 3.0.0
info:
  title: NoIDs
  version: 1.0.0
paths:
  /vendors:
    put:
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              properties:
                name:
                  type: string
      responses:
        "204":
          description: updated
`
	operations := parse(t, document)
	op, ok := operations["put:/vendors"]
	if !ok {
		t.Fatalf("expected derived id put:/vendors, got %v", operations)
	}
	if _, ok := op.RequestBody.Properties["name"]; !ok {
		t.Fatalf("expected form-encoded body to be parsed")
	}
}

func TestOperationsRejectsEmptyDocuments(t *testing.T) {
	t.Parallel()

	const document = `{"openapi": "3.0.0", "info": {"title": "Empty", "version": "1"}, "paths": {}}`

	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("empty.json"), []byte(document))
	if _, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc); err == nil {
		t.Fatalf("expected error for a document without operations")
	}

	operations := parse(t, document, pkgopenapi.WithAllowEmpty(true))
	if len(operations) != 0 {
		t.Fatalf("expected no operations, got %d", len(operations))
	}

	broken := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("broken.json"), []byte(`{"openapi": `))
	if _, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), broken); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestOperationsResolvesComponentReferences(t *testing.T) {
	t.Parallel()

	doc := testsupport.LoadDocument(t, "../../../testdata/claims-api.yaml")
	operations, err := New(pkgopenapi.NewParserOptions()).Operations(testsupport.Context(), doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}
	if diff := cmp.Diff([]string{"createClaim", "listClaims"}, sortedKeys(operations)); diff != "" {
		t.Fatalf("operation ids mismatch (-want +got):\n%s", diff)
	}

	create := operations["createClaim"]
	if create.Method != "POST" || create.Path != "/claims" {
		t.Fatalf("unexpected operation: %s %s", create.Method, create.Path)
	}
	if create.Extensions["x-formexpr-meta-owner"] != "finance" {
		t.Fatalf("operation extensions not kept: %v", create.Extensions)
	}
	body := create.RequestBody
	if diff := cmp.Diff([]string{"category", "amount"}, body.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	total := body.Properties["total"]
	if !total.ReadOnly || total.Extensions["x-formexpr-default"] != "ROUND(amount * (1 + taxRate), 2)" {
		t.Fatalf("total not converted: %+v", total)
	}
	if operations["listClaims"].HasBody() {
		t.Fatalf("listClaims must not carry a body")
	}
}

func sortedKeys(m map[string]pkgopenapi.Operation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package formexpr evaluates the expression language of approval forms:
// computed defaults, validation clauses and visibility rules, recomputed
// reactively as a user edits a form.
//
// The root package wires the most common entry points. The building blocks
// live under pkg/: eval for expressions, form for sessions, definition and
// openapi for loading form definitions.
package formexpr

import (
	"context"
	"fmt"
	"io/fs"

	internalLoader "github.com/goliatone/go-formexpr/internal/openapi/loader"
	internalParser "github.com/goliatone/go-formexpr/internal/openapi/parser"
	"github.com/goliatone/go-formexpr/pkg/definition"
	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/form"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/model"
	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

// Form aliases model.Form for callers that only need the root package.
type Form = model.Form

// Session aliases form.Session.
type Session = form.Session

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	cfg := pkgopenapi.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewParser constructs a parser backed by the internal implementation.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	cfg := pkgopenapi.NewParserOptions(options...)
	return internalParser.New(cfg)
}

// ImportOpenAPI loads an OpenAPI document and converts every operation with
// an object request body into a form, ordered by form id.
func ImportOpenAPI(ctx context.Context, src pkgopenapi.Source, options ...pkgopenapi.LoaderOption) ([]Form, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	ops, err := NewParser().Operations(ctx, doc)
	if err != nil {
		return nil, err
	}
	forms, err := pkgopenapi.FormsFromOperations(ops)
	if err != nil {
		return nil, fmt.Errorf("formexpr: import %s: %w", src.Location(), err)
	}
	return forms, nil
}

// LoadForms reads JSON and YAML form definitions from fsys. A nil fsys loads
// the bundled sample forms.
func LoadForms(fsys fs.FS) (*definition.Store, error) {
	if fsys == nil {
		fsys = definition.EmbeddedFS()
	}
	return definition.LoadFS(fsys)
}

// NewSession starts an editing session for def.
func NewSession(def Form, options ...form.Option) (*Session, error) {
	return form.New(def, options...)
}

// Evaluate evaluates a single expression against values. Failures degrade to
// a Result whose Value is the expression text.
func Evaluate(expression string, values map[string]any, options ...eval.Option) eval.Result {
	return eval.New(options...).Evaluate(expression, eval.Scope{Values: functions.Values(values)})
}

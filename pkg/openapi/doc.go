// Package openapi imports workflow form definitions from OpenAPI documents.
// Each operation with a request body becomes a form whose fields mirror the
// body's properties; x-formexpr-* extensions carry the default, validation and
// visibility expressions. The kin-openapi backed loader and parser live under
// internal/openapi and are constructed through the root package.
package openapi

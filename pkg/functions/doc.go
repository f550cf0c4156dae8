// Package functions is the dispatch table behind form expressions. Every
// built-in is a Definition registered by identifier; Registry.Call checks
// arity and runs the handler with lazily resolved Args.
//
// Handlers are pure with respect to the target field: they always return a
// canonical value (string, float64, bool, time.Time, []any, map[string]any
// or nil). Box converts that value into the representation a field of a
// given type stores.
//
// Coercion is permissive. Text that does not start with a number counts as
// 0, unparseable dates become the zero time.Time and format as "".
package functions

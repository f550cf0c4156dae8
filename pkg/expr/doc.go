// Package expr tokenizes the function-call shaped expressions embedded in
// form definitions. It never evaluates anything: Parse splits
// `NAME(arg1, arg2, ...)` into an uppercased name and raw argument strings,
// SplitClauses breaks a validation string on its `AND` joiner and SplitInfix
// finds top-level comparison, logical and arithmetic operators.
//
// All scanners share the same lexical rules: commas, operators and joiners
// only count at nesting depth 0 (parentheses, brackets and braces) and never
// inside a single- or double-quoted literal.
package expr

// Package form runs one open form: it holds the current field values,
// recomputes calculated default values when the fields they read change,
// evaluates visibility and read-only rules, and tracks each field's
// validation status through Untouched, Pending, Valid and Invalid.
//
// User edits arrive through Session.Set. Recomputation is debounced and runs
// as a single evaluation pass over a snapshot of the values; results are
// committed together and never schedule another pass, so a calculated field
// feeding another calculation cannot loop.
package form

// Package validation matches the clauses of a field's validation string
// (`Required() AND Min(18, "Must be 18 or older")`) against its current value.
// Clauses run left to right and the first failure is reported; clauses the
// catalogue does not recognise are skipped.
//
// Unique() clauses are asynchronous. UniqueChecker memoises backend answers
// per field/value pair, reports Pending while a lookup is in flight and fails
// open when the backend errors.
//
// Lint reports definition problems the runtime would otherwise tolerate
// silently.
package validation

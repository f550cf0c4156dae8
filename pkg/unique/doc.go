// Package unique provides validation.UniquenessBackend implementations: an
// HTTP client for the workflow service guarded by a circuit breaker, and a
// database/sql backend for offline checks.
package unique

package form

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/validation"
	"github.com/goliatone/go-formexpr/pkg/visibility"
)

// DefaultDebounce coalesces bursts of dependency edits before recomputing.
const DefaultDebounce = 100 * time.Millisecond

// Option customises a Session.
type Option func(*Session)

// WithEvaluator injects the expression engine. Defaults to eval.New().
func WithEvaluator(ev *eval.Evaluator) Option {
	return func(s *Session) {
		if ev != nil {
			s.evaluator = ev
		}
	}
}

// WithInitialValues opens the session in edit mode. Supplied values are kept
// as stored; their default expressions are not evaluated on load.
func WithInitialValues(values map[string]any) Option {
	return func(s *Session) {
		for k, v := range values {
			s.initial[k] = v
		}
	}
}

// WithBackend enables Unique() clauses against backend.
func WithBackend(backend validation.UniquenessBackend) Option {
	return func(s *Session) {
		s.backend = backend
	}
}

// WithInstanceID names the submission being edited so uniqueness lookups
// ignore it.
func WithInstanceID(id string) Option {
	return func(s *Session) {
		s.instanceID = id
	}
}

// WithDebounce overrides the recompute window. Zero recomputes synchronously
// on every Set.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithPrecedence evaluates visibility rules with `&&` binding tighter than
// `||` instead of the flat left-to-right reading.
func WithPrecedence() Option {
	return func(s *Session) {
		s.precedence = true
	}
}

// WithVisibilityEvaluator replaces the visibility rule evaluator.
func WithVisibilityEvaluator(ev visibility.Evaluator) Option {
	return func(s *Session) {
		s.visibility = ev
	}
}

// WithExtras exposes caller context to visibility rules through the
// `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(s *Session) {
		s.extras = extras
	}
}

// WithAllowCycles accepts definitions whose calculated fields depend on each
// other. Cyclic fields are evaluated once per pass in declaration order.
func WithAllowCycles() Option {
	return func(s *Session) {
		s.allowCycles = true
	}
}

// WithListener observes committed value changes.
func WithListener(fn Listener) Option {
	return func(s *Session) {
		if fn != nil {
			s.listeners = append(s.listeners, fn)
		}
	}
}

// WithStatusListener observes validation outcomes, including those settled
// asynchronously by uniqueness lookups.
func WithStatusListener(fn StatusListener) Option {
	return func(s *Session) {
		if fn != nil {
			s.statusListeners = append(s.statusListeners, fn)
		}
	}
}

// WithLogger routes session diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

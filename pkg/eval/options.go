package eval

import (
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formexpr/pkg/functions"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry swaps the function catalogue. Defaults to functions.Builtin().
func WithRegistry(reg *functions.Registry) Option {
	return func(e *Evaluator) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithLogger routes fail-soft diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock injects the time source used by TODAY, NOW and friends.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.env.Now = now
	}
}

// WithLocation sets the time zone date functions evaluate in.
func WithLocation(loc *time.Location) Option {
	return func(e *Evaluator) {
		e.env.Location = loc
	}
}

// WithUser provides the CURRENT_USER* context.
func WithUser(user functions.UserContext) Option {
	return func(e *Evaluator) {
		e.env.User = user
	}
}

// WithSequencer backs SEQUENCE().
func WithSequencer(seq functions.Sequencer) Option {
	return func(e *Evaluator) {
		e.env.Sequencer = seq
	}
}

// WithLookup backs LOOKUP().
func WithLookup(lookup functions.Lookuper) Option {
	return func(e *Evaluator) {
		e.env.Lookup = lookup
	}
}

// WithRand makes RANDOM* deterministic.
func WithRand(r *rand.Rand) Option {
	return func(e *Evaluator) {
		e.env.Rand = r
	}
}

// WithIDGenerator overrides UUID().
func WithIDGenerator(fn func() string) Option {
	return func(e *Evaluator) {
		e.env.NewID = fn
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formexpr/pkg/deps"
	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/model"
	"github.com/goliatone/go-formexpr/pkg/validation"
	"github.com/goliatone/go-formexpr/pkg/visibility"
	visexpr "github.com/goliatone/go-formexpr/pkg/visibility/expr"
)

var (
	// ErrUnknownField is returned when a write names a field the form does
	// not declare.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrReadOnly is returned when a user write targets a locked field.
	ErrReadOnly = errors.New("form: field is read-only")
)

// Origin tells listeners who produced a committed value.
type Origin int

const (
	// OriginUser marks writes made through Set.
	OriginUser Origin = iota
	// OriginEvaluator marks recomputed default values. They never schedule
	// further recomputation.
	OriginEvaluator
)

func (o Origin) String() string {
	if o == OriginEvaluator {
		return "evaluator"
	}
	return "user"
}

// Change is one committed value.
type Change struct {
	Field  string
	Value  any
	Origin Origin
}

// Listener observes committed changes. It is called without the session lock
// held and may read from the session.
type Listener func(Change)

// StatusListener observes validation outcomes as they are settled.
type StatusListener func(field string, outcome validation.Outcome)

// Session is the state of one open form: current values, the dependency
// plan, uniqueness cache and validation statuses. Sessions are independent of
// each other and safe for concurrent use.
type Session struct {
	form        model.Form
	graph       *deps.Graph
	evaluator   *eval.Evaluator
	matcher     *validation.Matcher
	unique      *validation.UniqueChecker
	backend     validation.UniquenessBackend
	visibility  visibility.Evaluator
	precedence  bool
	allowCycles bool
	debounce    time.Duration
	instanceID  string
	extras      map[string]any
	initial     map[string]any
	logger      logrus.FieldLogger

	listeners       []Listener
	statusListeners []StatusListener

	mu       sync.Mutex
	values   map[string]any
	computed map[string]any
	dirty    map[string]struct{}
	outcomes map[string]validation.Outcome
	timer    *time.Timer
}

// New opens a session for def. The definition is validated and its default
// value dependencies planned; a dependency cycle is rejected unless
// WithAllowCycles is set. Default values are evaluated once before New
// returns.
func New(def model.Form, opts ...Option) (*Session, error) {
	s := &Session{
		form:     def.Normalize(),
		debounce: DefaultDebounce,
		initial:  make(map[string]any),
		logger:   discardLogger(),
		values:   make(map[string]any),
		computed: make(map[string]any),
		dirty:    make(map[string]struct{}),
		outcomes: make(map[string]validation.Outcome),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if err := s.form.Validate(); err != nil {
		return nil, fmt.Errorf("form: validate definition: %w", err)
	}
	graph, err := deps.Plan(s.form)
	if err != nil {
		var cycle *deps.CycleError
		if !errors.As(err, &cycle) || !s.allowCycles {
			return nil, fmt.Errorf("form: plan %q: %w", s.form.ID, err)
		}
		s.logger.WithFields(logrus.Fields{"form": s.form.ID, "fields": cycle.Fields}).
			Warn("default values form a dependency cycle")
	}
	s.graph = graph

	if s.evaluator == nil {
		s.evaluator = eval.New(eval.WithLogger(s.logger))
	}
	if s.visibility == nil {
		visOpts := []visexpr.Option{visexpr.WithCalls(visibility.Engine(s.evaluator))}
		if s.precedence {
			visOpts = append(visOpts, visexpr.WithPrecedence())
		}
		s.visibility = visexpr.New(visOpts...)
	}
	s.unique = validation.NewUniqueChecker(s.backend, s.form.ID,
		validation.WithExcludeInstance(s.instanceID),
		validation.WithResolveFunc(s.uniqueResolved),
		validation.WithUniqueLogger(s.logger),
	)
	s.matcher = validation.NewMatcher(s.evaluator,
		validation.WithUniqueChecker(s.unique),
		validation.WithLogger(s.logger),
	)

	s.initialise()
	return s, nil
}

// initialise boxes the starting values and evaluates every default value
// expression in dependency order. Fields supplied through
// WithInitialValues keep their stored value.
func (s *Session) initialise() {
	for _, field := range s.form.Fields {
		s.values[field.Name] = s.box(s.initial[field.Name], field.Type)
	}
	for _, rec := range s.graph.Records() {
		if _, stored := s.initial[rec.Field]; stored {
			continue
		}
		value := s.compute(rec, s.values)
		s.values[rec.Field] = value
		s.computed[rec.Field] = value
	}
}

// Form returns the normalised definition.
func (s *Session) Form() model.Form { return s.form }

// Graph returns the dependency plan.
func (s *Session) Graph() *deps.Graph { return s.graph }

// Get returns the current value of name.
func (s *Session) Get(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of every current value.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Set records a user edit. The value is boxed for the field type and
// validated at once; dependent default values are recomputed after the
// debounce window.
func (s *Session) Set(name string, value any) error {
	s.mu.Lock()
	field, ok := s.form.Field(name)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if s.matcher.ReadOnly(field, s.scope(s.values, name)) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	boxed := s.box(value, field.Type)
	s.values[name] = boxed
	s.dirty[name] = struct{}{}
	if hasUnique(field) {
		s.unique.Invalidate(name, uniqueText(boxed))
	}
	outcome := s.check(context.Background(), field)
	if s.debounce > 0 {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.debounce, s.Flush)
	}
	s.mu.Unlock()

	s.notify([]Change{{Field: name, Value: boxed, Origin: OriginUser}})
	s.notifyStatus(map[string]validation.Outcome{name: outcome})
	if s.debounce == 0 {
		s.Flush()
	}
	return nil
}

// Flush runs the pending evaluation pass immediately: dependents of every
// field edited since the last pass are recomputed and committed together,
// then touched fields are revalidated.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(s.dirty))
	for _, name := range s.form.FieldNames() {
		if _, ok := s.dirty[name]; ok {
			changed = append(changed, name)
		}
	}
	s.dirty = make(map[string]struct{})

	changes := s.pass(changed)
	statuses := s.revalidate(context.Background())
	s.mu.Unlock()

	s.notify(changes)
	s.notifyStatus(statuses)
}

// pass recomputes the dependents of changed against a snapshot of the
// current values and commits the results in one batch. Must hold mu.
func (s *Session) pass(changed []string) []Change {
	targets := s.graph.Dependents(changed...)
	if len(targets) == 0 {
		return nil
	}
	snapshot := s.snapshot()
	for _, name := range targets {
		rec, ok := s.graph.Record(name)
		if !ok {
			continue
		}
		snapshot[name] = s.compute(rec, snapshot)
	}

	var changes []Change
	for _, name := range targets {
		value := snapshot[name]
		s.computed[name] = value
		if sameValue(s.values[name], value) {
			continue
		}
		s.values[name] = value
		changes = append(changes, Change{Field: name, Value: value, Origin: OriginEvaluator})
	}
	s.logger.WithFields(logrus.Fields{"form": s.form.ID, "changed": changed, "recomputed": len(targets)}).
		Debug("evaluation pass committed")
	return changes
}

// compute evaluates rec against values and boxes the result for the target
// field. Failed evaluations of typed fields yield an empty value instead of
// the expression text.
func (s *Session) compute(rec deps.Record, values map[string]any) any {
	res := s.evaluator.Evaluate(rec.Expression, s.scope(values, rec.Field))
	if !res.OK && (rec.FieldType.IsNumeric() || rec.FieldType.IsTemporal() || rec.FieldType == model.FieldTypeCheckbox) {
		return s.box(nil, rec.FieldType)
	}
	return s.box(res.Value, rec.FieldType)
}

// Close stops the debounce timer and waits for outstanding uniqueness
// lookups. Pending edits are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.unique.Wait()
}

// Wait blocks until every outstanding uniqueness lookup has settled.
func (s *Session) Wait() {
	s.unique.Wait()
}

func (s *Session) scope(values map[string]any, field string) eval.Scope {
	return eval.Scope{
		Values:     functions.Values(values),
		Field:      field,
		FieldValid: s.fieldValid(values),
	}
}

// fieldValid backs CheckValid(): a field's last outcome when it has one,
// otherwise a fresh check. Mutual references resolve as valid.
func (s *Session) fieldValid(values map[string]any) func(string) bool {
	checking := make(map[string]bool)
	var valid func(string) bool
	valid = func(name string) bool {
		if outcome, ok := s.outcomes[name]; ok {
			return !outcome.Failed()
		}
		field, ok := s.form.Field(name)
		if !ok || checking[name] {
			return true
		}
		checking[name] = true
		defer delete(checking, name)
		scope := eval.Scope{Values: functions.Values(values), Field: name, FieldValid: valid}
		return !s.matcher.Check(context.Background(), field, values[name], scope).Failed()
	}
	return valid
}

func (s *Session) box(value any, fieldType model.FieldType) any {
	return functions.BoxIn(value, fieldType, s.evaluator.Location())
}

func (s *Session) snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Session) notify(changes []Change) {
	for _, change := range changes {
		for _, fn := range s.listeners {
			fn(change)
		}
	}
}

func (s *Session) notifyStatus(outcomes map[string]validation.Outcome) {
	if len(s.statusListeners) == 0 {
		return
	}
	for _, name := range s.form.FieldNames() {
		outcome, ok := outcomes[name]
		if !ok {
			continue
		}
		for _, fn := range s.statusListeners {
			fn(name, outcome)
		}
	}
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return functions.TypeOf(a) == functions.TypeOf(b) && functions.Equal(a, b)
}

func hasUnique(field model.Field) bool {
	for _, clause := range validation.ParseClauses(field.Validation) {
		if clause.Kind == validation.KindUnique {
			return true
		}
	}
	return false
}

func uniqueText(v any) string {
	return strings.TrimSpace(functions.ToString(v))
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

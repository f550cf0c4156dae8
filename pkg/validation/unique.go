package validation

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// UniquenessBackend answers whether value is unused for field across the
// form's submissions, ignoring excludeInstanceID (the submission being
// edited).
type UniquenessBackend interface {
	CheckUnique(ctx context.Context, formID, field, value, excludeInstanceID string) (bool, error)
}

// UniqueStatus is the cached answer for one field/value pair.
type UniqueStatus int

const (
	UniquePending UniqueStatus = iota
	UniqueAvailable
	UniqueTaken
)

// ResolveFunc observes a lookup that finished for the field's current value.
type ResolveFunc func(field, value string, unique bool)

// UniqueChecker memoises uniqueness lookups for one form session. Lookups run
// on their own goroutine; at most one is in flight per field/value pair.
type UniqueChecker struct {
	backend    UniquenessBackend
	formID     string
	instanceID string
	onResolve  ResolveFunc
	logger     logrus.FieldLogger

	mu      sync.Mutex
	cache   map[string]bool
	pending map[string]struct{}
	current map[string]string
	wg      sync.WaitGroup
}

// UniqueOption configures a UniqueChecker.
type UniqueOption func(*UniqueChecker)

// WithExcludeInstance skips the submission being edited.
func WithExcludeInstance(id string) UniqueOption {
	return func(c *UniqueChecker) { c.instanceID = id }
}

// WithResolveFunc registers the callback fired when a lookup for the current
// value completes.
func WithResolveFunc(fn ResolveFunc) UniqueOption {
	return func(c *UniqueChecker) { c.onResolve = fn }
}

// WithUniqueLogger routes backend failures to logger.
func WithUniqueLogger(logger logrus.FieldLogger) UniqueOption {
	return func(c *UniqueChecker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewUniqueChecker builds a checker for formID. A nil backend treats every
// value as unique.
func NewUniqueChecker(backend UniquenessBackend, formID string, opts ...UniqueOption) *UniqueChecker {
	c := &UniqueChecker{
		backend: backend,
		formID:  formID,
		logger:  discardLogger(),
		cache:   make(map[string]bool),
		pending: make(map[string]struct{}),
		current: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func cacheKey(field, value string) string { return field + ":" + value }

// Check returns the cached status for field/value, starting a backend lookup
// on first sight. The lookup outlives ctx cancellation.
func (c *UniqueChecker) Check(ctx context.Context, field, value string) UniqueStatus {
	if c.backend == nil {
		return UniqueAvailable
	}
	key := cacheKey(field, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current[field] = value
	if unique, ok := c.cache[key]; ok {
		if unique {
			return UniqueAvailable
		}
		return UniqueTaken
	}
	if _, ok := c.pending[key]; ok {
		return UniquePending
	}
	c.pending[key] = struct{}{}
	c.wg.Add(1)
	go c.lookup(context.WithoutCancel(ctx), field, value)
	return UniquePending
}

func (c *UniqueChecker) lookup(ctx context.Context, field, value string) {
	defer c.wg.Done()

	unique, err := c.backend.CheckUnique(ctx, c.formID, field, value, c.instanceID)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"field": field, "form": c.formID}).
			WithError(err).Warn("uniqueness check failed, treating value as unique")
		unique = true
	}

	key := cacheKey(field, value)
	c.mu.Lock()
	c.cache[key] = unique
	delete(c.pending, key)
	fresh := c.current[field] == value
	c.mu.Unlock()

	// Stale answers stay cached for when the user types the old value again.
	if fresh && c.onResolve != nil {
		c.onResolve(field, value, unique)
	}
}

// Invalidate records that field now holds value and drops cached answers for
// its other values.
func (c *UniqueChecker) Invalidate(field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current[field] = value
	prefix := field + ":"
	for key := range c.cache {
		if strings.HasPrefix(key, prefix) && key != cacheKey(field, value) {
			delete(c.cache, key)
		}
	}
}

// Pending reports whether a lookup for field's current value is outstanding.
func (c *UniqueChecker) Pending(field string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.current[field]
	if !ok {
		return false
	}
	_, pending := c.pending[cacheKey(field, value)]
	return pending
}

// Wait blocks until every in-flight lookup has finished.
func (c *UniqueChecker) Wait() {
	c.wg.Wait()
}

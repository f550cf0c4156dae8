package functions

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User is the authenticated user's profile as seen by CURRENT_USER*.
type User struct {
	ID         string `json:"id" yaml:"id" mapstructure:"id"`
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	Email      string `json:"email" yaml:"email" mapstructure:"email"`
	Department string `json:"department" yaml:"department" mapstructure:"department"`
	Role       string `json:"role" yaml:"role" mapstructure:"role"`
	SBU        string `json:"sbu" yaml:"sbu" mapstructure:"sbu"`
	Branch     string `json:"branch" yaml:"branch" mapstructure:"branch"`
	Corporate  string `json:"corporate" yaml:"corporate" mapstructure:"corporate"`
}

// UserContext exposes the current user.
type UserContext interface {
	CurrentUser() User
}

// CurrentUser lets a plain User act as a UserContext.
func (u User) CurrentUser() User { return u }

// ValueSource reads current form values by field name.
type ValueSource interface {
	Get(name string) (any, bool)
}

// Values adapts a plain map into a ValueSource.
type Values map[string]any

// Get implements ValueSource.
func (v Values) Get(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// Sequencer hands out SEQUENCE numbers per prefix.
type Sequencer interface {
	Next(prefix string) int64
}

// MemorySequencer is an in-process Sequencer.
type MemorySequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequencer returns an empty in-process sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counters: make(map[string]int64)}
}

// Next implements Sequencer.
func (s *MemorySequencer) Next(prefix string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return s.counters[prefix]
}

// Lookuper resolves LOOKUP(key, source) against reference data.
type Lookuper interface {
	Lookup(source, key string) (any, bool)
}

// MapLookup is a Lookuper over static tables keyed by source name.
type MapLookup map[string]map[string]any

// Lookup implements Lookuper.
func (m MapLookup) Lookup(source, key string) (any, bool) {
	table, ok := m[source]
	if !ok {
		return nil, false
	}
	val, ok := table[key]
	return val, ok
}

// Env carries everything a handler may read besides its arguments. The zero
// value is usable: UTC, wall clock, no user, no reference data.
type Env struct {
	Now       func() time.Time
	Location  *time.Location
	User      UserContext
	Values    ValueSource
	Sequencer Sequencer
	Lookup    Lookuper
	Rand      *rand.Rand
	NewID     func() string
	// Field is the name of the field whose expression is being evaluated.
	Field string
	// FieldValid reports whether another field currently passes validation.
	FieldValid func(name string) bool
}

func (e *Env) location() *time.Location {
	if e == nil || e.Location == nil {
		return time.UTC
	}
	return e.Location
}

func (e *Env) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now().In(e.location())
	}
	return time.Now().In(e.location())
}

func (e *Env) user() User {
	if e == nil || e.User == nil {
		return User{}
	}
	return e.User.CurrentUser()
}

func (e *Env) value(name string) (any, bool) {
	if e == nil || e.Values == nil {
		return nil, false
	}
	return e.Values.Get(name)
}

var (
	fallbackRandMu sync.Mutex
	fallbackRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func (e *Env) float64() float64 {
	if e != nil && e.Rand != nil {
		return e.Rand.Float64()
	}
	fallbackRandMu.Lock()
	defer fallbackRandMu.Unlock()
	return fallbackRand.Float64()
}

func (e *Env) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if e != nil && e.Rand != nil {
		return e.Rand.Intn(n)
	}
	fallbackRandMu.Lock()
	defer fallbackRandMu.Unlock()
	return fallbackRand.Intn(n)
}

func (e *Env) newID() string {
	if e != nil && e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Env) sequence(prefix string) string {
	var n int64 = 1
	if e != nil && e.Sequencer != nil {
		n = e.Sequencer.Next(prefix)
	}
	return fmt.Sprintf("%s%05d", prefix, n)
}

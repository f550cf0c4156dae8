package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Category groups functions in the catalogue.
type Category string

const (
	CategoryString     Category = "String"
	CategoryNumber     Category = "Number"
	CategoryDate       Category = "Date"
	CategoryBoolean    Category = "Boolean"
	CategoryValidation Category = "Validation"
	CategoryUtility    Category = "Utility"
	CategoryArray      Category = "Array"
)

// Variadic marks a definition without an upper arity bound.
const Variadic = -1

var (
	// ErrUnknownFunction is returned for names missing from the registry.
	ErrUnknownFunction = errors.New("functions: unknown function")
	// ErrArity is returned when a call has too few or too many arguments.
	ErrArity = errors.New("functions: wrong number of arguments")
)

// Handler computes a function result from its arguments. Results are
// canonical values: string, float64, bool, time.Time, []any,
// map[string]any or nil.
type Handler func(args *Args) (any, error)

// Definition describes one catalogue entry.
type Definition struct {
	Name        string
	Category    Category
	Syntax      string
	Description string
	MinArgs     int
	MaxArgs     int
	Handler     Handler
}

// Registry maps function identifiers to their definitions. Lookups are
// case-insensitive.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the shared registry holding the standard catalogue.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin = NewRegistry()
		for _, group := range [][]Definition{
			stringFunctions(),
			numberFunctions(),
			dateFunctions(),
			logicFunctions(),
			validationFunctions(),
			utilityFunctions(),
			arrayFunctions(),
		} {
			if err := builtin.Register(group...); err != nil {
				panic(err)
			}
		}
	})
	return builtin
}

// Clone copies the registry so callers can add functions without touching
// the shared catalogue.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for k, def := range r.defs {
		out.defs[k] = def
	}
	return out
}

// Register adds definitions. Duplicate names are rejected.
func (r *Registry) Register(defs ...Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		key := strings.ToUpper(strings.TrimSpace(def.Name))
		if key == "" || def.Handler == nil {
			return fmt.Errorf("functions: register %q: name and handler are required", def.Name)
		}
		if _, exists := r.defs[key]; exists {
			return fmt.Errorf("functions: register %q: already registered", def.Name)
		}
		r.defs[key] = def
	}
	return nil
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[strings.ToUpper(name)]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Definitions returns every definition ordered by category then name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Call dispatches name with args after checking its arity.
func (r *Registry) Call(name string, args *Args) (any, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	n := args.Len()
	if n < def.MinArgs || (def.MaxArgs != Variadic && n > def.MaxArgs) {
		return nil, fmt.Errorf("%w: %s takes %s, got %d", ErrArity, def.Name, def.arity(), n)
	}
	return def.Handler(args)
}

func (d Definition) arity() string {
	switch {
	case d.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", d.MinArgs)
	case d.MinArgs == d.MaxArgs:
		return fmt.Sprintf("%d", d.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", d.MinArgs, d.MaxArgs)
	}
}

// fn is shorthand for building catalogue entries.
func fn(name string, cat Category, minArgs, maxArgs int, syntax, desc string, h Handler) Definition {
	return Definition{
		Name:        name,
		Category:    cat,
		Syntax:      syntax,
		Description: desc,
		MinArgs:     minArgs,
		MaxArgs:     maxArgs,
		Handler:     h,
	}
}

// unary adapts a single-value transform.
func unary(f func(a *Args) any) Handler {
	return func(a *Args) (any, error) { return f(a), nil }
}

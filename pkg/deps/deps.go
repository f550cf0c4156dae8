// Package deps extracts field dependencies from calculated default-value
// expressions and orders calculated fields for recomputation.
package deps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formexpr/pkg/expr"
	"github.com/goliatone/go-formexpr/pkg/model"
)

// Analyze returns the known field names read by the outer call of
// expression, in argument order without duplicates. Only the top-level
// arguments are inspected: an argument counts when it is unquoted and its
// trimmed text is exactly a known field name, or when it is an `@{name}`
// marker naming a known field.
func Analyze(expression string, fieldNames []string) []string {
	call, ok := expr.Parse(expression)
	if !ok || len(call.Args) == 0 {
		return nil
	}

	known := make(map[string]struct{}, len(fieldNames))
	for _, name := range fieldNames {
		known[name] = struct{}{}
	}

	var (
		out  []string
		seen = make(map[string]struct{})
	)
	for _, arg := range call.Args {
		if expr.IsQuoted(arg) {
			continue
		}
		name := strings.TrimSpace(arg)
		if ref, isRef := expr.FieldRef(name); isRef {
			name = ref
		}
		if _, ok := known[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Record describes one calculated field.
type Record struct {
	Field        string
	Expression   string
	FieldType    model.FieldType
	Dependencies []string
}

// Calculated reports whether the field must be recomputed when a dependency
// changes. Fields without dependencies are evaluated once.
func (r Record) Calculated() bool { return len(r.Dependencies) > 0 }

// CycleError reports calculated fields that depend on each other.
type CycleError struct {
	Fields []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("deps: dependency cycle between fields %s", strings.Join(e.Fields, ", "))
}

// Graph is the immutable dependency plan of a form session.
type Graph struct {
	records    map[string]Record
	order      []string
	dependents map[string][]string
	cyclic     []string
}

// Plan analyses every field with a default-value expression. Records are
// built once; the returned graph never changes afterwards. When calculated
// fields form a cycle the graph is still returned (with the cyclic fields
// appended to the order in declaration order) together with a *CycleError.
func Plan(form model.Form) (*Graph, error) {
	names := form.FieldNames()
	g := &Graph{
		records:    make(map[string]Record),
		dependents: make(map[string][]string),
	}

	var declared []string
	for _, field := range form.Fields {
		if !field.HasDefault() {
			continue
		}
		deps := Analyze(field.DefaultValue, names)
		// a field never depends on itself
		filtered := deps[:0:0]
		for _, dep := range deps {
			if dep != field.Name {
				filtered = append(filtered, dep)
			}
		}
		g.records[field.Name] = Record{
			Field:        field.Name,
			Expression:   field.DefaultValue,
			FieldType:    model.ParseFieldType(string(field.Type)),
			Dependencies: filtered,
		}
		declared = append(declared, field.Name)
		for _, dep := range filtered {
			g.dependents[dep] = append(g.dependents[dep], field.Name)
		}
	}

	g.order, g.cyclic = topoSort(declared, g.records)
	if len(g.cyclic) > 0 {
		return g, &CycleError{Fields: append([]string(nil), g.cyclic...)}
	}
	return g, nil
}

// topoSort orders calculated fields so every field follows the calculated
// fields it reads (Kahn). Ties keep declaration order.
func topoSort(declared []string, records map[string]Record) ([]string, []string) {
	position := make(map[string]int, len(declared))
	for i, name := range declared {
		position[name] = i
	}

	indegree := make(map[string]int, len(declared))
	edges := make(map[string][]string)
	for _, name := range declared {
		for _, dep := range records[name].Dependencies {
			if _, calculated := records[dep]; !calculated {
				continue
			}
			indegree[name]++
			edges[dep] = append(edges[dep], name)
		}
	}

	var ready []string
	for _, name := range declared {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(declared))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, child := range edges[next] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(order) == len(declared) {
		return order, nil
	}
	var cyclic []string
	for _, name := range declared {
		if indegree[name] > 0 {
			cyclic = append(cyclic, name)
		}
	}
	return append(order, cyclic...), cyclic
}

// Record returns the record for a calculated field.
func (g *Graph) Record(field string) (Record, bool) {
	rec, ok := g.records[field]
	return rec, ok
}

// Records returns all records in evaluation order.
func (g *Graph) Records() []Record {
	out := make([]Record, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.records[name])
	}
	return out
}

// Order returns calculated field names in evaluation order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Cyclic returns the fields involved in a dependency cycle, if any.
func (g *Graph) Cyclic() []string {
	return append([]string(nil), g.cyclic...)
}

// Dependents returns every calculated field that must be recomputed after
// the given fields changed, including transitive dependents, in evaluation
// order.
func (g *Graph) Dependents(changed ...string) []string {
	affected := make(map[string]struct{})
	queue := append([]string(nil), changed...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dependent := range g.dependents[name] {
			if _, seen := affected[dependent]; seen {
				continue
			}
			affected[dependent] = struct{}{}
			queue = append(queue, dependent)
		}
	}

	out := make([]string, 0, len(affected))
	for _, name := range g.order {
		if _, ok := affected[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

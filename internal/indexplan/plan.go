// Package indexplan declares the indexes each pagination query shape needs
// and applies them to a store. Provisioning runs from the CLI, never on the
// request path.
package indexplan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// Key is one indexed field with its direction.
type Key struct {
	Field     repository.Field
	Direction repository.Direction
}

// Index is a named compound index. Primary indexes are created with the
// table and are never provisioned by Apply.
type Index struct {
	Name    string
	Keys    []Key
	Unique  bool
	Primary bool
}

func (idx Index) String() string {
	parts := make([]string, len(idx.Keys))
	for i, k := range idx.Keys {
		parts[i] = string(k.Field) + " " + k.Direction.String()
	}
	var flags string
	if idx.Unique {
		flags = " unique"
	}
	if idx.Primary {
		flags += " primary"
	}
	return fmt.Sprintf("%s (%s)%s", idx.Name, strings.Join(parts, ", "), flags)
}

// Plan is the full set of indexes for one collection.
type Plan struct {
	Collection string
	Indexes    []Index
}

// Default is the plan for the exams collection. Every secondary index ends
// with the id so that (timestamp, id) keys are served in order.
func Default() Plan {
	asc := func(f repository.Field) Key { return Key{Field: f, Direction: repository.Asc} }
	desc := func(f repository.Field) Key { return Key{Field: f, Direction: repository.Desc} }
	return Plan{
		Collection: "exams",
		Indexes: []Index{
			{Name: "exams_pkey", Keys: []Key{asc(repository.FieldID)}, Unique: true, Primary: true},
			{Name: "idx_created_at", Keys: []Key{desc(repository.FieldCreatedAt), desc(repository.FieldID)}},
			{Name: "idx_status_result", Keys: []Key{asc(repository.FieldStatus), desc(repository.FieldResultAt), desc(repository.FieldID)}},
			{Name: "idx_patient_collected", Keys: []Key{asc(repository.FieldPatientID), desc(repository.FieldCollectedAt), desc(repository.FieldID)}},
		},
	}
}

// Validate rejects plans with unnamed, empty or duplicate indexes.
func (p Plan) Validate() error {
	var errs []error
	names := make(map[string]struct{}, len(p.Indexes))
	for i, idx := range p.Indexes {
		if idx.Name == "" {
			errs = append(errs, fmt.Errorf("index %d has no name", i))
		}
		if _, dup := names[idx.Name]; dup {
			errs = append(errs, fmt.Errorf("index %q declared twice", idx.Name))
		}
		names[idx.Name] = struct{}{}
		if len(idx.Keys) == 0 {
			errs = append(errs, fmt.Errorf("index %q has no fields", idx.Name))
		}
		fields := make(map[repository.Field]struct{}, len(idx.Keys))
		for _, k := range idx.Keys {
			if !k.Field.Known() {
				errs = append(errs, fmt.Errorf("index %q: unknown field %q", idx.Name, k.Field))
			}
			if _, dup := fields[k.Field]; dup {
				errs = append(errs, fmt.Errorf("index %q: field %q repeated", idx.Name, k.Field))
			}
			fields[k.Field] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// Shape is the part of a query that decides index usage: the equality
// filters followed by the sort key.
type Shape struct {
	Strategy  string
	Variant   string
	Equality  []repository.Field
	Sort      []repository.Field
	Direction repository.Direction
}

// ShapeOf derives the shape of a built query.
func ShapeOf(strategy, variant string, q repository.Query) Shape {
	eq := make([]repository.Field, len(q.Filters))
	for i, f := range q.Filters {
		eq[i] = f.Field
	}
	return Shape{Strategy: strategy, Variant: variant, Equality: eq, Sort: q.Sort, Direction: q.Direction}
}

func (s Shape) String() string {
	name := s.Strategy
	if s.Variant != "" {
		name += "/" + s.Variant
	}
	eq := make([]string, len(s.Equality))
	for i, f := range s.Equality {
		eq[i] = string(f)
	}
	sort := make([]string, len(s.Sort))
	for i, f := range s.Sort {
		sort[i] = string(f)
	}
	return fmt.Sprintf("%s [eq: %s] [sort: %s %s]", name, strings.Join(eq, ", "), strings.Join(sort, ", "), s.Direction)
}

// Covers reports whether idx serves s without a scan: the index starts with
// the equality fields in any order, then continues with the sort fields whose
// directions are either all equal to the query's or all reversed.
func (idx Index) Covers(s Shape) bool {
	if len(idx.Keys) < len(s.Equality)+len(s.Sort) {
		return false
	}
	eq := make(map[repository.Field]struct{}, len(s.Equality))
	for _, f := range s.Equality {
		eq[f] = struct{}{}
	}
	for _, k := range idx.Keys[:len(s.Equality)] {
		if _, ok := eq[k.Field]; !ok {
			return false
		}
	}
	var reversed bool
	for j, f := range s.Sort {
		k := idx.Keys[len(s.Equality)+j]
		if k.Field != f {
			return false
		}
		flipped := k.Direction != s.Direction
		if j == 0 {
			reversed = flipped
		} else if flipped != reversed {
			return false
		}
	}
	return true
}

// Finding records which index, if any, serves a shape.
type Finding struct {
	Shape Shape
	Index string
}

// Safe reports whether some declared index covers the shape.
func (f Finding) Safe() bool { return f.Index != "" }

// Check matches every shape against the plan. The first covering index wins.
func Check(p Plan, shapes []Shape) []Finding {
	out := make([]Finding, 0, len(shapes))
	for _, s := range shapes {
		f := Finding{Shape: s}
		for _, idx := range p.Indexes {
			if idx.Covers(s) {
				f.Index = idx.Name
				break
			}
		}
		out = append(out, f)
	}
	return out
}

// Unsafe filters findings down to the uncovered shapes.
func Unsafe(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if !f.Safe() {
			out = append(out, f)
		}
	}
	return out
}

package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
)

// Field is a logical exam field a query may sort, bound or filter on.
// Adapters translate it to their physical column or attribute name.
type Field string

const (
	FieldID          Field = "id"
	FieldPatientID   Field = "patient_id"
	FieldStatus      Field = "status"
	FieldCollectedAt Field = "collected_at"
	FieldResultAt    Field = "result_at"
	FieldCreatedAt   Field = "created_at"
)

type fieldKind int

const (
	kindInt fieldKind = iota
	kindString
	kindTime
)

var fieldKinds = map[Field]fieldKind{
	FieldID:          kindInt,
	FieldPatientID:   kindString,
	FieldStatus:      kindString,
	FieldCollectedAt: kindTime,
	FieldResultAt:    kindTime,
	FieldCreatedAt:   kindTime,
}

// Known reports whether f is addressable in a query.
func (f Field) Known() bool {
	_, ok := fieldKinds[f]
	return ok
}

// Direction is the sort direction applied to every key of a query.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Equal restricts a query to records whose field equals Value.
type Equal struct {
	Field Field
	Value any
}

// Bound limits the sort key from one side. Values is a prefix of the sort
// tuple, so a single timestamp can bound a (timestamp, id) key.
// Bounds are expressed in key order, independent of Direction.
type Bound struct {
	Values    []any
	Inclusive bool
}

// Query is what a pagination strategy asks a store adapter to run.
type Query struct {
	Sort      []Field
	Direction Direction
	Filters   []Equal
	Lower     *Bound
	Upper     *Bound
	Skip      int
	Limit     int
}

// Validate rejects queries no adapter should execute. Every failure wraps
// ErrInvalidQuery.
func (q Query) Validate() error {
	if len(q.Sort) == 0 {
		return invalidQuery("sort key is required")
	}
	seen := make(map[Field]struct{}, len(q.Sort))
	for _, f := range q.Sort {
		if !f.Known() {
			return invalidQuery("unknown sort field %q", f)
		}
		if _, dup := seen[f]; dup {
			return invalidQuery("sort field %q repeated", f)
		}
		seen[f] = struct{}{}
	}
	if q.Limit < 1 {
		return invalidQuery("limit must be positive, got %d", q.Limit)
	}
	if q.Skip < 0 {
		return invalidQuery("skip must not be negative, got %d", q.Skip)
	}
	for _, eq := range q.Filters {
		if !eq.Field.Known() {
			return invalidQuery("unknown filter field %q", eq.Field)
		}
		if !kindMatches(fieldKinds[eq.Field], eq.Value) {
			return invalidQuery("filter %q has value of type %T", eq.Field, eq.Value)
		}
	}
	for _, side := range []struct {
		name string
		b    *Bound
	}{{"lower", q.Lower}, {"upper", q.Upper}} {
		name, b := side.name, side.b
		if b == nil {
			continue
		}
		if len(b.Values) == 0 || len(b.Values) > len(q.Sort) {
			return invalidQuery("%s bound has %d values for a %d-field sort key", name, len(b.Values), len(q.Sort))
		}
		for i, v := range b.Values {
			if !kindMatches(fieldKinds[q.Sort[i]], v) {
				return invalidQuery("%s bound on %q has value of type %T", name, q.Sort[i], v)
			}
		}
	}
	if q.Lower != nil && q.Upper != nil {
		n := min(len(q.Lower.Values), len(q.Upper.Values))
		c := CompareTuples(q.Lower.Values[:n], q.Upper.Values[:n])
		if c > 0 {
			return invalidQuery("lower bound %s is above upper bound %s", formatTuple(q.Lower.Values), formatTuple(q.Upper.Values))
		}
		sameLen := len(q.Lower.Values) == len(q.Upper.Values)
		if c == 0 && sameLen && !(q.Lower.Inclusive && q.Upper.Inclusive) {
			return invalidQuery("bounds %s exclude each other", formatTuple(q.Lower.Values))
		}
	}
	return nil
}

func invalidQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

func kindMatches(k fieldKind, v any) bool {
	switch v.(type) {
	case int64:
		return k == kindInt
	case string:
		return k == kindString
	case time.Time:
		return k == kindTime
	}
	return false
}

func formatTuple(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if t, ok := v.(time.Time); ok {
			parts[i] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FieldValue extracts f from r. The second result is false when the record
// has no value for f (a pending exam has no result timestamp).
func FieldValue(r model.ExamRecord, f Field) (any, bool) {
	switch f {
	case FieldID:
		return r.ID, true
	case FieldPatientID:
		return r.PatientID, true
	case FieldStatus:
		return string(r.Status), true
	case FieldCollectedAt:
		return r.CollectedAt, true
	case FieldCreatedAt:
		return r.CreatedAt, true
	case FieldResultAt:
		if r.ResultAt == nil {
			return nil, false
		}
		return *r.ResultAt, true
	}
	return nil, false
}

// CompareValues orders two values of the same field kind.
// Values of different kinds compare as equal.
func CompareValues(a, b any) int {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return 0
}

// Match reports whether r satisfies the filters and bounds of q and returns
// its sort key. Records without a value for some sort field never match.
func (q Query) Match(r model.ExamRecord) ([]any, bool) {
	key := make([]any, len(q.Sort))
	for i, f := range q.Sort {
		v, ok := FieldValue(r, f)
		if !ok {
			return nil, false
		}
		key[i] = v
	}
	for _, eq := range q.Filters {
		v, ok := FieldValue(r, eq.Field)
		if !ok || CompareValues(v, eq.Value) != 0 {
			return nil, false
		}
	}
	if q.Lower != nil {
		c := CompareTuples(key, q.Lower.Values)
		if c < 0 || (c == 0 && !q.Lower.Inclusive) {
			return nil, false
		}
	}
	if q.Upper != nil {
		c := CompareTuples(key, q.Upper.Values)
		if c > 0 || (c == 0 && !q.Upper.Inclusive) {
			return nil, false
		}
	}
	return key, true
}

// CompareTuples compares a and b lexicographically over their common length.
func CompareTuples(a, b []any) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

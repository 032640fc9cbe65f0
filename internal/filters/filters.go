// Package filters implements the predicate algebra pushed down to adapters:
// equality, inequality, ranges, null checks, LIKE patterns, and the
// Impossible sentinel used to short-circuit I/O when a scan can return no
// rows.
package filters

import (
	"bytes"
	"fmt"
	"time"
)

// Operator is a comparison token accepted by BuildRange.
type Operator int

const (
	GT Operator = iota
	GE
	LT
	LE
)

// Filter is a closed sum type: the only implementations are the ones in
// this package. Adapters receive a Filter per bounded column and type-switch
// on the concrete variant.
type Filter interface {
	fmt.Stringer
	sealed()
}

// Equal matches rows whose column value equals Value exactly.
type Equal struct {
	Value any
}

func (Equal) sealed() {}
func (f Equal) String() string { return fmt.Sprintf("= %v", f.Value) }

// NotEqual matches rows whose column value differs from Value.
type NotEqual struct {
	Value any
}

func (NotEqual) sealed() {}
func (f NotEqual) String() string { return fmt.Sprintf("!= %v", f.Value) }

// Range matches rows whose column value falls within [Start, End], with
// Start/End nil meaning unbounded on that side.
type Range struct {
	Start, End                 any
	IncludeStart, IncludeEnd bool
}

func (Range) sealed() {}

func (f Range) String() string {
	left := "(-inf"
	if f.Start != nil {
		if f.IncludeStart {
			left = fmt.Sprintf("[%v", f.Start)
		} else {
			left = fmt.Sprintf("(%v", f.Start)
		}
	}
	right := "inf)"
	if f.End != nil {
		if f.IncludeEnd {
			right = fmt.Sprintf("%v]", f.End)
		} else {
			right = fmt.Sprintf("%v)", f.End)
		}
	}
	return left + ", " + right
}

// Check reports whether v satisfies this range. Used by the bridge for
// residual filtering when a column's Field.Exact() is false.
func (f Range) Check(v any) bool {
	if f.Start != nil {
		c, err := compare(v, f.Start)
		if err != nil {
			return false
		}
		if f.IncludeStart && c < 0 {
			return false
		}
		if !f.IncludeStart && c <= 0 {
			return false
		}
	}
	if f.End != nil {
		c, err := compare(v, f.End)
		if err != nil {
			return false
		}
		if f.IncludeEnd && c > 0 {
			return false
		}
		if !f.IncludeEnd && c >= 0 {
			return false
		}
	}
	return true
}

// Intersect narrows f with other, returning Impossible when the resulting
// range is empty (start past end, or start == end with either endpoint
// exclusive).
func (f Range) Intersect(other Range) Filter {
	start, includeStart := f.Start, f.IncludeStart
	if other.Start != nil {
		if start == nil {
			start, includeStart = other.Start, other.IncludeStart
		} else if c, err := compare(other.Start, start); err == nil {
			switch {
			case c > 0:
				start, includeStart = other.Start, other.IncludeStart
			case c == 0:
				includeStart = includeStart && other.IncludeStart
			}
		}
	}

	end, includeEnd := f.End, f.IncludeEnd
	if other.End != nil {
		if end == nil {
			end, includeEnd = other.End, other.IncludeEnd
		} else if c, err := compare(other.End, end); err == nil {
			switch {
			case c < 0:
				end, includeEnd = other.End, other.IncludeEnd
			case c == 0:
				includeEnd = includeEnd && other.IncludeEnd
			}
		}
	}

	if start != nil && end != nil {
		c, err := compare(start, end)
		if err == nil {
			if c > 0 || (c == 0 && (!includeStart || !includeEnd)) {
				return Impossible{}
			}
		}
	}

	return Range{Start: start, End: end, IncludeStart: includeStart, IncludeEnd: includeEnd}
}

// Constraint is a single (operator, value) pair as surfaced by the planner,
// e.g. from a WHERE clause term.
type Constraint struct {
	Op    Operator
	Value any
}

// Intersect combines two filters on the same column into the filter
// matching rows that satisfy both, or Impossible if no row can. It is
// associative: Intersect(Intersect(a, b), c) == Intersect(a, Intersect(b, c)).
func Intersect(a, b Filter) Filter {
	if _, ok := a.(Impossible); ok {
		return Impossible{}
	}
	if _, ok := b.(Impossible); ok {
		return Impossible{}
	}

	ra, aIsRange := a.(Range)
	rb, bIsRange := b.(Range)
	if aIsRange && bIsRange {
		return ra.Intersect(rb)
	}

	if eq, ok := a.(Equal); ok {
		return intersectEqual(eq, b)
	}
	if eq, ok := b.(Equal); ok {
		return intersectEqual(eq, a)
	}

	if aIsRange {
		return a
	}
	if bIsRange {
		return b
	}

	// Two non-Range, non-Equal filters (e.g. Like, IsNull) on the same
	// column can't be folded further here; the engine re-checks both.
	return a
}

func intersectEqual(eq Equal, other Filter) Filter {
	switch o := other.(type) {
	case Equal:
		if c, err := compare(eq.Value, o.Value); err == nil && c == 0 {
			return eq
		}
		return Impossible{}
	case NotEqual:
		if c, err := compare(eq.Value, o.Value); err == nil && c == 0 {
			return Impossible{}
		}
		return eq
	case Range:
		if o.Check(eq.Value) {
			return eq
		}
		return Impossible{}
	case IsNull:
		return Impossible{}
	case IsNotNull:
		return eq
	default:
		return eq
	}
}

// BuildRange folds a set of >, >=, <, <= constraints on one column into a
// normalized Range, or Impossible if the constraints cannot all hold.
func BuildRange(constraints []Constraint) Filter {
	r := Range{}
	for _, c := range constraints {
		var step Range
		switch c.Op {
		case GT:
			step = Range{Start: c.Value, IncludeStart: false}
		case GE:
			step = Range{Start: c.Value, IncludeStart: true}
		case LT:
			step = Range{End: c.Value, IncludeEnd: false}
		case LE:
			step = Range{End: c.Value, IncludeEnd: true}
		}
		narrowed := r.Intersect(step)
		if _, ok := narrowed.(Impossible); ok {
			return Impossible{}
		}
		r = narrowed.(Range)
	}
	return r
}

// Like matches values against a SQL-LIKE pattern: % matches any run of
// characters, _ matches exactly one, case-sensitive.
type Like struct {
	Pattern string
}

func (Like) sealed() {}
func (f Like) String() string { return fmt.Sprintf("LIKE %q", f.Pattern) }

// Match implements SQL LIKE semantics with no escape character support
// beyond the two wildcards.
func (f Like) Match(value string) bool {
	return likeMatch(f.Pattern, value)
}

func likeMatch(pattern, value string) bool {
	return matchLikeRunes([]rune(pattern), []rune(value))
}

func matchLikeRunes(pattern, value []rune) bool {
	if len(pattern) == 0 {
		return len(value) == 0
	}
	switch pattern[0] {
	case '%':
		// Collapse consecutive %.
		rest := pattern[1:]
		for i := range rest {
			if rest[i] != '%' {
				rest = rest[i:]
				goto searched
			}
			if i == len(rest)-1 {
				return true
			}
		}
		return true
	searched:
		for i := 0; i <= len(value); i++ {
			if matchLikeRunes(rest, value[i:]) {
				return true
			}
		}
		return false
	case '_':
		if len(value) == 0 {
			return false
		}
		return matchLikeRunes(pattern[1:], value[1:])
	default:
		if len(value) == 0 || value[0] != pattern[0] {
			return false
		}
		return matchLikeRunes(pattern[1:], value[1:])
	}
}

// IsNull matches rows where the column is NULL.
type IsNull struct{}

func (IsNull) sealed()        {}
func (IsNull) String() string { return "IS NULL" }

// IsNotNull matches rows where the column is not NULL.
type IsNotNull struct{}

func (IsNotNull) sealed()        {}
func (IsNotNull) String() string { return "IS NOT NULL" }

// Impossible is the empty set: no row can satisfy it. The bridge detects it
// before calling into the adapter and returns zero rows directly.
type Impossible struct{}

func (Impossible) sealed()        {}
func (Impossible) String() string { return "1 = 0" }

// compare orders two native filter values of the same dynamic type; an
// integer and a float are also compared, numerically. It supports the
// scalar types that cross the value bridge: integers, floats, strings,
// booleans, times, durations and byte slices.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case int64:
		if bf, ok := b.(float64); ok {
			return cmpFloat64(float64(av), bf), nil
		}
		bv, ok := toInt64(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return cmpInt64(av, bv), nil
	case int:
		return compare(int64(av), b)
	case float64:
		bv, ok := toFloat64(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return cmpFloat64(av, bv), nil
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return cmpBool(av, bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case av.Before(bv):
			return -1, nil
		case av.After(bv):
			return 1, nil
		default:
			return 0, nil
		}
	case time.Duration:
		bv, ok := b.(time.Duration)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return cmpInt64(int64(av), int64(bv)), nil
	case []byte:
		bv, ok := b.([]byte)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return bytes.Compare(av, bv), nil
	default:
		return 0, fmt.Errorf("unsupported comparison type %T", a)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

package adapters

import "github.com/urisql/urisql/internal/lib"

// RowIterator is a one-shot, pull-based row sequence: each Next call
// advances past the row it just returned, and a spent iterator cannot be
// restarted. This is the lazy sequence spec.md's get_data calls for --
// adapters that already hold every row in memory (memory, csvfile,
// s3select) still satisfy it by wrapping a fully materialized slice, but
// nothing past this interface is allowed to assume the whole result set
// exists up front.
type RowIterator interface {
	// Next returns the next row. ok is false once the sequence is
	// exhausted, at which point row and err are both zero.
	Next() (row lib.Row, ok bool, err error)
}

// sliceIterator adapts an already-materialized []lib.Row to RowIterator.
type sliceIterator struct {
	rows []lib.Row
	pos  int
}

// NewSliceIterator wraps rows already held in memory as a RowIterator.
func NewSliceIterator(rows []lib.Row) RowIterator {
	return &sliceIterator{rows: rows}
}

func (s *sliceIterator) Next() (lib.Row, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

// offsetIterator drops the first n rows of base, for adapters whose
// SupportsOffset is false.
type offsetIterator struct {
	base    RowIterator
	remain  int
	skipped bool
}

// NewOffsetIterator skips the first n rows base produces.
func NewOffsetIterator(base RowIterator, n int) RowIterator {
	return &offsetIterator{base: base, remain: n}
}

func (o *offsetIterator) Next() (lib.Row, bool, error) {
	if !o.skipped {
		o.skipped = true
		for ; o.remain > 0; o.remain-- {
			if _, ok, err := o.base.Next(); err != nil {
				return nil, false, err
			} else if !ok {
				break
			}
		}
	}
	return o.base.Next()
}

// limitIterator caps base at n rows, for adapters whose SupportsLimit is
// false.
type limitIterator struct {
	base   RowIterator
	remain int
	done   bool
}

// NewLimitIterator caps base to at most n rows.
func NewLimitIterator(base RowIterator, n int) RowIterator {
	return &limitIterator{base: base, remain: n}
}

func (l *limitIterator) Next() (lib.Row, bool, error) {
	if l.done || l.remain <= 0 {
		return nil, false, nil
	}
	row, ok, err := l.base.Next()
	if err != nil || !ok {
		l.done = true
		return nil, false, err
	}
	l.remain--
	return row, true, nil
}

// Collect drains iter (and any error GetData itself returned) into a
// slice. Adapters whose whole result set already lives in memory use this
// at their own call sites and in tests; the bridge in internal/vtable
// never calls it, since pulling one row at a time is the point.
func Collect(iter RowIterator, err error) ([]lib.Row, error) {
	if err != nil {
		return nil, err
	}
	var rows []lib.Row
	for {
		row, ok, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

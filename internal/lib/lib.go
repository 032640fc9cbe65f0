// Package lib implements the small collection of cross-cutting helpers the
// bridge and adapters share: rowid bookkeeping for mutable adapters, schema
// sniffing for adapters without a declared schema, SQL-literal escaping for
// adapters that compose remote queries, argument serialization for
// CREATE VIRTUAL TABLE argv, and the adapter-selection algorithm the
// registry uses to dispatch a URI to the right factory.
package lib

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/filters"
	"github.com/urisql/urisql/internal/sqlerr"
)

// Row is a single record keyed by column name, the shape adapters and the
// bridge pass data around in before it's packed into the engine's native
// value set.
type Row map[string]any

// --- RowIDManager ------------------------------------------------------------

type rowRange struct {
	deleted    bool
	start, end int64 // half-open [start, end); meaningless when deleted
}

// RowIDManager tracks which rowids are in use as a sequence of contiguous
// ranges, so adapters that hand out sequential rowids can support
// insert/delete without rescanning all rows to find the next free id.
type RowIDManager struct {
	ranges []rowRange
}

// NewRowIDManager builds a manager from the initial occupied ranges, given
// as [start, end) pairs in ascending, non-overlapping order.
func NewRowIDManager(initial [][2]int64) (*RowIDManager, error) {
	if len(initial) == 0 {
		return nil, sqlerr.NewProgrammingError("argument ranges cannot be empty", nil)
	}
	ranges := make([]rowRange, len(initial))
	for i, r := range initial {
		ranges[i] = rowRange{start: r[0], end: r[1]}
	}
	return &RowIDManager{ranges: ranges}, nil
}

// All returns every rowid slot in order, with -1 standing in for a deleted
// slot (so callers can tell how many "holes" are in the assigned space
// without it affecting contiguous-range bookkeeping).
func (m *RowIDManager) All() []int64 {
	var out []int64
	for _, r := range m.ranges {
		if r.deleted {
			out = append(out, -1)
			continue
		}
		for i := r.start; i < r.end; i++ {
			out = append(out, i)
		}
	}
	return out
}

// Ranges exposes the current range list for tests and diagnostics.
func (m *RowIDManager) Ranges() [][2]int64 {
	out := make([][2]int64, len(m.ranges))
	for i, r := range m.ranges {
		if r.deleted {
			out[i] = [2]int64{0, 0}
			continue
		}
		out[i] = [2]int64{r.start, r.end}
	}
	return out
}

func (m *RowIDManager) contains(rowid int64) bool {
	for _, r := range m.ranges {
		if !r.deleted && rowid >= r.start && rowid < r.end {
			return true
		}
	}
	return false
}

// Insert assigns rowid if given, or the next id after the last occupied
// range if nil, extending that range when the id is contiguous with it and
// appending a new singleton range otherwise.
func (m *RowIDManager) Insert(rowid *int64) (int64, error) {
	if rowid == nil {
		last := len(m.ranges) - 1
		if last >= 0 && !m.ranges[last].deleted {
			next := m.ranges[last].end
			m.ranges[last].end++
			return next, nil
		}
		var next int64
		for _, r := range m.ranges {
			if !r.deleted && r.end > next {
				next = r.end
			}
		}
		m.ranges = append(m.ranges, rowRange{start: next, end: next + 1})
		return next, nil
	}

	id := *rowid
	if m.contains(id) {
		return 0, sqlerr.NewIntegrityError(fmt.Sprintf("row id %d already present", id), nil)
	}

	last := len(m.ranges) - 1
	if last >= 0 && !m.ranges[last].deleted && m.ranges[last].end == id {
		m.ranges[last].end++
		return id, nil
	}

	m.ranges = append(m.ranges, rowRange{start: id, end: id + 1})
	return id, nil
}

// Delete frees rowid, splitting its containing range around it and leaving
// a deleted placeholder in its place.
func (m *RowIDManager) Delete(rowid int64) error {
	for i, r := range m.ranges {
		if r.deleted || rowid < r.start || rowid >= r.end {
			continue
		}

		switch {
		case r.end-r.start == 1:
			m.ranges[i] = rowRange{deleted: true}
		case rowid == r.start:
			m.replace(i, rowRange{deleted: true}, rowRange{start: rowid + 1, end: r.end})
		case rowid == r.end-1:
			m.replace(i, rowRange{start: r.start, end: rowid}, rowRange{deleted: true})
		default:
			m.replace(i, rowRange{start: r.start, end: rowid}, rowRange{deleted: true}, rowRange{start: rowid + 1, end: r.end})
		}
		return nil
	}
	return sqlerr.NewProgrammingError(fmt.Sprintf("row id %d not found", rowid), nil)
}

func (m *RowIDManager) replace(i int, with ...rowRange) {
	tail := append([]rowRange{}, m.ranges[i+1:]...)
	m.ranges = append(m.ranges[:i], with...)
	m.ranges = append(m.ranges, tail...)
}

// --- Analyze / UpdateOrder ----------------------------------------------------

// Analyze samples rows to infer, per column, the coarsest Field Type that
// fits every observed value and whether the column happens to arrive
// sorted, so an adapter without a declared schema (e.g. a CSV file) can
// build its column set from data alone.
func Analyze(rows []Row) (numRows int, order map[string]fields.Order, types map[string]fields.Type) {
	order = map[string]fields.Order{}
	types = map[string]fields.Type{}
	previous := map[string]any{}
	seen := map[string]bool{}
	var columnOrder []string

	for _, row := range rows {
		numRows++
		for col, raw := range row {
			if !seen[col] {
				seen[col] = true
				columnOrder = append(columnOrder, col)
				types[col] = classify(raw)
				order[col] = fields.OrderNone
			}
			norm := normalize(raw, types[col])
			prev, hadPrev := previous[col]
			var prevVal any
			if hadPrev {
				prevVal = prev
			}
			order[col] = UpdateOrder(order[col], prevVal, norm, numRows)
			previous[col] = norm
		}
	}
	return numRows, order, types
}

// classify picks the coarsest Field Type that fits v's dynamic type.
func classify(v any) fields.Type {
	switch v.(type) {
	case int, int64:
		return fields.TypeInteger
	case float32, float64:
		return fields.TypeFloat
	case bool:
		return fields.TypeBoolean
	case string:
		return fields.TypeString
	default:
		// Anything else (lists, sets, nested structures) is rendered to its
		// string form for comparison and schema purposes.
		return fields.TypeString
	}
}

func normalize(v any, t fields.Type) any {
	switch t {
	case fields.TypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int64:
			return n
		}
	case fields.TypeFloat:
		switch n := v.(type) {
		case float32:
			return float64(n)
		case float64:
			return n
		}
	case fields.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b
		}
	case fields.TypeString:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", v)
}

// UpdateOrder folds one more observed (previous, current) pair into a
// running Order verdict for a column. Equal consecutive values don't break
// an established order; a reversal collapses it to OrderNone.
func UpdateOrder(order fields.Order, previous, current any, numRows int) fields.Order {
	if numRows <= 1 {
		return fields.OrderNone
	}
	if previous == nil || current == nil {
		return fields.OrderNone
	}

	c, ok := compareNormalized(previous, current)
	if !ok {
		return fields.OrderNone
	}
	if c == 0 {
		return order
	}

	var observed fields.Order
	if c < 0 {
		observed = fields.OrderAscending
	} else {
		observed = fields.OrderDescending
	}

	if order == fields.OrderNone && numRows == 2 {
		return observed
	}
	if order == observed {
		return observed
	}
	return fields.OrderNone
}

func compareNormalized(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av && bv:
			return -1, true
		default:
			return 1, true
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	default:
		return 0, false
	}
}

// --- Escaping ------------------------------------------------------------------

// EscapeString doubles embedded single quotes, the form SQL string literals
// require.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// UnescapeString reverses EscapeString.
func UnescapeString(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}

// EscapeIdentifier doubles embedded double quotes, the form quoted SQL
// identifiers require.
func EscapeIdentifier(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// UnescapeIdentifier reverses EscapeIdentifier.
func UnescapeIdentifier(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// --- Serialize / Deserialize ---------------------------------------------------

// Serialize packs value (a basic type: a number, string or bool, or nested
// slices/maps of those) into msgpack and
// base64-encodes the result, the compact form used for CREATE VIRTUAL TABLE
// argv.
func Serialize(value any) (string, error) {
	if !isSerializable(reflect.ValueOf(value)) {
		return "", sqlerr.NewProgrammingError(fmt.Sprintf(
			"value of type %T is not serializable; only basic types (slices, maps, "+
				"strings, numbers) may be passed as adapter arguments", value), nil)
	}
	data, err := msgpack.Marshal(value)
	if err != nil {
		return "", sqlerr.NewProgrammingError("failed to serialize adapter argument", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Deserialize reverses Serialize.
func Deserialize(encoded string) (any, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, sqlerr.NewProgrammingError("malformed adapter argument encoding", err)
	}
	var value any
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return nil, sqlerr.NewProgrammingError("failed to deserialize adapter argument", err)
	}
	return value, nil
}

func isSerializable(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		return false
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return isSerializable(v.Elem())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !isSerializable(v.Index(i)) {
				return false
			}
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			if !isSerializable(v.MapIndex(key)) {
				return false
			}
		}
	}
	return true
}

// --- CombineArgsKwargs ---------------------------------------------------------

// CombineArgsKwargs merges positional args and keyword kwargs against an
// adapter constructor's declared parameter names and defaults. The registry
// and the bridge do not call it: Module passes the deserialized
// CREATE VIRTUAL TABLE argv straight to Factory.New. Positional args
// fill parameters left to right; kwargs override by name; unset parameters
// keep their default.
func CombineArgsKwargs(paramNames []string, defaults map[string]any, args []any, kwargs map[string]any) []any {
	result := make([]any, len(paramNames))
	for i, name := range paramNames {
		result[i] = defaults[name]
	}
	for i := range args {
		if i < len(result) {
			result[i] = args[i]
		}
	}
	for name, value := range kwargs {
		for i, pname := range paramNames {
			if pname == name {
				result[i] = value
			}
		}
	}
	return result
}

// --- FilterData / ApplyLimitAndOffset ------------------------------------------

// OrderTerm is one column of a requested sort, in priority order.
type OrderTerm struct {
	Column    string
	Direction fields.Order
}

// FilterData applies bounds (a residual, in-memory check -- used when an
// adapter or the bridge can't push a predicate all the way down) and the
// requested sort order to rows already in memory.
func FilterData(rows []Row, bounds map[string]filters.Filter, order []OrderTerm) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		ok, err := matches(row, bounds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}

	if len(order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, term := range order {
				c, cmpOK := compareNormalized(normalizeAny(out[i][term.Column]), normalizeAny(out[j][term.Column]))
				if !cmpOK {
					continue
				}
				if c == 0 {
					continue
				}
				if term.Direction == fields.OrderDescending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	return out, nil
}

func normalizeAny(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case int64, float64, bool, string:
		return v
	case int:
		return int64(v.(int))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func matches(row Row, bounds map[string]filters.Filter) (bool, error) {
	for col, f := range bounds {
		value := row[col]
		switch cond := f.(type) {
		case filters.Impossible:
			return false, nil
		case filters.IsNull:
			if !IsNullValue(value) {
				return false, nil
			}
		case filters.IsNotNull:
			if !IsNotNullValue(value) {
				return false, nil
			}
		case filters.Equal:
			c, ok := compareNormalized(normalizeAny(value), normalizeAny(cond.Value))
			if !ok || c != 0 {
				return false, nil
			}
		case filters.NotEqual:
			c, ok := compareNormalized(normalizeAny(value), normalizeAny(cond.Value))
			if ok && c == 0 {
				return false, nil
			}
		case filters.Range:
			if !cond.Check(value) {
				return false, nil
			}
		case filters.Like:
			s, ok := value.(string)
			if !ok || !cond.Match(s) {
				return false, nil
			}
		default:
			return false, sqlerr.NewProgrammingError(fmt.Sprintf("invalid filter: %v", f), nil)
		}
	}
	return true, nil
}

// IsNullValue reports whether v represents SQL NULL.
func IsNullValue(v any) bool { return v == nil }

// IsNotNullValue is the complement of IsNullValue.
func IsNotNullValue(v any) bool { return v != nil }

// ApplyLimitAndOffset slices rows per SQL LIMIT/OFFSET semantics; nil means
// unbounded.
func ApplyLimitAndOffset(rows []Row, limit, offset *int) []Row {
	start := 0
	if offset != nil {
		start = *offset
	}
	if start > len(rows) {
		start = len(rows)
	}
	rows = rows[start:]
	if limit != nil && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

// --- BuildSQL --------------------------------------------------------------

// BuildSQL composes a SELECT statement against a remote backend, for
// adapters (like s3select) that push predicates down as server-side SQL
// rather than scanning rows themselves. columnOrder fixes the iteration
// order for bounds and is normally the adapter's declared column order.
// columnMap, when non-nil, renames a local column name to its remote name;
// alias, when non-empty, qualifies every column reference.
func BuildSQL(
	columnOrder []string,
	columnFields map[string]fields.Field,
	bounds map[string]filters.Filter,
	order []OrderTerm,
	table string,
	columnMap map[string]string,
	alias string,
	limit, offset *int,
) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT *")

	if table != "" {
		b.WriteString(" FROM ")
		b.WriteString(table)
		if alias != "" {
			b.WriteString(" AS ")
			b.WriteString(alias)
		}
	}

	var clauses []string
	for _, col := range columnOrder {
		f, ok := bounds[col]
		if !ok {
			continue
		}
		name := renderColumn(col, columnMap, alias)
		field := columnFields[col]

		switch cond := f.(type) {
		case filters.Impossible:
			return "", sqlerr.NewImpossibleFilterError(fmt.Sprintf("column %q can match no row", col))
		case filters.Equal:
			clauses = append(clauses, fmt.Sprintf("%s = %s", name, field.Quote(cond.Value)))
		case filters.NotEqual:
			clauses = append(clauses, fmt.Sprintf("%s != %s", name, field.Quote(cond.Value)))
		case filters.IsNull:
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", name))
		case filters.IsNotNull:
			clauses = append(clauses, fmt.Sprintf("%s IS NOT NULL", name))
		case filters.Like:
			clauses = append(clauses, fmt.Sprintf("%s LIKE %s", name, field.Quote(cond.Pattern)))
		case filters.Range:
			if cond.Start != nil {
				op := ">"
				if cond.IncludeStart {
					op = ">="
				}
				clauses = append(clauses, fmt.Sprintf("%s %s %s", name, op, field.Quote(cond.Start)))
			}
			if cond.End != nil {
				op := "<"
				if cond.IncludeEnd {
					op = "<="
				}
				clauses = append(clauses, fmt.Sprintf("%s %s %s", name, op, field.Quote(cond.End)))
			}
		}
	}
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}

	if len(order) > 0 {
		var terms []string
		for _, term := range order {
			name := renderColumn(term.Column, columnMap, alias)
			if term.Direction == fields.OrderDescending {
				name += " DESC"
			}
			terms = append(terms, name)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}

	if limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}

	return b.String(), nil
}

func renderColumn(col string, columnMap map[string]string, alias string) string {
	name := col
	if columnMap != nil {
		if mapped, ok := columnMap[col]; ok {
			name = mapped
		}
	}
	if alias != "" {
		return alias + "." + name
	}
	return name
}

// --- FindAdapter -----------------------------------------------------------

// AdapterProbe is the subset of an adapter factory FindAdapter needs:
// reporting whether it can handle a URI (possibly deferring a definitive
// answer to a slower check) and parsing that URI into constructor
// arguments.
type AdapterProbe interface {
	// Supports reports whether this adapter can handle uri. fast asks for a
	// cheap, syntax-only answer; nil means "can't tell without a slower
	// check" and is only returned when fast is true.
	Supports(uri string, fast bool) *bool
	ParseURI(uri string) ([]any, error)
}

// FindAdapter dispatches uri to the first candidate that claims it, trying
// every candidate's fast check before falling back to the slow check on
// whichever candidates were inconclusive, preserving candidate order in
// both passes.
func FindAdapter(uri string, kwargs map[string]any, candidates []AdapterProbe) (AdapterProbe, []any, map[string]any, error) {
	var deferred []AdapterProbe
	for _, c := range candidates {
		result := c.Supports(uri, true)
		if result != nil && *result {
			args, err := c.ParseURI(uri)
			if err != nil {
				return nil, nil, nil, err
			}
			return c, args, kwargs, nil
		}
		if result == nil {
			deferred = append(deferred, c)
		}
	}
	for _, c := range deferred {
		result := c.Supports(uri, false)
		if result != nil && *result {
			args, err := c.ParseURI(uri)
			if err != nil {
				return nil, nil, nil, err
			}
			return c, args, kwargs, nil
		}
	}
	return nil, nil, nil, sqlerr.NewProgrammingError(fmt.Sprintf("unable to find an adapter for %q", uri), nil)
}

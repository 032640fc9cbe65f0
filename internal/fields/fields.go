// Package fields implements the per-column value codecs described in
// spec.md §4.2: parsing wire/storage values into native Go values, formatting
// native values back for writes, and quoting native values as SQL literal
// text for adapters that compose remote SQL.
package fields

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/urisql/urisql/internal/filters"
)

// Type is the coarse type tag a Field declares, used by the bridge to pick
// a SQL column type for the virtual table's CREATE TABLE shape.
type Type int

const (
	TypeInteger Type = iota
	TypeFloat
	TypeDecimal
	TypeString
	TypeBlob
	TypeBoolean
	TypeDate
	TypeTime
	TypeDateTime
	TypeDuration
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeDecimal:
		return "DECIMAL"
	case TypeString:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeDateTime:
		return "TIMESTAMP"
	case TypeDuration:
		return "TEXT"
	default:
		return "BLOB"
	}
}

// Order is the sort guarantee a column offers.
type Order int

const (
	// OrderNone means the adapter returns rows in no particular order for
	// this column; the engine must sort if asked to.
	OrderNone Order = iota
	// OrderAscending is a guarantee: rows are always non-decreasing on this
	// column.
	OrderAscending
	// OrderDescending is the mirror guarantee for descending scans.
	OrderDescending
	// OrderAny means the adapter will sort however the planner asks.
	OrderAny
)

// FilterKind tags one of the filter variants in package filters that a
// field declares it can accept as a pushed-down bound.
type FilterKind int

const (
	FilterEqual FilterKind = iota
	FilterNotEqual
	FilterRange
	FilterLike
	FilterIsNull
	FilterIsNotNull
)

// KindOf maps a concrete filters.Filter value to its FilterKind tag.
func KindOf(f filters.Filter) (FilterKind, bool) {
	switch f.(type) {
	case filters.Equal:
		return FilterEqual, true
	case filters.NotEqual:
		return FilterNotEqual, true
	case filters.Range:
		return FilterRange, true
	case filters.Like:
		return FilterLike, true
	case filters.IsNull:
		return FilterIsNull, true
	case filters.IsNotNull:
		return FilterIsNotNull, true
	default:
		return 0, false
	}
}

// Field is a per-column codec plus the metadata the bridge needs for
// pushdown decisions.
type Field interface {
	// Type reports the coarse value domain.
	Type() Type
	// Filters reports which filters.Filter variants this column can accept
	// as a pushed-down bound.
	Filters() []FilterKind
	// Order reports the sort guarantee, if any.
	Order() Order
	// Exact reports whether a pushed predicate on this column needs no
	// residual check by the engine.
	Exact() bool
	// Parse converts a storage-domain value to the native domain. Invalid
	// input yields (nil, false) rather than an error -- the bridge's
	// Table.Update stores NULL for such a value; nothing is logged.
	Parse(storage any) (any, bool)
	// Format converts a native-domain value back to the storage domain for
	// writes.
	Format(native any) (any, bool)
	// Quote renders a native value as SQL literal text, escaping embedded
	// delimiters.
	Quote(native any) string
}

// Has reports whether kind is in a field's declared filter set.
func Has(f Field, kind FilterKind) bool {
	for _, k := range f.Filters() {
		if k == kind {
			return true
		}
	}
	return false
}

// base bundles the metadata shared by every concrete field: filters, order
// and exactness, configured at construction via Option.
type base struct {
	filters []FilterKind
	order   Order
	exact   bool
}

func (b base) Filters() []FilterKind { return b.filters }
func (b base) Order() Order          { return b.order }
func (b base) Exact() bool           { return b.exact }

// Option configures a field's declared metadata at construction.
type Option func(*base)

// WithFilters declares the filter variants this column can accept.
func WithFilters(kinds ...FilterKind) Option {
	return func(b *base) { b.filters = kinds }
}

// WithOrder declares the column's sort guarantee.
func WithOrder(order Order) Option {
	return func(b *base) { b.order = order }
}

// WithExact declares whether a pushed predicate needs no residual check.
func WithExact(exact bool) Option {
	return func(b *base) { b.exact = exact }
}

func newBase(opts []Option) base {
	var b base
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func quoteNull(native any) (string, bool) {
	if native == nil {
		return "NULL", true
	}
	return "", false
}

// --- Integer --------------------------------------------------------------

type Integer struct {
	base
}

func NewInteger(opts ...Option) Integer { return Integer{newBase(opts)} }

func (Integer) Type() Type { return TypeInteger }

func (Integer) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	switch v := storage.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return nil, false
}

func (Integer) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	if v, ok := native.(int64); ok {
		return v, true
	}
	return nil, false
}

func (Integer) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return fmt.Sprintf("%d", native)
}

// --- Float -----------------------------------------------------------------

type Float struct {
	base
}

func NewFloat(opts ...Option) Float { return Float{newBase(opts)} }

func (Float) Type() Type { return TypeFloat }

func (Float) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	switch v := storage.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return nil, false
}

func (Float) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	if v, ok := native.(float64); ok {
		return v, true
	}
	return nil, false
}

func (Float) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return strconv.FormatFloat(native.(float64), 'g', -1, 64)
}

// --- Decimal -----------------------------------------------------------------

// Decimal carries exact fixed-point values as *big.Rat, transiting storage
// as decimal strings (the representation every SQL driver in the pack uses
// for NUMERIC/DECIMAL columns).
type Decimal struct {
	base
}

func NewDecimal(opts ...Option) Decimal { return Decimal{newBase(opts)} }

func (Decimal) Type() Type { return TypeDecimal }

func (Decimal) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, false
	}
	return r, true
}

func (Decimal) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	r, ok := native.(*big.Rat)
	if !ok {
		return nil, false
	}
	return r.FloatString(r.Denom().BitLen() * 2), true
}

func (Decimal) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	r := native.(*big.Rat)
	return r.FloatString(12)
}

// --- String ------------------------------------------------------------------

type String struct {
	base
}

func NewString(opts ...Option) String { return String{newBase(opts)} }

func (String) Type() Type { return TypeString }

func (String) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.(string); ok {
		return v, true
	}
	return nil, false
}

func (String) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	if v, ok := native.(string); ok {
		return v, true
	}
	return nil, false
}

func (String) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	escaped := strings.ReplaceAll(native.(string), "'", "''")
	return "'" + escaped + "'"
}

// --- Blob ------------------------------------------------------------------

type Blob struct {
	base
}

func NewBlob(opts ...Option) Blob { return Blob{newBase(opts)} }

func (Blob) Type() Type { return TypeBlob }

func (Blob) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.([]byte); ok {
		return v, true
	}
	return nil, false
}

func (Blob) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	if v, ok := native.([]byte); ok {
		return v, true
	}
	return nil, false
}

func (Blob) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return "X'" + strings.ToUpper(hex.EncodeToString(native.([]byte))) + "'"
}

// --- Boolean -----------------------------------------------------------------

type Boolean struct {
	base
}

func NewBoolean(opts ...Option) Boolean { return Boolean{newBase(opts)} }

func (Boolean) Type() Type { return TypeBoolean }

func (Boolean) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.(bool); ok {
		return v, true
	}
	return nil, false
}

func (Boolean) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	if v, ok := native.(bool); ok {
		return v, true
	}
	return nil, false
}

func (Boolean) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	if native.(bool) {
		return "TRUE"
	}
	return "FALSE"
}

// --- IntBoolean --------------------------------------------------------------

// IntBoolean is a Boolean whose storage representation is 0/1 rather than a
// native bool.
type IntBoolean struct {
	base
}

func NewIntBoolean(opts ...Option) IntBoolean { return IntBoolean{newBase(opts)} }

func (IntBoolean) Type() Type { return TypeBoolean }

func (IntBoolean) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	switch v := storage.(type) {
	case int64:
		return v != 0, true
	case int:
		return v != 0, true
	}
	return nil, false
}

func (IntBoolean) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	v, ok := native.(bool)
	if !ok {
		return nil, false
	}
	if v {
		return int64(1), true
	}
	return int64(0), true
}

func (IntBoolean) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	if native.(bool) {
		return "1"
	}
	return "0"
}

// --- Date/Time/DateTime ------------------------------------------------------

// Date stores time.Time truncated to the date portion, natively (no string
// parsing -- for adapters whose wire protocol already hands back a
// date-like value, e.g. a database/sql driver).
type Date struct {
	base
}

func NewDate(opts ...Option) Date { return Date{newBase(opts)} }

func (Date) Type() Type { return TypeDate }

func (Date) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.(time.Time); ok {
		return v, true
	}
	return nil, false
}

func (Date) Format(native any) (any, bool) {
	return Date{}.Parse(native)
}

func (Date) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return "'" + native.(time.Time).Format("2006-01-02") + "'"
}

// Time stores a time-of-day, preserving timezone offset when present.
type Time struct {
	base
}

func NewTime(opts ...Option) Time { return Time{newBase(opts)} }

func (Time) Type() Type { return TypeTime }

func (Time) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.(time.Time); ok {
		return v, true
	}
	return nil, false
}

func (Time) Format(native any) (any, bool) {
	return Time{}.Parse(native)
}

func (Time) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	t := native.(time.Time)
	if t.Location() == time.UTC || t.Location() == nil {
		return "'" + t.Format("15:04:05Z07:00") + "'"
	}
	return "'" + t.Format("15:04:05-07:00") + "'"
}

// DateTime stores a timestamp, preserving timezone awareness.
type DateTime struct {
	base
}

func NewDateTime(opts ...Option) DateTime { return DateTime{newBase(opts)} }

func (DateTime) Type() Type { return TypeDateTime }

func (DateTime) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.(time.Time); ok {
		return v, true
	}
	return nil, false
}

func (DateTime) Format(native any) (any, bool) {
	return DateTime{}.Parse(native)
}

func (DateTime) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return "'" + native.(time.Time).Format(time.RFC3339Nano) + "'"
}

// --- ISO string-wire date/time aliases ----------------------------------------

// ISODate parses/formats ISO-8601 date strings ("2020-01-01") as the storage
// domain, time.Time (date-only) as the native domain. Invalid strings parse
// to nil rather than erroring.
type ISODate struct {
	base
}

func NewISODate(opts ...Option) ISODate { return ISODate{newBase(opts)} }

func (ISODate) Type() Type { return TypeDate }

func (ISODate) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	return t, true
}

func (ISODate) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	t, ok := native.(time.Time)
	if !ok {
		return nil, false
	}
	return t.Format("2006-01-02"), true
}

func (f ISODate) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	s, _ := f.Format(native)
	return "'" + s.(string) + "'"
}

// ISOTime parses/formats ISO-8601 time strings, with or without a timezone
// offset, as storage; time.Time (date-zero) as native.
type ISOTime struct {
	base
}

func NewISOTime(opts ...Option) ISOTime { return ISOTime{newBase(opts)} }

func (ISOTime) Type() Type { return TypeTime }

var isoTimeLayouts = []string{"15:04:05Z07:00", "15:04Z07:00", "15:04:05", "15:04"}

func (ISOTime) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	for _, layout := range isoTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return nil, false
}

func (ISOTime) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	t, ok := native.(time.Time)
	if !ok {
		return nil, false
	}
	if t.Location() == time.UTC {
		return t.Format("15:04:05Z07:00"), true
	}
	if _, offset := t.Zone(); offset == 0 && t.Location() == time.Local {
		return t.Format("15:04:05"), true
	}
	return t.Format("15:04:05Z07:00"), true
}

func (f ISOTime) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	if str, ok := native.(string); ok {
		return "'" + str + "'"
	}
	s, _ := f.Format(native)
	return "'" + s.(string) + "'"
}

// ISODateTime parses/formats ISO-8601 timestamps as storage; time.Time as
// native, preserving timezone when present in the string.
type ISODateTime struct {
	base
}

func NewISODateTime(opts ...Option) ISODateTime { return ISODateTime{newBase(opts)} }

func (ISODateTime) Type() Type { return TypeDateTime }

func (ISODateTime) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return nil, false
}

func (ISODateTime) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	t, ok := native.(time.Time)
	if !ok {
		return nil, false
	}
	return t.Format(time.RFC3339Nano), true
}

func (f ISODateTime) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	s, _ := f.Format(native)
	return "'" + s.(string) + "'"
}

// --- Duration ------------------------------------------------------------------

// Duration stores a time.Duration natively; canonical text form is handled
// by StringDuration for adapters whose wire value is already text.
type Duration struct {
	base
}

func NewDuration(opts ...Option) Duration { return Duration{newBase(opts)} }

func (Duration) Type() Type { return TypeDuration }

func (Duration) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	if v, ok := storage.(time.Duration); ok {
		return v, true
	}
	return nil, false
}

func (Duration) Format(native any) (any, bool) {
	return Duration{}.Parse(native)
}

func (Duration) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return "'" + FormatDuration(native.(time.Duration)) + "'"
}

// FormatDuration renders d as "[-]D days, HH:MM:SS[.ffffff]" when it spans a
// full day or more, else "HH:MM:SS[.ffffff]", matching spec.md §4.7.
func FormatDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int64(d / time.Second)
	d -= time.Duration(seconds) * time.Second
	micros := int64(d / time.Microsecond)

	clock := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	if micros > 0 {
		clock += fmt.Sprintf(".%06d", micros)
	}

	prefix := ""
	if neg {
		prefix = "-"
	}
	if days > 0 {
		return fmt.Sprintf("%s%d days, %s", prefix, days, clock)
	}
	return prefix + clock
}

// ParseDuration parses both forms FormatDuration produces.
func ParseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var days int64
	if idx := strings.Index(s, " days, "); idx >= 0 {
		d, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return 0, false
		}
		days = d
		s = s[idx+len(" days, "):]
	} else if idx := strings.Index(s, " day, "); idx >= 0 {
		d, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return 0, false
		}
		days = d
		s = s[idx+len(" day, "):]
	}

	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	secParts := strings.SplitN(parts[2], ".", 2)
	seconds, err := strconv.ParseInt(secParts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	var micros int64
	if len(secParts) == 2 {
		frac := secParts[1]
		for len(frac) < 6 {
			frac += "0"
		}
		micros, err = strconv.ParseInt(frac[:6], 10, 64)
		if err != nil {
			return 0, false
		}
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(micros)*time.Microsecond
	if neg {
		total = -total
	}
	return total, true
}

// --- String-wire scalar aliases ------------------------------------------------
//
// These fields arrive over the wire as strings (JSON APIs, CSV cells) but
// carry a typed native domain.

type StringInteger struct {
	base
}

func NewStringInteger(opts ...Option) StringInteger { return StringInteger{newBase(opts)} }

func (StringInteger) Type() Type { return TypeInteger }

func (StringInteger) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

func (StringInteger) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	n, ok := native.(int64)
	if !ok {
		return nil, false
	}
	return strconv.FormatInt(n, 10), true
}

func (StringInteger) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	return fmt.Sprintf("%d", native.(int64))
}

type StringDecimal struct {
	base
}

func NewStringDecimal(opts ...Option) StringDecimal { return StringDecimal{newBase(opts)} }

func (StringDecimal) Type() Type { return TypeDecimal }

func (StringDecimal) Parse(storage any) (any, bool) {
	return Decimal{}.Parse(storage)
}

func (StringDecimal) Format(native any) (any, bool) {
	return Decimal{}.Format(native)
}

func (StringDecimal) Quote(native any) string {
	return Decimal{}.Quote(native)
}

type StringBoolean struct {
	base
}

func NewStringBoolean(opts ...Option) StringBoolean { return StringBoolean{newBase(opts)} }

func (StringBoolean) Type() Type { return TypeBoolean }

func (StringBoolean) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (StringBoolean) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	b, ok := native.(bool)
	if !ok {
		return nil, false
	}
	if b {
		return "true", true
	}
	return "false", true
}

func (StringBoolean) Quote(native any) string {
	return Boolean{}.Quote(native)
}

type StringBlob struct {
	base
}

func NewStringBlob(opts ...Option) StringBlob { return StringBlob{newBase(opts)} }

func (StringBlob) Type() Type { return TypeBlob }

func (StringBlob) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (StringBlob) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	b, ok := native.([]byte)
	if !ok {
		return nil, false
	}
	return hex.EncodeToString(b), true
}

func (StringBlob) Quote(native any) string {
	return Blob{}.Quote(native)
}

type StringDuration struct {
	base
}

func NewStringDuration(opts ...Option) StringDuration { return StringDuration{newBase(opts)} }

func (StringDuration) Type() Type { return TypeDuration }

func (StringDuration) Parse(storage any) (any, bool) {
	if storage == nil {
		return nil, true
	}
	s, ok := storage.(string)
	if !ok {
		return nil, false
	}
	return ParseDuration(s)
}

func (StringDuration) Format(native any) (any, bool) {
	if native == nil {
		return nil, true
	}
	d, ok := native.(time.Duration)
	if !ok {
		return nil, false
	}
	return FormatDuration(d), true
}

func (StringDuration) Quote(native any) string {
	return Duration{}.Quote(native)
}

// --- Unknown -------------------------------------------------------------------

// Unknown passes values through untyped, for adapters that cannot classify
// a column. Quote falls back to String's escaping for text and
// Integer/Float's rendering for numbers by runtime type inspection.
type Unknown struct {
	base
}

func NewUnknown(opts ...Option) Unknown { return Unknown{newBase(opts)} }

func (Unknown) Type() Type { return TypeUnknown }

func (Unknown) Parse(storage any) (any, bool) { return storage, true }

func (Unknown) Format(native any) (any, bool) { return native, true }

func (Unknown) Quote(native any) string {
	if s, ok := quoteNull(native); ok {
		return s
	}
	switch v := native.(type) {
	case string:
		return String{}.Quote(v)
	case int64:
		return Integer{}.Quote(v)
	case int:
		return Integer{}.Quote(int64(v))
	case float64:
		return Float{}.Quote(v)
	case bool:
		return Boolean{}.Quote(v)
	case []byte:
		return Blob{}.Quote(v)
	default:
		return String{}.Quote(fmt.Sprintf("%v", v))
	}
}

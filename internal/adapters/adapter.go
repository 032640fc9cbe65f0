// Package adapters defines the contract every data source plugs into the
// bridge through, and the kind-keyed registry used to look one up by name
// or dispatch a URI to the adapter that claims it.
package adapters

import (
	"context"

	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/filters"
	"github.com/urisql/urisql/internal/lib"
)

// Bounds is the set of pushed-down predicates for a scan, keyed by column
// name. A column absent from Bounds is unconstrained.
type Bounds = map[string]filters.Filter

// OrderRequest is one column of a requested sort, most significant first.
type OrderRequest struct {
	Column    string
	Direction fields.Order
}

// Adapter is the read contract every data source implements: declare its
// columns, and produce rows for a (possibly empty) set of pushed-down
// bounds, sort order, limit and offset.
type Adapter interface {
	// Columns returns the field codec for every column, plus ColumnOrder
	// for the stable iteration order DDL/BestIndex/BuildSQL rely on.
	Columns() map[string]fields.Field
	ColumnOrder() []string

	// GetData returns a lazy, single-use RowIterator over rows matching
	// bounds (already known to be possible -- the bridge short-circuits
	// filters.Impossible before calling in), honoring order/limit/offset/
	// requestedColumns to whatever extent the Supports* flags below claim.
	// requestedColumns is nil when the caller wants every column; a
	// non-nil slice is not a contract the adapter must enforce on its
	// own -- SupportsRequestedColumns tells the bridge whether it can
	// trust the narrowed rows or must still read every field itself.
	GetData(ctx context.Context, bounds Bounds, order []OrderRequest, limit, offset *int, requestedColumns []string) (RowIterator, error)

	// GetCost estimates the relative expense of a scan under the given
	// bounds/order, for the bridge's BestIndex translation. Lower is
	// cheaper; an adapter that can't push a bound at all should return a
	// cost reflecting a full unfiltered scan.
	GetCost(bounds Bounds, order []OrderRequest) float64

	// SupportsLimit, SupportsOffset and SupportsRequestedColumns are the
	// static capability flags spec.md §4.8 calls for: whether GetData
	// itself honors each of limit, offset and requestedColumns, or
	// whether the bridge must apply that part of the plan client-side
	// after GetData returns. An adapter that already applies a capability
	// unconditionally (e.g. memory's in-process filter) reports true;
	// one that can't push it at all (S3 Select has no OFFSET clause)
	// reports false and relies on the bridge's fallback.
	SupportsLimit() bool
	SupportsOffset() bool
	SupportsRequestedColumns() bool
}

// Mutable is implemented by adapters backing a writable table.
type Mutable interface {
	Adapter
	InsertRow(ctx context.Context, row lib.Row) (rowid int64, err error)
	UpdateRow(ctx context.Context, rowid int64, row lib.Row) error
	DeleteRow(ctx context.Context, rowid int64) error
	DropTable(ctx context.Context) error
}

// Factory constructs adapters of one kind and decides whether a given kind
// or URI is handled by it.
type Factory interface {
	// Kind is the short name used in CREATE VIRTUAL TABLE ... USING <kind>.
	Kind() string
	// Safe reports whether this adapter kind may be loaded in a
	// multi-tenant context without an operator opting in explicitly (pure
	// in-memory adapters are safe; anything touching the filesystem or
	// network is not).
	Safe() bool
	// Supports reports whether this factory can handle uri. fast asks for
	// a cheap, syntax-only answer; nil means "can't tell without a slower
	// check" and is only ever returned when fast is true.
	Supports(uri string, fast bool) *bool
	// ParseURI extracts constructor arguments from uri.
	ParseURI(uri string) ([]any, error)
	// New constructs an Adapter from parsed URI arguments plus keyword
	// configuration from the connection.
	New(ctx context.Context, args []any, kwargs map[string]any) (Adapter, error)
}

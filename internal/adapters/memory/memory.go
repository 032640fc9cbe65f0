// Package memory implements the pure in-process table adapter: the
// contract's reference implementation, equivalent to the fixture adapter
// the rest of the corpus tests the bridge against. It has no backing store
// beyond a slice held in the process, so it is always safe to load.
package memory

import (
	"context"
	"net/url"
	"sync"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/lib"
	"github.com/urisql/urisql/internal/sqlerr"
)

// Kind is the CREATE VIRTUAL TABLE ... USING name for this adapter.
const Kind = "memory"

// Adapter is a table backed by a plain Go slice, supporting full
// read/write access with no pushdown beyond what the in-memory filter in
// package lib already gives every adapter for free.
type Adapter struct {
	mu      sync.Mutex
	columns map[string]fields.Field
	order   []string
	rows    []lib.Row
	rowids  *lib.RowIDManager
}

var _ adapters.Mutable = (*Adapter)(nil)

// New creates an empty table with the given columns, in declaration order.
func New(order []string, columns map[string]fields.Field) (*Adapter, error) {
	rowids, err := lib.NewRowIDManager([][2]int64{{0, 0}})
	if err != nil {
		return nil, err
	}
	return &Adapter{columns: columns, order: order, rowids: rowids}, nil
}

func (a *Adapter) Columns() map[string]fields.Field { return a.columns }
func (a *Adapter) ColumnOrder() []string             { return a.order }

func (a *Adapter) GetData(ctx context.Context, bounds adapters.Bounds, order []adapters.OrderRequest, limit, offset *int, requestedColumns []string) (adapters.RowIterator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	terms := make([]lib.OrderTerm, len(order))
	for i, o := range order {
		terms[i] = lib.OrderTerm{Column: o.Column, Direction: o.Direction}
	}

	rows, err := lib.FilterData(a.rows, bounds, terms)
	if err != nil {
		return nil, err
	}
	return adapters.NewSliceIterator(lib.ApplyLimitAndOffset(rows, limit, offset)), nil
}

// SupportsLimit, SupportsOffset report true: both are already applied
// in-process via lib.ApplyLimitAndOffset above. SupportsRequestedColumns
// reports false -- GetData always returns every column.
func (a *Adapter) SupportsLimit() bool            { return true }
func (a *Adapter) SupportsOffset() bool           { return true }
func (a *Adapter) SupportsRequestedColumns() bool { return false }

// GetCost reports the current row count, whatever the bounds and order:
// every predicate is honored exactly via the shared in-memory filter, so
// pushdown never saves real I/O here.
func (a *Adapter) GetCost(bounds adapters.Bounds, order []adapters.OrderRequest) float64 {
	return float64(len(a.rows))
}

func (a *Adapter) InsertRow(ctx context.Context, row lib.Row) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var rowid *int64
	if v, ok := row["rowid"]; ok && v != nil {
		id := v.(int64)
		rowid = &id
	}
	id, err := a.rowids.Insert(rowid)
	if err != nil {
		return 0, err
	}

	stored := lib.Row{}
	for k, v := range row {
		if k == "rowid" {
			continue
		}
		stored[k] = v
	}
	stored["rowid"] = id
	a.rows = append(a.rows, stored)
	return id, nil
}

func (a *Adapter) UpdateRow(ctx context.Context, rowid int64, row lib.Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.rows {
		if r["rowid"].(int64) == rowid {
			updated := lib.Row{"rowid": rowid}
			for k, v := range row {
				if k == "rowid" {
					continue
				}
				updated[k] = v
			}
			a.rows[i] = updated
			return nil
		}
	}
	return sqlerr.NewProgrammingError("no row with that rowid", nil)
}

func (a *Adapter) DeleteRow(ctx context.Context, rowid int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.rows {
		if r["rowid"].(int64) == rowid {
			a.rows = append(a.rows[:i], a.rows[i+1:]...)
			return a.rowids.Delete(rowid)
		}
	}
	return sqlerr.NewProgrammingError("no row with that rowid", nil)
}

func (a *Adapter) DropTable(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = nil
	return nil
}

// Factory registers the memory adapter under Kind. Tables are named
// dummy://<anything>; the path is ignored, since the table starts empty
// regardless.
type Factory struct {
	DefaultColumns []string
	DefaultFields  map[string]fields.Field
}

var _ adapters.Factory = Factory{}

func (Factory) Kind() string { return Kind }
func (Factory) Safe() bool   { return true }

func (Factory) Supports(uri string, fast bool) *bool {
	parsed, err := url.Parse(uri)
	result := err == nil && parsed.Scheme == "dummy"
	return &result
}

func (Factory) ParseURI(uri string) ([]any, error) { return nil, nil }

func (f Factory) New(ctx context.Context, args []any, kwargs map[string]any) (adapters.Adapter, error) {
	order := f.DefaultColumns
	cols := f.DefaultFields
	if order == nil {
		order = []string{"name", "age", "pets"}
		cols = map[string]fields.Field{
			"name": fields.NewString(fields.WithFilters(fields.FilterEqual), fields.WithOrder(fields.OrderAny), fields.WithExact(true)),
			"age":  fields.NewFloat(fields.WithFilters(fields.FilterRange), fields.WithOrder(fields.OrderAny), fields.WithExact(true)),
			"pets": fields.NewInteger(fields.WithOrder(fields.OrderAny)),
		}
	}
	return New(order, cols)
}

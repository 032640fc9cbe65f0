package vtable

import (
	"context"

	"github.com/mattn/go-sqlite3"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/lib"
	"github.com/urisql/urisql/internal/sqlerr"
)

// Table bridges one adapter instance onto sqlite3.VTab/VTabUpdater.
type Table struct {
	adapter adapters.Adapter
	order   []string
}

var (
	_ sqlite3.VTab        = (*Table)(nil)
	_ sqlite3.VTabUpdater = (*Table)(nil)
)

func newTable(adapter adapters.Adapter) *Table {
	return &Table{adapter: adapter, order: adapter.ColumnOrder()}
}

// BestIndex translates SQLite's constraint/order-by arrays into a Plan via
// PlanBestIndex, then renders that plan back into the shapes
// mattn/go-sqlite3 expects: a ConstraintUsage per input constraint, an
// index string Filter can decode, and whether the adapter already
// produces the requested order.
func (t *Table) BestIndex(cst []sqlite3.IndexConstraint, ob []sqlite3.IndexOrderBy) (*sqlite3.IndexResult, error) {
	constraints := make([]ConstraintInput, len(cst))
	for i, c := range cst {
		constraints[i] = ConstraintInput{Column: c.Column, Op: opFromSQLite(c.Op), Usable: c.Usable}
	}
	orderBys := make([]OrderByInput, len(ob))
	for i, o := range ob {
		orderBys[i] = OrderByInput{Column: o.Column, Desc: o.Desc}
	}

	columns := t.adapter.Columns()
	cost := t.adapter.GetCost(nil, nil)
	plan := PlanBestIndex(t.order, columns, constraints, orderBys, cost, int64(cost))

	usage := make([]sqlite3.IndexConstraintUsage, len(plan.Constraints))
	for i, c := range plan.Constraints {
		if !c.Used {
			continue
		}
		usage[i] = sqlite3.IndexConstraintUsage{ArgvIndex: c.ArgvIndex + 1, Omit: c.Omit}
	}

	idxStr, err := encodePlan(plan)
	if err != nil {
		return nil, err
	}

	return &sqlite3.IndexResult{
		Used:           usage,
		IdxNum:         0,
		IdxStr:         idxStr,
		AlreadyOrdered: plan.AlreadyOrdered,
		EstimatedCost:  plan.EstimatedCost,
		EstimatedRows:  plan.EstimatedRows,
	}, nil
}

func (t *Table) Disconnect() error { return nil }

// Destroy is called when the virtual table is dropped; adapters that back
// real storage (a CSV file, an S3 object) remove it here.
func (t *Table) Destroy() error {
	if dropper, ok := t.adapter.(adapters.Mutable); ok {
		return dropper.DropTable(context.Background())
	}
	return nil
}

func (t *Table) Open() (sqlite3.VTabCursor, error) {
	return &Cursor{table: t}, nil
}

// Update implements INSERT/UPDATE/DELETE against the backing adapter, per
// SQLite's xUpdate convention: argv[0] == nil is an INSERT, a non-nil
// argv[0] equal to argv[1] is an UPDATE in place, argv[0] != argv[1] is a
// rowid-changing UPDATE done as DeleteRow(old) + InsertRow(new), and a
// single-element argv whose only entry is the rowid to remove is a
// DELETE.
func (t *Table) Update(argv []interface{}, rowidPtr *int64) error {
	mutable, ok := t.adapter.(adapters.Mutable)
	if !ok {
		return sqlerr.NewNotSupportedError("this table does not support writes", nil)
	}
	ctx := context.Background()

	if len(argv) == 1 {
		rowid, _ := argv[0].(int64)
		return mutable.DeleteRow(ctx, rowid)
	}

	columns := t.adapter.Columns()
	row := lib.Row{}
	for i, name := range t.order {
		if i+2 >= len(argv) {
			continue
		}
		storage := argv[i+2]
		if field, ok := columns[name]; ok {
			native, _ := field.Parse(storage)
			row[name] = native
			continue
		}
		row[name] = storage
	}

	if argv[0] == nil {
		id, err := mutable.InsertRow(ctx, row)
		if err != nil {
			return err
		}
		*rowidPtr = id
		return nil
	}

	oldRowid, _ := argv[0].(int64)
	newRowid, _ := argv[1].(int64)
	if oldRowid != newRowid {
		if err := mutable.DeleteRow(ctx, oldRowid); err != nil {
			return err
		}
		row["rowid"] = newRowid
		id, err := mutable.InsertRow(ctx, row)
		if err != nil {
			return err
		}
		*rowidPtr = id
		return nil
	}

	return mutable.UpdateRow(ctx, oldRowid, row)
}

func opFromSQLite(op byte) Op {
	switch op {
	case sqlite3.OpEQ:
		return OpEQ
	case sqlite3.OpGT:
		return OpGT
	case sqlite3.OpLE:
		return OpLE
	case sqlite3.OpLT:
		return OpLT
	case sqlite3.OpGE:
		return OpGE
	case sqlite3.OpLIKE, sqlite3.OpMATCH, sqlite3.OpGLOB:
		return OpLike
	case sqlite3.OpISNULL:
		return OpIsNull
	case sqlite3.OpISNOTNULL:
		return OpIsNotNull
	case sqlite3.OpNE:
		return OpNE
	case sqlite3.OpLIMIT:
		return OpLimit
	case sqlite3.OpOFFSET:
		return OpOffset
	default:
		return OpUnsupported
	}
}

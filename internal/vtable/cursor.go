package vtable

import (
	"context"
	"strconv"

	"github.com/mattn/go-sqlite3"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/filters"
	"github.com/urisql/urisql/internal/lib"
	"github.com/urisql/urisql/internal/sqlerr"
)

// Cursor walks the row set an adapter returned for one Filter call. iter
// is single-use: a fresh Filter call asks the adapter for a fresh
// iterator rather than rewinding this one.
type Cursor struct {
	table   *Table
	iter    adapters.RowIterator
	current lib.Row
	done    bool
}

var _ sqlite3.VTabCursor = (*Cursor)(nil)

// Filter decodes the index plan BestIndex produced, reconstructs the
// bound filters and ORDER BY terms it describes from the argv values
// SQLite supplies, and asks the adapter for matching rows.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []interface{}) error {
	plan, err := decodePlan(idxStr)
	if err != nil {
		return err
	}

	order := c.table.order
	bounds := adapters.Bounds{}
	var limit, offset *int

	for i, b := range plan.Bounds {
		if i >= len(vals) {
			continue
		}
		val := vals[i]

		if b.Column == RowidColumn {
			n, err := toInt(val)
			if err != nil {
				return err
			}
			switch b.Op {
			case OpLimit:
				limit = &n
			case OpOffset:
				offset = &n
			}
			continue
		}

		if b.Column >= len(order) {
			continue
		}
		name := order[b.Column]
		f, err := filterFromValue(b.Op, val)
		if err != nil {
			return err
		}
		if existing, ok := bounds[name]; ok {
			bounds[name] = filters.Intersect(existing, f)
		} else {
			bounds[name] = f
		}
	}

	for _, f := range bounds {
		if _, ok := f.(filters.Impossible); ok {
			c.iter = adapters.NewSliceIterator(nil)
			return c.pull()
		}
	}

	orderReqs := make([]adapters.OrderRequest, 0, len(plan.Order))
	for _, o := range plan.Order {
		if o.Column >= len(order) {
			continue
		}
		direction := fields.OrderAscending
		if o.Desc {
			direction = fields.OrderDescending
		}
		orderReqs = append(orderReqs, adapters.OrderRequest{Column: order[o.Column], Direction: direction})
	}

	adapter := c.table.adapter

	// limit/offset are only passed to GetData when the adapter's
	// capability flags say it can honor them; otherwise the bridge
	// applies them itself below via offsetIterator/limitIterator, after
	// the adapter streams back an unconstrained result.
	limitForAdapter, offsetForAdapter := limit, offset
	if !adapter.SupportsLimit() {
		limitForAdapter = nil
	}
	if !adapter.SupportsOffset() {
		offsetForAdapter = nil
	}

	// requestedColumns is always nil for now: mattn/go-sqlite3's xColumn
	// callback doesn't tell Filter which columns the query actually
	// needs before rows are produced, so there is no narrowed column
	// list to pass on yet even though SupportsRequestedColumns exists on
	// the interface for adapters that could use one if it were supplied.
	var requestedColumns []string

	iter, err := adapter.GetData(context.Background(), bounds, orderReqs, limitForAdapter, offsetForAdapter, requestedColumns)
	if err != nil {
		return err
	}
	if !adapter.SupportsOffset() && offset != nil {
		iter = adapters.NewOffsetIterator(iter, *offset)
	}
	if !adapter.SupportsLimit() && limit != nil {
		iter = adapters.NewLimitIterator(iter, *limit)
	}
	c.iter = iter
	return c.pull()
}

// pull advances the cursor by one row, recording whether the sequence is
// now exhausted.
func (c *Cursor) pull() error {
	row, ok, err := c.iter.Next()
	if err != nil {
		return err
	}
	c.current = row
	c.done = !ok
	return nil
}

func (c *Cursor) Next() error {
	return c.pull()
}

func (c *Cursor) EOF() bool {
	return c.done
}

func (c *Cursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	if c.EOF() || col >= len(c.table.order) {
		ctx.ResultNull()
		return nil
	}
	name := c.table.order[col]
	row := c.current
	field := c.table.adapter.Columns()[name]

	native := row[name]
	if field != nil {
		if formatted, ok := field.Format(native); ok {
			native = formatted
		}
	}

	switch v := native.(type) {
	case nil:
		ctx.ResultNull()
	case int64:
		ctx.ResultInt64(v)
	case float64:
		ctx.ResultDouble(v)
	case string:
		ctx.ResultText(v)
	case []byte:
		ctx.ResultBlob(v)
	case bool:
		if v {
			ctx.ResultInt(1)
		} else {
			ctx.ResultInt(0)
		}
	default:
		ctx.ResultNull()
	}
	return nil
}

func (c *Cursor) Rowid() (int64, error) {
	if c.EOF() {
		return 0, sqlerr.NewInternalError("Rowid called past end of cursor", nil)
	}
	id, _ := c.current["rowid"].(int64)
	return id, nil
}

func (c *Cursor) Close() error { return nil }

func toInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, sqlerr.NewDataError("malformed LIMIT/OFFSET value", err)
		}
		return n, nil
	default:
		return 0, sqlerr.NewDataError("malformed LIMIT/OFFSET value", nil)
	}
}

// filterFromValue turns one (operator, argv value) pair from SQLite into
// the matching filters.Filter, folding the four inequality operators into
// a Range via filters.BuildRange.
func filterFromValue(op Op, val interface{}) (filters.Filter, error) {
	switch op {
	case OpEQ:
		return filters.Equal{Value: val}, nil
	case OpNE:
		return filters.NotEqual{Value: val}, nil
	case OpGT:
		return filters.BuildRange([]filters.Constraint{{Op: filters.GT, Value: val}}), nil
	case OpGE:
		return filters.BuildRange([]filters.Constraint{{Op: filters.GE, Value: val}}), nil
	case OpLT:
		return filters.BuildRange([]filters.Constraint{{Op: filters.LT, Value: val}}), nil
	case OpLE:
		return filters.BuildRange([]filters.Constraint{{Op: filters.LE, Value: val}}), nil
	case OpLike:
		pattern, _ := val.(string)
		return filters.Like{Pattern: pattern}, nil
	case OpIsNull:
		return filters.IsNull{}, nil
	case OpIsNotNull:
		return filters.IsNotNull{}, nil
	default:
		return nil, sqlerr.NewInternalError("unsupported constraint operator reached Filter", nil)
	}
}

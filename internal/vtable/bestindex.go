// Package vtable bridges the adapter contract in internal/adapters onto
// SQLite's virtual-table protocol (github.com/mattn/go-sqlite3's
// Module/VTab/VTabCursor/VTabUpdater interfaces), the same BestIndex/
// Filter/Update callback shape the reference implementation wires onto
// APSW's virtual table support.
package vtable

import (
	"sort"

	"github.com/urisql/urisql/internal/fields"
)

// Op names the handful of SQLite constraint operators a column constraint
// can carry into BestIndex. Column-independent pseudo-constraints (LIMIT,
// OFFSET) use Column == RowidColumn.
type Op int

const (
	OpEQ Op = iota
	OpGT
	OpLE
	OpLT
	OpGE
	OpLike
	OpIsNull
	OpIsNotNull
	OpNE
	OpLimit
	OpOffset
	OpUnsupported
)

// RowidColumn is the column index SQLite uses for the rowid and for
// column-independent constraints such as LIMIT/OFFSET.
const RowidColumn = -1

// ConstraintInput mirrors one entry of the constraint array SQLite passes
// to xBestIndex, in the order SQLite presents them.
type ConstraintInput struct {
	Column int
	Op     Op
	Usable bool
}

// OrderByInput mirrors one entry of the ORDER BY array SQLite passes to
// xBestIndex.
type OrderByInput struct {
	Column int
	Desc   bool
}

// ConsumedConstraint records, for one input constraint, whether the
// adapter will evaluate it exactly (Omit) and, if so, its position in the
// argv array Filter receives.
type ConsumedConstraint struct {
	ArgvIndex int
	Omit      bool
	Used      bool
}

// Plan is the full BestIndex decision: which constraints are pushed down
// and how, whether the requested order is already satisfied, the encoded
// filter plan to hand back to SQLite as the index string, and a cost
// estimate used to pick between competing access plans.
type Plan struct {
	Constraints    []ConsumedConstraint
	Bounds         []BoundRequest
	OrderTerms     []OrderRequest
	AlreadyOrdered bool
	EstimatedCost  float64
	EstimatedRows  int64
}

// BoundRequest names one constraint the adapter will receive at Filter
// time: which declared column it binds, and under what operator.
type BoundRequest struct {
	Column int
	Op     Op
}

// OrderRequest names one ORDER BY term the adapter will receive at Filter
// time, once the plan determines the adapter can honor it itself.
type OrderRequest struct {
	Column int
	Desc   bool
}

func opToFilterKind(op Op) (fields.FilterKind, bool) {
	switch op {
	case OpEQ:
		return fields.FilterEqual, true
	case OpNE:
		return fields.FilterNotEqual, true
	case OpGT, OpGE, OpLT, OpLE:
		return fields.FilterRange, true
	case OpLike:
		return fields.FilterLike, true
	case OpIsNull:
		return fields.FilterIsNull, true
	case OpIsNotNull:
		return fields.FilterIsNotNull, true
	default:
		return 0, false
	}
}

// PlanBestIndex decides how much of a query SQLite hands over can be
// pushed down to the adapter. columnOrder maps a SQLite column index to
// the adapter's declared column name; cost/rows come from the adapter's
// GetCost, seeded with a fallback when the adapter reports nothing.
func PlanBestIndex(
	columnOrder []string,
	columns map[string]fields.Field,
	constraints []ConstraintInput,
	orderBys []OrderByInput,
	cost float64,
	rows int64,
) Plan {
	usage := make([]ConsumedConstraint, len(constraints))
	var bounds []BoundRequest
	argv := 0

	for i, c := range constraints {
		if !c.Usable {
			continue
		}
		if c.Column == RowidColumn {
			if c.Op == OpLimit || c.Op == OpOffset {
				usage[i] = ConsumedConstraint{ArgvIndex: argv, Omit: true, Used: true}
				bounds = append(bounds, BoundRequest{Column: c.Column, Op: c.Op})
				argv++
			}
			continue
		}

		kind, ok := opToFilterKind(c.Op)
		if !ok || c.Column >= len(columnOrder) {
			continue
		}
		name := columnOrder[c.Column]
		field, ok := columns[name]
		if !ok || !fields.Has(field, kind) {
			continue
		}

		usage[i] = ConsumedConstraint{ArgvIndex: argv, Omit: field.Exact(), Used: true}
		bounds = append(bounds, BoundRequest{Column: c.Column, Op: c.Op})
		argv++
	}

	alreadyOrdered, orderTerms := planOrder(columnOrder, columns, orderBys)

	if cost <= 0 {
		cost = 1
	}
	if rows <= 0 {
		rows = int64(cost)
	}

	return Plan{
		Constraints:    usage,
		Bounds:         bounds,
		OrderTerms:     orderTerms,
		AlreadyOrdered: alreadyOrdered,
		EstimatedCost:  cost,
		EstimatedRows:  rows,
	}
}

// planOrder decides whether every requested ORDER BY term can be honored
// without SQLite re-sorting the result itself. A field with Order.ANY can
// always satisfy whatever direction is asked; a field with a fixed
// ascending/descending order satisfies the request only when the
// direction already matches, and contributes no term to push down (the
// adapter produces that order unconditionally).
func planOrder(columnOrder []string, columns map[string]fields.Field, orderBys []OrderByInput) (bool, []OrderRequest) {
	if len(orderBys) == 0 {
		return true, nil
	}

	var terms []OrderRequest
	for _, ob := range orderBys {
		if ob.Column >= len(columnOrder) {
			return false, nil
		}
		name := columnOrder[ob.Column]
		field, ok := columns[name]
		if !ok {
			return false, nil
		}

		switch field.Order() {
		case fields.OrderAny:
			terms = append(terms, OrderRequest{Column: ob.Column, Desc: ob.Desc})
		case fields.OrderAscending:
			if ob.Desc {
				return false, nil
			}
		case fields.OrderDescending:
			if !ob.Desc {
				return false, nil
			}
		default:
			return false, nil
		}
	}
	return true, terms
}

// sortedColumns returns the adapter's declared columns in a deterministic
// order, used when building a virtual table's DDL.
func sortedColumns(columns map[string]fields.Field, order []string) []string {
	if len(order) > 0 {
		return order
	}
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

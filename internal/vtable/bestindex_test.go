package vtable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urisql/urisql/internal/fields"
)

func fakeColumns() ([]string, map[string]fields.Field) {
	order := []string{"age", "name", "pets"}
	columns := map[string]fields.Field{
		"age":  fields.NewFloat(fields.WithFilters(fields.FilterRange), fields.WithOrder(fields.OrderAny), fields.WithExact(true)),
		"name": fields.NewString(fields.WithFilters(fields.FilterEqual), fields.WithOrder(fields.OrderAny), fields.WithExact(true)),
		"pets": fields.NewInteger(fields.WithOrder(fields.OrderAny)),
	}
	return order, columns
}

func TestPlanBestIndexPushesEqualRangeAndLimit(t *testing.T) {
	order, columns := fakeColumns()
	plan := PlanBestIndex(order, columns,
		[]ConstraintInput{
			{Column: 1, Op: OpEQ, Usable: true},     // name =
			{Column: 2, Op: OpGT, Usable: true},     // pets > (no filters declared)
			{Column: 0, Op: OpLE, Usable: true},     // age <=
			{Column: RowidColumn, Op: OpLimit, Usable: true},
		},
		[]OrderByInput{{Column: 1, Desc: false}},
		42, 666,
	)

	assert.True(t, plan.Constraints[0].Used)
	assert.Equal(t, 0, plan.Constraints[0].ArgvIndex)
	assert.True(t, plan.Constraints[0].Omit)

	assert.False(t, plan.Constraints[1].Used)

	assert.True(t, plan.Constraints[2].Used)
	assert.Equal(t, 1, plan.Constraints[2].ArgvIndex)

	assert.True(t, plan.Constraints[3].Used)
	assert.Equal(t, 2, plan.Constraints[3].ArgvIndex)

	assert.True(t, plan.AlreadyOrdered)
	assert.Equal(t, 42.0, plan.EstimatedCost)
	assert.Equal(t, int64(666), plan.EstimatedRows)
}

func TestPlanBestIndexStaticOrderNotConsumedWhenMatching(t *testing.T) {
	order := []string{"age", "name", "pets"}
	columns := map[string]fields.Field{
		"age":  fields.NewFloat(fields.WithFilters(fields.FilterEqual), fields.WithOrder(fields.OrderNone)),
		"name": fields.NewString(fields.WithFilters(fields.FilterEqual), fields.WithOrder(fields.OrderAscending)),
		"pets": fields.NewInteger(),
	}

	plan := PlanBestIndex(order, columns,
		[]ConstraintInput{{Column: 1, Op: OpEQ, Usable: true}},
		[]OrderByInput{{Column: 1, Desc: false}},
		42, 666,
	)

	assert.True(t, plan.AlreadyOrdered)
	assert.Empty(t, plan.OrderTerms)
}

func TestPlanBestIndexStaticOrderMismatchForcesResort(t *testing.T) {
	order := []string{"age", "name", "pets"}
	columns := map[string]fields.Field{
		"age":  fields.NewFloat(fields.WithFilters(fields.FilterEqual), fields.WithOrder(fields.OrderNone)),
		"name": fields.NewString(fields.WithFilters(fields.FilterEqual), fields.WithOrder(fields.OrderAscending)),
		"pets": fields.NewInteger(),
	}

	plan := PlanBestIndex(order, columns,
		nil,
		[]OrderByInput{{Column: 0, Desc: true}},
		42, 666,
	)

	assert.False(t, plan.AlreadyOrdered)
}

func TestPlanBestIndexUnsupportedOperatorIsNotConsumed(t *testing.T) {
	order, columns := fakeColumns()
	plan := PlanBestIndex(order, columns,
		[]ConstraintInput{{Column: 1, Op: OpLike, Usable: true}}, // name has no Like filter
		[]OrderByInput{{Column: 1, Desc: false}},
		42, 666,
	)

	assert.False(t, plan.Constraints[0].Used)
	assert.True(t, plan.AlreadyOrdered)
}

func TestPlanBestIndexOrderAnyIsConsumedAsPushdownTerm(t *testing.T) {
	order, columns := fakeColumns()
	plan := PlanBestIndex(order, columns,
		nil,
		[]OrderByInput{{Column: 0, Desc: true}}, // age DESC, order=ANY
		42, 666,
	)

	assert.True(t, plan.AlreadyOrdered)
	assert.Equal(t, []OrderRequest{{Column: 0, Desc: true}}, plan.OrderTerms)
}

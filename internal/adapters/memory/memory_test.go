package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/filters"
	"github.com/urisql/urisql/internal/lib"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	f := Factory{}
	a, err := f.New(context.Background(), nil, nil)
	require.NoError(t, err)
	return a.(*Adapter)
}

func TestFactorySupportsDummyScheme(t *testing.T) {
	f := Factory{}
	assert.True(t, *f.Supports("dummy://anything", true))
	assert.False(t, *f.Supports("https://example.com", true))
}

func TestInsertAndGetData(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	id, err := a.InsertRow(ctx, lib.Row{"name": "Alice", "age": 20.0, "pets": int64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	id, err = a.InsertRow(ctx, lib.Row{"name": "Bob", "age": 23.0, "pets": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	rows, err := adapters.Collect(a.GetData(ctx, adapters.Bounds{"name": filters.Equal{Value: "Bob"}}, nil, nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0]["name"])
}

func TestUpdateRow(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id, _ := a.InsertRow(ctx, lib.Row{"name": "Alice", "age": 20.0, "pets": int64(0)})

	require.NoError(t, a.UpdateRow(ctx, id, lib.Row{"name": "Alicia", "age": 21.0, "pets": int64(1)}))

	rows, err := adapters.Collect(a.GetData(ctx, nil, nil, nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alicia", rows[0]["name"])
}

func TestDeleteRow(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id, _ := a.InsertRow(ctx, lib.Row{"name": "Alice", "age": 20.0, "pets": int64(0)})

	require.NoError(t, a.DeleteRow(ctx, id))

	rows, err := adapters.Collect(a.GetData(ctx, nil, nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Error(t, a.DeleteRow(ctx, id))
}

func TestDropTableClearsRows(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	a.InsertRow(ctx, lib.Row{"name": "Alice", "age": 20.0, "pets": int64(0)})

	require.NoError(t, a.DropTable(ctx))

	rows, err := adapters.Collect(a.GetData(ctx, nil, nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

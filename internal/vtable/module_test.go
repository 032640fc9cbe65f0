package vtable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/lib"
)

func TestDDLQuotesIdentifiersAndTypes(t *testing.T) {
	columns := map[string]fields.Field{
		"age":  fields.NewFloat(),
		"name": fields.NewString(),
	}
	ddl := DDL("people", []string{"age", "name"}, columns)
	assert.Equal(t, `CREATE TABLE "people" ("age" REAL, "name" TEXT)`, ddl)
}

func TestUnquoteArgStripsQuotesAndWhitespace(t *testing.T) {
	assert.Equal(t, "abc==", unquoteArg(` 'abc==' `))
	assert.Equal(t, "abc==", unquoteArg(`"abc=="`))
	assert.Equal(t, "abc==", unquoteArg(`abc==`))
}

func TestModuleConnectDecodesSerializedArgs(t *testing.T) {
	encoded, err := lib.Serialize("test.csv")
	require.NoError(t, err)

	m := &Module{Factory: stubFactory{}}
	table, err := m.connect([]string{"stub", "main", "t", "'" + encoded + "'"})
	require.NoError(t, err)
	require.NotNil(t, table)
}

type stubFactory struct{}

var _ adapters.Factory = stubFactory{}

func (stubFactory) Kind() string                         { return "stub" }
func (stubFactory) Safe() bool                            { return true }
func (stubFactory) Supports(uri string, fast bool) *bool { r := true; return &r }
func (stubFactory) ParseURI(uri string) ([]any, error)   { return nil, nil }
func (stubFactory) New(ctx context.Context, args []any, kwargs map[string]any) (adapters.Adapter, error) {
	return stubAdapter{}, nil
}

type stubAdapter struct{}

var _ adapters.Adapter = stubAdapter{}

func (stubAdapter) Columns() map[string]fields.Field { return nil }
func (stubAdapter) ColumnOrder() []string             { return nil }
func (stubAdapter) GetData(ctx context.Context, bounds adapters.Bounds, order []adapters.OrderRequest, limit, offset *int, requestedColumns []string) (adapters.RowIterator, error) {
	return adapters.NewSliceIterator(nil), nil
}
func (stubAdapter) GetCost(bounds adapters.Bounds, order []adapters.OrderRequest) float64 { return 1 }
func (stubAdapter) SupportsLimit() bool             { return true }
func (stubAdapter) SupportsOffset() bool            { return true }
func (stubAdapter) SupportsRequestedColumns() bool  { return false }

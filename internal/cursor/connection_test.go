package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/adapters/memory"
	"github.com/urisql/urisql/internal/obslog"
)

func newTestConnection(t *testing.T) *Connection {
	t.Helper()
	registry := adapters.NewRegistry(obslog.Discard())
	require.True(t, registry.Register(memory.Factory{}))

	conn, err := Connect(":memory:", registry, nil, false, "IMMEDIATE")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestConnectMaterializesUnknownTableOnFirstReference(t *testing.T) {
	conn := newTestConnection(t)
	cur, err := conn.Cursor()
	require.NoError(t, err)

	err = cur.Execute(`INSERT INTO "dummy://" (name, age, pets) VALUES ('Billy', 6, 1)`, nil)
	require.NoError(t, err)

	err = cur.Execute(`SELECT * FROM "dummy://"`, nil)
	require.NoError(t, err)

	rows, err := cur.FetchAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, cur.RowCount(), 1)
}

func TestConnectSchemaPrefixReachesSameVirtualTable(t *testing.T) {
	conn := newTestConnection(t)
	cur, err := conn.Cursor()
	require.NoError(t, err)

	require.NoError(t, cur.Execute(`INSERT INTO "dummy://" (name, age, pets) VALUES ('Alice', 20, 0)`, nil))
	require.NoError(t, cur.Execute(`SELECT * FROM main."dummy://"`, nil))

	rows, err := cur.FetchAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCloseIsNotIdempotent(t *testing.T) {
	conn := newTestConnection(t)

	require.NoError(t, conn.Close())
	err := conn.Close()
	assert.Error(t, err)
}

func TestCursorCloseIsNotIdempotent(t *testing.T) {
	conn := newTestConnection(t)
	cur, err := conn.Cursor()
	require.NoError(t, err)

	require.NoError(t, cur.Close())
	err = cur.Close()
	assert.Error(t, err)
}

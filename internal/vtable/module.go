package vtable

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/lib"
)

// Module implements sqlite3.Module for exactly one adapter kind: the
// cursor layer registers one Module instance per kind (CreateModule(kind,
// &Module{Factory: factory})) against each physical SQLite connection, so
// a CREATE VIRTUAL TABLE ... USING <kind>(...) statement resolves straight
// to that kind's Factory without any further dispatch.
type Module struct {
	Factory adapters.Factory
}

var _ sqlite3.Module = (*Module)(nil)

// Create builds a new backing adapter from the CREATE VIRTUAL TABLE
// arguments, declares its DDL to SQLite and returns the Table that will
// serve it.
func (m *Module) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	vtab, err := m.connect(args)
	if err != nil {
		return nil, err
	}
	table := vtab.(*Table)
	if err := c.DeclareVTab(DDL(args[2], table.order, table.adapter.Columns())); err != nil {
		return nil, err
	}
	return table, nil
}

// Connect re-attaches to an adapter whose schema was already declared in
// sqlite_master; adapters here hold no state tied to that cache entry, so
// this does the same work as Create.
func (m *Module) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Create(c, args)
}

// args follows CREATE VIRTUAL TABLE's convention: module, database, table,
// then one serialized token per constructor argument.
func (m *Module) connect(args []string) (sqlite3.VTab, error) {
	argv := make([]any, 0, len(args)-3)
	for _, raw := range args[3:] {
		decoded, err := lib.Deserialize(unquoteArg(raw))
		if err != nil {
			return nil, err
		}
		argv = append(argv, decoded)
	}

	adapter, err := m.Factory.New(context.Background(), argv, nil)
	if err != nil {
		return nil, err
	}
	return newTable(adapter), nil
}

func unquoteArg(raw string) string {
	trimmed := strings.TrimSpace(raw)
	return strings.Trim(trimmed, "'\"")
}

// DestroyModule releases any module-level state; Module holds none beyond
// the Factory it was constructed with.
func (m *Module) DestroyModule() {}

// DDL renders the CREATE TABLE statement SQLite needs to understand a
// virtual table's shape, column names quoted to tolerate arbitrary
// identifiers.
func DDL(tableName string, order []string, columns map[string]fields.Field) string {
	names := sortedColumns(columns, order)
	defs := make([]string, len(names))
	for i, name := range names {
		defs[i] = fmt.Sprintf(`"%s" %s`, lib.EscapeIdentifier(name), columns[name].Type().String())
	}
	return fmt.Sprintf(`CREATE TABLE "%s" (%s)`, lib.EscapeIdentifier(tableName), strings.Join(defs, ", "))
}

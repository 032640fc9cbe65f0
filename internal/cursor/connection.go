// Package cursor implements the DB-API 2.0-shaped connection/cursor pair
// described in spec.md §4.6/§6: a thin layer over database/sql and the
// registered sqlite3 driver that materializes unknown relations as
// virtual tables on first reference, instead of requiring callers to
// issue CREATE VIRTUAL TABLE themselves.
package cursor

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/sqlerr"
	"github.com/urisql/urisql/internal/vtable"
)

// APILevel, ThreadSafety and ParamStyle mirror the DB-API 2.0 module
// constants callers may want to introspect.
const (
	APILevel     = "2.0"
	ThreadSafety = 2
	ParamStyle   = "qmark"
)

// Connection owns a registry of adapter kinds and hands out cursors, each
// bound to its own physical sqlite3 connection so that a cursor's virtual
// tables and in-flight transaction are never shared across goroutines.
type Connection struct {
	db             *sql.DB
	registry       *adapters.Registry
	adapterArgs    map[string]map[string]any
	isolationLevel string
	safe           bool

	mu      sync.Mutex
	cursors []*Cursor
	closed  bool
}

// Connect opens path (":memory:" for an ephemeral database) and registers
// one SQLite virtual-table module per adapter kind known to registry,
// scoped to a driver name unique to this Connection: mattn/go-sqlite3
// registers modules against the driver, not the connection, so two
// Connections sharing a driver name would stomp on each other's module
// table.
func Connect(path string, registry *adapters.Registry, adapterArgs map[string]map[string]any, safe bool, isolationLevel string) (*Connection, error) {
	driverName := "urisql-" + uuid.NewString()
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, kind := range registry.Kinds() {
				factory, ok := registry.Lookup(kind)
				if !ok {
					continue
				}
				if safe && !factory.Safe() {
					continue
				}
				if err := conn.CreateModule(kind, &vtable.Module{Factory: factory}); err != nil {
					return err
				}
			}
			return nil
		},
	})

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, sqlerr.NewOperationalError("unable to open database", err)
	}
	if adapterArgs == nil {
		adapterArgs = map[string]map[string]any{}
	}

	return &Connection{
		db:             db,
		registry:       registry,
		adapterArgs:    adapterArgs,
		isolationLevel: isolationLevel,
		safe:           safe,
	}, nil
}

// Cursor returns a new Cursor bound to a dedicated connection from the
// pool, so its virtual table registrations and transaction state stay
// isolated from any sibling cursor.
func (c *Connection) Cursor() (*Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, sqlerr.NewProgrammingError("connection already closed", nil)
	}

	conn, err := c.db.Conn(context.Background())
	if err != nil {
		return nil, sqlerr.NewOperationalError("unable to reserve a connection", err)
	}

	cur := &Cursor{conn: conn, connection: c, arraySize: 1, rowCount: -1}
	c.cursors = append(c.cursors, cur)
	return cur, nil
}

// Execute is a convenience wrapper equivalent to Cursor().Execute(...).
func (c *Connection) Execute(operation string, params []any) (*Cursor, error) {
	cur, err := c.Cursor()
	if err != nil {
		return nil, err
	}
	if err := cur.Execute(operation, params); err != nil {
		return nil, err
	}
	return cur, nil
}

// Commit closes out every cursor's open transaction, if any.
func (c *Connection) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return sqlerr.NewProgrammingError("connection already closed", nil)
	}
	for _, cur := range c.cursors {
		if err := cur.commit(); err != nil {
			return err
		}
	}
	return nil
}

// Rollback aborts every cursor's open transaction, if any.
func (c *Connection) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return sqlerr.NewProgrammingError("connection already closed", nil)
	}
	for _, cur := range c.cursors {
		if err := cur.rollback(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every outstanding cursor, then the underlying database.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return sqlerr.NewProgrammingError("connection already closed", nil)
	}
	c.closed = true
	for _, cur := range c.cursors {
		if !cur.closed {
			_ = cur.Close()
		}
	}
	return c.db.Close()
}

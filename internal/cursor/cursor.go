package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/lib"
	"github.com/urisql/urisql/internal/sqlerr"
	"github.com/urisql/urisql/internal/values"
)

const noSuchTablePrefix = "no such table: "

// ColumnDescription is one entry of a Cursor's result description, shaped
// after DB-API 2.0's seven-tuple (name, type_code, display_size,
// internal_size, precision, scale, null_ok); only name and Type carry
// real information here; the rest are always nil/true per spec.md §3.
type ColumnDescription struct {
	Name         string
	Type         fields.Type
	DisplaySize  *int
	InternalSize *int
	Precision    *int
	Scale        *int
	NullOK       bool
}

// Cursor is a single statement's execution context: DB-API-shaped
// (execute/fetchone/fetchmany/fetchall/description/rowcount/arraysize),
// bound to one reserved *sql.Conn so its virtual tables and transaction
// state are never shared with a sibling cursor.
type Cursor struct {
	conn       *sql.Conn
	connection *Connection

	closed        bool
	inTransaction bool
	arraySize     int

	description []ColumnDescription
	rows        *sql.Rows
	rowCount    int
}

// ArraySize returns the number of rows FetchMany fetches when size is
// omitted; the DB-API default is 1.
func (c *Cursor) ArraySize() int { return c.arraySize }

// SetArraySize overrides the default FetchMany batch size.
func (c *Cursor) SetArraySize(n int) {
	if n > 0 {
		c.arraySize = n
	}
}

// Description reports the result shape of the last Execute, or nil before
// the first Execute or after a statement that returns no rows.
func (c *Cursor) Description() []ColumnDescription { return c.description }

// RowCount mirrors DB-API's rowcount: -1 before any row has been fetched,
// then the number of rows fetched so far; a row-returning result that is
// exhausted without yielding a row reports 0.
func (c *Cursor) RowCount() int {
	if c.rowCount < 0 {
		return -1
	}
	return c.rowCount
}

// Execute runs operation, coercing params through the value bridge, and
// materializes any virtual table SQLite reports as missing before
// retrying -- the "magic" of the bridge: callers never issue CREATE
// VIRTUAL TABLE themselves.
func (c *Cursor) Execute(operation string, params []any) error {
	if c.closed {
		return sqlerr.NewProgrammingError("cursor already closed", nil)
	}

	if !c.inTransaction && c.connection.isolationLevel != "" {
		if _, err := c.conn.ExecContext(context.Background(), "BEGIN "+c.connection.isolationLevel); err != nil {
			return sqlerr.NewOperationalError("failed to begin transaction", err)
		}
		c.inTransaction = true
	}

	c.description = nil
	c.rowCount = -1
	if c.rows != nil {
		_ = c.rows.Close()
		c.rows = nil
	}

	coerced, err := values.ToParams(params)
	if err != nil {
		return err
	}
	args := make([]any, len(coerced))
	for i, v := range coerced {
		args[i] = v
	}

	// A query against a not-yet-materialized URI fails once with "no such
	// table"; materialize it and retry exactly once more. A second
	// failure (a URI that can't be materialized, or an adapter that
	// keeps reporting the table missing) surfaces as ProgrammingError
	// rather than looping forever.
	const maxAttempts = 2
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rows, err := c.conn.QueryContext(context.Background(), operation, args...)
		if err == nil {
			c.rows = rows
			c.description, err = describe(rows)
			if err != nil {
				return err
			}
			return nil
		}
		lastErr = err

		name, ok := missingTable(err)
		if !ok {
			return sqlerr.NewProgrammingError("query failed", err)
		}
		if attempt == maxAttempts-1 {
			break
		}
		if cerr := c.materialize(name); cerr != nil {
			return cerr
		}
	}
	return sqlerr.NewProgrammingError("query failed after materializing virtual table", lastErr)
}

// Executemany is never supported: DB-API's executemany exists to let a
// driver batch inserts; this bridge has no batching path, so callers must
// loop over Execute themselves.
func (c *Cursor) Executemany(operation string, seqOfParams [][]any) error {
	return sqlerr.NewNotSupportedError("executemany is not supported, call Execute in a loop", nil)
}

// FetchOne returns the next row, or (nil, nil) once the result set is
// exhausted.
func (c *Cursor) FetchOne() ([]any, error) {
	if err := c.requireResult(); err != nil {
		return nil, err
	}
	if !c.rows.Next() {
		if c.description != nil {
			c.rowCount = max(c.rowCount, 0)
		}
		return nil, c.rows.Err()
	}
	row, err := c.scanRow()
	if err != nil {
		return nil, err
	}
	c.rowCount = max(c.rowCount, 0) + 1
	return row, nil
}

// FetchMany returns up to size rows (ArraySize() when size <= 0).
func (c *Cursor) FetchMany(size int) ([][]any, error) {
	if size <= 0 {
		size = c.arraySize
	}
	var out [][]any
	for len(out) < size {
		row, err := c.FetchOne()
		if err != nil {
			return out, err
		}
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

// FetchAll drains every remaining row.
func (c *Cursor) FetchAll() ([][]any, error) {
	var rows [][]any
	for {
		row, err := c.FetchOne()
		if err != nil {
			return rows, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// SetInputSizes and SetOutputSizes are no-ops, present for DB-API parity.
func (c *Cursor) SetInputSizes(sizes []int)  {}
func (c *Cursor) SetOutputSizes(sizes []int) {}

// Close is idempotent-by-error: calling it twice on an already-closed
// cursor raises a ProgrammingError rather than silently succeeding.
func (c *Cursor) Close() error {
	if c.closed {
		return sqlerr.NewProgrammingError("cursor already closed", nil)
	}
	if c.rows != nil {
		_ = c.rows.Close()
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Cursor) commit() error {
	if !c.inTransaction {
		return nil
	}
	if _, err := c.conn.ExecContext(context.Background(), "COMMIT"); err != nil {
		return sqlerr.NewOperationalError("commit failed", err)
	}
	c.inTransaction = false
	return nil
}

func (c *Cursor) rollback() error {
	if !c.inTransaction {
		return nil
	}
	if _, err := c.conn.ExecContext(context.Background(), "ROLLBACK"); err != nil {
		return sqlerr.NewOperationalError("rollback failed", err)
	}
	c.inTransaction = false
	return nil
}

func (c *Cursor) requireResult() error {
	if c.closed {
		return sqlerr.NewProgrammingError("cursor already closed", nil)
	}
	if c.rows == nil {
		return sqlerr.NewProgrammingError("fetch called before execute", nil)
	}
	return nil
}

func (c *Cursor) scanRow() ([]any, error) {
	cols := c.description
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, sqlerr.NewDataError("failed to scan row", err)
	}

	out := make([]any, len(cols))
	for i, v := range raw {
		out[i] = values.FromEngine(v)
	}
	return out, nil
}

func describe(rows *sql.Rows) ([]ColumnDescription, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, sqlerr.NewInternalError("failed to read column metadata", err)
	}
	if len(colTypes) == 0 {
		return nil, nil
	}
	desc := make([]ColumnDescription, len(colTypes))
	for i, ct := range colTypes {
		desc[i] = ColumnDescription{
			Name:   ct.Name(),
			Type:   typeFromDeclared(ct.DatabaseTypeName()),
			NullOK: true,
		}
	}
	return desc, nil
}

func typeFromDeclared(name string) fields.Type {
	switch strings.ToUpper(name) {
	case "INTEGER", "INT":
		return fields.TypeInteger
	case "REAL", "FLOAT", "DOUBLE":
		return fields.TypeFloat
	case "TEXT", "VARCHAR", "CHAR":
		return fields.TypeString
	default:
		return fields.TypeUnknown
	}
}

// missingTable extracts the relation name from a sqlite3 "no such table"
// error, the trigger for on-demand materialization.
func missingTable(err error) (string, bool) {
	msg := err.Error()
	idx := strings.Index(msg, noSuchTablePrefix)
	if idx == -1 {
		return "", false
	}
	name := strings.TrimSpace(msg[idx+len(noSuchTablePrefix):])
	name = strings.Trim(name, `"'`)
	return name, name != ""
}

// materialize finds the adapter that claims uri and issues the CREATE
// VIRTUAL TABLE statement for it, using the factory's own kind as the
// module name so it resolves through the Module registered for that kind
// at connection-open time.
func (c *Cursor) materialize(uri string) error {
	factory, argv, _, err := c.connection.registry.Find(uri, nil, c.connection.safe)
	if err != nil {
		return err
	}
	kind := factory.Kind()

	// Connection-level kwargs are keyed by adapter kind, so Find runs a
	// second time, over the whole registry, with this kind's kwargs once the
	// factory is known. Find returns the same argv ParseURI produced and
	// hands the kwargs back separately; they are not added to the CREATE
	// VIRTUAL TABLE arguments, so they do not reach the adapter.
	if extra, ok := c.connection.adapterArgs[kind]; ok && len(extra) > 0 {
		if _, reArgv, _, rerr := c.connection.registry.Find(uri, extra, c.connection.safe); rerr == nil {
			argv = reArgv
		}
	}

	tokens := make([]string, len(argv))
	for i, arg := range argv {
		encoded, err := lib.Serialize(arg)
		if err != nil {
			return err
		}
		tokens[i] = "'" + encoded + "'"
	}

	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE %s USING %s(%s)`, quoteIdentifier(uri), kind, strings.Join(tokens, ", "))
	_, err = c.conn.ExecContext(context.Background(), stmt)
	if err != nil {
		return sqlerr.NewOperationalError("failed to materialize virtual table", err)
	}
	return nil
}

// quoteIdentifier double-quotes name the way SQLite identifier quoting
// requires, doubling any embedded `"` rather than backslash-escaping it
// the way Go's %q verb would -- fmt.Sprintf("%q", ...) produces a Go
// string literal, not a valid SQLite quoted identifier, and the two
// disagree on any URI containing a literal double quote.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

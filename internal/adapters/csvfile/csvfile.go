// Package csvfile implements a local CSV file adapter with schema sniffing:
// no declared schema is read from the file, so the adapter samples every
// row to infer each column's Field type and sort order via
// internal/lib.Analyze, the same mechanism a headerless or loosely-typed
// remote source would need.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	yaml "github.com/goccy/go-yaml"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/lib"
	"github.com/urisql/urisql/internal/sqlerr"
)

// Options holds forward-compatible settings decoded from the optional
// second CREATE VIRTUAL TABLE argument, a YAML blob; unrecognized keys are
// ignored rather than rejected so older callers never break against a
// newer adapter.
type Options struct {
	Delimiter string `yaml:"delimiter"`
}

// decodeOptions parses raw as YAML into Options, defaulting Delimiter to a
// comma when raw is empty or the field is unset.
func decodeOptions(raw string) (Options, error) {
	opts := Options{Delimiter: ","}
	if raw == "" {
		return opts, nil
	}
	if err := yaml.Unmarshal([]byte(raw), &opts); err != nil {
		return Options{}, sqlerr.NewProgrammingError("malformed csvfile options", err)
	}
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	return opts, nil
}

// Kind is the CREATE VIRTUAL TABLE ... USING name for this adapter.
const Kind = "csvfile"

// Adapter is a table backed by a CSV file on disk: every mutation is
// flushed back to the file immediately, and DropTable removes the file
// entirely.
type Adapter struct {
	mu        sync.Mutex
	path      string
	delimiter rune
	order     []string
	columns   map[string]fields.Field
	rows      []lib.Row
	rowids    *lib.RowIDManager
}

var _ adapters.Mutable = (*Adapter)(nil)

// New reads path and infers its schema. Per the eager-probe resolution for
// this adapter, opening and sampling the file happens here, in the
// factory's New, rather than being deferred to the first GetColumns call.
func New(path string, opts Options) (*Adapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sqlerr.NewOperationalError(fmt.Sprintf("unable to open %q", path), err)
	}
	defer f.Close()

	delimiter := ','
	if opts.Delimiter != "" {
		delimiter = []rune(opts.Delimiter)[0]
	}
	reader := csv.NewReader(f)
	reader.Comma = delimiter
	records, err := reader.ReadAll()
	if err != nil {
		return nil, sqlerr.NewDataError(fmt.Sprintf("unable to parse %q as csv", path), err)
	}
	if len(records) < 2 {
		return nil, sqlerr.NewProgrammingError("the file has no rows", nil)
	}

	header := records[0]
	data := records[1:]

	isFloat := make([]bool, len(header))
	for col := range header {
		isFloat[col] = true
		for _, rec := range data {
			if col >= len(rec) || rec[col] == "" {
				continue
			}
			if _, err := strconv.ParseFloat(rec[col], 64); err != nil {
				isFloat[col] = false
				break
			}
		}
	}

	typedRows := make([]lib.Row, len(data))
	for i, rec := range data {
		row := lib.Row{"rowid": int64(i)}
		for col, name := range header {
			var value string
			if col < len(rec) {
				value = rec[col]
			}
			if isFloat[col] {
				f, _ := strconv.ParseFloat(value, 64)
				row[name] = f
			} else {
				row[name] = value
			}
		}
		typedRows[i] = row
	}

	_, order, types := lib.Analyze(typedRows)

	columns := make(map[string]fields.Field, len(header))
	for _, name := range header {
		opts := []fields.Option{
			fields.WithFilters(fields.FilterRange),
			fields.WithOrder(order[name]),
			fields.WithExact(true),
		}
		if types[name] == fields.TypeFloat {
			columns[name] = fields.NewFloat(opts...)
		} else {
			columns[name] = fields.NewString(opts...)
		}
	}

	rowids, err := lib.NewRowIDManager([][2]int64{{0, int64(len(typedRows))}})
	if err != nil {
		return nil, err
	}

	return &Adapter{
		path:      path,
		delimiter: delimiter,
		order:     header,
		columns:   columns,
		rows:      typedRows,
		rowids:    rowids,
	}, nil
}

func (a *Adapter) Columns() map[string]fields.Field { return a.columns }
func (a *Adapter) ColumnOrder() []string             { return a.order }

func (a *Adapter) GetData(ctx context.Context, bounds adapters.Bounds, order []adapters.OrderRequest, limit, offset *int, requestedColumns []string) (adapters.RowIterator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	terms := make([]lib.OrderTerm, len(order))
	for i, o := range order {
		terms[i] = lib.OrderTerm{Column: o.Column, Direction: o.Direction}
	}

	rows, err := lib.FilterData(a.rows, bounds, terms)
	if err != nil {
		return nil, err
	}
	return adapters.NewSliceIterator(lib.ApplyLimitAndOffset(rows, limit, offset)), nil
}

// SupportsLimit, SupportsOffset report true: both are applied in-process
// via lib.ApplyLimitAndOffset above. SupportsRequestedColumns reports
// false -- GetData always returns every column.
func (a *Adapter) SupportsLimit() bool            { return true }
func (a *Adapter) SupportsOffset() bool           { return true }
func (a *Adapter) SupportsRequestedColumns() bool { return false }

// GetCost reports the full scan size: every predicate is applied in memory
// after the whole file has been read, so there is no cheaper path.
func (a *Adapter) GetCost(bounds adapters.Bounds, order []adapters.OrderRequest) float64 {
	return float64(len(a.rows))
}

func (a *Adapter) InsertRow(ctx context.Context, row lib.Row) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var rowid *int64
	if v, ok := row["rowid"]; ok && v != nil {
		id := v.(int64)
		rowid = &id
	}
	id, err := a.rowids.Insert(rowid)
	if err != nil {
		return 0, err
	}

	stored := lib.Row{"rowid": id}
	for _, name := range a.order {
		stored[name] = row[name]
	}
	a.rows = append(a.rows, stored)

	if err := a.flush(); err != nil {
		return 0, err
	}
	return id, nil
}

func (a *Adapter) UpdateRow(ctx context.Context, rowid int64, row lib.Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.rows {
		if r["rowid"].(int64) == rowid {
			updated := lib.Row{"rowid": rowid}
			for _, name := range a.order {
				updated[name] = row[name]
			}
			a.rows[i] = updated
			return a.flush()
		}
	}
	return sqlerr.NewProgrammingError("no row with that rowid", nil)
}

func (a *Adapter) DeleteRow(ctx context.Context, rowid int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.rows {
		if r["rowid"].(int64) == rowid {
			a.rows = append(a.rows[:i], a.rows[i+1:]...)
			if err := a.rowids.Delete(rowid); err != nil {
				return err
			}
			return a.flush()
		}
	}
	return sqlerr.NewProgrammingError("no row with that rowid", nil)
}

// DropTable deletes the underlying file.
func (a *Adapter) DropTable(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return os.Remove(a.path)
}

func (a *Adapter) flush() error {
	f, err := os.Create(a.path)
	if err != nil {
		return sqlerr.NewOperationalError(fmt.Sprintf("unable to write %q", a.path), err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if a.delimiter != 0 {
		writer.Comma = a.delimiter
	}
	if err := writer.Write(a.order); err != nil {
		return sqlerr.NewOperationalError("unable to write csv header", err)
	}
	for _, row := range a.rows {
		record := make([]string, len(a.order))
		for i, name := range a.order {
			record[i] = formatCell(row[name])
		}
		if err := writer.Write(record); err != nil {
			return sqlerr.NewOperationalError("unable to write csv row", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", n)
	}
}

// Factory registers the csvfile adapter under Kind, matching URIs of the
// form csv://path or file://path.
type Factory struct{}

var _ adapters.Factory = Factory{}

func (Factory) Kind() string { return Kind }
func (Factory) Safe() bool   { return false }

func (Factory) Supports(uri string, fast bool) *bool {
	parsed, err := url.Parse(uri)
	result := err == nil && (parsed.Scheme == "csv" || parsed.Scheme == "file" || parsed.Scheme == "" && strings.HasSuffix(uri, ".csv"))
	return &result
}

func (Factory) ParseURI(uri string) ([]any, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, sqlerr.NewProgrammingError(fmt.Sprintf("malformed uri %q", uri), err)
	}
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}
	if path == "" {
		path = uri
	}
	return []any{path}, nil
}

// New builds the adapter from a file path and an optional second argument:
// a YAML blob of Options, the forward-compatible escape hatch for settings
// this adapter doesn't yet declare as its own positional argument.
func (Factory) New(ctx context.Context, args []any, kwargs map[string]any) (adapters.Adapter, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, sqlerr.NewProgrammingError("csvfile expects the file path, and optionally a yaml options blob", nil)
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, sqlerr.NewProgrammingError("csvfile's first argument must be a string path", nil)
	}

	var raw string
	if len(args) == 2 {
		raw, ok = args[1].(string)
		if !ok {
			return nil, sqlerr.NewProgrammingError("csvfile's second argument must be a yaml string", nil)
		}
	}
	opts, err := decodeOptions(raw)
	if err != nil {
		return nil, err
	}
	return New(path, opts)
}

package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/filters"
)

const sampleContents = `index,temperature,site
10,15.2,Diamond_St
11,13.1,Blacktail_Loop
12,13.3,Platinum_St
13,12.1,Kodiak_Trail
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleContents), 0o644))
	return path
}

func TestGetColumnsInfersTypesAndOrder(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	cols := a.Columns()
	assert.Equal(t, fields.TypeFloat, cols["index"].Type())
	assert.Equal(t, fields.OrderAscending, cols["index"].Order())
	assert.Equal(t, fields.TypeFloat, cols["temperature"].Type())
	assert.Equal(t, fields.TypeString, cols["site"].Type())
}

func TestDifferentTypesInColumnFallBackToString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n2.0\ntest\n"), 0o644))

	a, err := New(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, fields.TypeString, a.Columns()["a"].Type())
}

func TestEmptyFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := New(path, Options{})
	assert.Error(t, err)
}

func TestGetDataRoundTrip(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	rows, err := adapters.Collect(a.GetData(context.Background(), nil, nil, nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Diamond_St", rows[0]["site"])
}

func TestGetDataPushesRangeFilter(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	rows, err := adapters.Collect(a.GetData(context.Background(), adapters.Bounds{
		"index": filters.Range{Start: 11.0, IncludeStart: false},
	}, nil, nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Platinum_St", rows[0]["site"])
}

func TestGetDataImpossibleFilterYieldsNothing(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	rows, err := adapters.Collect(a.GetData(context.Background(), adapters.Bounds{"index": filters.Impossible{}}, nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsertFlushesToFile(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	_, err = a.InsertRow(context.Background(), map[string]any{"index": 14.0, "temperature": 10.1, "site": "New_Site"})
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "New_Site")
}

func TestDeleteRowFlushesToFile(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	rows, _ := adapters.Collect(a.GetData(context.Background(), nil, nil, nil, nil, nil))
	var targetID int64
	for _, r := range rows {
		if r["site"] == "Kodiak_Trail" {
			targetID = r["rowid"].(int64)
		}
	}
	require.NoError(t, a.DeleteRow(context.Background(), targetID))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(contents), "Kodiak_Trail")
}

func TestDropTableRemovesFile(t *testing.T) {
	path := writeSample(t)
	a, err := New(path, Options{})
	require.NoError(t, err)

	require.NoError(t, a.DropTable(context.Background()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFactorySupportsCSVAndFileSchemes(t *testing.T) {
	f := Factory{}
	assert.True(t, *f.Supports("csv://test.csv", true))
	assert.True(t, *f.Supports("file:///tmp/test.csv", true))
	assert.False(t, *f.Supports("https://example.com/data", true))
}

func TestFactoryParseURIExtractsPath(t *testing.T) {
	f := Factory{}
	args, err := f.ParseURI("file:///tmp/test.csv")
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, "/tmp/test.csv", args[0])
}

func TestDecodeOptionsDefaultsToComma(t *testing.T) {
	opts, err := decodeOptions("")
	require.NoError(t, err)
	assert.Equal(t, ",", opts.Delimiter)
}

func TestDecodeOptionsParsesDelimiter(t *testing.T) {
	opts, err := decodeOptions("delimiter: \";\"\n")
	require.NoError(t, err)
	assert.Equal(t, ";", opts.Delimiter)
}

func TestNewHonorsCustomDelimiter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "semi.csv")
	require.NoError(t, os.WriteFile(path, []byte("index;site\n1.0;Alpha\n2.0;Beta\n"), 0o644))

	a, err := New(path, Options{Delimiter: ";"})
	require.NoError(t, err)

	rows, err := adapters.Collect(a.GetData(context.Background(), nil, nil, nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0]["site"])
}

func TestFactoryNewRejectsWrongArgCount(t *testing.T) {
	f := Factory{}
	_, err := f.New(context.Background(), []any{}, nil)
	assert.Error(t, err)
	_, err = f.New(context.Background(), []any{"a", "b", "c"}, nil)
	assert.Error(t, err)
}

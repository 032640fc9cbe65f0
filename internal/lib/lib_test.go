package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/filters"
)

func TestRowIDManagerEmptyRangeErrors(t *testing.T) {
	_, err := NewRowIDManager(nil)
	assert.Error(t, err)
}

func TestRowIDManagerLifecycle(t *testing.T) {
	m, err := NewRowIDManager([][2]int64{{0, 6}})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, m.All())

	id, err := m.Insert(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6}, m.All())

	seven := int64(7)
	_, err = m.Insert(&seven)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7}, m.All())
	assert.Equal(t, [][2]int64{{0, 8}}, m.Ranges())

	nine := int64(9)
	_, err = m.Insert(&nine)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 9}, m.All())
	assert.Equal(t, [][2]int64{{0, 8}, {9, 10}}, m.Ranges())

	five := int64(5)
	_, err = m.Insert(&five)
	assert.Error(t, err)

	require.NoError(t, m.Delete(9))
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, -1}, m.All())

	require.NoError(t, m.Delete(4))
	assert.Equal(t, []int64{0, 1, 2, 3, -1, 5, 6, 7, -1}, m.All())

	err = m.Delete(9)
	assert.Error(t, err)

	require.NoError(t, m.Delete(5))
	assert.Equal(t, []int64{0, 1, 2, 3, -1, -1, 6, 7, -1}, m.All())

	require.NoError(t, m.Delete(7))
	assert.Equal(t, []int64{0, 1, 2, 3, -1, -1, 6, -1, -1}, m.All())
}

func TestAnalyzeInfersOrderAndType(t *testing.T) {
	rows := []Row{
		{"int": 1, "float": 10.0, "str": "Alice", "flag": false},
		{"int": 3, "float": 9.5, "str": "Bob", "flag": true},
		{"int": 2, "float": 8.0, "str": "Charlie", "flag": false},
	}
	numRows, order, types := Analyze(rows)
	assert.Equal(t, 3, numRows)
	assert.Equal(t, fields.OrderNone, order["int"])
	assert.Equal(t, fields.OrderDescending, order["float"])
	assert.Equal(t, fields.OrderAscending, order["str"])
	assert.Equal(t, fields.OrderNone, order["flag"])

	assert.Equal(t, fields.TypeInteger, types["int"])
	assert.Equal(t, fields.TypeFloat, types["float"])
	assert.Equal(t, fields.TypeString, types["str"])
	assert.Equal(t, fields.TypeBoolean, types["flag"])
}

func TestUpdateOrder(t *testing.T) {
	order := UpdateOrder(fields.OrderNone, nil, int64(1), 1)
	assert.Equal(t, fields.OrderNone, order)

	order = UpdateOrder(order, int64(1), int64(2), 2)
	assert.Equal(t, fields.OrderAscending, order)

	order = UpdateOrder(order, int64(2), int64(2), 3)
	assert.Equal(t, fields.OrderAscending, order)

	order = UpdateOrder(order, int64(2), int64(1), 4)
	assert.Equal(t, fields.OrderNone, order)
}

func TestUpdateOrderNilBreaksOrder(t *testing.T) {
	order := UpdateOrder(fields.OrderNone, nil, int64(1), 1)
	order = UpdateOrder(order, int64(1), nil, 2)
	assert.Equal(t, fields.OrderNone, order)
}

func TestEscapeUnescapeString(t *testing.T) {
	assert.Equal(t, "1", EscapeString("1"))
	assert.Equal(t, "O''Malley''s", EscapeString("O'Malley's"))
	assert.Equal(t, "O'Malley's", UnescapeString("O''Malley''s"))
}

func TestEscapeUnescapeIdentifier(t *testing.T) {
	assert.Equal(t, "1", EscapeIdentifier("1"))
	assert.Equal(t, `a dove called: ""Who? who? who?""`, EscapeIdentifier(`a dove called: "Who? who? who?"`))
	assert.Equal(t, `a dove called: "Who? who? who?"`, UnescapeIdentifier(`a dove called: ""Who? who? who?""`))
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	encoded, err := Serialize([]any{"O'Malley's"})
	require.NoError(t, err)

	decoded, err := Deserialize(encoded)
	require.NoError(t, err)
	assert.Equal(t, []any{"O'Malley's"}, decoded)
}

func TestSerializeRejectsFunctions(t *testing.T) {
	_, err := Serialize(func() int { return 42 })
	assert.Error(t, err)
}

func TestCombineArgsKwargs(t *testing.T) {
	params := []string{"a", "b", "c"}
	defaults := map[string]any{"a": 0, "b": "test", "c": 10.0}
	got := CombineArgsKwargs(params, defaults, nil, map[string]any{"b": "TEST"})
	assert.Equal(t, []any{0, "TEST", 10.0}, got)
}

func TestFilterDataEqual(t *testing.T) {
	rows := []Row{
		{"index": int64(10), "temperature": 15.2, "site": "Diamond_St"},
		{"index": int64(11), "temperature": 13.1, "site": "Blacktail_Loop"},
		{"index": int64(12), "temperature": 13.3, "site": "Platinum_St"},
		{"index": int64(13), "temperature": 12.1, "site": "Kodiak_Trail"},
	}

	got, err := FilterData(rows, map[string]filters.Filter{"index": filters.Equal{Value: int64(11)}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Blacktail_Loop", got[0]["site"])
}

func TestFilterDataRange(t *testing.T) {
	rows := []Row{
		{"index": int64(10), "temperature": 15.2},
		{"index": int64(11), "temperature": 13.1},
		{"index": int64(12), "temperature": 13.3},
		{"index": int64(13), "temperature": 12.1},
	}
	got, err := FilterData(rows, map[string]filters.Filter{
		"temperature": filters.Range{Start: 13.1, IncludeStart: false, IncludeEnd: false},
	}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0]["index"])
	assert.Equal(t, int64(12), got[1]["index"])
}

func TestFilterDataOrder(t *testing.T) {
	rows := []Row{
		{"index": int64(10)}, {"index": int64(11)}, {"index": int64(12)}, {"index": int64(13)},
	}
	got, err := FilterData(rows, nil, []OrderTerm{{Column: "index", Direction: fields.OrderDescending}})
	require.NoError(t, err)
	want := []int64{13, 12, 11, 10}
	for i, w := range want {
		assert.Equal(t, w, got[i]["index"])
	}
}

func TestFilterDataImpossibleYieldsNothing(t *testing.T) {
	rows := []Row{{"index": int64(10)}}
	got, err := FilterData(rows, map[string]filters.Filter{"index": filters.Impossible{}}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterDataNullChecks(t *testing.T) {
	rows := []Row{{"a": nil, "b": int64(10)}, {"a": int64(20), "b": nil}}

	got, err := FilterData(rows, map[string]filters.Filter{"a": filters.IsNull{}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0]["a"])

	got, err = FilterData(rows, map[string]filters.Filter{"a": filters.IsNotNull{}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(20), got[0]["a"])
}

func TestApplyLimitAndOffset(t *testing.T) {
	rows := make([]Row, 10)
	for i := range rows {
		rows[i] = Row{"n": int64(i)}
	}

	limit := 2
	got := ApplyLimitAndOffset(rows, &limit, nil)
	assert.Len(t, got, 2)

	offset := 2
	got = ApplyLimitAndOffset(rows, &limit, &offset)
	assert.Equal(t, int64(2), got[0]["n"])
	assert.Len(t, got, 2)

	got = ApplyLimitAndOffset(rows, nil, &offset)
	assert.Len(t, got, 8)
}

func TestBuildSQLBasic(t *testing.T) {
	columnOrder := []string{"a", "b"}
	columnFields := map[string]fields.Field{"a": fields.NewString(), "b": fields.NewFloat()}

	sql, err := BuildSQL(columnOrder, columnFields, map[string]filters.Filter{
		"a": filters.Equal{Value: "b"},
		"b": filters.NotEqual{Value: 1.0},
	}, nil, "", nil, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE a = 'b' AND b != 1", sql)
}

func TestBuildSQLRangeAndLimit(t *testing.T) {
	columnOrder := []string{"b"}
	columnFields := map[string]fields.Field{"b": fields.NewFloat()}
	limit := 5

	sql, err := BuildSQL(columnOrder, columnFields, map[string]filters.Filter{
		"b": filters.Range{Start: 1.0, End: 10.0, IncludeStart: false, IncludeEnd: true},
	}, nil, "some_table", nil, "", &limit, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM some_table WHERE b > 1 AND b <= 10 LIMIT 5", sql)
}

func TestBuildSQLWithAliasAndOrder(t *testing.T) {
	columnOrder := []string{"a", "b"}
	columnFields := map[string]fields.Field{"a": fields.NewString(), "b": fields.NewFloat()}

	sql, err := BuildSQL(columnOrder, columnFields, map[string]filters.Filter{
		"a": filters.Equal{Value: "b"},
	}, []OrderTerm{{Column: "a", Direction: fields.OrderAscending}}, "some_table", nil, "t", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM some_table AS t WHERE t.a = 'b' ORDER BY t.a", sql)
}

func TestBuildSQLImpossibleErrors(t *testing.T) {
	columnOrder := []string{"a"}
	columnFields := map[string]fields.Field{"a": fields.NewString()}
	_, err := BuildSQL(columnOrder, columnFields, map[string]filters.Filter{"a": filters.Impossible{}}, nil, "", nil, "", nil, nil)
	assert.Error(t, err)
}

type fakeProbe struct {
	name        string
	fastResults []*bool
	slowResults []*bool
	fastIdx     int
	slowIdx     int
	parsed      []any
}

func boolPtr(b bool) *bool { return &b }

func (f *fakeProbe) Supports(uri string, fast bool) *bool {
	if fast {
		r := f.fastResults[f.fastIdx]
		f.fastIdx++
		return r
	}
	r := f.slowResults[f.slowIdx]
	f.slowIdx++
	return r
}

func (f *fakeProbe) ParseURI(uri string) ([]any, error) {
	return f.parsed, nil
}

func TestFindAdapterFastMatch(t *testing.T) {
	a1 := &fakeProbe{name: "a1", fastResults: []*bool{boolPtr(true)}, parsed: []any{"1"}}
	a2 := &fakeProbe{name: "a2", fastResults: []*bool{nil}, slowResults: []*bool{boolPtr(false)}, parsed: []any{"2"}}

	found, args, _, err := FindAdapter("https://example.com/", nil, []AdapterProbe{a1, a2})
	require.NoError(t, err)
	assert.Same(t, a1, found)
	assert.Equal(t, []any{"1"}, args)
}

func TestFindAdapterDeferredSlowMatch(t *testing.T) {
	a1 := &fakeProbe{name: "a1", fastResults: []*bool{boolPtr(false)}}
	a2 := &fakeProbe{name: "a2", fastResults: []*bool{nil}, slowResults: []*bool{boolPtr(true)}, parsed: []any{"2"}}

	found, args, _, err := FindAdapter("https://example.com/", nil, []AdapterProbe{a1, a2})
	require.NoError(t, err)
	assert.Same(t, a2, found)
	assert.Equal(t, []any{"2"}, args)
}

func TestFindAdapterNoneMatchErrors(t *testing.T) {
	a1 := &fakeProbe{name: "a1", fastResults: []*bool{boolPtr(false)}}
	_, _, _, err := FindAdapter("https://example.com/", nil, []AdapterProbe{a1})
	assert.Error(t, err)
}

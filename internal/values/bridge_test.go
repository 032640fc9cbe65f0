package values

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToParamPrimitivesPassThrough(t *testing.T) {
	v, err := ToParam(int64(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = ToParam(3.14)
	require.NoError(t, err)
	assert.Equal(t, 3.14, v)

	v, err = ToParam("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = ToParam(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestToParamBooleanBecomesInteger(t *testing.T) {
	v, err := ToParam(true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = ToParam(false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestToParamNarrowIntegersWiden(t *testing.T) {
	v, err := ToParam(int32(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestToParamTimeFormatsWithOffset(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, loc)

	v, err := ToParam(ts)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02T03:04:05+02:00", v)
}

func TestToParamDurationUsesFieldFormat(t *testing.T) {
	v, err := ToParam(90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "01:30:00", v)
}

func TestToParamDecimalFormatsAsString(t *testing.T) {
	v, err := ToParam(big.NewRat(1, 4))
	require.NoError(t, err)
	assert.Equal(t, "0.25", v)
}

func TestToParamUnknownTypeFallsBackToJSON(t *testing.T) {
	v, err := ToParam(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, v.(string))
}

func TestToParamsAppliesAcrossList(t *testing.T) {
	out, err := ToParams([]any{int64(1), true, "x"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(1), "x"}, out)
}

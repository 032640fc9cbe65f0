package obslog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityToLevel(t *testing.T) {
	_, err := SeverityToLevel("bogus")
	assert.Error(t, err)

	lvl, err := SeverityToLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, "WARN", lvl.String())
}

func TestStdLoggerRoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewStdLogger(&out, &errOut, Debug)
	require.NoError(t, err)

	logger.InfoContext(context.Background(), "hello")
	logger.ErrorContext(context.Background(), "boom")

	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, errOut.String(), "boom")
	assert.NotContains(t, out.String(), "boom")
}

func TestStructuredLoggerEmitsJSON(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewStructuredLogger(&out, &errOut, Info)
	require.NoError(t, err)

	logger.InfoContext(context.Background(), "loaded adapter", "kind", "csvfile")

	line := out.String()
	assert.True(t, strings.Contains(line, `"message":"loaded adapter"`))
	assert.True(t, strings.Contains(line, `"severity":"INFO"`))
	assert.True(t, strings.Contains(line, `"kind":"csvfile"`))
}

func TestNewDispatchesOnFormat(t *testing.T) {
	var out, errOut bytes.Buffer
	_, err := New("json", "info", &out, &errOut)
	require.NoError(t, err)

	_, err = New("standard", "info", &out, &errOut)
	require.NoError(t, err)

	_, err = New("xml", "info", &out, &errOut)
	assert.Error(t, err)
}

func TestDiscardSwallowsOutput(t *testing.T) {
	logger := Discard()
	logger.ErrorContext(context.Background(), "should not panic")
}

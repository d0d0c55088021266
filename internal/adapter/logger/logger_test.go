package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("serve", &buf)

	l.Info("order_packed", "Order packed", "req-1", map[string]any{"order_number": "TMT-1"})
	l.Error("db_error", "Insert failed", "", nil, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first.Level)
	assert.Equal(t, "serve", first.Service)
	assert.Equal(t, "order_packed", first.Action)
	assert.Equal(t, "req-1", first.RequestID)
	assert.Equal(t, "TMT-1", first.Details["order_number"])
	assert.Nil(t, first.Error)

	var second LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ERROR", second.Level)
	require.NotNil(t, second.Error)
	assert.Equal(t, "boom", second.Error.Msg)
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

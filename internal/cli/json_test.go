package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_IndentedObject(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := writeJSON(&buf, struct {
		Wallet string `json:"wallet"`
		Count  int    `json:"count"`
	}{Wallet: "savings", Count: 3})
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"wallet\": \"savings\",\n  \"count\": 3\n}\n", buf.String())
}

func TestWriteJSON_Nil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, nil))
	assert.Equal(t, "null\n", buf.String())
}

func TestWriteJSON_Slice(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, []string{"eth", "btc"}))

	var decoded []string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"eth", "btc"}, decoded)
}

func TestWriteJSON_UnsupportedValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding JSON output")
	assert.Zero(t, buf.Len())
}

func TestWriteJSON_WriteFailure(t *testing.T) {
	t.Parallel()

	err := writeJSON(failWriter{}, map[string]string{"status": "ok"})
	require.ErrorIs(t, err, errSinkClosed)
}

var errSinkClosed = errors.New("sink closed")

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errSinkClosed }

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"none", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"  info  ", zerolog.InfoLevel},
		{"", zerolog.ErrorLevel},
		{"bogus", zerolog.ErrorLevel},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.input))
		})
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "info")

	logger.Info().Str("chain", "eth").Msg("derived address")
	logger.Debug().Msg("suppressed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "derived address", entry["message"])
	assert.Equal(t, "eth", entry["chain"])
	assert.NotContains(t, buf.String(), "suppressed")
}

func TestInit_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyfold.log")

	require.NoError(t, Init("debug", path, true))
	Info().Str("component", "test").Msg("hello")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Logger = NewJSONLogger(&buf, "debug")

	WithComponent("session").Info().Msg("ready")

	assert.Contains(t, buf.String(), `"component":"session"`)
	assert.Contains(t, buf.String(), "ready")
}

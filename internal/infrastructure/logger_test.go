package infrastructure

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashcli/internal/config"
)

func testLoggingConfig() config.LoggingConfig {
	return config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		FilePath:   "collector.log",
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}
}

func TestInitializeLoggerWritesJSONToFile(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	dir := t.TempDir()
	logger, err := InitializeLogger(testLoggingConfig(), dir)
	require.NoError(t, err)

	logger.Info("collection started", "securities", 42)
	require.NoError(t, CloseLogFile())

	raw, err := os.ReadFile(filepath.Join(dir, "collector.log"))
	require.NoError(t, err)

	line := strings.TrimSpace(strings.Split(string(raw), "\n")[0])
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "collection started", entry["msg"])
	assert.EqualValues(t, 42, entry["securities"])
}

func TestTraceIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	dir := t.TempDir()
	logger, err := InitializeLogger(testLoggingConfig(), dir)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "fetch complete")
	require.NoError(t, CloseLogFile())

	raw, err := os.ReadFile(filepath.Join(dir, "collector.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"trace_id":"trace-123"`)
}

func TestLoggerWithContext(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	dir := t.TempDir()
	_, err := InitializeLogger(testLoggingConfig(), dir)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-456")
	LoggerWithContext(ctx).Info("upgrade failed")
	LoggerWithContext(context.Background()).Info("no trace")
	require.NoError(t, CloseLogFile())

	raw, err := os.ReadFile(filepath.Join(dir, "collector.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"trace_id":"trace-456"`)
	assert.NotContains(t, lines[1], "trace_id")
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := WithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", GetTraceID(ctx))

	ctx = EnsureTraceID(context.Background())
	assert.NotEmpty(t, GetTraceID(ctx))
	again := EnsureTraceID(ctx)
	assert.Equal(t, GetTraceID(ctx), GetTraceID(again), "existing trace ID is kept")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input).String(), tt.input)
	}
}

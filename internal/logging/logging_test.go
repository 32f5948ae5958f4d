package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogOutput 把全局日志临时重定向到缓冲区
func captureLogOutput(t *testing.T, level Level, format Format, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	InitLogger(level, format, &buf)
	defer InitLogger(LevelInfo, FormatText, os.Stderr)

	f()
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{input: "debug", expected: LevelDebug},
		{input: "INFO", expected: LevelInfo},
		{input: "", expected: LevelInfo},
		{input: "warning", expected: LevelWarn},
		{input: "error", expected: LevelError},
		{input: "trace", expected: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestInitLogger_LevelFilter(t *testing.T) {
	output := captureLogOutput(t, LevelWarn, FormatText, func() {
		Info("hidden")
		Warn("shown", "key", "value")
	})

	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "shown")
	assert.Contains(t, output, "key=value")
}

func TestLoggerFromContext(t *testing.T) {
	output := captureLogOutput(t, LevelDebug, FormatJSON, func() {
		ctx := WithDocument(context.Background(), "a.hwpx", "run-1")
		InfoContext(ctx, "processed", "modified", 2)
		Stage(ctx, "rewrite", time.Now())
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "processed", entry["msg"])
	assert.Equal(t, "a.hwpx", entry["document"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, float64(2), entry["modified"])

	_, err := time.Parse(time.RFC3339, entry["time"].(string))
	assert.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "stage_done", entry["msg"])
	assert.Equal(t, "rewrite", entry["stage"])
}

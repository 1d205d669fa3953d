package logging

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wpsteward/wpsteward/internal/ports"
)

func TestConsoleLogger_TextFormat(t *testing.T) {
	var buf strings.Builder
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithTimestamp(false),
	)

	logger.Info(context.Background(), "step started", ports.F("step", "core"))

	assert.Equal(t, "[INFO] step started step=core\n", buf.String())
}

func TestConsoleLogger_JSONFormat(t *testing.T) {
	var buf strings.Builder
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithJSONFormat(true),
		WithTimestamp(false),
	)

	logger.Warn(context.Background(), "commit failed", ports.F("step", "plugins"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "commit failed", entry["msg"])
	assert.Equal(t, "plugins", entry["step"])
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf strings.Builder
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelWarn),
		WithTimestamp(false),
	)

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "hidden too")
	logger.Error(context.Background(), "shown")

	assert.Equal(t, "[ERROR] shown\n", buf.String())
}

func TestConsoleLogger_With(t *testing.T) {
	var buf strings.Builder
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithTimestamp(false),
	)

	child := logger.With(ports.F("run_id", "abc"))
	child.Info(context.Background(), "started")

	assert.Contains(t, buf.String(), "run_id=abc")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()

	// Must not panic, must keep its level.
	logger.Debug(context.Background(), "x")
	logger.Info(context.Background(), "x")
	logger.Warn(context.Background(), "x")
	logger.Error(context.Background(), "x")
	logger.SetLevel(ports.LevelError)

	assert.Equal(t, ports.LevelError, logger.Level())
	assert.Same(t, logger, logger.With(ports.F("a", 1)))
}

// internal/logging/logger_test.go
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerConfig_Validate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		config := &LoggerConfig{
			Level:  LevelInfo,
			Format: FormatJSON,
		}
		err := config.Validate()
		assert.NoError(t, err)
	})

	t.Run("rejects invalid level", func(t *testing.T) {
		config := &LoggerConfig{Level: "invalid"}
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "level")
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		config := &LoggerConfig{Format: "logfmt"}
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "format")
	})

	t.Run("applies defaults", func(t *testing.T) {
		config := &LoggerConfig{}
		config.ApplyDefaults()
		assert.Equal(t, LevelInfo, config.Level)
		assert.Equal(t, FormatJSON, config.Format)
		assert.NotNil(t, config.Output)
	})
}

func TestNew(t *testing.T) {
	t.Run("creates logger with nil config", func(t *testing.T) {
		logger, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		_, err := New(&LoggerConfig{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("writes json entries at or above level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&LoggerConfig{Level: LevelWarn, Output: &buf})
		require.NoError(t, err)

		logger.Info("dropped")
		logger.Warn("kept")
		_ = logger.Sync()

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 1)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(lines[0], &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "warn", entry["level"])
		assert.Contains(t, entry, "timestamp")
	})
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&LoggerConfig{Level: LevelDebug, Output: &buf})
	require.NoError(t, err)

	ctx := ContextWithInvocationID(context.Background(), "inv-123")
	WithContext(ctx, logger).Info("hello")
	_ = logger.Sync()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "inv-123", entry["invocation_id"])
}

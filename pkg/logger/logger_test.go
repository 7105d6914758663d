package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		level  string
		format string
	}{
		{
			name:   "debug level console",
			level:  logger.LogLevelDebug,
			format: logger.ConsoleLoggingFormat,
		},
		{
			name:   "info level json",
			level:  logger.LogLevelInfo,
			format: logger.JSONLoggingFormat,
		},
		{
			name:   "unknown level falls back to info",
			level:  "verbose",
			format: logger.ConsoleLoggingFormat,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.NewWithWriter(tc.level, tc.format, &buf)
			require.NotNil(t, log.Logger)
		})
	}
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		ctx      context.Context
		expected map[string]any
		absent   []string
	}{
		{
			name:     "adds request id",
			ctx:      context.WithValue(context.Background(), logger.ContextKeyRequestID, "req-1"),
			expected: map[string]any{"request_id": "req-1"},
		},
		{
			name:     "adds viewer id",
			ctx:      context.WithValue(context.Background(), logger.ContextKeyViewerID, int64(42)),
			expected: map[string]any{"viewer_id": float64(42)},
		},
		{
			name:   "skips empty request id",
			ctx:    context.WithValue(context.Background(), logger.ContextKeyRequestID, ""),
			absent: []string{"request_id", "viewer_id", "trace_id"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.NewBufferedTestLogger(&buf)

			ctxLogger := log.WithContext(tc.ctx)
			ctxLogger.Info().Msg("query executed")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			for key, value := range tc.expected {
				require.Equal(t, value, entry[key])
			}

			for _, key := range tc.absent {
				require.NotContains(t, entry, key)
			}
		})
	}
}

func TestComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewBufferedTestLogger(&buf).Component("executor")

	log.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "executor", entry["component"])
}

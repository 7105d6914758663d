package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	JSONLoggingFormat    = "json"
	ConsoleLoggingFormat = "console"

	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
	LogLevelFatal   = "fatal"
	LogLevelPanic   = "panic"

	ContextKeyRequestID     contextKey = "requestID"
	ContextKeyCorrelationID contextKey = "correlationID"
	ContextKeyViewerID      contextKey = "viewerID"
)

var levels = map[string]zerolog.Level{
	LogLevelDebug:   zerolog.DebugLevel,
	LogLevelInfo:    zerolog.InfoLevel,
	LogLevelWarn:    zerolog.WarnLevel,
	LogLevelWarning: zerolog.WarnLevel,
	LogLevelError:   zerolog.ErrorLevel,
	LogLevelFatal:   zerolog.FatalLevel,
	LogLevelPanic:   zerolog.PanicLevel,
}

// Logger embeds zerolog so call sites keep the fluent event API.
type Logger struct {
	zerolog.Logger
}

func New(level, format string) Logger {
	return NewWithWriter(level, format, os.Stdout)
}

func NewWithWriter(level, format string, w io.Writer) Logger {
	logLevel, ok := levels[strings.ToLower(level)]
	if !ok {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var base zerolog.Logger
	if format == JSONLoggingFormat {
		base = zerolog.New(w)
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}

	return Logger{Logger: base.With().Timestamp().Logger()}
}

// Component returns a child logger tagged with the given component name.
func (l Logger) Component(name string) Logger {
	return Logger{Logger: l.With().Str("component", name).Logger()}
}

// WithContext enriches the logger with request, viewer and trace identifiers
// found in ctx.
func (l Logger) WithContext(ctx context.Context) zerolog.Logger {
	fields := l.With()

	if correlationID, ok := ctx.Value(ContextKeyCorrelationID).(string); ok && correlationID != "" {
		fields = fields.Str("correlation_id", correlationID)
	}

	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok && requestID != "" {
		fields = fields.Str("request_id", requestID)
	}

	if viewerID, ok := ctx.Value(ContextKeyViewerID).(int64); ok && viewerID != 0 {
		fields = fields.Int64("viewer_id", viewerID)
	}

	if spanCtx := trace.SpanFromContext(ctx).SpanContext(); spanCtx.IsValid() {
		fields = fields.
			Str("trace_id", spanCtx.TraceID().String()).
			Str("span_id", spanCtx.SpanID().String())
	}

	return fields.Logger()
}

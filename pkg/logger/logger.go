// Package logger holds the process-wide zerolog logger. Handlers and
// usecases log through the context helpers so every line carries the ids of
// the active trace.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

var Logger zerolog.Logger

// Init builds the global logger for a service. Development gets a console
// writer; everything else logs JSON to stdout.
func Init(service string, development bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.Kitchen,
		}
	}

	Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Logger()

	log.Logger = Logger
}

// SetLevel applies a level name from configuration. Unknown names fall back
// to info instead of failing startup.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// WithContext returns the global logger enriched with the trace and span ids
// of the active span, when there is one.
func WithContext(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &Logger
	}

	l := Logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}

// Debug logs at debug level with trace context
func Debug(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Debug()
}

// Info logs at info level with trace context
func Info(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Info()
}

// Warn logs at warn level with trace context
func Warn(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Warn()
}

// Error logs at error level with trace context
func Error(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Error()
}

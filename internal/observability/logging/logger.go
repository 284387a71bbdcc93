package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"newscrawl/internal/handler/http/requestid"
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Format is json or text. Unknown values mean json.
	Format string
	Writer io.Writer
}

// OptionsFromEnv reads LOG_LEVEL and LOG_FORMAT.
func OptionsFromEnv() Options {
	return Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
		Writer: os.Stdout,
	}
}

// New creates a logger from opts.
func New(opts Options) *slog.Logger {
	level := parseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		// Source locations only when debugging.
		AddSource: level <= slog.LevelDebug,
	}

	if strings.EqualFold(opts.Format, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

// NewLogger creates a logger configured from the environment.
// JSON to stdout unless LOG_FORMAT=text.
func NewLogger() *slog.Logger {
	return New(OptionsFromEnv())
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID returns a logger carrying the request ID from ctx, if any.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}

// WithCycleID stores the crawl cycle ID in ctx and attaches it to the
// context logger so every line logged during the cycle carries it.
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	ctx = context.WithValue(ctx, cycleIDContextKey, cycleID)
	return WithLogger(ctx, FromContext(ctx).With("cycle_id", cycleID))
}

// CycleIDFromContext returns the cycle ID stored by WithCycleID.
func CycleIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(cycleIDContextKey).(string); ok {
		return id
	}
	return ""
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const (
	loggerContextKey  contextKey = "logger"
	cycleIDContextKey contextKey = "cycle_id"
)

// Package logging configures the process-wide structured logger on top of
// log/slog and ties log entries to request IDs.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"basket-recs/internal/handler/http/requestid"
)

// NewLogger builds the process logger. LOG_LEVEL selects the minimum level
// (debug, info, warn, error; default info), and LOG_FORMAT=text switches
// from JSON to human-readable output for local runs.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{
		Level: level,
		// warn 以下の場合はソース位置も出す
		AddSource: level <= slog.LevelWarn,
	}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID annotates the logger with the request ID carried in ctx,
// so every entry for the same request shares one correlation key.
// The logger is returned unchanged when ctx carries no request ID.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}

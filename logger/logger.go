package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Info(msg string, keyvals ...interface{})

	Warn(msg string, keyvals ...interface{})

	Error(msg string, keyvals ...interface{})

	Debug(msg string, keyvals ...interface{})
}

// New logs JSON to stderr at the level named by LOG_LEVEL (info when unset).
func New() Logger {
	return NewWithWriter(os.Stderr, parseLevel(os.Getenv("LOG_LEVEL")))
}

func NewWithWriter(w io.Writer, level slog.Leveler) Logger {
	opts := &slog.HandlerOptions{
		Level:     level, // minimum log level
		AddSource: true,  // include file + line number
	}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

package logger

import (
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// Init initializes the package logger with a JSON handler writing to
// stdout. The level comes from LOG_LEVEL and defaults to info.
func Init() {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	Logger = slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. JSON output keeps log aggregation
// simple; handlers attach request-scoped attributes themselves.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

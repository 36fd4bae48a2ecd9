package observability

import (
	"io"
	"log/slog"
	"os"
)

// JSON logger shared by the whole process. Components derive their own
// loggers with With("component", ...).
var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// Logger returns the process-wide logger.
func Logger() *slog.Logger {
	return logger
}

// SetOutput redirects log output, used by the CLI to keep the chat
// transcript clean, and by tests to capture log lines.
func SetOutput(w io.Writer, level slog.Level) {
	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithComponent returns a logger tagged for one component.
func WithComponent(name string) *slog.Logger {
	return logger.With("component", name)
}

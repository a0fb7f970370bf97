// Package logging provides the default queue.Logger implementation used by
// cmd/matchqueued, built on log/slog.
package logging

import (
	"log/slog"
	"os"
)

// SlogLogger adapts an *slog.Logger to queue.Logger's Info/Warn/Error/Debug
// shape.
type SlogLogger struct {
	logger *slog.Logger
}

// New returns a SlogLogger writing structured text to os.Stdout at the
// given level.
func New(level slog.Level) *SlogLogger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(handler)}
}

// NewJSON returns a SlogLogger writing structured JSON, for deployments
// that feed logs into a collector rather than a terminal.
func NewJSON(level slog.Level) *SlogLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(handler)}
}

func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// With returns a SlogLogger that always includes the given key-value pairs,
// e.g. for per-request or per-subsystem context.
func (l *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_ImplementsLoggerShape(t *testing.T) {
	l := New(slog.LevelInfo)
	assert.NotPanics(t, func() {
		l.Info("starting", "component", "test")
		l.Warn("slow response", "ms", 120)
		l.Error("failed", "error", "boom")
		l.Debug("trace", "step", 1)
	})
}

func TestSlogLogger_WithAddsContext(t *testing.T) {
	l := New(slog.LevelInfo)
	scoped := l.With("subsystem", "matcher")
	assert.NotNil(t, scoped)
	assert.NotPanics(t, func() { scoped.Info("tick") })
}

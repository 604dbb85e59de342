package logging

import (
	"log/slog"
	"testing"

	"github.com/nerrad567/keydeck-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewDoesNotPanic(t *testing.T) {
	cfgs := []config.LoggingConfig{
		{Level: "debug", Format: "text", Output: "stderr"},
		{Level: "info", Format: "json", Output: "stdout"},
		{},
	}

	for _, cfg := range cfgs {
		l := New(cfg, "test")
		if l == nil || l.Logger == nil {
			t.Fatalf("New(%+v) returned nil logger", cfg)
		}
		// Must be usable
		l.Debug("debug message", "k", "v")
	}
}

func TestWithReturnsNewLogger(t *testing.T) {
	base := Default()
	child := base.With("component", "test")

	if child == base {
		t.Error("With should return a new logger")
	}
	if child.Logger == nil {
		t.Error("With returned logger with nil slog.Logger")
	}
}

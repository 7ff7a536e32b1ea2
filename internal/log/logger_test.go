package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := New(handler)

	l.With("pipeline", "p1").Info("operator registered",
		String("operator", "DistinctLimitOperator"),
		Int64("limit", 10),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "operator registered", entry["msg"])
	assert.Equal(t, "p1", entry["pipeline"])
	assert.Equal(t, "DistinctLimitOperator", entry["operator"])
	assert.Equal(t, float64(10), entry["limit"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	l := New(handler)

	l.Debug("not logged")
	l.Info("not logged either")
	assert.Zero(t, buf.Len())

	l.Warn("logged")
	assert.NotZero(t, buf.Len())
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(New(slog.NewTextHandler(&buf, nil)))
	Info("hello", String("k", "v"))
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "k=v")
}

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	got := LogFilePath("/var/log/markerd", "markerd", start)
	assert.Equal(t, filepath.Join("/var/log/markerd", "markerd.20260314_150926.log"), got)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestSlogManagerWritesToFile(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "debug", nil)

	m.Logger().Debug("marker file loaded", "markers", 7)

	out := buf.String()
	assert.Contains(t, out, "marker file loaded")
	assert.Contains(t, out, "markers=7")
}

func TestSlogManagerDefaultLoggerBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	require.NotNil(t, m.Logger())
	require.NoError(t, m.Flush(context.Background()))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		nil, // dropped
		slog.NewTextHandler(&b, nil),
	)

	logger := slog.New(h)
	logger.Info("fan out")

	assert.Contains(t, a.String(), "fan out")
	assert.Contains(t, b.String(), "fan out")
}

func TestMultiHandlerLevelFiltering(t *testing.T) {
	var quiet, chatty bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&chatty, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	slog.New(h).Info("only one sink")

	assert.Empty(t, quiet.String())
	assert.Contains(t, chatty.String(), "only one sink")
}

func TestContextHandlerInjectsAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	h := NewContextHandler(inner, func() []slog.Attr {
		return []slog.Attr{slog.Int("sessionId", 12)}
	})

	slog.New(h).Info("with context")

	assert.Contains(t, buf.String(), "sessionId=12")
}

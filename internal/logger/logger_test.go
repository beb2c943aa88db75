package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMirrorsToFile(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "appsup.log")
	Setup(Config{Level: slog.LevelDebug, FilePath: path})

	slog.Info("service spawned", "service", "backend", "pid", 101)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "service spawned")
	assert.Contains(t, string(data), "service=backend")
}

func TestSetupLevelFilter(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "appsup.log")
	Setup(Config{Level: slog.LevelWarn, FilePath: path})

	slog.Debug("too quiet to land")
	slog.Warn("loud enough")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "too quiet to land")
	assert.Contains(t, string(data), "loud enough")
}

func TestFanoutDeliversToEveryHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := fanout{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
	lg := slog.New(h.WithAttrs([]slog.Attr{slog.String("service", "frontend")}))
	lg.Info("terminated")

	assert.Contains(t, a.String(), "terminated")
	assert.Contains(t, b.String(), "service=frontend")
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestColorTextHandlerWritesRecord(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	lg := slog.New(h)
	lg.Error("spawn failed", "service", "backend")

	out := buf.String()
	assert.Contains(t, out, "spawn failed")
	assert.Contains(t, out, "service=backend")
}

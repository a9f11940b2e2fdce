package lgr

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdobak/go-xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withLogger(t *testing.T) {
	t.Helper()
	saved := Logger
	t.Cleanup(func() { Logger = saved })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestConsoleRespectsLevel(t *testing.T) {
	withLogger(t)
	var buf bytes.Buffer
	closer := Setup(Options{Level: "warn", Console: &buf})
	defer closer.Close()

	Logger.Info("hidden")
	Logger.Warn("shown", slog.Int("frames", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	require.Contains(t, out, "WARN shown")
	assert.Contains(t, out, `{"frames":3}`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestErrorsCarryStackTrace(t *testing.T) {
	withLogger(t)
	var buf bytes.Buffer
	closer := Setup(Options{Level: "info", Console: &buf})
	defer closer.Close()

	Logger.Error("failed", slog.Any("error", xerrors.New("boom")))
	Logger.Error("plain", slog.Any("error", errors.New("flat")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], `"msg":"boom"`)
	assert.Contains(t, lines[0], `"trace"`)
	assert.Contains(t, lines[1], `"msg":"flat"`)
	assert.NotContains(t, lines[1], `"trace"`)
}

func TestFileLogIsJSON(t *testing.T) {
	withLogger(t)
	path := filepath.Join(t.TempDir(), "rtnet.log")
	var console bytes.Buffer
	closer := Setup(Options{Level: "debug", File: path, Console: &console})

	Logger.With(slog.String("runID", "r1")).Debug("tick", slog.Int("frame", 7))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "tick", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "r1", rec["runID"])
	assert.Equal(t, float64(7), rec["frame"])

	assert.Contains(t, console.String(), "DEBUG tick")
}

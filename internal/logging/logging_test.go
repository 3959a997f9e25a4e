// ABOUTME: Tests for the colourised console handler and logger construction
// ABOUTME: Checks level parsing, line layout, groups, and concurrent writes

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutor-chat/internal/config"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestColorHandler_FormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug"}, &buf)

	logger.With("component", "conversation").Warn("get response failed", "status", 502)

	line := buf.String()
	assert.Contains(t, line, "WRN get response failed")
	assert.Contains(t, line, " component=conversation")
	assert.Contains(t, line, " status=502")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestColorHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "ERR shown")
}

func TestColorHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info"}, &buf)

	logger.WithGroup("req").Info("served", "path", "/send", slog.Group("user", "id", "abc"))

	assert.Contains(t, buf.String(), " req.path=/send")
	assert.Contains(t, buf.String(), " req.user.id=abc")
}

func TestColorHandler_ConcurrentWritesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, slog.LevelInfo)
	a := slog.New(h).With("who", "a")
	b := slog.New(h).With("who", "b")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() { defer wg.Done(); a.Info("tick") }()
		go func() { defer wg.Done(); b.Info("tock") }()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 100)
	for _, l := range lines {
		assert.Regexp(t, `INF (tick who=a|tock who=b)$`, l)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("started", "addr", "localhost:8080")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "started", rec["msg"])
	assert.Equal(t, "localhost:8080", rec["addr"])
}

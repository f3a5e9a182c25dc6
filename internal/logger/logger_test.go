package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelInfo, "text", &buf)

	log.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "key=value")
}

func TestNewJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelInfo, "json", &buf)

	log.Info("hello")

	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelWarn, "text", &buf)

	log.Debug("noise")
	log.Info("also noise")
	assert.Empty(t, buf.String())

	log.Warn("signal")
	assert.Contains(t, buf.String(), "signal")
}

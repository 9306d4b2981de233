package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("batch complete", zap.Int("succeeded", 3))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug entry should be filtered at info level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "batch complete", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["succeeded"])
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Config{Level: "debug"}, &buf)
	require.NoError(t, err)

	logger.Debug("stage complete", zap.String("stage", "gamma"))

	assert.Contains(t, buf.String(), "stage complete")
	assert.Contains(t, buf.String(), "gamma")
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = newLogger(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enhancer.log")
	var buf bytes.Buffer

	logger, err := newLogger(Config{Level: "warn", File: path, MaxSize: 1}, &buf)
	require.NoError(t, err)

	logger.Warn("item failed", zap.String("source", "broken.jpg"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source":"broken.jpg"`)
	assert.Contains(t, buf.String(), "item failed")
}

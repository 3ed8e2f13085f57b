package logx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicecore-go/types"
)

func TestJSONCarriesDefaultAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(types.LoggingConfig{Level: "info", Format: "json"}, "sim", &buf)
	log.Info("boot", "devices", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "boot", rec["msg"])
	assert.Equal(t, "sim", rec["board"])
	assert.Equal(t, "devicecore", rec["service"])
	assert.Equal(t, float64(3), rec["devices"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(types.LoggingConfig{Level: "warn", Format: "text"}, "sim", &buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestAutoFallsBackToJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	New(types.LoggingConfig{Format: "auto"}, "sim", &buf).Info("x")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	assert.False(t, IsTerminal(&buf))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

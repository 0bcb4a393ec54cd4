package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "warn")

	log.Info("dropped")
	log.Warn("authority slow", "latency_ms", 900)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "authority slow", entry["msg"])
	assert.Equal(t, "hostguard", entry["service"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewWithWriter_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "development", "debug").Debug("trial created")
	assert.Contains(t, buf.String(), "msg=\"trial created\"")
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "vendor-voice"})

	log.Debug().Msg("hidden")
	log.Info().Str("file", "a.pdf").Msg("converted")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "vendor-voice", line["service"])
	assert.Equal(t, "a.pdf", line["file"])
	assert.Equal(t, "converted", line["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestTraceIDContext(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "1a2b3c4d")
	assert.Equal(t, "1a2b3c4d", TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

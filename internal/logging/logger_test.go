package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestCtxAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, 42)
	Ctx(ctx).Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.EqualValues(t, 42, entry["user_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "error", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	Error().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContextAddsRequestID(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	initLogger(&buf, "geo-authority", "production", "debug")

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-1")
	LoggerFromContext(ctx).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "geo-authority", line["service"])
	assert.Equal(t, "hello", line["message"])
}

func TestInitLoggerLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	initLogger(&buf, "svc", "production", "warn")
	GetLogger().Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	initLogger(&buf, "svc", "production", "bogus")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

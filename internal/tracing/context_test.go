package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSessionID(ctx, "sess-1")

	assert.Equal(t, "trace-1", GetTraceID(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "sess-1", GetSessionID(ctx))
}

func TestContextEmptyValues(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetSessionID(ctx))
}

func TestNewRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "req-42")

	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Equal(t, "req-42", GetRequestID(ctx))
}

func TestNewRequestContextWithoutRequestID(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "")

	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Empty(t, GetRequestID(ctx))
}

func TestNewTraceIDUnique(t *testing.T) {
	assert.NotEqual(t, NewTraceID(), NewTraceID())
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-xyz")
	ctx = WithSessionID(ctx, "sess-xyz")

	enriched := LoggerFromContext(ctx, logger)
	enriched.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, "trace-xyz")
	assert.Contains(t, out, "sess-xyz")
}

func TestLoggerFromContextBare(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := LoggerFromContext(context.Background(), logger)
	enriched.Info().Msg("hello")

	out := buf.String()
	assert.NotContains(t, out, "trace_id")
	assert.NotContains(t, out, "session_id")
}

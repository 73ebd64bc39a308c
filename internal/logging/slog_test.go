package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func newJSONLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func tracedContext(t *testing.T) context.Context {
	t.Helper()
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newJSONLogger(t, slog.LevelInfo)
	ctx := context.Background()

	log.Debug(ctx, "dropped")
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "inf", lines[0]["msg"])
	assert.EqualValues(t, 2, lines[0]["b"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "ERROR", lines[2]["level"])
}

func TestSlogLogger_AddsCorrelationIDs(t *testing.T) {
	log, buf := newJSONLogger(t, slog.LevelDebug)

	ctx := ContextWithRequestID(tracedContext(t), "req-42")
	log.With("component", "transport").Debug(ctx, "response received", "status", 200)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-42", lines[0]["request_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", lines[0]["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", lines[0]["span_id"])
	assert.Equal(t, "transport", lines[0]["component"])
}

func TestSlogLogger_PlainContext(t *testing.T) {
	log, buf := newJSONLogger(t, slog.LevelDebug)

	log.Info(context.TODO(), "ctx-ok")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "request_id")
	assert.NotContains(t, lines[0], "trace_id")
}

func TestRequestIDFrom(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
	assert.Equal(t, "abc", RequestIDFrom(ContextWithRequestID(context.Background(), "abc")))
}

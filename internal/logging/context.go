package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

// ContextWithRequestID tags ctx with the id sent as X-Request-ID, so every
// log line written for that attempt carries it.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns "" when ctx carries no request id.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// correlation returns the request and trace ids found in ctx as key-value
// pairs.
func correlation(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var kv []any
	if id := RequestIDFrom(ctx); id != "" {
		kv = append(kv, "request_id", id)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		kv = append(kv, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	return kv
}

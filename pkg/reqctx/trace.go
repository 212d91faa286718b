package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds OpenTelemetry-compatible trace identifiers for log correlation.
type TraceInfo struct {
	TraceID string // 32 hex chars
	SpanID  string // 16 hex chars
	Sampled bool
}

func WithTrace(ctx context.Context, info *TraceInfo) context.Context {
	return context.WithValue(ctx, keyTrace, info)
}

func TraceFromContext(ctx context.Context) (*TraceInfo, bool) {
	info, ok := ctx.Value(keyTrace).(*TraceInfo)
	return info, ok && info != nil
}

// TraceIDFromContext returns the trace ID, or empty string if not set.
func TraceIDFromContext(ctx context.Context) string {
	if info, ok := TraceFromContext(ctx); ok {
		return info.TraceID
	}
	return ""
}

// TraceFromSpan reads the active OTel span. When tracing is disabled the span
// context is invalid and fresh random identifiers are generated instead.
func TraceFromSpan(ctx context.Context) *TraceInfo {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		return &TraceInfo{
			TraceID: sc.TraceID().String(),
			SpanID:  sc.SpanID().String(),
			Sampled: sc.IsSampled(),
		}
	}
	return &TraceInfo{TraceID: randomHex(16), SpanID: randomHex(8)}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

package reqctx

import (
	"context"
	"time"
)

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyClaims
	keyTrace
)

// RequestMeta holds per-request metadata set by the request id middleware.
type RequestMeta struct {
	RequestID   string
	ClientIP    string
	UserAgent   string
	RequestedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

// RequestIDFromContext returns empty string if RequestMeta is not set.
func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}

// LogAttrs returns slog key/value pairs identifying the request.
func LogAttrs(ctx context.Context) []any {
	var attrs []any
	if rid := RequestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, "request_id", rid)
	}
	if tid := TraceIDFromContext(ctx); tid != "" {
		attrs = append(attrs, "trace_id", tid)
	}
	if uid, ok := UserIDFromContext(ctx); ok {
		attrs = append(attrs, "user_id", uid.String())
	}
	return attrs
}

// Package reqctx holds request-scoped values shared between HTTP middleware,
// services and log statements.
//
// All context keys are private to prevent collisions. RequestMeta is set for
// every request; AuthClaims only for requests carrying a valid access token;
// TraceInfo whenever the request id middleware runs.
package reqctx

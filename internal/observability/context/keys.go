// Package context carries the request and user ids that every log line of
// a request is tagged with.
package context

import "context"

type key int

const (
	requestIDKey key = iota
	userIDKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return value(ctx, requestIDKey)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	return value(ctx, userIDKey)
}

// with leaves ctx untouched for empty values.
func with(ctx context.Context, k key, v string) context.Context {
	if ctx == nil || v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

func value(ctx context.Context, k key) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(k).(string)
	return v
}

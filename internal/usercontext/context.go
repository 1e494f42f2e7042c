// Package usercontext carries the authenticated user through request
// contexts. The user id is the persistence key of every user-owned record.
package usercontext

import (
	"context"
	"errors"
	"strings"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	emailKey     contextKey = "user_email"
	ipAddressKey contextKey = "user_ip_address"
	userAgentKey contextKey = "user_agent"
)

// ErrMissingUser is returned when a request carries no authenticated user.
var ErrMissingUser = errors.New("missing_user")

func WithUserID(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userIDKey).(string)
	return value
}

// RequireUserID returns ErrMissingUser when no user is set.
func RequireUserID(ctx context.Context) (string, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return "", ErrMissingUser
	}
	return userID, nil
}

func WithEmail(ctx context.Context, email string) context.Context {
	if email == "" {
		return ctx
	}
	return context.WithValue(ctx, emailKey, email)
}

func EmailFromContext(ctx context.Context) string {
	value, _ := ctx.Value(emailKey).(string)
	return value
}

func WithIPAddress(ctx context.Context, ipAddress string) context.Context {
	if ipAddress == "" {
		return ctx
	}
	return context.WithValue(ctx, ipAddressKey, ipAddress)
}

func IPAddressFromContext(ctx context.Context) string {
	value, _ := ctx.Value(ipAddressKey).(string)
	return value
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	if userAgent == "" {
		return ctx
	}
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func UserAgentFromContext(ctx context.Context) string {
	value, _ := ctx.Value(userAgentKey).(string)
	return value
}

// SPDX-License-Identifier: MIT

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	reloadIDKey  ctxKey = "reload_id"
	requestIDKey ctxKey = "request_id"
)

// ContextWithReloadID stores the provided reload ID in the context.
func ContextWithReloadID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, reloadIDKey, id)
}

// ReloadIDFromContext extracts the reload ID from context if present.
func ReloadIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(reloadIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID stores the provided HTTP request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the supplied logger with correlation fields from context.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	rid, reqID := ReloadIDFromContext(ctx), RequestIDFromContext(ctx)
	if rid == "" && reqID == "" {
		return logger
	}
	c := logger.With()
	if rid != "" {
		c = c.Str(FieldReloadID, rid)
	}
	if reqID != "" {
		c = c.Str(FieldRequestID, reqID)
	}
	return c.Logger()
}

// WithComponentFromContext returns a logger that is annotated with the component
// name and enriched with correlation fields from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}

package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey  contextKey = "github.com/pratshop/storefront/internal/platform/requestctx/logger"
	sessionContextKey contextKey = "github.com/pratshop/storefront/internal/platform/requestctx/session"
	traceContextKey   contextKey = "github.com/pratshop/storefront/internal/platform/requestctx/trace"
)

var noopLogger = zap.NewNop()

// Session carries the per-request storefront session state extracted by the
// session middleware: the cart-scoping session ID and, when the visitor is
// logged in, the CMS access token.
type Session struct {
	ID          string
	AccessToken string
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance used across the package.
func NoopLogger() *zap.Logger { return noopLogger }

// WithSession stores the storefront session on the context.
func WithSession(ctx context.Context, session Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves the storefront session when present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// TraceInfo carries the identifiers of the active server span.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// WithTrace stores trace metadata on the context.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// TraceFromContext retrieves trace metadata when present.
func TraceFromContext(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

package logger

import (
	"context"

	"go.uber.org/zap"
)

// ctxKey is the private context key for the request-scoped logger.
type ctxKey struct{}

// ContextWithLogger attaches l to ctx so store operations deep in the
// call chain can log through it.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or a nop logger when
// none was attached.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

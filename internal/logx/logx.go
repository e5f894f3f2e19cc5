package logx

import (
	"context"

	"github.com/azye/tabdog/pkg/models"
	"pkt.systems/pslog"
)

type contextKey int

const sessionKey contextKey = iota

// WithSession annotates the logger with the session key.
func WithSession(log pslog.Logger, key models.SessionKey) pslog.Logger {
	return log.With("session", key.String())
}

// WithStore annotates the logger with the store backend and location.
func WithStore(log pslog.Logger, backend, path string) pslog.Logger {
	if backend != "" {
		log = log.With("store", backend)
	}
	if path != "" {
		log = log.With("store_path", path)
	}
	return log
}

// ForSession returns the context logger annotated with key unless the context
// already carries the same session marker.
func ForSession(ctx context.Context, key models.SessionKey) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(sessionKey).(models.SessionKey); ok && current == key {
		return log
	}
	return WithSession(log, key)
}

// ContextWithSession stores the session marker and annotated logger on the context.
func ContextWithSession(ctx context.Context, key models.SessionKey) context.Context {
	if ctx == nil {
		return ctx
	}
	log := ForSession(ctx, key)
	ctx = pslog.ContextWithLogger(ctx, log)
	return context.WithValue(ctx, sessionKey, key)
}

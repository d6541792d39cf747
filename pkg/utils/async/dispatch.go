// Package async runs long work, such as API-triggered builds, outside the
// request that started it.
package async

import (
	"context"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler in a new goroutine. The handler context keeps the
// logger and Sentry hub of ctx but is not cancelled with it. Panics are
// recovered; panics and returned errors are logged and sent to Sentry (a
// no-op when Sentry is not initialized).
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)
	hub := sentry.GetHubFromContext(newCtx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(newCtx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
				hub.RecoverWithContext(newCtx, r)
			}
		}()

		if err := handler(newCtx); err != nil {
			ctxlog.From(newCtx).Error("error in async handler", "error", err)
			hub.CaptureException(err)
		}
	}()
}

// newBackgroundContext returns a fresh background context carrying the
// ctxlog logger and a clone of the Sentry hub of ctx.
func newBackgroundContext(ctx context.Context) context.Context {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	newCtx = sentry.SetHubOnContext(newCtx, hub.Clone())
	return newCtx
}

// Package reqctx carries the per-call state threaded through the pipeline:
// the resolved caller identity (or its absence, for public routes), the
// call's Permission once the policy gate has produced it, and the
// propagation fields copied onto outbound backend calls.
package reqctx

import (
	"context"

	"github.com/wenex-org/platform-gateway/auth"
	"github.com/wenex-org/platform-gateway/authz"
)

type ctxKey string

const ctxKeyCallContext ctxKey = "call_context"

// CallContext is owned exclusively by one in-flight call and is discarded
// when the call completes. It is never shared across concurrent calls.
type CallContext struct {
	// Identity is nil for public routes.
	Identity *auth.CallerIdentity

	// Permission is set once the policy gate has run. Routes without a
	// declared policy get an allow-all permission.
	Permission authz.Permission

	// TraceID correlates the inbound call with its outbound backend
	// calls and log lines.
	TraceID string

	// Locale is the caller's requested locale, propagated so backends
	// can localize their own messages.
	Locale string
}

// Subject returns the caller's subject ID, or the anonymous marker for
// public calls. It never returns an empty string.
func (c CallContext) Subject() string {
	if c.Identity == nil || c.Identity.Subject == "" {
		return auth.AnonymousSubject
	}
	return c.Identity.Subject
}

// SetCallContext stores the call context in ctx for the request lifecycle.
func SetCallContext(ctx context.Context, cc CallContext) context.Context {
	return context.WithValue(ctx, ctxKeyCallContext, cc)
}

// GetCallContext returns the call context stored in ctx, or a zero value if
// none is set (e.g. in tests exercising a stage in isolation).
func GetCallContext(ctx context.Context) CallContext {
	if cc, ok := ctx.Value(ctxKeyCallContext).(CallContext); ok {
		return cc
	}
	return CallContext{}
}

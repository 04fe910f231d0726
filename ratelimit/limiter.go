// Package ratelimit implements fixed-window request rate limiting keyed by
// (caller, route). Counter state lives in a store shared across all gateway
// instances so limits are enforced cluster-wide.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog"
)

// CounterStore is the shared counter collaborator. IncrementAndGet
// atomically increments the counter for key and returns the new count.
// Implementations must expire counters with the window.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitedError is returned when a caller exceeds its budget. RetryAfter
// is derived from the current window's boundary.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Limiter admits or rejects calls against a fixed-window budget.
type Limiter struct {
	Logger polylog.Logger
	Store  CounterStore

	// Limit is the number of calls admitted per window for one
	// (caller, route) key.
	Limit int64

	// Window is the fixed window duration.
	Window time.Duration
}

// Admit counts one call for (callerKey, routeKey) and rejects it with a
// RateLimitedError once the window budget is exhausted.
//
// A counter store failure admits the call: unlike the identity and policy
// stages, failing closed here would turn a store outage into a full gateway
// outage. The error is logged so operators see degraded enforcement.
func (l *Limiter) Admit(ctx context.Context, callerKey, routeKey string) error {
	now := time.Now()
	windowID := now.Unix() / int64(l.Window.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%s:%d", callerKey, routeKey, windowID)

	count, err := l.Store.IncrementAndGet(ctx, key, l.Window)
	if err != nil {
		l.Logger.Error().Err(err).Str("route", routeKey).Msg("counter store unreachable, admitting without enforcement")
		return nil
	}

	if count > l.Limit {
		windowEnd := time.Unix((windowID+1)*int64(l.Window.Seconds()), 0)
		return &RateLimitedError{RetryAfter: windowEnd.Sub(now)}
	}

	return nil
}

package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wenex-org/platform-gateway/auth"
	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/backend"
	"github.com/wenex-org/platform-gateway/ratelimit"
)

// statusForError maps the pipeline's typed errors to HTTP statuses. The
// response messages are deliberately generic: they never reveal whether a
// denial came from scopes, policy, filtering or a policy engine outage.
func statusForError(err error) (int, string) {
	var rateLimited *ratelimit.RateLimitedError

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, authz.ErrForbidden):
		// Covers ErrPolicyEngineUnavailable as well: operators see the
		// distinction in logs and metrics, callers do not.
		return http.StatusForbidden, "forbidden"
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, backend.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// retryAfterForError returns the Retry-After header value for rate limited
// calls, or an empty string for all other errors.
func retryAfterForError(err error) string {
	var rateLimited *ratelimit.RateLimitedError
	if !errors.As(err, &rateLimited) {
		return ""
	}
	seconds := int(rateLimited.RetryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}

package gateway

import (
	"errors"

	"github.com/wenex-org/platform-gateway/auth"
	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/backend"
	"github.com/wenex-org/platform-gateway/ratelimit"
)

// Admission outcomes, used as metric label values and for transport status
// mapping.
const (
	OutcomeAdmitted          = "admitted"
	OutcomeUnauthenticated   = "unauthenticated"
	OutcomeForbidden         = "forbidden"
	OutcomePolicyUnavailable = "policy_engine_unavailable"
	OutcomeRateLimited       = "rate_limited"
	OutcomeUpstreamFailure   = "upstream_failure"
	OutcomeInternal          = "internal"
)

// Outcome classifies a pipeline or backend error into its admission
// outcome. No stage downgrades a failure: the classification mirrors the
// typed error returned by the failing stage.
func Outcome(err error) string {
	var rateLimited *ratelimit.RateLimitedError

	switch {
	case err == nil:
		return OutcomeAdmitted
	case errors.Is(err, auth.ErrUnauthenticated):
		return OutcomeUnauthenticated
	case errors.Is(err, authz.ErrPolicyEngineUnavailable):
		return OutcomePolicyUnavailable
	case errors.Is(err, authz.ErrForbidden):
		return OutcomeForbidden
	case errors.As(err, &rateLimited):
		return OutcomeRateLimited
	case errors.Is(err, backend.ErrUpstreamUnavailable):
		return OutcomeUpstreamFailure
	default:
		return OutcomeInternal
	}
}

package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/wenex-org/platform-gateway/auth"
)

// Decision cache sizing. Entries are small (a decision plus a field mask),
// so counters and cost are tuned for key cardinality, not byte size.
const (
	cacheNumCounters = 100_000
	cacheMaxCost     = 10_000
	cacheBufferItems = 64

	// defaultCacheTTL bounds decision staleness. Entries are not actively
	// invalidated on permission change; the TTL is the security/latency
	// trade-off knob and is configurable via the policy config section.
	defaultCacheTTL = 30 * time.Second
)

// PolicyGate invokes the policy engine for a route's declared (action,
// resource) pair and produces the call's Permission. Decisions are cached
// for a short TTL to bound latency on hot paths.
type PolicyGate struct {
	logger polylog.Logger
	client PolicyClient

	cache    *ristretto.Cache
	cacheTTL time.Duration
}

// NewPolicyGate creates a policy gate backed by the given policy engine
// client. cacheTTL <= 0 selects the default TTL.
func NewPolicyGate(logger polylog.Logger, client PolicyClient, cacheTTL time.Duration) (*PolicyGate, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &PolicyGate{
		logger:   logger.With("component", "policy_gate"),
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
	}, nil
}

// Authorize returns the Permission for the given policy and identity.
//
// A nil policy yields an always-allow Permission with an identity filter.
// A deny decision returns ErrForbidden before any backend call is made.
// An unreachable policy engine returns ErrPolicyEngineUnavailable: the
// gate fails closed, never open.
func (g *PolicyGate) Authorize(ctx context.Context, policy *Policy, identity auth.CallerIdentity) (Permission, error) {
	return g.AuthorizeResource(ctx, policy, identity, "")
}

// AuthorizeResource is Authorize for row-scoped decisions: when the engine's
// answer depends on a specific resource instance, the resource ID must be
// part of the cache key, not only the resource class.
func (g *PolicyGate) AuthorizeResource(ctx context.Context, policy *Policy, identity auth.CallerIdentity, resourceID string) (Permission, error) {
	if policy == nil {
		return AllowAll(), nil
	}

	cacheKey := fmt.Sprintf("%s|%s|%s|%s", identity.Subject, policy.Action, policy.Resource, resourceID)
	if cached, ok := g.cache.Get(cacheKey); ok {
		if eval, ok := cached.(Evaluation); ok {
			return g.permissionFromEvaluation(eval, policy)
		}
	}

	eval, err := g.client.Evaluate(ctx, identity.Subject, policy.Action, policy.Resource, resourceID)
	if err != nil {
		g.logger.Warn().Err(err).
			Str("action", policy.Action).
			Str("resource", policy.Resource).
			Msg("policy engine unreachable, failing closed")
		return Permission{}, ErrPolicyEngineUnavailable
	}

	g.cache.SetWithTTL(cacheKey, eval, 1, g.cacheTTL)

	return g.permissionFromEvaluation(eval, policy)
}

// permissionFromEvaluation maps the engine's answer to the call's Permission.
func (g *PolicyGate) permissionFromEvaluation(eval Evaluation, policy *Policy) (Permission, error) {
	if eval.Decision != decisionAllow {
		return Permission{}, fmt.Errorf("%w: policy denied %s on %s", ErrForbidden, policy.Action, policy.Resource)
	}

	return Permission{
		Granted:       true,
		FieldMask:     eval.FieldMask,
		RowConditions: eval.RowConditions,
	}, nil
}

// Wait blocks until pending cache writes are applied. Test helper.
func (g *PolicyGate) Wait() {
	g.cache.Wait()
}

// Close releases the decision cache's resources.
func (g *PolicyGate) Close() {
	g.cache.Close()
}

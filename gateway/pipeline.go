// Package gateway composes the request authorization pipeline that runs in
// front of every exposed operation, regardless of transport:
//
//	Identity Resolver → Scope Gate → Policy Gate → Rate Limiter
//
// Each stage's success is a precondition for the next; a stage failure
// short-circuits the remaining stages with a typed error. Public routes
// skip the first three stages but still pass the rate limiter, keyed by
// client IP.
//
// The rate limiter deliberately runs after the policy gate: it protects
// backend services from authorized abuse. Deployments that also need to
// shield the identity resolver from unauthenticated flooding can front the
// gateway with the ext_authz adapter behind an edge limiter.
package gateway

import (
	"context"
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/wenex-org/platform-gateway/auth"
	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/reqctx"
)

type (
	// IdentityResolver validates the bearer credential of a call.
	IdentityResolver interface {
		Resolve(ctx context.Context, rawCredential string) (auth.CallerIdentity, error)
	}

	// PolicyAuthorizer produces the call's Permission from its declared
	// policy.
	PolicyAuthorizer interface {
		AuthorizeResource(ctx context.Context, policy *authz.Policy, identity auth.CallerIdentity, resourceID string) (authz.Permission, error)
	}

	// RequestLimiter admits or rejects a call against its rate budget.
	RequestLimiter interface {
		Admit(ctx context.Context, callerKey, routeKey string) error
	}

	// AdmissionReporter receives the outcome of every admission decision,
	// e.g. for Prometheus export. May be nil.
	AdmissionReporter interface {
		PublishAdmission(route, outcome string, duration time.Duration)
	}
)

// AdmitRequest carries the transport-extracted inputs of one inbound call.
// Each transport adapter (HTTP router, stream bridge, ext_authz server) is
// responsible only for constructing this from its native request shape.
type AdmitRequest struct {
	// Credential is the raw bearer token, empty if none was provided.
	Credential string

	// ClientIP keys the rate limiter for public (anonymous) calls.
	ClientIP string

	TraceID string
	Locale  string

	// ResourceID is set for row-scoped operations (findById, update,
	// delete, ...) so row-scoped policy decisions are cached per row.
	ResourceID string
}

// Pipeline runs the ordered admission stages for one route. It holds no
// per-call state: all shared state lives in the externally owned counter
// store and decision cache, both safe for concurrent use.
type Pipeline struct {
	Logger polylog.Logger

	Resolver IdentityResolver
	Policy   PolicyAuthorizer
	Limiter  RequestLimiter

	Reporter AdmissionReporter
}

// Admit runs the admission stages for route in their declared order and
// returns a context carrying the resulting CallContext. The returned
// CallContext holds the resolved identity (nil for public routes) and the
// call's Permission, which the transport adapter must use to filter every
// result it returns.
func (p *Pipeline) Admit(ctx context.Context, route Route, req AdmitRequest) (context.Context, reqctx.CallContext, error) {
	start := time.Now()

	cc, err := p.admit(ctx, route, req)
	p.publish(route, err, time.Since(start))
	if err != nil {
		return ctx, reqctx.CallContext{}, err
	}

	return reqctx.SetCallContext(ctx, cc), cc, nil
}

func (p *Pipeline) admit(ctx context.Context, route Route, req AdmitRequest) (reqctx.CallContext, error) {
	cc := reqctx.CallContext{
		TraceID: req.TraceID,
		Locale:  req.Locale,
	}

	if route.Public {
		// Public routes never invoke the identity resolver, even when a
		// credential happens to be present.
		cc.Permission = authz.AllowAll()
		if err := p.Limiter.Admit(ctx, req.ClientIP, route.Name); err != nil {
			return reqctx.CallContext{}, err
		}
		return cc, nil
	}

	identity, err := p.Resolver.Resolve(ctx, req.Credential)
	if err != nil {
		return reqctx.CallContext{}, err
	}
	cc.Identity = &identity

	if err := authz.CheckScope(route.RequiredScope, identity); err != nil {
		p.Logger.Debug().
			Str("route", route.Name).
			Str("subject", identity.Subject).
			Msg("scope gate rejected call")
		return reqctx.CallContext{}, err
	}

	// The permission is computed only after the scope gate has passed; a
	// deny decision stops the call here, before any backend invocation.
	permission, err := p.Policy.AuthorizeResource(ctx, route.Policy, identity, req.ResourceID)
	if err != nil {
		return reqctx.CallContext{}, err
	}
	cc.Permission = permission

	if err := p.Limiter.Admit(ctx, identity.Subject, route.Name); err != nil {
		return reqctx.CallContext{}, err
	}

	return cc, nil
}

func (p *Pipeline) publish(route Route, err error, duration time.Duration) {
	if p.Reporter == nil {
		return
	}
	p.Reporter.PublishAdmission(route.Name, Outcome(err), duration)
}

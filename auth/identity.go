// Package auth implements the identity resolution stage of the gateway's
// request pipeline: it validates a bearer credential and produces the
// CallerIdentity used by every downstream stage.
package auth

import (
	"time"
)

// AnonymousSubject is the explicit subject marker propagated on public
// routes. Backend services must never receive an empty subject.
const AnonymousSubject = "anonymous"

// CallerIdentity is the resolved identity of the caller for one inbound
// request. It lives for the duration of the request and is never persisted
// by the gateway.
type CallerIdentity struct {
	// Subject is the stable subject ID of the caller (the JWT `sub` claim).
	Subject string

	// Scopes holds the coarse-grained capability strings issued to the
	// caller at authentication time, e.g. "read:identity:users".
	Scopes []string

	IssuedAt  time.Time
	ExpiresAt time.Time

	// TokenID is the unique ID of the credential (the JWT `jti` claim),
	// used for revocation checks.
	TokenID string
}

// HasScope returns true if the identity was issued the given scope.
func (i CallerIdentity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

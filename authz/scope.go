package authz

import (
	"fmt"

	"github.com/wenex-org/platform-gateway/auth"
)

// CheckScope is the scope gate: a pure comparison of the route's required
// scope against the caller's issued scopes. It performs no network or
// storage access and is fully deterministic.
//
// An empty requiredScope always passes.
func CheckScope(requiredScope string, identity auth.CallerIdentity) error {
	if requiredScope == "" {
		return nil
	}
	if identity.HasScope(requiredScope) {
		return nil
	}
	return fmt.Errorf("%w: %w %q", ErrForbidden, errMissingScope, requiredScope)
}

package auth

import "errors"

// ErrUnauthenticated is returned for any credential failure: a missing,
// malformed, expired or revoked token, or a revocation store that could not
// be reached in time. The resolver never fails open, and callers get the
// same error kind regardless of the underlying cause so that responses do
// not leak why a credential was rejected.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	errCredentialRequired = errors.New("credential required")
	errMalformedToken     = errors.New("malformed or invalid token")
	errTokenExpired       = errors.New("token expired")
	errInvalidIssuer      = errors.New("invalid token issuer")
	errInvalidAudience    = errors.New("invalid token audience")
	errTokenRevoked       = errors.New("token revoked")
	errRevocationCheck    = errors.New("revocation check failed")
)

package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/wenex-org/platform-gateway/log"
)

// defaultRevocationTimeout bounds the synchronous revocation store lookup.
// On timeout the resolver fails closed.
const defaultRevocationTimeout = 500 * time.Millisecond

type (
	// keyProvider returns the RSA public key for a JWT key ID.
	keyProvider interface {
		GetKey(kid string) (*rsa.PublicKey, error)
	}

	// RevocationStore is the external collaborator that tracks revoked
	// token IDs. It is queried synchronously with a short timeout.
	RevocationStore interface {
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)

// Resolver validates bearer credentials and produces CallerIdentity values.
// All failure modes collapse to ErrUnauthenticated: the resolver never
// fails open, including when the revocation store cannot be reached.
type Resolver struct {
	Logger polylog.Logger

	// Expected token issuer and audience. Audience is optional.
	Issuer   string
	Audience string

	// Keys provides RSA public keys for RS256 tokens, typically backed
	// by a JWKS endpoint.
	Keys keyProvider

	// HMACSecret enables HS256 validation when set. Intended for local
	// development and tests only.
	HMACSecret []byte

	// Revocation is optional; when nil no revocation check is performed.
	Revocation        RevocationStore
	RevocationTimeout time.Duration
}

// identityClaims is the expected claim set of gateway-issued access tokens.
type identityClaims struct {
	// Scope is the space-delimited list of issued scopes.
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Resolve validates the raw bearer credential and returns the caller's
// identity. An empty credential is itself an authentication failure.
func (r *Resolver) Resolve(ctx context.Context, rawCredential string) (CallerIdentity, error) {
	if rawCredential == "" {
		return CallerIdentity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, errCredentialRequired)
	}

	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(rawCredential, claims, r.keyFunc,
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	)
	if err != nil || !token.Valid {
		r.Logger.Debug().Err(err).Str("token", log.Preview(rawCredential)).Msg("rejecting invalid token")
		return CallerIdentity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, errMalformedToken)
	}

	if err := r.validateClaims(claims); err != nil {
		return CallerIdentity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if err := r.checkRevocation(ctx, claims.ID); err != nil {
		return CallerIdentity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	identity := CallerIdentity{
		Subject: claims.Subject,
		Scopes:  strings.Fields(claims.Scope),
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

// keyFunc selects the validation key for the token's signing method.
func (r *Resolver) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing kid in token header")
		}
		if r.Keys == nil {
			return nil, fmt.Errorf("no key provider configured")
		}
		return r.Keys.GetKey(kid)

	case *jwt.SigningMethodHMAC:
		if len(r.HMACSecret) == 0 {
			return nil, fmt.Errorf("HMAC tokens not enabled")
		}
		return r.HMACSecret, nil

	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// validateClaims checks the standard claims beyond signature validity.
func (r *Resolver) validateClaims(claims *identityClaims) error {
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return errTokenExpired
	}
	if r.Issuer != "" && claims.Issuer != r.Issuer {
		return errInvalidIssuer
	}
	if r.Audience != "" && !containsAudience(claims.Audience, r.Audience) {
		return errInvalidAudience
	}
	if claims.Subject == "" {
		return errMalformedToken
	}
	return nil
}

// checkRevocation queries the revocation store with a bounded timeout.
// Any store failure is treated as a rejected credential.
func (r *Resolver) checkRevocation(ctx context.Context, tokenID string) error {
	if r.Revocation == nil || tokenID == "" {
		return nil
	}

	timeout := r.RevocationTimeout
	if timeout == 0 {
		timeout = defaultRevocationTimeout
	}
	revCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	revoked, err := r.Revocation.IsRevoked(revCtx, tokenID)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("revocation store unreachable, failing closed")
		return errRevocationCheck
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

func containsAudience(audiences jwt.ClaimStrings, audience string) bool {
	for _, aud := range audiences {
		if aud == audience {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"time"
)

/* --------------------------------- Auth Config Defaults -------------------------------- */

const (
	// defaultRevocationTimeout bounds the synchronous revocation store
	// lookup performed for every authenticated call. On timeout the
	// identity resolver fails closed.
	defaultRevocationTimeout = 500 * time.Millisecond
)

/* --------------------------------- Auth Config Struct -------------------------------- */

// AuthConfig contains the identity resolver's settings.
type AuthConfig struct {
	// Issuer is the expected `iss` claim of gateway access tokens.
	Issuer string `yaml:"issuer"`

	// Audience is the expected `aud` claim. Optional.
	Audience string `yaml:"audience"`

	// JWKSURL is the JWKS endpoint providing RS256 validation keys.
	JWKSURL string `yaml:"jwks_url"`

	// HMACSecret enables HS256 validation when set. Intended for local
	// development only; production deployments use JWKS.
	HMACSecret string `yaml:"hmac_secret"`

	RevocationTimeout time.Duration `yaml:"revocation_timeout"`
}

/* --------------------------------- Auth Config Private Helpers -------------------------------- */

func (c *AuthConfig) hydrateAuthDefaults() {
	if c.RevocationTimeout == 0 {
		c.RevocationTimeout = defaultRevocationTimeout
	}
}

// Validate ensures at least one token validation method is configured.
func (c AuthConfig) Validate() error {
	if c.JWKSURL == "" && c.HMACSecret == "" {
		return fmt.Errorf("auth_config requires jwks_url or hmac_secret")
	}
	return nil
}

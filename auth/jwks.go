package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
)

// JWKSKeyProvider fetches RSA public keys from a JWKS endpoint and caches
// them by key ID. It satisfies the resolver's keyProvider interface.
type JWKSKeyProvider struct {
	JWKSURL string

	mu       sync.Mutex
	keyCache map[string]*rsa.PublicKey
}

// GetKey retrieves the RSA public key for the given key ID (kid),
// fetching the JWKS document on a cache miss.
func (p *JWKSKeyProvider) GetKey(kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	if p.keyCache == nil {
		p.keyCache = make(map[string]*rsa.PublicKey)
	}
	key, exists := p.keyCache[kid]
	p.mu.Unlock()
	if exists {
		return key, nil
	}

	resp, err := http.Get(p.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	var jwks jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	for _, jwk := range jwks.Keys {
		if jwk.Kid == kid {
			pubKey, err := jwk.parsePublicKey()
			if err != nil {
				return nil, fmt.Errorf("failed to parse public key: %w", err)
			}

			p.mu.Lock()
			p.keyCache[kid] = pubKey
			p.mu.Unlock()

			return pubKey, nil
		}
	}

	return nil, fmt.Errorf("unable to find key with kid: %s", kid)
}

// jwksDocument represents a JSON Web Key Set.
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// jwk represents a single JSON Web Key.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"` // Modulus
	E   string `json:"e"` // Exponent
}

// parsePublicKey parses the JWK and returns an RSA public key.
func (k *jwk) parsePublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %s", k.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode E: %w", err)
	}

	var eInt int
	for _, b := range eBytes {
		eInt = eInt<<8 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: eInt,
	}, nil
}

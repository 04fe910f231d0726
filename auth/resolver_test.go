package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pokt-network/poktroll/pkg/polylog/polyzero"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

const (
	testIssuer   = "https://auth.example.com"
	testAudience = "platform-gateway"
)

// fakeRevocationStore is an in-memory RevocationStore for resolver tests.
type fakeRevocationStore struct {
	revoked map[string]bool
	err     error
}

func (s *fakeRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[tokenID], nil
}

func newTestResolver(store RevocationStore) *Resolver {
	return &Resolver{
		Logger:     polyzero.NewLogger(),
		Issuer:     testIssuer,
		Audience:   testAudience,
		HMACSecret: testSecret,
		Revocation: store,
	}
}

// signTestToken issues an HS256 token with the given claim overrides.
func signTestToken(t *testing.T, claims identityClaims) string {
	t.Helper()

	if claims.Issuer == "" {
		claims.Issuer = testIssuer
	}
	if claims.Audience == nil {
		claims.Audience = jwt.ClaimStrings{testAudience}
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		credential func(t *testing.T) string
		want       CallerIdentity
		wantErr    bool
	}{
		{
			name: "should resolve a valid token into a caller identity",
			credential: func(t *testing.T) string {
				return signTestToken(t, identityClaims{
					Scope: "read:identity:users write:identity:users",
					RegisteredClaims: jwt.RegisteredClaims{
						Subject: "user_1",
						ID:      "jti_1",
					},
				})
			},
			want: CallerIdentity{
				Subject: "user_1",
				Scopes:  []string{"read:identity:users", "write:identity:users"},
				TokenID: "jti_1",
			},
		},
		{
			name:       "should reject an empty credential",
			credential: func(*testing.T) string { return "" },
			wantErr:    true,
		},
		{
			name:       "should reject a garbage credential",
			credential: func(*testing.T) string { return "not-a-jwt" },
			wantErr:    true,
		},
		{
			name: "should reject an expired token",
			credential: func(t *testing.T) string {
				return signTestToken(t, identityClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "user_1",
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
					},
				})
			},
			wantErr: true,
		},
		{
			name: "should reject a token from another issuer",
			credential: func(t *testing.T) string {
				return signTestToken(t, identityClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject: "user_1",
						Issuer:  "https://other.example.com",
					},
				})
			},
			wantErr: true,
		},
		{
			name: "should reject a token for another audience",
			credential: func(t *testing.T) string {
				return signTestToken(t, identityClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:  "user_1",
						Audience: jwt.ClaimStrings{"other-service"},
					},
				})
			},
			wantErr: true,
		},
		{
			name: "should reject a token without a subject",
			credential: func(t *testing.T) string {
				return signTestToken(t, identityClaims{})
			},
			wantErr: true,
		},
		{
			name: "should reject a token signed with a different secret",
			credential: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "user_1",
						Issuer:    testIssuer,
						Audience:  jwt.ClaimStrings{testAudience},
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}).SignedString([]byte("wrong-secret"))
				require.NoError(t, err)
				return token
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			resolver := newTestResolver(nil)

			identity, err := resolver.Resolve(context.Background(), test.credential(t))
			if test.wantErr {
				c.ErrorIs(err, ErrUnauthenticated)
				return
			}
			c.NoError(err)
			c.Equal(test.want.Subject, identity.Subject)
			c.Equal(test.want.Scopes, identity.Scopes)
			c.Equal(test.want.TokenID, identity.TokenID)
		})
	}
}

func TestResolver_Resolve_Revocation(t *testing.T) {
	validToken := func(t *testing.T) string {
		return signTestToken(t, identityClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user_1",
				ID:      "jti_1",
			},
		})
	}

	tests := []struct {
		name    string
		store   RevocationStore
		wantErr bool
	}{
		{
			name:    "should pass an unrevoked token",
			store:   &fakeRevocationStore{},
			wantErr: false,
		},
		{
			name:    "should reject a revoked token",
			store:   &fakeRevocationStore{revoked: map[string]bool{"jti_1": true}},
			wantErr: true,
		},
		{
			name:    "should fail closed when the revocation store is unreachable",
			store:   &fakeRevocationStore{err: errors.New("connection refused")},
			wantErr: true,
		},
		{
			name:    "should skip the check when no store is configured",
			store:   nil,
			wantErr: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			resolver := newTestResolver(test.store)

			_, err := resolver.Resolve(context.Background(), validToken(t))
			if test.wantErr {
				c.ErrorIs(err, ErrUnauthenticated)
			} else {
				c.NoError(err)
			}
		})
	}
}

package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wenex-org/platform-gateway/auth"
)

func TestCheckScope(t *testing.T) {
	tests := []struct {
		name          string
		requiredScope string
		identity      auth.CallerIdentity
		wantErr       bool
	}{
		{
			name:          "should pass when the identity holds the required scope",
			requiredScope: "read:identity:users",
			identity: auth.CallerIdentity{
				Subject: "u1",
				Scopes:  []string{"read:identity:users", "write:identity:users"},
			},
			wantErr: false,
		},
		{
			name:          "should always pass an empty required scope",
			requiredScope: "",
			identity:      auth.CallerIdentity{Subject: "u1"},
			wantErr:       false,
		},
		{
			name:          "should reject when the scope is missing",
			requiredScope: "write:identity:users",
			identity: auth.CallerIdentity{
				Subject: "u1",
				Scopes:  []string{"read:identity:users"},
			},
			wantErr: true,
		},
		{
			name:          "should not treat scopes as prefixes",
			requiredScope: "read:identity:users",
			identity: auth.CallerIdentity{
				Subject: "u1",
				Scopes:  []string{"read:identity"},
			},
			wantErr: true,
		},
		{
			name:          "should reject an identity with no scopes",
			requiredScope: "read:identity:users",
			identity:      auth.CallerIdentity{Subject: "u1"},
			wantErr:       true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)
			err := CheckScope(test.requiredScope, test.identity)
			if test.wantErr {
				c.ErrorIs(err, ErrForbidden)
			} else {
				c.NoError(err)
			}
		})
	}
}

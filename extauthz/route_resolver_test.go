package extauthz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathResolver_ResolveRoute(t *testing.T) {
	resolver := &PathResolver{Surface: map[string]string{
		"users": "identity.users",
		"apps":  "domain.apps",
	}}

	tests := []struct {
		name           string
		method         string
		path           string
		wantRoute      string
		wantResourceID string
		wantErr        bool
	}{
		{
			name:      "should resolve a find",
			method:    http.MethodGet,
			path:      "/v1/users",
			wantRoute: "identity.users.find",
		},
		{
			name:      "should resolve a create",
			method:    http.MethodPost,
			path:      "/v1/users",
			wantRoute: "identity.users.create",
		},
		{
			name:      "should resolve a bulk update",
			method:    http.MethodPatch,
			path:      "/v1/users",
			wantRoute: "identity.users.updateBulk",
		},
		{
			name:      "should resolve a count",
			method:    http.MethodGet,
			path:      "/v1/users/count",
			wantRoute: "identity.users.count",
		},
		{
			name:      "should resolve an SSE cursor",
			method:    http.MethodGet,
			path:      "/v1/users/sse",
			wantRoute: "identity.users.cursor",
		},
		{
			name:      "should resolve a websocket cursor",
			method:    http.MethodGet,
			path:      "/v1/users/ws",
			wantRoute: "identity.users.cursorWs",
		},
		{
			name:           "should resolve a findById with its resource ID",
			method:         http.MethodGet,
			path:           "/v1/users/u-42",
			wantRoute:      "identity.users.findById",
			wantResourceID: "u-42",
		},
		{
			name:           "should resolve an update",
			method:         http.MethodPatch,
			path:           "/v1/users/u-42",
			wantRoute:      "identity.users.update",
			wantResourceID: "u-42",
		},
		{
			name:           "should resolve a delete",
			method:         http.MethodDelete,
			path:           "/v1/users/u-42",
			wantRoute:      "identity.users.delete",
			wantResourceID: "u-42",
		},
		{
			name:           "should resolve a restore",
			method:         http.MethodPut,
			path:           "/v1/users/u-42/restore",
			wantRoute:      "identity.users.restore",
			wantResourceID: "u-42",
		},
		{
			name:           "should resolve a destroy",
			method:         http.MethodDelete,
			path:           "/v1/users/u-42/destroy",
			wantRoute:      "identity.users.destroy",
			wantResourceID: "u-42",
		},
		{
			name:      "should strip query strings",
			method:    http.MethodGet,
			path:      "/v1/apps?name=demo",
			wantRoute: "domain.apps.find",
		},
		{
			name:    "should reject a path outside the service prefix",
			method:  http.MethodGet,
			path:    "/healthz",
			wantErr: true,
		},
		{
			name:    "should reject an unknown resource segment",
			method:  http.MethodGet,
			path:    "/v1/unknown",
			wantErr: true,
		},
		{
			name:    "should reject a method without an operation",
			method:  http.MethodPut,
			path:    "/v1/users/u-42",
			wantErr: true,
		},
		{
			name:    "should reject extra path segments",
			method:  http.MethodGet,
			path:    "/v1/users/u-42/what/ever",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			route, resourceID, err := resolver.ResolveRoute(test.method, test.path)
			if test.wantErr {
				c.Error(err)
				return
			}
			c.NoError(err)
			c.Equal(test.wantRoute, route)
			c.Equal(test.wantResourceID, resourceID)
		})
	}
}

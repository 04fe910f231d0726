package extauthz

import (
	"context"
	"testing"

	envoy_auth "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	envoy_type "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"github.com/pokt-network/poktroll/pkg/polylog/polyzero"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/wenex-org/platform-gateway/auth"
	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/envelope"
	"github.com/wenex-org/platform-gateway/gateway"
)

/* --------------------------------- Stage stubs -------------------------------- */

type stubResolver struct {
	identity auth.CallerIdentity
	err      error
}

func (r *stubResolver) Resolve(context.Context, string) (auth.CallerIdentity, error) {
	return r.identity, r.err
}

type stubAuthorizer struct {
	permission authz.Permission
	err        error
}

func (a *stubAuthorizer) AuthorizeResource(context.Context, *authz.Policy, auth.CallerIdentity, string) (authz.Permission, error) {
	return a.permission, a.err
}

type stubLimiter struct{ err error }

func (l *stubLimiter) Admit(context.Context, string, string) error { return l.err }

func newTestAuthHandler(resolver *stubResolver, authorizer *stubAuthorizer) *AuthHandler {
	logger := polyzero.NewLogger()

	routes := gateway.NewRegistry()
	routes.MustRegister(gateway.Route{
		Name:          "identity.users.findById",
		Resource:      "identity.users",
		RequiredScope: "read:identity:users",
		Policy:        &authz.Policy{Action: "read", Resource: "identity.users"},
	})

	return &AuthHandler{
		Logger: logger,
		Pipeline: &gateway.Pipeline{
			Logger:   logger,
			Resolver: resolver,
			Policy:   authorizer,
			Limiter:  &stubLimiter{},
		},
		Routes:        routes,
		RouteResolver: &PathResolver{Surface: map[string]string{"users": "identity.users"}},
	}
}

func checkRequest(method, path string, headers map[string]string) *envoy_auth.CheckRequest {
	return &envoy_auth.CheckRequest{
		Attributes: &envoy_auth.AttributeContext{
			Request: &envoy_auth.AttributeContext_Request{
				Http: &envoy_auth.AttributeContext_HttpRequest{
					Method:  method,
					Path:    path,
					Headers: headers,
				},
			},
		},
	}
}

/* --------------------------------- Tests -------------------------------- */

func Test_Check(t *testing.T) {
	identity := auth.CallerIdentity{
		Subject: "user_1",
		Scopes:  []string{"read:identity:users"},
	}

	tests := []struct {
		name           string
		checkReq       *envoy_auth.CheckRequest
		resolver       *stubResolver
		authorizer     *stubAuthorizer
		wantStatusCode codes.Code
		wantHTTPCode   envoy_type.StatusCode
	}{
		{
			name:           "should return OK with envelope headers for an authorized call",
			checkReq:       checkRequest("GET", "/v1/users/u-1", map[string]string{"authorization": "Bearer token", "x-trace-id": "trace-1"}),
			resolver:       &stubResolver{identity: identity},
			authorizer:     &stubAuthorizer{permission: authz.AllowAll()},
			wantStatusCode: codes.OK,
		},
		{
			name:           "should deny with 401 for a bad credential",
			checkReq:       checkRequest("GET", "/v1/users/u-1", map[string]string{}),
			resolver:       &stubResolver{err: auth.ErrUnauthenticated},
			authorizer:     &stubAuthorizer{},
			wantStatusCode: codes.PermissionDenied,
			wantHTTPCode:   envoy_type.StatusCode_Unauthorized,
		},
		{
			name:           "should deny with 403 for a policy deny",
			checkReq:       checkRequest("GET", "/v1/users/u-1", map[string]string{"authorization": "Bearer token"}),
			resolver:       &stubResolver{identity: identity},
			authorizer:     &stubAuthorizer{err: authz.ErrForbidden},
			wantStatusCode: codes.PermissionDenied,
			wantHTTPCode:   envoy_type.StatusCode_Forbidden,
		},
		{
			name:           "should deny with a generic 403 for a policy engine outage",
			checkReq:       checkRequest("GET", "/v1/users/u-1", map[string]string{"authorization": "Bearer token"}),
			resolver:       &stubResolver{identity: identity},
			authorizer:     &stubAuthorizer{err: authz.ErrPolicyEngineUnavailable},
			wantStatusCode: codes.PermissionDenied,
			wantHTTPCode:   envoy_type.StatusCode_Forbidden,
		},
		{
			name:           "should deny with 404 for an unknown path shape",
			checkReq:       checkRequest("GET", "/metrics", map[string]string{}),
			resolver:       &stubResolver{},
			authorizer:     &stubAuthorizer{},
			wantStatusCode: codes.PermissionDenied,
			wantHTTPCode:   envoy_type.StatusCode_NotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			handler := newTestAuthHandler(test.resolver, test.authorizer)

			resp, err := handler.Check(context.Background(), test.checkReq)
			c.NoError(err)
			c.Equal(int32(test.wantStatusCode), resp.GetStatus().GetCode())

			if test.wantStatusCode == codes.OK {
				c.NotNil(resp.GetOkResponse())
				return
			}
			c.Equal(test.wantHTTPCode, resp.GetDeniedResponse().GetStatus().GetCode())
		})
	}
}

func Test_Check_EnvelopeHeaders(t *testing.T) {
	c := require.New(t)

	handler := newTestAuthHandler(
		&stubResolver{identity: auth.CallerIdentity{
			Subject: "user_1",
			Scopes:  []string{"read:identity:users"},
		}},
		&stubAuthorizer{permission: authz.AllowAll()},
	)

	resp, err := handler.Check(context.Background(), checkRequest("GET", "/v1/users/u-1", map[string]string{
		"authorization":   "Bearer token",
		"x-trace-id":      "trace-1",
		"x-locale":        "en-US",
		"x-forwarded-for": "10.0.0.1",
	}))
	c.NoError(err)

	headers := make(map[string]string)
	for _, h := range resp.GetOkResponse().GetHeaders() {
		headers[h.GetHeader().GetKey()] = h.GetHeader().GetValue()
	}

	c.Equal("user_1", headers[envelope.KeySubjectID])
	c.Equal("read:identity:users", headers[envelope.KeyScopes])
	c.Equal("trace-1", headers[envelope.KeyTraceID])
	c.Equal("en-US", headers[envelope.KeyLocale])
}

func Test_lastForwardedHop(t *testing.T) {
	tests := []struct {
		name string
		fwd  string
		want string
	}{
		{name: "should return empty for an absent header", fwd: "", want: ""},
		{name: "should keep a single hop", fwd: "10.0.0.1", want: "10.0.0.1"},
		{
			// Envoy appends the hop it observed; earlier entries arrive
			// from the client and cannot be trusted.
			name: "should take only the last hop of a chain",
			fwd:  "198.51.100.9, 10.0.0.1",
			want: "10.0.0.1",
		},
		{name: "should trim whitespace", fwd: " 10.0.0.1 ", want: "10.0.0.1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, lastForwardedHop(test.fwd))
		})
	}
}

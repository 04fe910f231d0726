// Package extauthz exposes the admission pipeline as an Envoy External
// Authorization gRPC service, for deployments where the gateway sits behind
// an Envoy edge proxy. The same stages run in the same order as on the HTTP
// surface; admitted requests get the outbound envelope fields set as
// upstream headers so backends behind Envoy see the same contract.
package extauthz

import (
	"context"
	"fmt"
	"strings"

	envoy_core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	envoy_auth "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	envoy_type "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"github.com/pokt-network/poktroll/pkg/polylog"
	"google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"

	"github.com/wenex-org/platform-gateway/envelope"
	"github.com/wenex-org/platform-gateway/gateway"
	"github.com/wenex-org/platform-gateway/reqctx"
)

const errBody = `{"code": %d, "message": "%s"}`

// AuthHandler implements the Envoy ext_authz Check method on top of the
// admission pipeline.
type AuthHandler struct {
	Logger polylog.Logger

	Pipeline *gateway.Pipeline
	Routes   *gateway.Registry

	// RouteResolver maps an HTTP request path and method to a route name
	// in the route table.
	RouteResolver RouteResolver
}

// RouteResolver maps the attributes of an Envoy check request to the name
// of a declared route.
type RouteResolver interface {
	ResolveRoute(method, path string) (routeName, resourceID string, err error)
}

// Check runs the admission pipeline for the request described by the Envoy
// check request and returns an OK response carrying the envelope headers,
// or a denied response with the transport-appropriate status.
func (h *AuthHandler) Check(
	ctx context.Context,
	checkReq *envoy_auth.CheckRequest,
) (*envoy_auth.CheckResponse, error) {
	req := checkReq.GetAttributes().GetRequest().GetHttp()
	if req == nil {
		return deniedCheckResponse("HTTP request not found", envoy_type.StatusCode_BadRequest), nil
	}

	path := req.GetPath()
	if path == "" {
		return deniedCheckResponse("path not provided", envoy_type.StatusCode_BadRequest), nil
	}

	headers := req.GetHeaders()

	routeName, resourceID, err := h.RouteResolver.ResolveRoute(req.GetMethod(), path)
	if err != nil {
		h.Logger.Debug().Err(err).Str("path", path).Msg("unable to resolve route from request")
		return deniedCheckResponse("unknown operation", envoy_type.StatusCode_NotFound), nil
	}

	route, ok := h.Routes.Get(routeName)
	if !ok {
		return deniedCheckResponse("unknown operation", envoy_type.StatusCode_NotFound), nil
	}

	_, cc, err := h.Pipeline.Admit(ctx, route, admitRequestFromCheck(headers, resourceID))
	if err != nil {
		return deniedResponseForError(err), nil
	}

	return okCheckResponse(envelopeHeaders(cc)), nil
}

/* --------------------------------- Helpers -------------------------------- */

// admitRequestFromCheck builds the pipeline's transport-neutral input from
// the Envoy request headers.
func admitRequestFromCheck(headers map[string]string, resourceID string) gateway.AdmitRequest {
	return gateway.AdmitRequest{
		Credential: bearerFromHeaders(headers),
		ClientIP:   lastForwardedHop(headers["x-forwarded-for"]),
		TraceID:    headers["x-trace-id"],
		Locale:     headers["x-locale"],
		ResourceID: resourceID,
	}
}

// lastForwardedHop returns the right-most x-forwarded-for entry, the one
// Envoy appended itself. Everything to its left is client-controlled.
func lastForwardedHop(fwd string) string {
	hops := strings.Split(fwd, ",")
	return strings.TrimSpace(hops[len(hops)-1])
}

func bearerFromHeaders(headers map[string]string) string {
	authHeader := headers["authorization"]
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	}
	return authHeader
}

// envelopeHeaders renders the call's outbound envelope as upstream HTTP
// headers, preserving the pinned envelope field names.
func envelopeHeaders(cc reqctx.CallContext) []*envoy_core.HeaderValueOption {
	md := envelope.FromCallContext(cc)

	var headers []*envoy_core.HeaderValueOption
	for _, key := range []string{envelope.KeySubjectID, envelope.KeyScopes, envelope.KeyTraceID, envelope.KeyLocale} {
		values := md.Get(key)
		if len(values) == 0 || values[0] == "" {
			continue
		}
		headers = append(headers, &envoy_core.HeaderValueOption{
			Header: &envoy_core.HeaderValue{
				Key:   key,
				Value: values[0],
			},
		})
	}
	return headers
}

// deniedResponseForError maps a pipeline error to the Envoy denial shape.
func deniedResponseForError(err error) *envoy_auth.CheckResponse {
	switch gateway.Outcome(err) {
	case gateway.OutcomeUnauthenticated:
		return deniedCheckResponse("unauthenticated", envoy_type.StatusCode_Unauthorized)
	case gateway.OutcomeForbidden, gateway.OutcomePolicyUnavailable:
		return deniedCheckResponse("forbidden", envoy_type.StatusCode_Forbidden)
	case gateway.OutcomeRateLimited:
		return deniedCheckResponse("rate limit exceeded", envoy_type.StatusCode_TooManyRequests)
	default:
		return deniedCheckResponse("internal error", envoy_type.StatusCode_InternalServerError)
	}
}

// deniedCheckResponse returns a CheckResponse with a denied status and error message.
func deniedCheckResponse(err string, httpCode envoy_type.StatusCode) *envoy_auth.CheckResponse {
	return &envoy_auth.CheckResponse{
		Status: &status.Status{
			Code:    int32(codes.PermissionDenied),
			Message: err,
		},
		HttpResponse: &envoy_auth.CheckResponse_DeniedResponse{
			DeniedResponse: &envoy_auth.DeniedHttpResponse{
				Status: &envoy_type.HttpStatus{
					Code: httpCode,
				},
				Body: fmt.Sprintf(errBody, httpCode, err),
			},
		},
	}
}

// okCheckResponse returns a CheckResponse with an OK status and the provided headers.
func okCheckResponse(headers []*envoy_core.HeaderValueOption) *envoy_auth.CheckResponse {
	return &envoy_auth.CheckResponse{
		Status: &status.Status{
			Code:    int32(codes.OK),
			Message: "ok",
		},
		HttpResponse: &envoy_auth.CheckResponse_OkResponse{
			OkResponse: &envoy_auth.OkHttpResponse{
				Headers: headers,
			},
		},
	}
}

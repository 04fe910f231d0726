package extauthz

import (
	"fmt"
	"net"

	envoy_auth "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	"github.com/pokt-network/poktroll/pkg/polylog"
	"google.golang.org/grpc"
)

// Serve registers the auth handler as an Envoy Authorization server and
// serves it on addr. Blocks until the listener fails.
func Serve(logger polylog.Logger, addr string, handler *AuthHandler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	envoy_auth.RegisterAuthorizationServer(grpcServer, handler)

	logger.Info().Str("addr", addr).Msg("ext_authz server listening")

	return grpcServer.Serve(listener)
}

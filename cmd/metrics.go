package main

import (
	"context"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/wenex-org/platform-gateway/metrics"
)

const (
	// pprofAddr is the address at which pprof server will be listening.
	// This address is selected based on the following link's examples:
	// https://pkg.go.dev/net/http/pprof
	pprofAddr = ":6060"

	// prometheusMetricsServerAddr is the address at which the prometheus metrics server will be listening.
	prometheusMetricsServerAddr = ":9090"

	// extAuthzServerAddr is the address at which the Envoy ext_authz gRPC
	// server will be listening.
	extAuthzServerAddr = ":10003"
)

// setupMetricsServer initializes and starts the Prometheus metrics server at the supplied address.
func setupMetricsServer(logger polylog.Logger, addr string) (*metrics.PrometheusReporter, error) {
	pr := &metrics.PrometheusReporter{
		Logger: logger,
	}

	if err := pr.ServeMetrics(addr); err != nil {
		return nil, err
	}

	return pr, nil
}

// setupPprofServer starts the metric package's pprof server, at the supplied address.
func setupPprofServer(ctx context.Context, logger polylog.Logger, addr string) {
	metrics.ServePprof(ctx, logger, addr)
}

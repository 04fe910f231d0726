package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const endpointMetrics = "/metrics"

// ServeMetrics starts a metrics server on the given address.
func (pr *PrometheusReporter) ServeMetrics(addr string) error {
	// Start the server in a new goroutine
	go func() {
		pr.Logger.Info().Str("endpoint_addr", addr).Msg("starting Prometheus reporter to serve metrics asynchronously.")
		http.Handle(endpointMetrics, promhttp.Handler())
		if err := http.ListenAndServe(addr, nil); err != nil {
			pr.Logger.Error().Err(err).Msg("prometheus metrics reporter failed starting server")
			return
		}
	}()

	return nil
}

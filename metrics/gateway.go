// Package metrics provides and encapsulates all the functionality related
// to exporting metrics on the gateway's admission pipeline.
package metrics

import (
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog"
	"github.com/prometheus/client_golang/prometheus"
)

// See the metrics initialization below for details.
const (
	gatewayProcess = "gateway"

	admissionsTotal          = "admissions_total"
	admissionDurationSeconds = "admission_duration_seconds"
)

func init() {
	prometheus.MustRegister(pipelineAdmissionsTotal)
	prometheus.MustRegister(pipelineAdmissionDuration)
}

var (
	// pipelineAdmissionsTotal counts admission decisions per route.
	// It increments once per inbound call with labels:
	//   - route: the operation name, e.g. "identity.users.findById"
	//   - outcome: admitted, unauthenticated, forbidden,
	//     policy_engine_unavailable, rate_limited, internal
	//
	// Usage:
	// - Alert on policy_engine_unavailable spikes (engine outage, not
	//   caller misbehavior).
	// - Distinguish real denials from outages without inspecting logs.
	pipelineAdmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: gatewayProcess,
			Name:      admissionsTotal,
			Help:      "Total number of admission decisions, labeled by route and outcome.",
		},
		[]string{"route", "outcome"},
	)

	// pipelineAdmissionDuration measures the latency of the full
	// admission pipeline (identity, scope, policy, rate limit) per route.
	// Buckets cover the cached fast path (<5ms) up to a slow policy
	// engine round trip.
	pipelineAdmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: gatewayProcess,
			Name:      admissionDurationSeconds,
			Help:      "Histogram of admission pipeline latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"route"},
	)
)

// PrometheusReporter satisfies the gateway.AdmissionReporter interface.
type PrometheusReporter struct {
	Logger polylog.Logger
}

// PublishAdmission exports one admission decision.
func (pr *PrometheusReporter) PublishAdmission(route, outcome string, duration time.Duration) {
	pipelineAdmissionsTotal.With(prometheus.Labels{"route": route, "outcome": outcome}).Inc()
	pipelineAdmissionDuration.With(prometheus.Labels{"route": route}).Observe(duration.Seconds())
}

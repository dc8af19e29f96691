package banking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankctl_api_requests_total",
		Help: "Banking API requests by operation and status class",
	}, []string{
		"operation",    // authenticate|transfer|validate|balance|accounts|history
		"status_class", // 2xx|4xx|5xx|error
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankctl_api_retries_total",
		Help: "Retried banking API attempts by operation",
	}, []string{"operation"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bankctl_api_request_duration_seconds",
		Help:    "Banking API request duration including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bankctl_circuit_breaker_state",
		Help: "Circuit breaker state (1 for the active state label)",
	}, []string{"state"})
)

func statusClass(status int, err error) string {
	switch {
	case err != nil && status == 0:
		return "error"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 200:
		return "2xx"
	default:
		return "error"
	}
}

func observeRequest(operation string, status int, seconds float64, err error) {
	requestsTotal.WithLabelValues(operation, statusClass(status, err)).Inc()
	requestDuration.WithLabelValues(operation).Observe(seconds)
}

func observeRetry(operation string) {
	retriesTotal.WithLabelValues(operation).Inc()
}

func setCircuitBreakerState(state string) {
	for _, s := range []string{"closed", "open", "half-open"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		circuitBreakerState.WithLabelValues(s).Set(v)
	}
}

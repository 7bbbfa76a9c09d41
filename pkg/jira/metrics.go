package jira

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the optional Prometheus instrumentation of a Client.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewMetrics creates the client metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jira_client",
				Name:      "requests_total",
				Help:      "Total number of requests by operation and outcome",
			},
			[]string{"operation", "method", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jira_client",
				Name:      "request_duration_seconds",
				Help:      "End-to-end request latency including token acquisition",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"operation", "method"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jira_client",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently executing",
			},
		),
	}
}

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(operation, method string, err error, d time.Duration) {
	m.RequestsTotal.WithLabelValues(operation, method, outcome(err)).Inc()
	m.RequestDuration.WithLabelValues(operation, method).Observe(d.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrAuthentication):
		return "authentication_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	default:
		return "transport_error"
	}
}

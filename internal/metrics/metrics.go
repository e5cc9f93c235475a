// Package metrics owns the Prometheus registry and the collectors the API
// records into.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stridelog"

// Manager groups the application's collectors.
type Manager struct {
	CounterRequests      *prometheus.CounterVec
	HistRequestDuration  *prometheus.HistogramVec
	CounterWebhookEvents *prometheus.CounterVec
	CounterRateLimited   prometheus.Counter
}

// NewRegistry returns a private registry with build info, Go runtime and
// process collectors plus any extra collectors (e.g. the pgx pool).
func NewRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(extra...)
	return reg
}

// NewManager registers the application collectors with reg.
func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CounterWebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Strava webhook events by aspect type and outcome",
		}, []string{"aspect", "status"}),
		CounterRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// NewTestManager returns a Manager bound to a fresh registry.
func NewTestManager() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(reg), reg
}

// WebhookEvent counts one processed webhook.
func (m *Manager) WebhookEvent(aspect, status string) {
	if m == nil {
		return
	}
	m.CounterWebhookEvents.WithLabelValues(aspect, status).Inc()
}

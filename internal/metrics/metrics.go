package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	BookingsCreated    *prometheus.CounterVec
	ProofUploads       *prometheus.CounterVec
	OrphanedProofs     prometheus.Counter
	EnrichmentRequests *prometheus.CounterVec
	EnrichmentLatency  *prometheus.HistogramVec
	LiveSubscriptions  *prometheus.GaugeVec
	ChatMessages       *prometheus.CounterVec
	Errors             *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		prometheus.MustRegister(metricsInstance.collectors()...)
	})
	return metricsInstance
}

// New builds unregistered collectors; tests use it to avoid the global registry.
func New(namespace string) *Metrics {
	return &Metrics{
		BookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created by kind.",
		}, []string{"kind"}),
		ProofUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_proofs_total",
			Help:      "Payment proof uploads by kind and outcome.",
		}, []string{"kind", "outcome"}),
		OrphanedProofs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_proofs_orphaned_total",
			Help:      "Uploaded proof blobs whose booking update failed.",
		}),
		EnrichmentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_requests_total",
			Help:      "Detail-page enrichment calls by section and status.",
		}, []string{"section", "status"}),
		EnrichmentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_request_duration_seconds",
			Help:      "Latency distribution for enrichment calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"section"}),
		LiveSubscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscriptions",
			Help:      "Open live subscriptions by feed.",
		}, []string{"feed"}),
		ChatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages appended by sender.",
		}, []string{"sender"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors grouped by component.",
		}, []string{"component"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BookingsCreated,
		m.ProofUploads,
		m.OrphanedProofs,
		m.EnrichmentRequests,
		m.EnrichmentLatency,
		m.LiveSubscriptions,
		m.ChatMessages,
		m.Errors,
		m.HTTPRequests,
		m.HTTPDuration,
	}
}

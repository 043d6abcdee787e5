package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the cost/traffic sink consumed by the Mirror Node client and
// the cache service. The SDK transaction and rate-limit series are
// registered, but no component in this module records to them. Exposing it
// over HTTP is a transport
// concern (out of scope per spec.md); components only Inc/Observe against
// whatever registry the caller constructed this from.
type Metrics struct {
	MirrorNodeRequests  *prometheus.CounterVec
	MirrorNodeLatency   *prometheus.HistogramVec
	SDKTransactionCost  *prometheus.HistogramVec
	SDKTransactionCount *prometheus.CounterVec
	CacheHits           *prometheus.CounterVec
	CacheMisses         *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
}

// NewMetrics registers the relay's counters/histograms against reg and
// returns the sink. Passing prometheus.NewRegistry() keeps tests isolated
// from the process-wide default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MirrorNodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiero_relay",
			Subsystem: "mirror_node",
			Name:      "requests_total",
			Help:      "Mirror Node REST requests by endpoint and status class.",
		}, []string{"endpoint", "status"}),
		MirrorNodeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hiero_relay",
			Subsystem: "mirror_node",
			Name:      "request_duration_seconds",
			Help:      "Mirror Node REST request latency.",
		}, []string{"endpoint"}),
		SDKTransactionCost: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hiero_relay",
			Subsystem: "sdk",
			Name:      "transaction_cost_tinybars",
			Help:      "Consensus-node transaction cost in tinybars.",
		}, []string{"constructor_name"}),
		SDKTransactionCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiero_relay",
			Subsystem: "sdk",
			Name:      "transactions_total",
			Help:      "Consensus-node transactions executed by outcome.",
		}, []string{"constructor_name", "outcome"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiero_relay",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by tier.",
		}, []string{"tier"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiero_relay",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses.",
		}, []string{"method"}),
		RateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiero_relay",
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"method"}),
	}

	reg.MustRegister(
		m.MirrorNodeRequests, m.MirrorNodeLatency,
		m.SDKTransactionCost, m.SDKTransactionCount,
		m.CacheHits, m.CacheMisses, m.RateLimitRejections,
	)
	return m
}

// Package metrics registers the handful of counters/gauges the core
// exposes (SPEC_FULL.md "Metrics"): nothing in §4's state machine depends
// on these being read — losing the registry loses visibility, not
// correctness.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups the core's metrics so a caller can mount them on its
// own promhttp.Handler; the core never imports net/http itself.
type Registry struct {
	BindingsOutstanding prometheus.Gauge
	Binds               *prometheus.CounterVec
	BytesRead           prometheus.Counter
	UpstreamForwards    prometheus.Counter
}

// NewRegistry constructs and registers a fresh Registry against reg. Pass
// prometheus.NewRegistry() in tests to avoid polluting the global
// DefaultRegisterer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		BindingsOutstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bithorded",
			Name:      "bindings_outstanding",
			Help:      "Number of asset bindings currently live across all sessions.",
		}),
		Binds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bithorded",
			Name:      "binds_total",
			Help:      "BindRead outcomes, partitioned by resulting status.",
		}, []string{"status"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bithorded",
			Name:      "bytes_read_total",
			Help:      "Bytes returned in Read.Response payloads.",
		}),
		UpstreamForwards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bithorded",
			Name:      "upstream_forwards_total",
			Help:      "BindRead requests forwarded to an upstream session.",
		}),
	}
	reg.MustRegister(r.BindingsOutstanding, r.Binds, r.BytesRead, r.UpstreamForwards)
	return r
}

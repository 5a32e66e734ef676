package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		contentGenLatencyMs,
		indexFailuresTotal,
	)
}

var (
	contentGenLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_generation_latency_ms",
			Help:    "Content generation call latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"provider", "kind", "success"},
	)

	indexFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_index_failures_total",
			Help: "Fire-and-forget indexing tasks that failed (writes unaffected).",
		},
	)
)

func ObserveContentGeneration(provider, kind string, success bool, ms float64) {
	s := "false"
	if success {
		s = "true"
	}
	contentGenLatencyMs.WithLabelValues(norm(provider), norm(kind), s).Observe(ms)
}

func IncIndexFailure() {
	indexFailuresTotal.Inc()
}

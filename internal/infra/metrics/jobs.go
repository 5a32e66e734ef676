package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(reconcilerRunsTotal)
}

var reconcilerRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_reconciler_runs_total",
		Help: "Reconciler attempts on stale pending payments, by outcome.",
	},
	[]string{"outcome"},
)

func IncReconcile(outcome string) {
	reconcilerRunsTotal.WithLabelValues(norm(outcome)).Inc()
}

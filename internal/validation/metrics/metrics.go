package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for validation passes.
type Metrics struct {
	Passes          *prometheus.CounterVec
	CascadeFailures prometheus.Counter
}

// New creates and registers all validation metrics.
func New() *Metrics {
	return &Metrics{
		Passes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catchcert_validation_passes_total",
			Help: "Validation passes by outcome state",
		}, []string{"state"}),
		CascadeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catchcert_cascade_failures_total",
			Help: "Sibling cascade updates that recorded a failure",
		}),
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the landing fetch and write path.
type Metrics struct {
	RegistryFetches      *prometheus.CounterVec
	RegistryFailures     *prometheus.CounterVec
	SourceFallbacks      prometheus.Counter
	LandingsPersisted    prometheus.Counter
	LandingsDeduplicated prometheus.Counter
}

// New creates and registers all landing metrics.
func New() *Metrics {
	return &Metrics{
		RegistryFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catchcert_registry_fetches_total",
			Help: "Registry fetch attempts by landing source",
		}, []string{"source"}),
		RegistryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catchcert_registry_failures_total",
			Help: "Registry fetch failures by landing source",
		}, []string{"source"}),
		SourceFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catchcert_source_fallbacks_total",
			Help: "Times the fetcher fell back from declarations to electronic logs",
		}),
		LandingsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catchcert_landings_persisted_total",
			Help: "Landings upserted into the landing store",
		}),
		LandingsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "catchcert_landings_deduplicated_total",
			Help: "Fetched landings dropped as identical to stored state",
		}),
	}
}

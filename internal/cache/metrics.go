package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache outcomes. A nil *Metrics records nothing.
type Metrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	errors *prometheus.CounterVec
}

// NewMetrics registers the cache counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "todo",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups served from the store.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "todo",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that fell back to the source of truth.",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todo",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache store failures by operation.",
		}, []string{"op"}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) failed(op string) {
	if m != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}

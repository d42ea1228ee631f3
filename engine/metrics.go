package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts engine outcomes. Pass a nil registerer to keep the counters
// unregistered (library embeddings, tests).
type Metrics struct {
	Pulls     prometheus.Counter
	Pushes    prometheus.Counter
	Conflicts prometheus.Counter
	Skips     prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Pulls: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosync_pulls_total",
			Help: "Successful pull operations.",
		}),
		Pushes: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosync_pushes_total",
			Help: "Successful push operations.",
		}),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosync_merge_conflicts_total",
			Help: "Pulls that stopped on a merge conflict needing manual resolution.",
		}),
		Skips: factory.NewCounter(prometheus.CounterOpts{
			Name: "autosync_skipped_operations_total",
			Help: "Operations skipped by interval, dirty-tree policy, or having nothing to push.",
		}),
	}
}

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the turn engine
// =============================================================================

var (
	// populationGauge is the total population after each turn.
	populationGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tellsim",
		Subsystem: "world",
		Name:      "population",
		Help:      "Total population across live settlements",
	})

	// entityGauge counts live entities.
	// Labels: kind (clans, settlements, clusters)
	entityGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tellsim",
		Subsystem: "world",
		Name:      "entities",
		Help:      "Live clans, settlements and clusters",
	}, []string{"kind"})

	// eventsTotal counts lifecycle events.
	// Labels: event (births, deaths, migrations, foundings, abandonments, splits, merges, pruned)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tellsim",
		Subsystem: "turn",
		Name:      "events_total",
		Help:      "Lifecycle events by kind",
	}, []string{"event"})

	// ritesQuality tracks the distribution of rites quality.
	ritesQuality = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tellsim",
		Subsystem: "rites",
		Name:      "quality",
		Help:      "Distribution of settlement rites quality",
		Buckets:   []float64{0.25, 0.5, 0.75, 1.0, 1.25, 1.5, 2.0, 3.0},
	})

	// turnDuration measures wall time per turn.
	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tellsim",
		Subsystem: "turn",
		Name:      "duration_seconds",
		Help:      "Wall time to advance one turn",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// turnFailures counts aborted turns.
	// Labels: phase
	turnFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tellsim",
		Subsystem: "turn",
		Name:      "failures_total",
		Help:      "Turns aborted by a fatal condition",
	}, []string{"phase"})
)

func observeRites(q float64) { ritesQuality.Observe(q) }

// recordTurn publishes the end-of-turn gauges and counters.
func (w *World) recordTurn(seconds float64) {
	populationGauge.Set(float64(w.Population()))
	entityGauge.WithLabelValues("clans").Set(float64(len(w.Registry.Clans())))
	entityGauge.WithLabelValues("settlements").Set(float64(len(w.Registry.LiveSettlements())))
	entityGauge.WithLabelValues("clusters").Set(float64(len(w.Registry.Clusters())))

	st := w.stats
	for event, n := range map[string]int{
		"births":       st.Births,
		"deaths":       st.Deaths,
		"migrations":   st.Migrations,
		"foundings":    st.Foundings,
		"abandonments": st.Abandonments,
		"splits":       st.Splits,
		"merges":       st.Merges,
		"pruned":       st.Pruned,
	} {
		eventsTotal.WithLabelValues(event).Add(float64(n))
	}
	turnDuration.Observe(seconds)
}

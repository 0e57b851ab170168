// Package metrics holds the prometheus collectors of the explanation
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "choco"
	subsystem = "explanation"
)

// Metrics counts explanations, the trail events they walk and the size of
// the reasons they produce.
type Metrics struct {
	// ExplanationsTotal counts Explain calls by contradiction shape.
	// Labels: seed (wipe_out, propagator)
	ExplanationsTotal *prometheus.CounterVec

	// EventsWalkedTotal counts trail events checked against the rules.
	EventsWalkedTotal prometheus.Counter

	// EventsMatchedTotal counts trail events that matched a rule.
	EventsMatchedTotal prometheus.Counter

	// ReasonSize observes the number of decisions and of propagators of
	// every reason.
	// Labels: part (decisions, propagators)
	ReasonSize *prometheus.HistogramVec

	// RefutationsTotal counts stored decision refutations.
	RefutationsTotal prometheus.Counter

	// TrailSize tracks the number of events on the trail.
	TrailSize prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExplanationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "explanations_total",
				Help:      "Total number of explanations computed by contradiction shape",
			},
			[]string{"seed"},
		),

		EventsWalkedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_walked_total",
			Help:      "Total number of trail events checked during explanations",
		}),

		EventsMatchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_matched_total",
			Help:      "Total number of trail events that matched an outstanding rule",
		}),

		ReasonSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reason_size",
				Help:      "Number of decisions and propagators per reason",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
			},
			[]string{"part"},
		),

		RefutationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "refutations_total",
			Help:      "Total number of stored decision refutations",
		}),

		TrailSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "trail_size",
			Help:      "Number of events on the trail of the current branch",
		}),
	}
}

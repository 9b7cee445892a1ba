// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parley"

// Metrics holds the gateway's collectors. One instance is wired through
// the transport handler and the event router.
type Metrics struct {
	Handshakes prometheus.Counter
	Polls      *prometheus.CounterVec // outcome: packet, empty, connect
	PacketsIn  *prometheus.CounterVec // transport frame type
	Events     *prometheus.CounterVec // event name (unknown folded to "other")
	Fanout     prometheus.Counter
	Evictions  prometheus.Counter
}

// New registers the collectors with reg. The session and room counts are
// sampled lazily through gauge functions so no bookkeeping leaks into core.
func New(reg prometheus.Registerer, sessions, rooms func() int) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of live sessions in the registry.",
	}, func() float64 { return float64(sessions()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Number of live rooms in the registry.",
	}, func() float64 { return float64(rooms()) })

	return &Metrics{
		Handshakes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Total handshake requests served.",
		}),
		Polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Total poll requests by outcome.",
		}, []string{"outcome"}),
		PacketsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_in_total",
			Help:      "Transport frames decoded from POST bodies, by type.",
		}, []string{"type"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Event packets routed, by event name.",
		}, []string{"event"}),
		Fanout: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_fanout_total",
			Help:      "Packets enqueued to sessions by room broadcasts.",
		}),
		Evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Sessions evicted by the idle sweep.",
		}),
	}
}
